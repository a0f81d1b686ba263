// ABOUTME: Export CLI command
// ABOUTME: Writes the agenda as an iCalendar file for other calendar apps
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harperreed/portal/db"
	"github.com/harperreed/portal/export"
)

// ExportICSCommand writes appointments as .ics to a file or stdout.
func ExportICSCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("export ics", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	status := fs.String("status", "", "Only export appointments with this status")
	_ = fs.Parse(args)

	appts, err := db.ListAppointments(database, db.AppointmentFilter{Status: *status})
	if err != nil {
		return fmt.Errorf("failed to list appointments: %w", err)
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if err := export.WriteICS(w, appts, time.Now()); err != nil {
		return err
	}

	if *output != "" {
		fmt.Printf("✓ Exported %d appointment(s) to %s\n", len(appts), *output)
	}
	return nil
}
