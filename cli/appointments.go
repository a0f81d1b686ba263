// ABOUTME: Agenda CLI commands
// ABOUTME: Add, list, update and delete appointments from the terminal
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harperreed/portal/db"
	"github.com/harperreed/portal/gcal"
	"github.com/harperreed/portal/models"
)

var timeLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseTime accepts RFC3339 or a local wall-clock time in loc.
func parseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q (use \"2006-01-02 15:04\" or RFC3339)", s)
}

// resolveContact finds a contact by name within a client.
func resolveContact(database *sql.DB, name string, clientID *int64) (*models.Contact, error) {
	contacts, err := db.FindContacts(database, name, clientID, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to lookup contact: %w", err)
	}
	for i := range contacts {
		if strings.EqualFold(contacts[i].Name, name) {
			return &contacts[i], nil
		}
	}
	if len(contacts) == 1 {
		return &contacts[0], nil
	}
	return nil, fmt.Errorf("contact %q not found", name)
}

// AddAppointmentCommand adds an appointment to the agenda.
func AddAppointmentCommand(database *sql.DB, loc *time.Location, args []string) error {
	fs := flag.NewFlagSet("agenda add", flag.ExitOnError)
	title := fs.String("title", "", "Appointment title (required)")
	when := fs.String("when", "", "Scheduled time, e.g. \"2026-03-10 14:00\" (required)")
	end := fs.String("end", "", "End time (default: one hour after start)")
	description := fs.String("description", "", "Notes shown on the calendar event")
	clientName := fs.String("client", "", "Client name (created if missing)")
	contactName := fs.String("contact", "", "Contact name at the client")
	status := fs.String("status", models.StatusScheduled, "Status: scheduled, in_progress, done, canceled")
	priority := fs.String("priority", models.PriorityMedium, "Priority: low, medium, high")
	_ = fs.Parse(args)

	if *title == "" {
		return fmt.Errorf("--title is required")
	}
	if *when == "" {
		return fmt.Errorf("--when is required")
	}

	scheduled, err := parseTime(*when, loc)
	if err != nil {
		return err
	}

	appt := &models.Appointment{
		Title:       *title,
		Description: *description,
		ScheduledAt: scheduled,
		Status:      *status,
		Priority:    *priority,
	}

	if *end != "" {
		endAt, err := parseTime(*end, loc)
		if err != nil {
			return err
		}
		appt.StartAt = &scheduled
		appt.EndAt = &endAt
	}

	if *clientName != "" {
		client, err := resolveClient(database, *clientName)
		if err != nil {
			return err
		}
		appt.ClientID = &client.ID
	}
	if *contactName != "" {
		contact, err := resolveContact(database, *contactName, appt.ClientID)
		if err != nil {
			return err
		}
		appt.ContactID = &contact.ID
	}

	if err := appt.Validate(); err != nil {
		return err
	}
	if err := db.CreateAppointment(database, appt); err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	fmt.Printf("✓ Appointment created: %s (ID: %d)\n", appt.Title, appt.ID)
	fmt.Printf("  When: %s\n", appt.ScheduledAt.In(loc).Format("Mon Jan 2 2006 15:04"))
	if *clientName != "" {
		fmt.Printf("  Client: %s\n", *clientName)
	}

	return nil
}

// ListAppointmentsCommand lists appointments in scheduled order.
func ListAppointmentsCommand(database *sql.DB, loc *time.Location, args []string) error {
	fs := flag.NewFlagSet("agenda list", flag.ExitOnError)
	status := fs.String("status", "", "Filter by status")
	clientName := fs.String("client", "", "Filter by client name")
	from := fs.String("from", "", "Only appointments at or after this time")
	to := fs.String("to", "", "Only appointments before this time")
	unsynced := fs.Bool("unsynced", false, "Only appointments not yet on the calendar")
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	filter := db.AppointmentFilter{Status: *status, Limit: *limit}
	if *clientName != "" {
		client, err := db.FindClientByName(database, *clientName)
		if err != nil {
			return fmt.Errorf("failed to lookup client: %w", err)
		}
		if client == nil {
			fmt.Printf("No client named %q\n", *clientName)
			return nil
		}
		filter.ClientID = &client.ID
	}
	if *from != "" {
		t, err := parseTime(*from, loc)
		if err != nil {
			return err
		}
		filter.From = &t
	}
	if *to != "" {
		t, err := parseTime(*to, loc)
		if err != nil {
			return err
		}
		filter.To = &t
	}

	appts, err := db.ListAppointments(database, filter)
	if err != nil {
		return fmt.Errorf("failed to list appointments: %w", err)
	}

	if *unsynced {
		kept := appts[:0]
		for _, a := range appts {
			if !a.IsSynced() {
				kept = append(kept, a)
			}
		}
		appts = kept
	}

	if len(appts) == 0 {
		fmt.Println("No appointments found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tWHEN\tTITLE\tCLIENT\tSTATUS\tSYNCED")
	_, _ = fmt.Fprintln(w, "--\t----\t-----\t------\t------\t------")

	for _, a := range appts {
		synced := "-"
		if a.IsSynced() {
			synced = "✓"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.ScheduledAt.In(loc).Format("2006-01-02 15:04"), a.Title, dash(a.ClientName), a.Status, synced)
	}
	_ = w.Flush()

	fmt.Printf("\nTotal: %d appointment(s)\n", len(appts))
	return nil
}

// UpdateAppointmentCommand changes the given fields of one appointment.
// Flags must come before the id.
func UpdateAppointmentCommand(database *sql.DB, loc *time.Location, args []string) error {
	fs := flag.NewFlagSet("agenda update", flag.ExitOnError)
	title := fs.String("title", "", "New title")
	when := fs.String("when", "", "New scheduled time")
	end := fs.String("end", "", "New end time")
	description := fs.String("description", "", "New notes")
	status := fs.String("status", "", "New status")
	priority := fs.String("priority", "", "New priority")
	_ = fs.Parse(args)

	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}

	appt, err := db.GetAppointment(database, id)
	if err != nil {
		return fmt.Errorf("failed to load appointment: %w", err)
	}
	if appt == nil {
		return fmt.Errorf("appointment %d not found", id)
	}

	var parseErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			appt.Title = *title
		case "description":
			appt.Description = *description
		case "status":
			appt.Status = *status
		case "priority":
			appt.Priority = *priority
		case "when":
			t, err := parseTime(*when, loc)
			if err != nil {
				parseErr = err
				return
			}
			appt.ScheduledAt = t
			if appt.StartAt != nil {
				appt.StartAt = &t
			}
		case "end":
			t, err := parseTime(*end, loc)
			if err != nil {
				parseErr = err
				return
			}
			appt.EndAt = &t
		}
	})
	if parseErr != nil {
		return parseErr
	}

	if err := appt.Validate(); err != nil {
		return err
	}
	if err := db.UpdateAppointment(database, appt); err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	fmt.Printf("✓ Appointment updated: %s (ID: %d)\n", appt.Title, appt.ID)
	if appt.IsSynced() {
		fmt.Println("  Run 'portal calendar push' to send the change to Google Calendar")
	}
	return nil
}

// DeleteAppointmentCommand deletes an appointment, and with --remote its
// calendar event too.
func DeleteAppointmentCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("agenda delete", flag.ExitOnError)
	remote := fs.Bool("remote", false, "Also delete the Google Calendar event")
	_ = fs.Parse(args)

	id, err := parseID(fs.Arg(0))
	if err != nil {
		return err
	}

	appt, err := db.GetAppointment(app.DB, id)
	if err != nil {
		return fmt.Errorf("failed to load appointment: %w", err)
	}
	if appt == nil {
		return fmt.Errorf("appointment %d not found", id)
	}

	if *remote && appt.IsSynced() {
		fmt.Println("  → Deleting calendar event...")
		if err := app.Client.DeleteEvent(context.Background(), appt.ExternalEventID); err != nil {
			return fmt.Errorf("failed to delete calendar event: %s", gcal.DescribeError(err))
		}
		// A failed local delete must not leave a link to the removed event
		if err := db.SetExternalEventID(app.DB, id, ""); err != nil {
			return fmt.Errorf("failed to unlink calendar event: %w", err)
		}
	}

	if err := db.DeleteAppointment(app.DB, id); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	fmt.Printf("✓ Appointment deleted: %s\n", appt.Title)
	return nil
}

func parseID(raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("appointment id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid appointment id %q", raw)
	}
	return id, nil
}
