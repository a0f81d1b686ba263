// ABOUTME: Google Calendar sync CLI commands
// ABOUTME: Push the agenda out, pull new events in, list remote events, and show sync state
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/harperreed/portal/db"
	"github.com/harperreed/portal/gcal"
)

func requireSignedIn(app *App) error {
	if !app.Session.IsAuthenticated() {
		return fmt.Errorf("not signed in to Google. Run 'portal auth login' first")
	}
	return nil
}

func printFailures(failures []gcal.ItemFailure) {
	for _, f := range failures {
		fmt.Printf("  ✗ %s\n", f.Error())
	}
}

// CalendarPushCommand sends appointments to Google Calendar.
func CalendarPushCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("calendar push", flag.ExitOnError)
	status := fs.String("status", "", "Only push appointments with this status")
	from := fs.String("from", "", "Only push appointments at or after this time")
	to := fs.String("to", "", "Only push appointments before this time")
	_ = fs.Parse(args)

	if err := requireSignedIn(app); err != nil {
		return err
	}

	loc := app.Config.Location()
	filter := db.AppointmentFilter{Status: *status}
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("Pushing agenda to Google Calendar...")
	result, err := app.Runner.Push(ctx, filter)
	if err != nil {
		if errors.Is(err, gcal.ErrNotAuthenticated) {
			return fmt.Errorf("not signed in to Google. Run 'portal auth login' first")
		}
		return fmt.Errorf("calendar push failed: %s", gcal.DescribeError(err))
	}

	if result.Total == 0 {
		fmt.Println("  → Nothing to sync")
		return nil
	}

	fmt.Printf("✓ %s\n", result.Summary())
	printFailures(result.Failures)
	return nil
}

// CalendarPullCommand imports calendar events for the next month.
func CalendarPullCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("calendar pull", flag.ExitOnError)
	_ = fs.Parse(args)

	if err := requireSignedIn(app); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("Importing from Google Calendar...")
	result, err := app.Runner.Pull(ctx)
	if err != nil {
		return fmt.Errorf("calendar pull failed: %s", gcal.DescribeError(err))
	}

	loc := app.Config.Location()
	for _, a := range result.Imported {
		fmt.Printf("  → %s  %s\n", a.ScheduledAt.In(loc).Format("2006-01-02 15:04"), a.Title)
	}
	fmt.Printf("✓ %s\n", result.Summary())
	printFailures(result.Failures)
	return nil
}

// CalendarListCommand lists events on the remote calendar.
func CalendarListCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("calendar list", flag.ExitOnError)
	from := fs.String("from", "", "Window start (default: now)")
	to := fs.String("to", "", "Window end (default: one month from now)")
	_ = fs.Parse(args)

	if err := requireSignedIn(app); err != nil {
		return err
	}

	loc := app.Config.Location()
	var timeMin, timeMax *time.Time
	if *from != "" {
		t, err := parseTime(*from, loc)
		if err != nil {
			return err
		}
		timeMin = &t
	}
	if *to != "" {
		t, err := parseTime(*to, loc)
		if err != nil {
			return err
		}
		timeMax = &t
	}

	events, err := app.Client.ListEvents(context.Background(), timeMin, timeMax)
	if err != nil {
		return fmt.Errorf("failed to list events: %s", gcal.DescribeError(err))
	}

	if len(events) == 0 {
		fmt.Println("No calendar events in this window")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "START\tSUMMARY\tSTATUS\tEVENT ID")
	_, _ = fmt.Fprintln(w, "-----\t-------\t------\t--------")
	for _, ev := range events {
		start := "-"
		if ev.Start != nil {
			start = ev.Start.DateTime
			if start == "" {
				start = ev.Start.Date
			}
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", start, dash(ev.Summary), gcal.ColorStatus(ev.ColorId), ev.Id)
	}
	_ = w.Flush()

	fmt.Printf("\nTotal: %d event(s)\n", len(events))
	return nil
}

// CalendarStatusCommand shows push/pull bookkeeping.
func CalendarStatusCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("calendar status", flag.ExitOnError)
	logs := fs.Int("log", 10, "Recent sync log entries to show per direction")
	_ = fs.Parse(args)

	states, err := db.GetAllSyncStates(app.DB)
	if err != nil {
		return err
	}

	if len(states) == 0 {
		fmt.Println("No calendar sync has run yet")
	}

	loc := app.Config.Location()
	for _, state := range states {
		last := "never"
		if state.LastSyncTime != nil {
			last = state.LastSyncTime.In(loc).Format("2006-01-02 15:04")
		}
		fmt.Printf("%-14s %-8s last: %s\n", state.Service, state.Status, last)
		if state.ErrorMessage != nil {
			fmt.Printf("  ✗ %s\n", *state.ErrorMessage)
		}
	}

	for _, service := range []string{db.ServiceCalendarPush, db.ServiceCalendarPull} {
		entries, err := db.ListSyncLogs(app.DB, service, *logs)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			continue
		}
		fmt.Printf("\nRecent %s:\n", service)
		for _, e := range entries {
			fmt.Printf("  %s  #%d  %s  (%s)\n", e.ImportedAt.In(loc).Format("2006-01-02 15:04"), e.EntityID, e.Metadata, e.SourceID)
		}
	}

	return nil
}
