// ABOUTME: Push and pull reconciliation between local appointments and Google Calendar
// ABOUTME: Stateless; each call works on the collection it is handed and returns a new one
package gcal

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harperreed/portal/models"
)

// EventSyncer is the part of Client the orchestrator drives.
type EventSyncer interface {
	IsAuthenticated() bool
	ListEvents(ctx context.Context, timeMin, timeMax *time.Time) ([]*calendar.Event, error)
	SyncEach(ctx context.Context, events []*calendar.Event) []SyncOutcome
}

// ItemFailure records why one item of a batch was not synced. Index is
// the position in the input collection (push) or the listed events (pull).
type ItemFailure struct {
	Index int
	Title string
	Err   error
}

func (f ItemFailure) Error() string {
	return fmt.Sprintf("%q: %s", f.Title, DescribeError(f.Err))
}

type PushResult struct {
	Appointments []models.Appointment
	SuccessCount int
	Total        int
	Failures     []ItemFailure
}

// Summary renders the "N of M synced" line.
func (r *PushResult) Summary() string {
	if r.Total == 0 {
		return "Nothing to sync"
	}
	return fmt.Sprintf("%d of %d synced", r.SuccessCount, r.Total)
}

type PullResult struct {
	Appointments  []models.Appointment
	Imported      []models.Appointment
	ImportedCount int
	Skipped       int
	Failures      []ItemFailure
}

func (r *PullResult) Summary() string {
	if r.ImportedCount == 0 && r.Skipped == 0 && len(r.Failures) == 0 {
		return "Nothing to import"
	}
	return fmt.Sprintf("%d imported, %d already present", r.ImportedCount, r.Skipped)
}

// Orchestrator reconciles appointments with the calendar.
type Orchestrator struct {
	client EventSyncer
	loc    *time.Location
	now    func() time.Time
}

// NewOrchestrator creates an orchestrator rendering event times in loc.
func NewOrchestrator(client EventSyncer, loc *time.Location) *Orchestrator {
	if loc == nil {
		loc = time.UTC
	}
	return &Orchestrator{client: client, loc: loc, now: time.Now}
}

// Push creates or updates an event for every appointment. Successful items
// get the returned event id attached; failed items come back unchanged.
// The input slice is not modified.
func (o *Orchestrator) Push(ctx context.Context, appts []models.Appointment) (*PushResult, error) {
	result := &PushResult{
		Appointments: append([]models.Appointment{}, appts...),
		Total:        len(appts),
	}
	if len(appts) == 0 {
		return result, nil
	}
	if !o.client.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	events := make([]*calendar.Event, 0, len(appts))
	positions := make([]int, 0, len(appts))
	for i, appt := range appts {
		event, err := ToExternalEvent(appt, o.loc)
		if err != nil {
			result.Failures = append(result.Failures, ItemFailure{Index: i, Title: appt.Title, Err: err})
			continue
		}
		events = append(events, event)
		positions = append(positions, i)
	}

	if len(events) > 0 {
		for j, outcome := range o.client.SyncEach(ctx, events) {
			i := positions[j]
			if !outcome.OK() || outcome.Event.Id == "" {
				err := outcome.Err
				if err == nil {
					err = fmt.Errorf("calendar returned no event id")
				}
				result.Failures = append(result.Failures, ItemFailure{Index: i, Title: appts[i].Title, Err: err})
				continue
			}
			result.Appointments[i].ExternalEventID = outcome.Event.Id
			result.SuccessCount++
		}
	}

	sortFailures(result.Failures)
	return result, nil
}

// Pull imports events from the default window that are not present
// locally, appending them after the existing appointments.
func (o *Orchestrator) Pull(ctx context.Context, appts []models.Appointment) (*PullResult, error) {
	events, err := o.client.ListEvents(ctx, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to pull calendar events: %w", err)
	}

	result := &PullResult{
		Appointments: append([]models.Appointment{}, appts...),
	}
	if len(events) == 0 {
		return result, nil
	}

	now := o.now()
	matcher := NewEventMatcher(appts)
	for i, event := range events {
		appt, err := ToLocalAppointment(event, now)
		if err != nil {
			title := ""
			if event != nil {
				title = event.Summary
			}
			result.Failures = append(result.Failures, ItemFailure{Index: i, Title: title, Err: err})
			continue
		}
		if matcher.Has(appt.ExternalEventID) {
			result.Skipped++
			continue
		}
		matcher.Add(appt.ExternalEventID)
		result.Imported = append(result.Imported, appt)
	}

	result.Appointments = append(result.Appointments, result.Imported...)
	result.ImportedCount = len(result.Imported)
	return result, nil
}

func sortFailures(failures []ItemFailure) {
	slices.SortStableFunc(failures, func(a, b ItemFailure) int {
		return cmp.Compare(a.Index, b.Index)
	})
}
