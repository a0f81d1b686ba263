// ABOUTME: Translation between local appointments and Google Calendar events
// ABOUTME: Pure functions covering end-time derivation, descriptions, and status colors
package gcal

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/harperreed/portal/models"
)

// DefaultDuration is added to a start time when an appointment has no end.
const DefaultDuration = time.Hour

// UntitledSummary is used when an imported event has an empty title.
const UntitledSummary = "Untitled"

// Google Calendar event color ids.
const (
	ColorScheduled     = "9"  // blueberry
	ColorInProgress    = "5"  // banana
	ColorDone          = "10" // basil
	ColorCanceled      = "11" // tomato
	ColorUncategorized = "8"  // graphite
)

var statusColors = map[string]string{
	models.StatusScheduled:  ColorScheduled,
	models.StatusInProgress: ColorInProgress,
	models.StatusDone:       ColorDone,
	models.StatusCanceled:   ColorCanceled,
}

var colorStatuses = map[string]string{
	ColorScheduled:  models.StatusScheduled,
	ColorInProgress: models.StatusInProgress,
	ColorDone:       models.StatusDone,
	ColorCanceled:   models.StatusCanceled,
}

// StatusColor maps an appointment status to a color id. Unknown statuses
// map to ColorUncategorized.
func StatusColor(status string) string {
	if c, ok := statusColors[status]; ok {
		return c
	}
	return ColorUncategorized
}

// ColorStatus maps a color id back to a status, defaulting to scheduled.
func ColorStatus(colorID string) string {
	if s, ok := colorStatuses[colorID]; ok {
		return s
	}
	return models.StatusScheduled
}

// EventWindow returns the start and end an appointment occupies on the calendar.
// End is the explicit end, else start+1h when only a start is set, else
// scheduled+1h.
func EventWindow(appt models.Appointment) (time.Time, time.Time) {
	start := appt.ScheduledAt
	if appt.StartAt != nil {
		start = *appt.StartAt
	}

	switch {
	case appt.EndAt != nil:
		return start, *appt.EndAt
	case appt.StartAt != nil:
		return start, appt.StartAt.Add(DefaultDuration)
	default:
		return start, appt.ScheduledAt.Add(DefaultDuration)
	}
}

// ComposeDescription builds the event body from client, contact and notes.
func ComposeDescription(appt models.Appointment) string {
	var header []string
	if appt.ClientName != "" {
		header = append(header, "Client: "+appt.ClientName)
	}
	if appt.ContactName != "" {
		header = append(header, "Contact: "+appt.ContactName)
	}

	desc := strings.TrimSpace(appt.Description)
	switch {
	case len(header) == 0:
		return desc
	case desc == "":
		return strings.Join(header, "\n")
	default:
		return strings.Join(header, "\n") + "\n\n" + desc
	}
}

// ToExternalEvent converts an appointment to a calendar event. Times are
// rendered in loc; a nil loc means UTC. The result carries Id when the
// appointment was synced before, which callers treat as "update".
func ToExternalEvent(appt models.Appointment, loc *time.Location) (*calendar.Event, error) {
	if strings.TrimSpace(appt.Title) == "" || appt.ScheduledAt.IsZero() {
		return nil, fmt.Errorf("incomplete appointment %d: %w", appt.ID, ErrValidation)
	}
	if loc == nil {
		loc = time.UTC
	}

	start, end := EventWindow(appt)

	event := &calendar.Event{
		Id:          appt.ExternalEventID,
		Summary:     appt.Title,
		Description: ComposeDescription(appt),
		Start: &calendar.EventDateTime{
			DateTime: start.In(loc).Format(time.RFC3339),
			TimeZone: loc.String(),
		},
		End: &calendar.EventDateTime{
			DateTime: end.In(loc).Format(time.RFC3339),
			TimeZone: loc.String(),
		},
		ColorId: StatusColor(appt.Status),
	}

	// nil, not empty, so the request body omits the field entirely
	if email := strings.TrimSpace(appt.ContactEmail); email != "" {
		event.Attendees = []*calendar.EventAttendee{
			{Email: email, DisplayName: appt.ContactName},
		}
	}

	return event, nil
}

// ToLocalAppointment converts a calendar event into an unsaved appointment.
// Priority is always medium because events carry no priority.
func ToLocalAppointment(event *calendar.Event, now time.Time) (models.Appointment, error) {
	if event == nil || event.Id == "" || event.Summary == "" {
		return models.Appointment{}, fmt.Errorf("incomplete external event: %w", ErrValidation)
	}

	title := event.Summary
	if strings.TrimSpace(title) == "" {
		title = UntitledSummary
	}

	start, ok := parseEventTime(event.Start)
	if !ok {
		start = now
	}

	appt := models.Appointment{
		ID:              models.UnsavedID,
		ExternalEventID: event.Id,
		Title:           title,
		Description:     event.Description,
		ScheduledAt:     start,
		StartAt:         &start,
		Status:          ColorStatus(event.ColorId),
		Priority:        models.PriorityMedium,
	}

	if end, ok := parseEventTime(event.End); ok {
		appt.EndAt = &end
	}

	return appt, nil
}

// parseEventTime reads DateTime, then the all-day Date.
func parseEventTime(edt *calendar.EventDateTime) (time.Time, bool) {
	if edt == nil {
		return time.Time{}, false
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t, true
		}
	}
	if edt.Date != "" {
		loc := time.UTC
		if edt.TimeZone != "" {
			if l, err := time.LoadLocation(edt.TimeZone); err == nil {
				loc = l
			}
		}
		if t, err := time.ParseInLocation("2006-01-02", edt.Date, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
