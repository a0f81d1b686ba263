// ABOUTME: Tests for appointment and calendar event translation
// ABOUTME: Covers end derivation, descriptions, attendees, colors and validation
package gcal

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"

	"github.com/harperreed/portal/models"
)

func TestEventWindow(t *testing.T) {
	scheduled := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	start := scheduled.Add(30 * time.Minute)
	end := scheduled.Add(3 * time.Hour)

	tests := []struct {
		name      string
		appt      models.Appointment
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"scheduled only", models.Appointment{ScheduledAt: scheduled}, scheduled, scheduled.Add(time.Hour)},
		{"start without end", models.Appointment{ScheduledAt: scheduled, StartAt: &start}, start, start.Add(time.Hour)},
		{"explicit end", models.Appointment{ScheduledAt: scheduled, StartAt: &start, EndAt: &end}, start, end},
		{"end without start", models.Appointment{ScheduledAt: scheduled, EndAt: &end}, scheduled, end},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotStart, gotEnd := EventWindow(tt.appt)
			assert.True(t, gotStart.Equal(tt.wantStart), "start %s", gotStart)
			assert.True(t, gotEnd.Equal(tt.wantEnd), "end %s", gotEnd)
		})
	}
}

func TestToExternalEventDefaultEnd(t *testing.T) {
	appt := models.Appointment{
		Title:       "Kickoff",
		ScheduledAt: time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
		Status:      models.StatusScheduled,
	}

	event, err := ToExternalEvent(appt, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2026-04-02T10:00:00Z", event.Start.DateTime)
	assert.Equal(t, "2026-04-02T11:00:00Z", event.End.DateTime)
	assert.Equal(t, "UTC", event.Start.TimeZone)
	assert.Empty(t, event.Id)
}

func TestToExternalEventTimeZone(t *testing.T) {
	loc, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)

	appt := models.Appointment{Title: "Call", ScheduledAt: time.Date(2026, 7, 1, 15, 0, 0, 0, time.UTC)}
	event, err := ToExternalEvent(appt, loc)
	require.NoError(t, err)
	assert.Equal(t, "2026-07-01T10:00:00-05:00", event.Start.DateTime)
	assert.Equal(t, "America/Chicago", event.End.TimeZone)
}

func TestToExternalEventDescription(t *testing.T) {
	tests := []struct {
		name string
		appt models.Appointment
		want string
	}{
		{"everything", models.Appointment{ClientName: "Acme", ContactName: "Jane", Description: "Agenda"}, "Client: Acme\nContact: Jane\n\nAgenda"},
		{"client only", models.Appointment{ClientName: "Acme"}, "Client: Acme"},
		{"description only", models.Appointment{Description: "Just notes"}, "Just notes"},
		{"contact and notes", models.Appointment{ContactName: "Jane", Description: "Notes"}, "Contact: Jane\n\nNotes"},
		{"nothing", models.Appointment{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComposeDescription(tt.appt))
		})
	}
}

func TestToExternalEventAttendees(t *testing.T) {
	base := models.Appointment{Title: "Sync", ScheduledAt: time.Now()}

	withEmail := base
	withEmail.ContactName = "Jane"
	withEmail.ContactEmail = "jane@acme.com"
	event, err := ToExternalEvent(withEmail, nil)
	require.NoError(t, err)
	require.Len(t, event.Attendees, 1)
	assert.Equal(t, "jane@acme.com", event.Attendees[0].Email)

	withoutEmail := base
	withoutEmail.ContactName = "Jane"
	event, err = ToExternalEvent(withoutEmail, nil)
	require.NoError(t, err)
	assert.Nil(t, event.Attendees)

	body, err := json.Marshal(event)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(body), "attendees"), "attendees key must be absent: %s", body)
}

func TestToExternalEventKeepsID(t *testing.T) {
	appt := models.Appointment{Title: "Review", ScheduledAt: time.Now(), ExternalEventID: "abc123"}

	first, err := ToExternalEvent(appt, time.UTC)
	require.NoError(t, err)
	second, err := ToExternalEvent(appt, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, "abc123", first.Id)
	assert.Equal(t, first, second)
}

func TestToExternalEventValidation(t *testing.T) {
	_, err := ToExternalEvent(models.Appointment{ScheduledAt: time.Now()}, nil)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = ToExternalEvent(models.Appointment{Title: "No time"}, nil)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestStatusColorRoundTrip(t *testing.T) {
	for _, status := range []string{models.StatusScheduled, models.StatusInProgress, models.StatusDone, models.StatusCanceled} {
		assert.Equal(t, status, ColorStatus(StatusColor(status)), status)
	}

	assert.Equal(t, ColorUncategorized, StatusColor("archived"))
	assert.Equal(t, ColorUncategorized, StatusColor(""))
	assert.Equal(t, models.StatusScheduled, ColorStatus(ColorUncategorized))
	assert.Equal(t, models.StatusScheduled, ColorStatus("42"))
}

func TestToLocalAppointment(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	event := &calendar.Event{
		Id:          "evt-9",
		Summary:     "Planning",
		Description: "Room 4",
		ColorId:     ColorDone,
		Start:       &calendar.EventDateTime{DateTime: "2026-02-03T09:00:00Z"},
		End:         &calendar.EventDateTime{DateTime: "2026-02-03T10:30:00Z"},
	}

	appt, err := ToLocalAppointment(event, now)
	require.NoError(t, err)
	assert.Equal(t, models.UnsavedID, appt.ID)
	assert.Equal(t, "evt-9", appt.ExternalEventID)
	assert.Equal(t, "Planning", appt.Title)
	assert.Equal(t, "Room 4", appt.Description)
	assert.Equal(t, models.StatusDone, appt.Status)
	assert.Equal(t, models.PriorityMedium, appt.Priority)
	assert.True(t, appt.ScheduledAt.Equal(time.Date(2026, 2, 3, 9, 0, 0, 0, time.UTC)))
	require.NotNil(t, appt.StartAt)
	require.NotNil(t, appt.EndAt)
	assert.Equal(t, 90*time.Minute, appt.EndAt.Sub(*appt.StartAt))
}

func TestToLocalAppointmentFallbacks(t *testing.T) {
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	allDay, err := ToLocalAppointment(&calendar.Event{
		Id:      "evt-all-day",
		Summary: "Offsite",
		Start:   &calendar.EventDateTime{Date: "2026-03-05"},
		End:     &calendar.EventDateTime{Date: "2026-03-06"},
	}, now)
	require.NoError(t, err)
	assert.True(t, allDay.ScheduledAt.Equal(time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, models.StatusScheduled, allDay.Status)

	noStart, err := ToLocalAppointment(&calendar.Event{Id: "evt-x", Summary: "   "}, now)
	require.NoError(t, err)
	assert.True(t, noStart.ScheduledAt.Equal(now))
	assert.Equal(t, UntitledSummary, noStart.Title)
	assert.Nil(t, noStart.EndAt)
}

func TestToLocalAppointmentValidation(t *testing.T) {
	now := time.Now()
	for _, event := range []*calendar.Event{nil, {Summary: "No id"}, {Id: "no-summary"}} {
		_, err := ToLocalAppointment(event, now)
		assert.True(t, errors.Is(err, ErrValidation))
	}
}

func TestRoundTripPreservesFields(t *testing.T) {
	start := time.Date(2026, 6, 10, 13, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)
	original := models.Appointment{
		Title:           "Design review",
		Description:     "Bring mocks",
		ScheduledAt:     start,
		StartAt:         &start,
		EndAt:           &end,
		Status:          models.StatusInProgress,
		Priority:        models.PriorityHigh,
		ExternalEventID: "evt-rt",
	}

	event, err := ToExternalEvent(original, time.UTC)
	require.NoError(t, err)
	back, err := ToLocalAppointment(event, time.Now())
	require.NoError(t, err)

	assert.Equal(t, original.Title, back.Title)
	assert.Equal(t, original.Description, back.Description)
	assert.Equal(t, original.Status, back.Status)
	assert.Equal(t, original.ExternalEventID, back.ExternalEventID)
	assert.True(t, back.StartAt.Equal(start))
	assert.True(t, back.EndAt.Equal(end))
	assert.Equal(t, models.PriorityMedium, back.Priority, "priority does not survive the calendar")
}

func TestToLocalAppointmentKeepsSummaryVerbatim(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	appt, err := ToLocalAppointment(&calendar.Event{
		Id:      "evt-pad",
		Summary: "  Standup ",
		Start:   &calendar.EventDateTime{DateTime: "2026-02-03T09:00:00Z"},
	}, now)
	require.NoError(t, err)
	assert.Equal(t, "  Standup ", appt.Title)
}
