// ABOUTME: Tests for iCalendar export
// ABOUTME: Parses the generated document back to check uids, times and status
package export

import (
	"bytes"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/portal/models"
)

func TestWriteICS(t *testing.T) {
	at := time.Date(2026, 5, 12, 14, 0, 0, 0, time.UTC)
	end := at.Add(30 * time.Minute)
	appts := []models.Appointment{
		{ID: 1, Title: "Kickoff", ScheduledAt: at, Status: models.StatusScheduled, Priority: models.PriorityHigh, ClientName: "Acme"},
		{ID: 2, Title: "Dropped", ScheduledAt: at, EndAt: &end, Status: models.StatusCanceled, ExternalEventID: "evt-22",
			ContactName: "Jane", ContactEmail: "jane@acme.com"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, appts, at))

	cal, err := ical.ParseCalendar(&buf)
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	first := events[0]
	assert.Equal(t, "portal-appointment-1", first.Id())
	assert.Equal(t, "Kickoff", first.GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "Client: Acme", first.GetProperty(ical.ComponentPropertyDescription).Value)
	assert.Equal(t, "1", first.GetProperty(ical.ComponentPropertyPriority).Value)
	gotEnd, err := first.GetEndAt()
	require.NoError(t, err)
	assert.True(t, gotEnd.Equal(at.Add(time.Hour)), "default one hour duration")

	second := events[1]
	assert.Equal(t, "evt-22", second.Id())
	assert.Equal(t, "CANCELLED", second.GetProperty(ical.ComponentPropertyStatus).Value)
	gotEnd, err = second.GetEndAt()
	require.NoError(t, err)
	assert.True(t, gotEnd.Equal(end))
	assert.Len(t, second.Attendees(), 1)
}

func TestWriteICSEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, nil, time.Now()))
	assert.Contains(t, buf.String(), "BEGIN:VCALENDAR")
	assert.NotContains(t, buf.String(), "BEGIN:VEVENT")
}
