// ABOUTME: Tests for calendar MCP tool handlers
// ABOUTME: Uses a fake sync runner and session view
package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/portal/db"
	"github.com/harperreed/portal/gcal"
	"github.com/harperreed/portal/models"
)

type fakeSync struct {
	push      *gcal.PushResult
	pull      *gcal.PullResult
	err       error
	pushedFor db.AppointmentFilter
}

func (f *fakeSync) Push(_ context.Context, filter db.AppointmentFilter) (*gcal.PushResult, error) {
	f.pushedFor = filter
	return f.push, f.err
}

func (f *fakeSync) Pull(context.Context) (*gcal.PullResult, error) {
	return f.pull, f.err
}

type fakeSession struct {
	snap gcal.AuthSession
}

func (f fakeSession) Snapshot() gcal.AuthSession { return f.snap }

var signedIn = fakeSession{snap: gcal.AuthSession{
	StateName:     "authenticated",
	Authenticated: true,
	Profile:       &gcal.Profile{Email: "me@example.com", Name: "Me"},
}}

func TestPushToCalendarHandler(t *testing.T) {
	sync := &fakeSync{push: &gcal.PushResult{
		SuccessCount: 1,
		Total:        2,
		Failures:     []gcal.ItemFailure{{Index: 1, Title: "Broken", Err: errors.New("boom")}},
	}}
	h := NewCalendarHandlers(sync, signedIn)

	_, out, err := h.PushToCalendar(context.Background(), nil, PushInput{Status: models.StatusScheduled})
	require.NoError(t, err)
	assert.Equal(t, "1 of 2 synced", out.Summary)
	assert.Equal(t, models.StatusScheduled, sync.pushedFor.Status)
	require.Len(t, out.Failures, 1)
	assert.Contains(t, out.Failures[0], "Broken")
}

func TestCalendarToolsRequireSignIn(t *testing.T) {
	h := NewCalendarHandlers(&fakeSync{}, fakeSession{snap: gcal.AuthSession{StateName: "unauthenticated"}})

	_, _, err := h.PushToCalendar(context.Background(), nil, PushInput{})
	assert.ErrorContains(t, err, "not signed in")

	_, _, err = h.PullFromCalendar(context.Background(), nil, PullInput{})
	assert.ErrorContains(t, err, "not signed in")
}

func TestPullFromCalendarHandler(t *testing.T) {
	sync := &fakeSync{pull: &gcal.PullResult{
		Imported:      []models.Appointment{{ID: 7, Title: "From Google", ExternalEventID: "evt-9"}},
		ImportedCount: 1,
		Skipped:       3,
	}}
	h := NewCalendarHandlers(sync, signedIn)

	_, out, err := h.PullFromCalendar(context.Background(), nil, PullInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.ImportedCount)
	assert.Equal(t, 3, out.Skipped)
	require.Len(t, out.Imported, 1)
	assert.True(t, out.Imported[0].Synced)
}

func TestPullFromCalendarError(t *testing.T) {
	h := NewCalendarHandlers(&fakeSync{err: errors.New("network down")}, signedIn)

	_, _, err := h.PullFromCalendar(context.Background(), nil, PullInput{})
	assert.ErrorContains(t, err, "network down")
}

func TestCalendarAuthStatusHandler(t *testing.T) {
	h := NewCalendarHandlers(&fakeSync{}, signedIn)

	_, out, err := h.CalendarAuthStatus(context.Background(), nil, AuthStatusInput{})
	require.NoError(t, err)
	assert.True(t, out.Authenticated)
	assert.Equal(t, "me@example.com", out.Email)
}
