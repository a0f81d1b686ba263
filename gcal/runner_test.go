// ABOUTME: Tests for push and pull runs against a real SQLite store
// ABOUTME: Checks persisted event ids, imported rows, sync_state and sync_log
package gcal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"

	"github.com/harperreed/portal/db"
	"github.com/harperreed/portal/models"
)

func setupRunner(t *testing.T, svc *fakeService) (*Runner, *sql.DB) {
	t.Helper()
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	client := NewClient(&countingLoader{svc: svc})
	require.NoError(t, client.SetAccessToken("tok"))
	return NewRunner(database, NewOrchestrator(client, time.UTC)), database
}

func TestRunnerPushPersistsIDs(t *testing.T) {
	svc := newFakeService()
	svc.failFor["Broken"] = errBoom
	runner, database := setupRunner(t, svc)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	good := &models.Appointment{Title: "Good", ScheduledAt: at}
	bad := &models.Appointment{Title: "Broken", ScheduledAt: at.Add(time.Hour)}
	require.NoError(t, db.CreateAppointment(database, good))
	require.NoError(t, db.CreateAppointment(database, bad))

	result, err := runner.Push(context.Background(), db.AppointmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, "1 of 2 synced", result.Summary())

	stored, err := db.GetAppointment(database, good.ID)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", stored.ExternalEventID)

	unsynced, err := db.GetAppointment(database, bad.ID)
	require.NoError(t, err)
	assert.Empty(t, unsynced.ExternalEventID)

	logs, err := db.ListSyncLogs(database, db.ServiceCalendarPush, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, good.ID, logs[0].EntityID)

	state, err := db.GetSyncState(database, db.ServiceCalendarPush)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.SyncStatusError, state.Status)
	require.NotNil(t, state.ErrorMessage)
	assert.Equal(t, "1 of 2 items failed", *state.ErrorMessage)
	assert.NotNil(t, state.LastSyncTime)

	// A second push updates instead of creating
	_, err = runner.Push(context.Background(), db.AppointmentFilter{})
	require.NoError(t, err)
	_, ins, upd, _ := svc.calls()
	assert.Equal(t, 3, ins, "Good once, Broken twice")
	assert.Equal(t, 1, upd)
}

func TestRunnerPushNotAuthenticatedMarksError(t *testing.T) {
	runner, database := setupRunner(t, newFakeService())
	require.NoError(t, db.CreateAppointment(database, &models.Appointment{Title: "A", ScheduledAt: time.Now()}))

	client := runner.orch.client.(*Client)
	client.ClearAccessToken()

	_, err := runner.Push(context.Background(), db.AppointmentFilter{})
	require.ErrorIs(t, err, ErrNotAuthenticated)

	state, err := db.GetSyncState(database, db.ServiceCalendarPush)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusError, state.Status)
}

func TestRunnerPullImportsNewEvents(t *testing.T) {
	svc := newFakeService(
		&calendar.Event{Id: "known", Summary: "Known"},
		&calendar.Event{Id: "fresh", Summary: "Fresh", Start: &calendar.EventDateTime{DateTime: "2026-03-04T15:00:00Z"}},
	)
	runner, database := setupRunner(t, svc)
	require.NoError(t, db.CreateAppointment(database, &models.Appointment{Title: "Known", ScheduledAt: time.Now(), ExternalEventID: "known"}))

	result, err := runner.Pull(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.ImportedCount)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Imported, 1)
	assert.NotZero(t, result.Imported[0].ID, "imported rows carry their store id")
	assert.Len(t, result.Appointments, 2)

	all, err := db.ListAppointments(database, db.AppointmentFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	logs, err := db.ListSyncLogs(database, db.ServiceCalendarPull, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "fresh", logs[0].SourceID)

	state, err := db.GetSyncState(database, db.ServiceCalendarPull)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusIdle, state.Status)

	// Pulling again imports nothing
	again, err := runner.Pull(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.ImportedCount)
	assert.Equal(t, 2, again.Skipped)
}
