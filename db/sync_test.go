// ABOUTME: Tests for sync_state and sync_log bookkeeping
// ABOUTME: Verifies status lifecycle and external id link recording
package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncStateLifecycle(t *testing.T) {
	db := setupTestDB(t)
	defer func() { _ = db.Close() }()

	state, err := GetSyncState(db, ServiceCalendarPush)
	require.NoError(t, err)
	assert.Nil(t, state, "no state before first sync")

	require.NoError(t, UpdateSyncStatus(db, ServiceCalendarPush, "syncing", nil))
	state, err = GetSyncState(db, ServiceCalendarPush)
	require.NoError(t, err)
	assert.Equal(t, "syncing", state.Status)
	assert.Nil(t, state.LastSyncTime)

	errMsg := "calendar unavailable"
	require.NoError(t, UpdateSyncStatus(db, ServiceCalendarPush, "error", &errMsg))
	state, err = GetSyncState(db, ServiceCalendarPush)
	require.NoError(t, err)
	assert.Equal(t, "error", state.Status)
	require.NotNil(t, state.ErrorMessage)
	assert.Equal(t, errMsg, *state.ErrorMessage)

	require.NoError(t, MarkSyncComplete(db, ServiceCalendarPush))
	state, err = GetSyncState(db, ServiceCalendarPush)
	require.NoError(t, err)
	assert.Equal(t, "idle", state.Status)
	assert.Nil(t, state.ErrorMessage, "completion clears the error")
	assert.NotNil(t, state.LastSyncTime)

	require.NoError(t, UpdateSyncStatus(db, ServiceCalendarPull, "idle", nil))
	states, err := GetAllSyncStates(db)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.Equal(t, ServiceCalendarPull, states[0].Service, "ordered by service name")
}

func TestRecordSyncLog(t *testing.T) {
	db := setupTestDB(t)
	defer func() { _ = db.Close() }()

	logs, err := ListSyncLogs(db, ServiceCalendarPull, 10)
	require.NoError(t, err)
	assert.Empty(t, logs)

	require.NoError(t, RecordSyncLog(db, ServiceCalendarPull, "evt-1", "appointment", 7, `{"title":"Visit"}`))
	require.NoError(t, RecordSyncLog(db, ServiceCalendarPull, "evt-2", "appointment", 8, ""))
	// Re-recording relinks instead of failing on the unique constraint
	require.NoError(t, RecordSyncLog(db, ServiceCalendarPull, "evt-1", "appointment", 9, ""))

	logs, err = ListSyncLogs(db, ServiceCalendarPull, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	byID := map[string]int64{}
	for _, l := range logs {
		byID[l.SourceID] = l.EntityID
	}
	assert.Equal(t, int64(9), byID["evt-1"])
	assert.Equal(t, int64(8), byID["evt-2"])

	other, err := ListSyncLogs(db, ServiceCalendarPush, 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}
