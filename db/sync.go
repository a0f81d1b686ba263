// ABOUTME: Database operations for sync_state and sync_log tables
// ABOUTME: Tracks calendar push/pull status and which external events map to which appointments
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/portal/models"
)

// Service names recorded in sync_state and sync_log.
const (
	ServiceCalendarPush = "calendar_push"
	ServiceCalendarPull = "calendar_pull"
)

// SyncState represents the sync state for a service.
type SyncState struct {
	Service       string
	LastSyncTime  *time.Time
	Status        string
	ErrorMessage  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// GetSyncState retrieves the sync state for a service.
func GetSyncState(db *sql.DB, service string) (*SyncState, error) {
	var state SyncState
	var lastSyncTime sql.NullTime
	var errorMessage sql.NullString

	err := db.QueryRow(`
		SELECT service, last_sync_time, status, error_message, created_at, updated_at
		FROM sync_state
		WHERE service = ?
	`, service).Scan(
		&state.Service,
		&lastSyncTime,
		&state.Status,
		&errorMessage,
		&state.CreatedAt,
		&state.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}

	if lastSyncTime.Valid {
		state.LastSyncTime = &lastSyncTime.Time
	}
	if errorMessage.Valid {
		state.ErrorMessage = &errorMessage.String
	}

	return &state, nil
}

// UpdateSyncStatus updates the sync status for a service.
func UpdateSyncStatus(db *sql.DB, service, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO sync_state (service, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, service, status, errorMsgVal)

	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}

	return nil
}

// RecordSyncLog upserts the link between an external id and a local entity.
func RecordSyncLog(db *sql.DB, sourceService, sourceID, entityType string, entityID int64, metadata string) error {
	_, err := db.Exec(`
		INSERT INTO sync_log (id, source_service, source_id, entity_type, entity_id, imported_at, metadata)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP, ?)
		ON CONFLICT(source_service, source_id) DO UPDATE SET
			entity_type = excluded.entity_type,
			entity_id = excluded.entity_id,
			imported_at = CURRENT_TIMESTAMP,
			metadata = excluded.metadata
	`, uuid.New().String(), sourceService, sourceID, entityType, entityID, metadata)

	if err != nil {
		return fmt.Errorf("failed to record sync log: %w", err)
	}

	return nil
}

// ListSyncLogs returns the most recent sync_log rows for a service, or for
// every service when sourceService is empty.
func ListSyncLogs(db *sql.DB, sourceService string, limit int) ([]models.SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`
		SELECT id, source_service, source_id, entity_type, entity_id, imported_at, metadata
		FROM sync_log
		WHERE ? = '' OR source_service = ?
		ORDER BY imported_at DESC
		LIMIT ?
	`, sourceService, sourceService, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var logs []models.SyncLog
	for rows.Next() {
		var l models.SyncLog
		var id string
		var metadata sql.NullString
		if err := rows.Scan(&id, &l.SourceService, &l.SourceID, &l.EntityType, &l.EntityID, &l.ImportedAt, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan sync log: %w", err)
		}
		l.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid sync log id %q: %w", id, err)
		}
		l.Metadata = metadata.String
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

// MarkSyncComplete records a successful run.
func MarkSyncComplete(db *sql.DB, service string) error {
	_, err := db.Exec(`
		INSERT INTO sync_state (service, last_sync_time, status, created_at, updated_at)
		VALUES (?, CURRENT_TIMESTAMP, 'idle', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(service) DO UPDATE SET
			last_sync_time = CURRENT_TIMESTAMP,
			status = 'idle',
			error_message = NULL,
			updated_at = CURRENT_TIMESTAMP
	`, service)

	if err != nil {
		return fmt.Errorf("failed to mark sync complete: %w", err)
	}

	return nil
}

// GetAllSyncStates retrieves the sync state for all services.
func GetAllSyncStates(db *sql.DB) ([]SyncState, error) {
	rows, err := db.Query(`
		SELECT service, last_sync_time, status, error_message, created_at, updated_at
		FROM sync_state
		ORDER BY service
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []SyncState
	for rows.Next() {
		var state SyncState
		var lastSyncTime sql.NullTime
			var errorMessage sql.NullString

		err := rows.Scan(
			&state.Service,
			&lastSyncTime,
				&state.Status,
			&errorMessage,
			&state.CreatedAt,
			&state.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}

		if lastSyncTime.Valid {
			state.LastSyncTime = &lastSyncTime.Time
		}
		if errorMessage.Valid {
			state.ErrorMessage = &errorMessage.String
		}

		states = append(states, state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync states: %w", err)
	}

	return states, nil
}
