// ABOUTME: Appointment database operations
// ABOUTME: Handles agenda CRUD, filtered listing, and persisting calendar sync results
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/harperreed/portal/models"
)

// AppointmentFilter narrows ListAppointments. Zero values mean "no filter".
type AppointmentFilter struct {
	Status   string
	ClientID *int64
	From     *time.Time
	To       *time.Time
	Limit    int
}

const appointmentColumns = `
	a.id, a.external_event_id, a.title, a.description, a.scheduled_at, a.start_at, a.end_at,
	a.status, a.priority, a.client_id, c.name, a.contact_id, ct.name, ct.email,
	a.created_at, a.updated_at
	FROM appointments a
	LEFT JOIN clients c ON c.id = a.client_id
	LEFT JOIN contacts ct ON ct.id = a.contact_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	var a models.Appointment
	var externalID, description, clientName, contactName, contactEmail sql.NullString
	var startAt, endAt sql.NullTime
	var clientID, contactID sql.NullInt64

	err := row.Scan(
		&a.ID,
		&externalID,
		&a.Title,
		&description,
		&a.ScheduledAt,
		&startAt,
		&endAt,
		&a.Status,
		&a.Priority,
		&clientID,
		&clientName,
		&contactID,
		&contactName,
		&contactEmail,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.ExternalEventID = externalID.String
	a.Description = description.String
	a.ClientName = clientName.String
	a.ContactName = contactName.String
	a.ContactEmail = contactEmail.String
	if startAt.Valid {
		t := startAt.Time
		a.StartAt = &t
	}
	if endAt.Valid {
		t := endAt.Time
		a.EndAt = &t
	}
	if clientID.Valid {
		id := clientID.Int64
		a.ClientID = &id
	}
	if contactID.Valid {
		id := contactID.Int64
		a.ContactID = &id
	}

	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func applyAppointmentDefaults(a *models.Appointment) {
	if a.Status == "" {
		a.Status = models.StatusScheduled
	}
	if a.Priority == "" {
		a.Priority = models.PriorityMedium
	}
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertAppointment(e execer, a *models.Appointment) (bool, error) {
	applyAppointmentDefaults(a)
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	res, err := e.Exec(`
		INSERT INTO appointments (external_event_id, title, description, scheduled_at, start_at, end_at,
			status, priority, client_id, contact_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(external_event_id) DO NOTHING
	`, nullString(a.ExternalEventID), a.Title, a.Description, a.ScheduledAt.UTC(), nullTime(a.StartAt), nullTime(a.EndAt),
		a.Status, a.Priority, nullInt64(a.ClientID), nullInt64(a.ContactID), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	a.ID, err = res.LastInsertId()
	return true, err
}

func CreateAppointment(db *sql.DB, a *models.Appointment) error {
	inserted, err := insertAppointment(db, a)
	if err != nil {
		return err
	}
	if !inserted {
		return fmt.Errorf("appointment with external event %q already exists", a.ExternalEventID)
	}
	return nil
}

func GetAppointment(db *sql.DB, id int64) (*models.Appointment, error) {
	a, err := scanAppointment(db.QueryRow(`SELECT `+appointmentColumns+` WHERE a.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

// ListAppointments returns appointments ordered by scheduled time.
func ListAppointments(db *sql.DB, filter AppointmentFilter) ([]models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND a.status = ?`
		args = append(args, filter.Status)
	}
	if filter.ClientID != nil {
		query += ` AND a.client_id = ?`
		args = append(args, *filter.ClientID)
	}
	if filter.From != nil {
		query += ` AND a.scheduled_at >= ?`
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		query += ` AND a.scheduled_at < ?`
		args = append(args, filter.To.UTC())
	}
	query += ` ORDER BY a.scheduled_at, a.id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appointments []models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, *a)
	}

	return appointments, rows.Err()
}

func UpdateAppointment(db *sql.DB, a *models.Appointment) error {
	applyAppointmentDefaults(a)
	a.UpdatedAt = time.Now()

	_, err := db.Exec(`
		UPDATE appointments
		SET external_event_id = ?, title = ?, description = ?, scheduled_at = ?, start_at = ?, end_at = ?,
			status = ?, priority = ?, client_id = ?, contact_id = ?, updated_at = ?
		WHERE id = ?
	`, nullString(a.ExternalEventID), a.Title, a.Description, a.ScheduledAt.UTC(), nullTime(a.StartAt), nullTime(a.EndAt),
		a.Status, a.Priority, nullInt64(a.ClientID), nullInt64(a.ContactID), a.UpdatedAt, a.ID)

	return err
}

func DeleteAppointment(db *sql.DB, id int64) error {
	_, err := db.Exec(`DELETE FROM appointments WHERE id = ?`, id)
	return err
}

// SetExternalEventID links an appointment to a calendar event, or unlinks it
// when externalID is empty.
func SetExternalEventID(db *sql.DB, id int64, externalID string) error {
	_, err := db.Exec(`
		UPDATE appointments SET external_event_id = ?, updated_at = ? WHERE id = ?
	`, nullString(externalID), time.Now(), id)
	return err
}

// SaveExternalEventIDs persists the external ids attached by a calendar push.
// Unsaved and never-synced appointments are ignored. Returns rows written.
func SaveExternalEventIDs(db *sql.DB, appointments []models.Appointment) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	saved := 0
	now := time.Now()
	for _, a := range appointments {
		if a.ID == models.UnsavedID || a.ExternalEventID == "" {
			continue
		}
		res, err := tx.Exec(`
			UPDATE appointments SET external_event_id = ?, updated_at = ?
			WHERE id = ? AND (external_event_id IS NULL OR external_event_id != ?)
		`, a.ExternalEventID, now, a.ID, a.ExternalEventID)
		if err != nil {
			return 0, fmt.Errorf("failed to save external id for appointment %d: %w", a.ID, err)
		}
		n, _ := res.RowsAffected()
		saved += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit external ids: %w", err)
	}
	return saved, nil
}

// ImportAppointments inserts pulled placeholders (ID == UnsavedID) and
// returns the ones actually written, with their new ids. Rows whose
// external id already exists in the store are skipped.
func ImportAppointments(db *sql.DB, appointments []models.Appointment) ([]models.Appointment, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // Safe even after commit
	}()

	var imported []models.Appointment
	for _, a := range appointments {
		if a.ID != models.UnsavedID {
			continue
		}
		inserted, err := insertAppointment(tx, &a)
		if err != nil {
			return nil, fmt.Errorf("failed to import %q: %w", a.Title, err)
		}
		if inserted {
			imported = append(imported, a)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}
	return imported, nil
}
