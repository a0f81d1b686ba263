// ABOUTME: Runs push and pull against the local store and records the outcome
// ABOUTME: Persists attached event ids, imports pulled events, and updates sync_state
package gcal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harperreed/portal/db"
	"github.com/harperreed/portal/models"
)

const appointmentEntity = "appointment"

// Runner loads appointments from the store, reconciles them through the
// orchestrator and writes the results back.
type Runner struct {
	db   *sql.DB
	orch *Orchestrator
}

func NewRunner(database *sql.DB, orch *Orchestrator) *Runner {
	return &Runner{db: database, orch: orch}
}

// Push sends the appointments matching filter to the calendar.
func (r *Runner) Push(ctx context.Context, filter db.AppointmentFilter) (*PushResult, error) {
	appts, err := db.ListAppointments(r.db, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	if err := db.UpdateSyncStatus(r.db, db.ServiceCalendarPush, models.SyncStatusSyncing, nil); err != nil {
		return nil, err
	}

	result, err := r.orch.Push(ctx, appts)
	if err != nil {
		r.fail(db.ServiceCalendarPush, err)
		return nil, err
	}

	if _, err := db.SaveExternalEventIDs(r.db, result.Appointments); err != nil {
		r.fail(db.ServiceCalendarPush, err)
		return nil, err
	}

	failed := make(map[int]bool, len(result.Failures))
	for _, f := range result.Failures {
		failed[f.Index] = true
	}
	for i, a := range result.Appointments {
		if failed[i] || a.ExternalEventID == "" {
			continue
		}
		if err := db.RecordSyncLog(r.db, db.ServiceCalendarPush, a.ExternalEventID, appointmentEntity, a.ID, a.Title); err != nil {
			return nil, err
		}
	}

	if err := r.finish(db.ServiceCalendarPush, len(result.Failures), result.Total); err != nil {
		return nil, err
	}
	return result, nil
}

// Pull imports calendar events that no stored appointment carries yet.
func (r *Runner) Pull(ctx context.Context) (*PullResult, error) {
	appts, err := db.ListAppointments(r.db, db.AppointmentFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	if err := db.UpdateSyncStatus(r.db, db.ServiceCalendarPull, models.SyncStatusSyncing, nil); err != nil {
		return nil, err
	}

	result, err := r.orch.Pull(ctx, appts)
	if err != nil {
		r.fail(db.ServiceCalendarPull, err)
		return nil, err
	}

	imported, err := db.ImportAppointments(r.db, result.Imported)
	if err != nil {
		r.fail(db.ServiceCalendarPull, err)
		return nil, err
	}
	for _, a := range imported {
		if err := db.RecordSyncLog(r.db, db.ServiceCalendarPull, a.ExternalEventID, appointmentEntity, a.ID, a.Title); err != nil {
			return nil, err
		}
	}

	// The store may have gained some of these since the list above
	result.Skipped += len(result.Imported) - len(imported)
	result.Imported = imported
	result.ImportedCount = len(imported)
	result.Appointments = append(append([]models.Appointment{}, appts...), imported...)

	if err := r.finish(db.ServiceCalendarPull, len(result.Failures), len(result.Failures)+result.ImportedCount+result.Skipped); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Runner) fail(service string, cause error) {
	msg := DescribeError(cause)
	_ = db.UpdateSyncStatus(r.db, service, models.SyncStatusError, &msg)
}

func (r *Runner) finish(service string, failures, total int) error {
	if err := db.MarkSyncComplete(r.db, service); err != nil {
		return err
	}
	if failures == 0 {
		return nil
	}
	msg := fmt.Sprintf("%d of %d items failed", failures, total)
	return db.UpdateSyncStatus(r.db, service, models.SyncStatusError, &msg)
}
