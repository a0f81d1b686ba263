// ABOUTME: Data models for portal entities
// ABOUTME: Defines Client, Contact, Appointment and sync bookkeeping structs
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UnsavedID marks a record that has not been persisted by the store yet.
const UnsavedID int64 = 0

type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Contact struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Appointment is an agenda entry. Client and contact names are denormalized
// on read so the calendar mapper does not need store access.
type Appointment struct {
	ID              int64      `json:"id"`
	ExternalEventID string     `json:"external_event_id,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	ScheduledAt     time.Time  `json:"scheduled_at"`
	StartAt         *time.Time `json:"start_at,omitempty"`
	EndAt           *time.Time `json:"end_at,omitempty"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	ClientID        *int64     `json:"client_id,omitempty"`
	ClientName      string     `json:"client_name,omitempty"`
	ContactID       *int64     `json:"contact_id,omitempty"`
	ContactName     string     `json:"contact_name,omitempty"`
	ContactEmail    string     `json:"contact_email,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Appointment status constants.
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusCanceled   = "canceled"
)

// Priority constants.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// IsValidStatus reports whether s is one of the four known statuses.
func IsValidStatus(s string) bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusDone, StatusCanceled:
		return true
	}
	return false
}

// IsValidPriority reports whether p is a known priority.
func IsValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Validate checks the fields a user must supply when creating an appointment.
func (a *Appointment) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if a.ScheduledAt.IsZero() {
		return fmt.Errorf("scheduled time is required")
	}
	if a.Status != "" && !IsValidStatus(a.Status) {
		return fmt.Errorf("invalid status %q", a.Status)
	}
	if a.Priority != "" && !IsValidPriority(a.Priority) {
		return fmt.Errorf("invalid priority %q", a.Priority)
	}
	if a.StartAt != nil && a.EndAt != nil && a.EndAt.Before(*a.StartAt) {
		return fmt.Errorf("end time is before start time")
	}
	return nil
}

// IsSynced reports whether the appointment has been pushed at least once.
func (a *Appointment) IsSynced() bool {
	return a.ExternalEventID != ""
}

// Sync status constants.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)

type SyncLog struct {
	ID            uuid.UUID `json:"id"`
	SourceService string    `json:"source_service"`
	SourceID      string    `json:"source_id"`
	EntityType    string    `json:"entity_type"`
	EntityID      int64     `json:"entity_id"`
	ImportedAt    time.Time `json:"imported_at"`
	Metadata      string    `json:"metadata,omitempty"`
}
