// ABOUTME: Tests for portal data models
// ABOUTME: Validates appointment validation rules and status/priority helpers
package models

import (
	"testing"
	"time"
)

func TestAppointmentValidate(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	tests := []struct {
		name    string
		appt    Appointment
		wantErr bool
	}{
		{"valid minimal", Appointment{Title: "Visit", ScheduledAt: now}, false},
		{"missing title", Appointment{ScheduledAt: now}, true},
		{"blank title", Appointment{Title: "   ", ScheduledAt: now}, true},
		{"missing schedule", Appointment{Title: "Visit"}, true},
		{"bad status", Appointment{Title: "Visit", ScheduledAt: now, Status: "archived"}, true},
		{"bad priority", Appointment{Title: "Visit", ScheduledAt: now, Priority: "urgent"}, true},
		{"end before start", Appointment{Title: "Visit", ScheduledAt: now, StartAt: &now, EndAt: &earlier}, true},
		{"full", Appointment{Title: "Visit", ScheduledAt: now, Status: StatusDone, Priority: PriorityHigh}, false},
	}

	for _, tt := range tests {
		err := tt.appt.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []string{StatusScheduled, StatusInProgress, StatusDone, StatusCanceled} {
		if !IsValidStatus(s) {
			t.Errorf("expected %q to be valid", s)
		}
	}
	if IsValidStatus("") || IsValidStatus("pending") {
		t.Error("expected unknown statuses to be invalid")
	}
}

func TestIsSynced(t *testing.T) {
	a := Appointment{}
	if a.IsSynced() {
		t.Error("expected fresh appointment to be unsynced")
	}
	a.ExternalEventID = "evt123"
	if !a.IsSynced() {
		t.Error("expected appointment with external id to be synced")
	}
}
