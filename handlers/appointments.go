// ABOUTME: Appointment MCP tool handlers
// ABOUTME: Implements add_appointment and list_appointments tools
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/portal/db"
	"github.com/harperreed/portal/models"
)

type AppointmentHandlers struct {
	db *sql.DB
}

func NewAppointmentHandlers(database *sql.DB) *AppointmentHandlers {
	return &AppointmentHandlers{db: database}
}

type AddAppointmentInput struct {
	Title       string `json:"title" jsonschema:"Appointment title (required)"`
	ScheduledAt string `json:"scheduled_at" jsonschema:"Scheduled time in ISO 8601/RFC3339 format (required)"`
	EndAt       string `json:"end_at,omitempty" jsonschema:"End time in RFC3339 format (default: one hour after start)"`
	Description string `json:"description,omitempty" jsonschema:"Notes for the appointment"`
	ClientName  string `json:"client_name,omitempty" jsonschema:"Client name (will be created if not found)"`
	ContactName string `json:"contact_name,omitempty" jsonschema:"Contact name at the client (must already exist)"`
	Status      string `json:"status,omitempty" jsonschema:"Status: scheduled, in_progress, done, canceled"`
	Priority    string `json:"priority,omitempty" jsonschema:"Priority: low, medium, high"`
}

type AppointmentOutput struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	ScheduledAt     string  `json:"scheduled_at"`
	EndAt           *string `json:"end_at,omitempty"`
	Status          string  `json:"status"`
	Priority        string  `json:"priority"`
	ClientName      string  `json:"client_name,omitempty"`
	ContactName     string  `json:"contact_name,omitempty"`
	ExternalEventID string  `json:"external_event_id,omitempty"`
	Synced          bool    `json:"synced"`
}

func appointmentToOutput(a models.Appointment) AppointmentOutput {
	out := AppointmentOutput{
		ID:              a.ID,
		Title:           a.Title,
		ScheduledAt:     a.ScheduledAt.Format(time.RFC3339),
		Status:          a.Status,
		Priority:        a.Priority,
		ClientName:      a.ClientName,
		ContactName:     a.ContactName,
		ExternalEventID: a.ExternalEventID,
		Synced:          a.IsSynced(),
	}
	if a.EndAt != nil {
		end := a.EndAt.Format(time.RFC3339)
		out.EndAt = &end
	}
	return out
}

func (h *AppointmentHandlers) AddAppointment(_ context.Context, request *mcp.CallToolRequest, input AddAppointmentInput) (*mcp.CallToolResult, AppointmentOutput, error) {
	if input.Title == "" {
		return nil, AppointmentOutput{}, fmt.Errorf("title is required")
	}
	if input.ScheduledAt == "" {
		return nil, AppointmentOutput{}, fmt.Errorf("scheduled_at is required")
	}

	scheduled, err := time.Parse(time.RFC3339, input.ScheduledAt)
	if err != nil {
		return nil, AppointmentOutput{}, fmt.Errorf("invalid scheduled_at format (use ISO 8601/RFC3339): %w", err)
	}

	appt := &models.Appointment{
		Title:       input.Title,
		Description: input.Description,
		ScheduledAt: scheduled,
		Status:      input.Status,
		Priority:    input.Priority,
	}

	if input.EndAt != "" {
		end, err := time.Parse(time.RFC3339, input.EndAt)
		if err != nil {
			return nil, AppointmentOutput{}, fmt.Errorf("invalid end_at format (use ISO 8601/RFC3339): %w", err)
		}
		appt.StartAt = &scheduled
		appt.EndAt = &end
	}

	if input.ClientName != "" {
		client, err := db.FindClientByName(h.db, input.ClientName)
		if err != nil {
			return nil, AppointmentOutput{}, fmt.Errorf("failed to lookup client: %w", err)
		}
		if client == nil {
			client = &models.Client{Name: input.ClientName}
			if err := db.CreateClient(h.db, client); err != nil {
				return nil, AppointmentOutput{}, fmt.Errorf("failed to create client: %w", err)
			}
		}
		appt.ClientID = &client.ID
	}

	if input.ContactName != "" {
		contacts, err := db.FindContacts(h.db, input.ContactName, appt.ClientID, 10)
		if err != nil {
			return nil, AppointmentOutput{}, fmt.Errorf("failed to lookup contact: %w", err)
		}
		for i := range contacts {
			if strings.EqualFold(contacts[i].Name, input.ContactName) || len(contacts) == 1 {
				appt.ContactID = &contacts[i].ID
				break
			}
		}
		if appt.ContactID == nil {
			return nil, AppointmentOutput{}, fmt.Errorf("contact %q not found", input.ContactName)
		}
	}

	if appt.Status == "" {
		appt.Status = models.StatusScheduled
	}
	if appt.Priority == "" {
		appt.Priority = models.PriorityMedium
	}
	if err := appt.Validate(); err != nil {
		return nil, AppointmentOutput{}, err
	}

	if err := db.CreateAppointment(h.db, appt); err != nil {
		return nil, AppointmentOutput{}, fmt.Errorf("failed to create appointment: %w", err)
	}

	// Re-read to pick up joined client and contact names
	stored, err := db.GetAppointment(h.db, appt.ID)
	if err != nil || stored == nil {
		return nil, appointmentToOutput(*appt), nil
	}
	return nil, appointmentToOutput(*stored), nil
}

type ListAppointmentsInput struct {
	Status       string `json:"status,omitempty" jsonschema:"Filter by status"`
	ClientName   string `json:"client_name,omitempty" jsonschema:"Filter by client name"`
	From         string `json:"from,omitempty" jsonschema:"Only appointments at or after this RFC3339 time"`
	To           string `json:"to,omitempty" jsonschema:"Only appointments before this RFC3339 time"`
	UnsyncedOnly bool   `json:"unsynced_only,omitempty" jsonschema:"Only appointments not yet on Google Calendar"`
	Limit        int    `json:"limit,omitempty" jsonschema:"Maximum results (default 50)"`
}

type ListAppointmentsOutput struct {
	Appointments []AppointmentOutput `json:"appointments"`
	Count        int                 `json:"count"`
}

func (h *AppointmentHandlers) ListAppointments(_ context.Context, request *mcp.CallToolRequest, input ListAppointmentsInput) (*mcp.CallToolResult, ListAppointmentsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	filter := db.AppointmentFilter{Status: input.Status, Limit: limit}

	if input.ClientName != "" {
		client, err := db.FindClientByName(h.db, input.ClientName)
		if err != nil {
			return nil, ListAppointmentsOutput{}, fmt.Errorf("failed to lookup client: %w", err)
		}
		if client == nil {
			return nil, ListAppointmentsOutput{Appointments: []AppointmentOutput{}}, nil
		}
		filter.ClientID = &client.ID
	}
	if input.From != "" {
		t, err := time.Parse(time.RFC3339, input.From)
		if err != nil {
			return nil, ListAppointmentsOutput{}, fmt.Errorf("invalid from: %w", err)
		}
		filter.From = &t
	}
	if input.To != "" {
		t, err := time.Parse(time.RFC3339, input.To)
		if err != nil {
			return nil, ListAppointmentsOutput{}, fmt.Errorf("invalid to: %w", err)
		}
		filter.To = &t
	}

	appts, err := db.ListAppointments(h.db, filter)
	if err != nil {
		return nil, ListAppointmentsOutput{}, fmt.Errorf("failed to list appointments: %w", err)
	}

	out := ListAppointmentsOutput{Appointments: []AppointmentOutput{}}
	for _, a := range appts {
		if input.UnsyncedOnly && a.IsSynced() {
			continue
		}
		out.Appointments = append(out.Appointments, appointmentToOutput(a))
	}
	out.Count = len(out.Appointments)
	return nil, out, nil
}
