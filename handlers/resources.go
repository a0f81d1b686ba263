// ABOUTME: MCP resource handlers exposing agenda and sync data
// ABOUTME: Serves portal:// URIs as read-only JSON documents
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/portal/db"
)

// Resource URIs.
const (
	ResourceAgenda    = "portal://agenda"
	ResourceClients   = "portal://clients"
	ResourceSyncState = "portal://sync-state"
)

type ResourceHandlers struct {
	db  *sql.DB
	now func() time.Time
}

func NewResourceHandlers(database *sql.DB) *ResourceHandlers {
	return &ResourceHandlers{db: database, now: time.Now}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, "portal://") {
		return nil, fmt.Errorf("invalid URI scheme: expected portal://")
	}

	parts := strings.Split(strings.TrimPrefix(uri, "portal://"), "/")

	switch parts[0] {
	case "agenda":
		if len(parts) == 1 {
			return h.readAgenda(uri)
		}
		return h.readAppointment(uri, parts[1])
	case "clients":
		return h.readClients(uri)
	case "sync-state":
		return h.readSyncState(uri)
	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}

// readAgenda lists appointments from the start of today onward.
func (h *ResourceHandlers) readAgenda(uri string) (*mcp.ReadResourceResult, error) {
	now := h.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	appts, err := db.ListAppointments(h.db, db.AppointmentFilter{From: &from, Limit: 200})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agenda: %w", err)
	}

	out := make([]AppointmentOutput, 0, len(appts))
	for _, a := range appts {
		out = append(out, appointmentToOutput(a))
	}
	return jsonResource(uri, out)
}

func (h *ResourceHandlers) readAppointment(uri, idStr string) (*mcp.ReadResourceResult, error) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid appointment ID: %w", err)
	}

	appt, err := db.GetAppointment(h.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointment: %w", err)
	}
	if appt == nil {
		return nil, fmt.Errorf("appointment %d not found", id)
	}
	return jsonResource(uri, appt)
}

func (h *ResourceHandlers) readClients(uri string) (*mcp.ReadResourceResult, error) {
	clients, err := db.FindClients(h.db, "", 1000)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch clients: %w", err)
	}
	return jsonResource(uri, clients)
}

type syncStateOutput struct {
	Service      string  `json:"service"`
	Status       string  `json:"status"`
	LastSyncTime *string `json:"last_sync_time,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

func (h *ResourceHandlers) readSyncState(uri string) (*mcp.ReadResourceResult, error) {
	states, err := db.GetAllSyncStates(h.db)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sync state: %w", err)
	}

	out := make([]syncStateOutput, 0, len(states))
	for _, s := range states {
		o := syncStateOutput{Service: s.Service, Status: s.Status, ErrorMessage: s.ErrorMessage}
		if s.LastSyncTime != nil {
			ts := s.LastSyncTime.Format(time.RFC3339)
			o.LastSyncTime = &ts
		}
		out = append(out, o)
	}
	return jsonResource(uri, out)
}
