// ABOUTME: Google Calendar MCP tool handlers
// ABOUTME: Implements push_to_calendar, pull_from_calendar and calendar_auth_status tools
package handlers

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/portal/db"
	"github.com/harperreed/portal/gcal"
)

// CalendarSync runs persisted push and pull.
type CalendarSync interface {
	Push(ctx context.Context, filter db.AppointmentFilter) (*gcal.PushResult, error)
	Pull(ctx context.Context) (*gcal.PullResult, error)
}

// SessionView exposes the sign-in state.
type SessionView interface {
	Snapshot() gcal.AuthSession
}

type CalendarHandlers struct {
	sync    CalendarSync
	session SessionView
}

func NewCalendarHandlers(sync CalendarSync, session SessionView) *CalendarHandlers {
	return &CalendarHandlers{sync: sync, session: session}
}

type PushInput struct {
	Status string `json:"status,omitempty" jsonschema:"Only push appointments with this status"`
}

type PushOutput struct {
	Summary      string   `json:"summary"`
	SuccessCount int      `json:"success_count"`
	Total        int      `json:"total"`
	Failures     []string `json:"failures,omitempty"`
}

func (h *CalendarHandlers) PushToCalendar(ctx context.Context, request *mcp.CallToolRequest, input PushInput) (*mcp.CallToolResult, PushOutput, error) {
	if !h.session.Snapshot().Authenticated {
		return nil, PushOutput{}, fmt.Errorf("not signed in to Google; run 'portal auth login' first")
	}

	result, err := h.sync.Push(ctx, db.AppointmentFilter{Status: input.Status})
	if err != nil {
		return nil, PushOutput{}, fmt.Errorf("calendar push failed: %s", gcal.DescribeError(err))
	}

	out := PushOutput{
		Summary:      result.Summary(),
		SuccessCount: result.SuccessCount,
		Total:        result.Total,
	}
	for _, f := range result.Failures {
		out.Failures = append(out.Failures, f.Error())
	}
	return nil, out, nil
}

type PullInput struct{}

type PullOutput struct {
	Summary       string              `json:"summary"`
	ImportedCount int                 `json:"imported_count"`
	Skipped       int                 `json:"skipped"`
	Imported      []AppointmentOutput `json:"imported"`
	Failures      []string            `json:"failures,omitempty"`
}

func (h *CalendarHandlers) PullFromCalendar(ctx context.Context, request *mcp.CallToolRequest, input PullInput) (*mcp.CallToolResult, PullOutput, error) {
	if !h.session.Snapshot().Authenticated {
		return nil, PullOutput{}, fmt.Errorf("not signed in to Google; run 'portal auth login' first")
	}

	result, err := h.sync.Pull(ctx)
	if err != nil {
		return nil, PullOutput{}, fmt.Errorf("calendar pull failed: %s", gcal.DescribeError(err))
	}

	out := PullOutput{
		Summary:       result.Summary(),
		ImportedCount: result.ImportedCount,
		Skipped:       result.Skipped,
		Imported:      []AppointmentOutput{},
	}
	for _, a := range result.Imported {
		out.Imported = append(out.Imported, appointmentToOutput(a))
	}
	for _, f := range result.Failures {
		out.Failures = append(out.Failures, f.Error())
	}
	return nil, out, nil
}

type AuthStatusInput struct{}

type AuthStatusOutput struct {
	State         string   `json:"state"`
	Authenticated bool     `json:"authenticated"`
	Email         string   `json:"email,omitempty"`
	Name          string   `json:"name,omitempty"`
	LastError     string   `json:"last_error,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

func (h *CalendarHandlers) CalendarAuthStatus(_ context.Context, request *mcp.CallToolRequest, input AuthStatusInput) (*mcp.CallToolResult, AuthStatusOutput, error) {
	snap := h.session.Snapshot()
	out := AuthStatusOutput{
		State:         snap.StateName,
		Authenticated: snap.Authenticated,
		LastError:     snap.LastError,
		Warnings:      snap.Warnings,
	}
	if snap.Profile != nil {
		out.Email = snap.Profile.Email
		out.Name = snap.Profile.Name
	}
	return nil, out, nil
}
