// ABOUTME: MCP prompt handlers for agenda workflow templates
// ABOUTME: Builds day-planning and meeting-prep prompts from stored appointments
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/portal/db"
)

type PromptHandlers struct {
	db  *sql.DB
	now func() time.Time
}

func NewPromptHandlers(database *sql.DB) *PromptHandlers {
	return &PromptHandlers{db: database, now: time.Now}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "daily-agenda":
		return h.getDailyAgendaPrompt(request.Params.Arguments)
	case "meeting-prep":
		return h.getMeetingPrepPrompt(request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}

func (h *PromptHandlers) getDailyAgendaPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	now := h.now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d, ok := args["date"]; ok && d != "" {
		parsed, err := time.ParseInLocation("2006-01-02", d, now.Location())
		if err != nil {
			return nil, fmt.Errorf("invalid date (use YYYY-MM-DD): %w", err)
		}
		day = parsed
	}
	end := day.AddDate(0, 0, 1)

	appts, err := db.ListAppointments(h.db, db.AppointmentFilter{From: &day, To: &end})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointments: %w", err)
	}

	var promptText strings.Builder
	fmt.Fprintf(&promptText, "Here is my agenda for %s:\n\n", day.Format("Monday, January 2 2006"))
	if len(appts) == 0 {
		promptText.WriteString("(no appointments)\n")
	}
	for _, a := range appts {
		fmt.Fprintf(&promptText, "- %s %s [%s, %s]", a.ScheduledAt.In(now.Location()).Format("15:04"), a.Title, a.Status, a.Priority)
		if a.ClientName != "" {
			fmt.Fprintf(&promptText, " with %s", a.ClientName)
		}
		if !a.IsSynced() {
			promptText.WriteString(" (not on calendar)")
		}
		promptText.WriteString("\n")
	}

	promptText.WriteString("\nPlease help me:")
	promptText.WriteString("\n1. Spot conflicts or back-to-back meetings")
	promptText.WriteString("\n2. Flag high-priority items that need preparation")
	promptText.WriteString("\n3. Suggest anything that should be pushed to Google Calendar")

	return userPrompt(fmt.Sprintf("Agenda for %s", day.Format("2006-01-02")), promptText.String()), nil
}

func (h *PromptHandlers) getMeetingPrepPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	idStr, ok := args["appointment_id"]
	if !ok {
		return nil, fmt.Errorf("appointment_id is required")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid appointment_id: %w", err)
	}

	appt, err := db.GetAppointment(h.db, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch appointment: %w", err)
	}
	if appt == nil {
		return nil, fmt.Errorf("appointment %d not found", id)
	}

	var promptText strings.Builder
	promptText.WriteString("Help me prepare for this meeting:\n\n")
	fmt.Fprintf(&promptText, "Title: %s\n", appt.Title)
	fmt.Fprintf(&promptText, "When: %s\n", appt.ScheduledAt.Format(time.RFC1123))
	if appt.ClientName != "" {
		fmt.Fprintf(&promptText, "Client: %s\n", appt.ClientName)
	}
	if appt.ContactName != "" {
		fmt.Fprintf(&promptText, "Contact: %s", appt.ContactName)
		if appt.ContactEmail != "" {
			fmt.Fprintf(&promptText, " <%s>", appt.ContactEmail)
		}
		promptText.WriteString("\n")
	}
	fmt.Fprintf(&promptText, "Priority: %s\n", appt.Priority)
	if appt.Description != "" {
		fmt.Fprintf(&promptText, "\nNotes: %s\n", appt.Description)
	}

	if appt.ClientID != nil {
		history, err := db.ListAppointments(h.db, db.AppointmentFilter{ClientID: appt.ClientID, To: &appt.ScheduledAt, Limit: 5})
		if err == nil && len(history) > 0 {
			promptText.WriteString("\nEarlier appointments with this client:\n")
			for _, p := range history {
				if p.ID == appt.ID {
					continue
				}
				fmt.Fprintf(&promptText, "- %s %s (%s)\n", p.ScheduledAt.Format("2006-01-02"), p.Title, p.Status)
			}
		}
	}

	promptText.WriteString("\nPlease provide:")
	promptText.WriteString("\n1. A short agenda for the meeting")
	promptText.WriteString("\n2. Questions to ask")
	promptText.WriteString("\n3. Follow-ups to schedule afterwards")

	return userPrompt(fmt.Sprintf("Meeting prep: %s", appt.Title), promptText.String()), nil
}
