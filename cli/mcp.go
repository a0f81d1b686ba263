// ABOUTME: MCP server subcommand
// ABOUTME: Exposes agenda and Google Calendar sync as MCP tools, resources and prompts
package cli

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/portal/handlers"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(app *App, version string) error {
	log.Println("Starting portal MCP server...")

	server := NewMCPServer(app, version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return server.Run(ctx, &mcp.StdioTransport{})
}

// NewMCPServer builds a server with every portal tool, resource and prompt registered.
func NewMCPServer(app *App, version string) *mcp.Server {
	appointmentHandlers := handlers.NewAppointmentHandlers(app.DB)
	calendarHandlers := handlers.NewCalendarHandlers(app.Runner, app.Session)
	resourceHandlers := handlers.NewResourceHandlers(app.DB)
	promptHandlers := handlers.NewPromptHandlers(app.DB)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "portal",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_appointment",
		Description: "Add an appointment to the local agenda, optionally linked to a client and contact",
	}, appointmentHandlers.AddAppointment)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_appointments",
		Description: "List agenda appointments filtered by status, client, time window or sync state",
	}, appointmentHandlers.ListAppointments)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "push_to_calendar",
		Description: "Create or update Google Calendar events for local appointments",
	}, calendarHandlers.PushToCalendar)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "pull_from_calendar",
		Description: "Import upcoming Google Calendar events that are not yet on the agenda",
	}, calendarHandlers.PullFromCalendar)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "calendar_auth_status",
		Description: "Report whether portal is signed in to Google and as whom",
	}, calendarHandlers.CalendarAuthStatus)

	server.AddResource(&mcp.Resource{
		URI:         handlers.ResourceAgenda,
		Name:        "agenda",
		Description: "Appointments from the start of today onward",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "portal://agenda/{id}",
		Name:        "appointment",
		Description: "A single appointment by id",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:      handlers.ResourceClients,
		Name:     "clients",
		MIMEType: "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         handlers.ResourceSyncState,
		Name:        "sync-state",
		Description: "Last push and pull status",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddPrompt(&mcp.Prompt{
		Name:        "daily-agenda",
		Description: "Review one day's appointments",
		Arguments: []*mcp.PromptArgument{
			{Name: "date", Description: "Day to review as YYYY-MM-DD (default today)"},
		},
	}, promptHandlers.GetPrompt)

	server.AddPrompt(&mcp.Prompt{
		Name:        "meeting-prep",
		Description: "Prepare for a specific appointment",
		Arguments: []*mcp.PromptArgument{
			{Name: "appointment_id", Description: "Appointment id", Required: true},
		},
	}, promptHandlers.GetPrompt)

	return server
}
