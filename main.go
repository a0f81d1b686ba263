// ABOUTME: Entry point for the portal agenda CLI and MCP server
// ABOUTME: Loads config, opens the database, and routes to subcommands
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/harperreed/portal/cli"
	"github.com/harperreed/portal/config"
	"github.com/harperreed/portal/db"
)

const version = "0.2.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/portal/portal.db)")

	// Subcommands parse their own flags
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("portal version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = database.Close() }()

	app := cli.NewApp(cfg, database)
	if err := app.Init(context.Background()); err != nil {
		log.Fatalf("Failed to restore Google session: %v", err)
	}

	if err := run(app, args[0], args[1:]); err != nil {
		_ = database.Close()
		log.Fatalf("Error: %v", err)
	}
}

func run(app *cli.App, command string, args []string) error {
	loc := app.Config.Location()

	switch command {
	case "mcp":
		return cli.MCPCommand(app, version)
	case "tui":
		return cli.TUICommand(app, args)
	case "web":
		return cli.WebCommand(app, args)
	}

	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("%s requires a subcommand", command)
	}
	sub, subArgs := args[0], args[1:]

	switch command + " " + sub {
	case "agenda add":
		return cli.AddAppointmentCommand(app.DB, loc, subArgs)
	case "agenda list":
		return cli.ListAppointmentsCommand(app.DB, loc, subArgs)
	case "agenda update":
		return cli.UpdateAppointmentCommand(app.DB, loc, subArgs)
	case "agenda delete":
		return cli.DeleteAppointmentCommand(app, subArgs)

	case "client add":
		return cli.AddClientCommand(app.DB, subArgs)
	case "client list":
		return cli.ListClientsCommand(app.DB, subArgs)

	case "contact add":
		return cli.AddContactCommand(app.DB, subArgs)
	case "contact list":
		return cli.ListContactsCommand(app.DB, subArgs)

	case "auth login":
		return cli.AuthLoginCommand(app, subArgs)
	case "auth logout":
		return cli.AuthLogoutCommand(app, subArgs)
	case "auth status":
		return cli.AuthStatusCommand(app, subArgs)

	case "calendar push":
		return cli.CalendarPushCommand(app, subArgs)
	case "calendar pull":
		return cli.CalendarPullCommand(app, subArgs)
	case "calendar list":
		return cli.CalendarListCommand(app, subArgs)
	case "calendar status":
		return cli.CalendarStatusCommand(app, subArgs)

	case "export ics":
		return cli.ExportICSCommand(app.DB, subArgs)
	}

	printUsage()
	return fmt.Errorf("unknown command: %s %s", command, sub)
}

func printUsage() {
	fmt.Printf(`portal v%s - agenda with Google Calendar sync

USAGE:
  portal [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/portal/portal.db)

AGENDA:
  portal agenda add         Add an appointment
    --title <title>           Title (required)
    --when <time>             Scheduled time, e.g. "2026-03-10 14:00" (required)
    --end <time>              End time (default: one hour after start)
    --client <name>           Client name (created if missing)
    --contact <name>          Contact name
    --description <text>      Notes
    --status <status>         scheduled, in_progress, done, canceled
    --priority <priority>     low, medium, high

  portal agenda list        List appointments
    --status <status>         Filter by status
    --client <name>           Filter by client
    --from <time> --to <time> Time window
    --unsynced                Only appointments not on Google Calendar
    --limit <n>               Max results (default: 50)

  portal agenda update [flags] <id>   Update an appointment
  portal agenda delete [--remote] <id> Delete an appointment (and its Google event)

CLIENTS AND CONTACTS:
  portal client add --name <name> [--email] [--phone] [--notes]
  portal client list [--query <text>]
  portal contact add --name <name> --client <client> [--email] [--phone]
  portal contact list [--query <text>] [--client <client>]

GOOGLE ACCOUNT:
  portal auth login [--timeout 5m]   Sign in through the browser
  portal auth logout                 Sign out and revoke the token
  portal auth status [--json]        Show sign-in state

GOOGLE CALENDAR:
  portal calendar push [--status] [--from] [--to]  Create or update events
  portal calendar pull                             Import new events
  portal calendar list [--from] [--to]             Show remote events
  portal calendar status [--log <n>]               Show sync state

EXPORT:
  portal export ics [--output <file>] [--status <status>]

SERVERS:
  portal mcp                 Start MCP server on stdio
  portal tui                 Interactive terminal UI
  portal web [--port <n>]    Web dashboard

ENVIRONMENT:
  GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET   OAuth client credentials
  PORTAL_TIMEZONE                          Timezone for calendar events (default UTC)
  PORTAL_CALENDAR_ID                       Target calendar (default primary)
  PORTAL_DB_PATH, PORTAL_TOKEN_PATH        Storage locations
`, version)
}
