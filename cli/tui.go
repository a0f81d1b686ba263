// ABOUTME: TUI subcommand
// ABOUTME: Launches the full-screen agenda and calendar sync interface
package cli

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/harperreed/portal/tui"
)

// TUICommand starts the interactive terminal UI.
func TUICommand(app *App, args []string) error {
	fs := flag.NewFlagSet("tui", flag.ExitOnError)
	_ = fs.Parse(args)

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("tui needs an interactive terminal; use 'portal agenda list' instead")
	}

	return tui.Run(app.DB, app.Runner, app.Session)
}
