// ABOUTME: Web subcommand
// ABOUTME: Serves the agenda dashboard on localhost
package cli

import (
	"flag"
	"fmt"

	"github.com/harperreed/portal/web"
)

// WebCommand starts the web dashboard and blocks until it stops.
func WebCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("web", flag.ExitOnError)
	port := fs.Int("port", app.Config.WebPort, "Port to listen on")
	_ = fs.Parse(args)

	srv, err := web.NewServer(app.DB, app.Runner, app.Session, app.Config.Location())
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	fmt.Printf("→ Serving agenda at http://localhost:%d\n", *port)
	return srv.Start(*port)
}
