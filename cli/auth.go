// ABOUTME: Google sign-in CLI commands
// ABOUTME: Handles login through the browser, logout with revocation, and status
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/harperreed/portal/gcal"
)

// AuthLoginCommand runs the Google consent flow and saves the token.
func AuthLoginCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("auth login", flag.ExitOnError)
	timeout := fs.Duration("timeout", 5*time.Minute, "How long to wait for the browser callback")
	_ = fs.Parse(args)

	if err := app.Config.RequireOAuth(); err != nil {
		return err
	}

	if app.Session.IsAuthenticated() {
		fmt.Println("Already signed in. Run 'portal auth logout' first to switch accounts.")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	snap, err := app.Session.SignIn(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\n✓ Authenticated successfully\n")
	fmt.Printf("✓ Token saved to %s\n", app.Config.TokenPath)
	for _, w := range snap.Warnings {
		fmt.Printf("  ! %s\n", w)
	}

	profileCtx, cancelProfile := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelProfile()
	if profile, err := app.Session.AwaitProfile(profileCtx); err == nil && profile != nil && profile.Email != gcal.ProfilePlaceholderEmail {
		fmt.Printf("✓ Signed in as %s <%s>\n", profile.Name, profile.Email)
	}

	fmt.Println("\nReady to sync! Run 'portal calendar push' to send your agenda to Google Calendar.")
	return nil
}

// AuthLogoutCommand forgets and revokes the saved token.
func AuthLogoutCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("auth logout", flag.ExitOnError)
	_ = fs.Parse(args)

	if !app.Session.IsAuthenticated() {
		fmt.Println("Not signed in")
		return nil
	}

	result, err := app.Session.SignOut(context.Background())
	if err != nil {
		return err
	}

	fmt.Println("✓ Signed out")
	for _, w := range result.Warnings {
		fmt.Printf("  ! %s\n", w)
	}
	return nil
}

// AuthStatusCommand prints the session state.
func AuthStatusCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("auth status", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print the session as JSON")
	_ = fs.Parse(args)

	if app.Session.IsAuthenticated() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := app.Session.RefreshProfile(ctx); err != nil {
			fmt.Printf("  ! Could not fetch profile: %s\n", gcal.DescribeError(err))
		}
	}

	snap := app.Session.Snapshot()
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	if !snap.Authenticated {
		fmt.Println("Not signed in. Run 'portal auth login'.")
		if snap.LastError != "" {
			fmt.Printf("  Last error: %s\n", snap.LastError)
		}
		return nil
	}

	fmt.Println("✓ Signed in to Google")
	if snap.Profile != nil {
		fmt.Printf("  Name:  %s\n", snap.Profile.Name)
		fmt.Printf("  Email: %s\n", snap.Profile.Email)
	}
	fmt.Printf("  Token: %s\n", app.Config.TokenPath)
	fmt.Printf("  Calendar: %s\n", app.Config.CalendarID)
	return nil
}
