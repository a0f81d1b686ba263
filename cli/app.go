// ABOUTME: Composition root shared by every command
// ABOUTME: Builds the calendar client, sign-in session and sync runner from config
package cli

import (
	"context"
	"database/sql"

	"github.com/harperreed/portal/config"
	"github.com/harperreed/portal/gcal"
)

// App holds the process-wide collaborators. There is exactly one Client and
// one Session per App; nothing in gcal is global.
type App struct {
	Config  *config.Config
	DB      *sql.DB
	Client  *gcal.Client
	Session *gcal.Session
	Runner  *gcal.Runner
}

// NewApp wires the Google-backed implementations.
func NewApp(cfg *config.Config, database *sql.DB) *App {
	client := gcal.NewClient(
		gcal.GoogleLoader(cfg.CalendarID),
		gcal.WithConcurrency(cfg.SyncConcurrency),
	)

	session := gcal.NewSession(client, gcal.SessionDeps{
		Store:         gcal.NewFileTokenStore(cfg.TokenPath),
		Authorizer:    gcal.NewLocalServerAuthorizer(gcal.NewOAuthConfig(cfg)),
		Profiles:      &gcal.GoogleProfileFetcher{},
		Revoker:       &gcal.HTTPRevoker{},
		RevokeTimeout: cfg.RevokeTimeout,
	})

	return NewAppWith(cfg, database, client, session)
}

// NewAppWith assembles an App from prebuilt parts.
func NewAppWith(cfg *config.Config, database *sql.DB, client *gcal.Client, session *gcal.Session) *App {
	orch := gcal.NewOrchestrator(client, cfg.Location())
	return &App{
		Config:  cfg,
		DB:      database,
		Client:  client,
		Session: session,
		Runner:  gcal.NewRunner(database, orch),
	}
}

// Init reattaches a saved Google token, if any.
func (a *App) Init(ctx context.Context) error {
	return a.Session.Init(ctx)
}
