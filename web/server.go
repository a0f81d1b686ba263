// ABOUTME: Web UI server with embedded templates
// ABOUTME: Agenda dashboard at localhost with buttons to push and pull Google Calendar
package web

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/harperreed/portal/db"
	"github.com/harperreed/portal/gcal"
	"github.com/harperreed/portal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Syncer runs persisted calendar push and pull.
type Syncer interface {
	Push(ctx context.Context, filter db.AppointmentFilter) (*gcal.PushResult, error)
	Pull(ctx context.Context) (*gcal.PullResult, error)
}

// SessionView exposes the Google sign-in state.
type SessionView interface {
	Snapshot() gcal.AuthSession
}

type Server struct {
	db        *sql.DB
	syncer    Syncer
	session   SessionView
	loc       *time.Location
	now       func() time.Time
	templates *template.Template
}

func NewServer(database *sql.DB, syncer Syncer, session SessionView, loc *time.Location) (*Server, error) {
	if loc == nil {
		loc = time.Local
	}
	funcMap := template.FuncMap{
		"when": func(t time.Time) string {
			return t.In(loc).Format("Mon Jan 2 15:04")
		},
		"stamp": func(t *time.Time) string {
			if t == nil {
				return "never"
			}
			return t.In(loc).Format("2006-01-02 15:04:05")
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		db:        database,
		syncer:    syncer,
		session:   session,
		loc:       loc,
		now:       time.Now,
		templates: tmpl,
	}, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleAgenda)
	mux.HandleFunc("GET /sync", s.handleSync)
	mux.Handle("POST /calendar/push", sameOrigin(http.HandlerFunc(s.handlePush)))
	mux.Handle("POST /calendar/pull", sameOrigin(http.HandlerFunc(s.handlePull)))
	return mux
}

// sameOrigin rejects state-changing requests issued by other sites. Requests
// without Sec-Fetch-Site or Origin (curl, older browsers) are let through.
func sameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Sec-Fetch-Site") {
		case "", "same-origin", "none":
		default:
			http.Error(w, "cross-origin request rejected", http.StatusForbidden)
			return
		}

		if origin := r.Header.Get("Origin"); origin != "" {
			u, err := url.Parse(origin)
			if err != nil || u.Host != r.Host {
				http.Error(w, "cross-origin request rejected", http.StatusForbidden)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start(port int) error {
	addr := fmt.Sprintf("localhost:%d", port)
	log.Printf("Starting web server at http://%s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data any) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Template error rendering %s: %v", name, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) account() gcal.AuthSession {
	if s.session == nil {
		return gcal.AuthSession{}
	}
	return s.session.Snapshot()
}

func (s *Server) handleAgenda(w http.ResponseWriter, r *http.Request) {
	now := s.now().In(s.loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	filter := db.AppointmentFilter{From: &from, Limit: 200}
	if st := r.URL.Query().Get("status"); st != "" {
		if !models.IsValidStatus(st) {
			http.Error(w, fmt.Sprintf("invalid status %q", st), http.StatusBadRequest)
			return
		}
		filter.Status = st
	}

	appts, err := db.ListAppointments(s.db, filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	unsynced := 0
	for i := range appts {
		if !appts[i].IsSynced() {
			unsynced++
		}
	}

	s.renderTemplate(w, "layout.html", map[string]any{
		"Title":           "Agenda",
		"ContentTemplate": "agenda-content",
		"Account":         s.account(),
		"Appointments":    appts,
		"Unsynced":        unsynced,
		"Status":          filter.Status,
	})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	states, err := db.GetAllSyncStates(s.db)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	logs, err := db.ListSyncLogs(s.db, "", 20)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, "layout.html", map[string]any{
		"Title":           "Calendar Sync",
		"ContentTemplate": "sync-content",
		"Account":         s.account(),
		"States":          states,
		"Logs":            logs,
		"Flash":           r.URL.Query().Get("flash"),
	})
}

func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, msg string) {
	http.Redirect(w, r, "/sync?flash="+url.QueryEscape(msg), http.StatusSeeOther)
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	if !s.account().Authenticated {
		s.redirectWithFlash(w, r, "Not signed in to Google. Run 'portal auth login' first.")
		return
	}

	res, err := s.syncer.Push(r.Context(), db.AppointmentFilter{})
	if err != nil {
		s.redirectWithFlash(w, r, "Push failed: "+gcal.DescribeError(err))
		return
	}
	msg := "Push: " + res.Summary()
	if n := len(res.Failures); n > 0 {
		msg += fmt.Sprintf(" (%d failed)", n)
	}
	s.redirectWithFlash(w, r, msg)
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	if !s.account().Authenticated {
		s.redirectWithFlash(w, r, "Not signed in to Google. Run 'portal auth login' first.")
		return
	}

	res, err := s.syncer.Pull(r.Context())
	if err != nil {
		s.redirectWithFlash(w, r, "Pull failed: "+gcal.DescribeError(err))
		return
	}
	s.redirectWithFlash(w, r, "Pull: "+res.Summary())
}
