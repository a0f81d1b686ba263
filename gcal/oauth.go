// ABOUTME: OAuth configuration, token persistence and the local consent flow for Google
// ABOUTME: Stores the bearer token at an XDG path and runs a localhost callback server
package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/oklog/ulid/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/harperreed/portal/config"
)

// Scopes requested during sign-in: calendar read/write plus basic profile.
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar.events",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// NewOAuthConfig creates the OAuth2 config for Google APIs.
func NewOAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

// TokenStore persists the access token between runs.
type TokenStore interface {
	// Load returns (nil, nil) when no token has been saved.
	Load() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
	Clear() error
}

// FileTokenStore keeps the token as JSON in a 0600 file.
type FileTokenStore struct {
	Path string
}

func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{Path: path}
}

func (s *FileTokenStore) Save(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("token cannot be nil")
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	// Write token file with restricted permissions
	f, err := os.OpenFile(s.Path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	return nil
}

func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	if token.AccessToken == "" {
		return nil, nil
	}

	return &token, nil
}

func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// Authorizer runs an interactive consent flow and returns a token.
type Authorizer interface {
	Authorize(ctx context.Context) (*oauth2.Token, error)
}

// LocalServerAuthorizer serves the redirect URL on localhost, opens the
// consent page, and exchanges the returned code.
type LocalServerAuthorizer struct {
	Config *oauth2.Config

	// OpenBrowser opens the consent URL. Defaults to the platform opener.
	OpenBrowser func(url string) error

	// Out receives the fallback "visit this URL" message.
	Out io.Writer
}

func NewLocalServerAuthorizer(cfg *oauth2.Config) *LocalServerAuthorizer {
	return &LocalServerAuthorizer{Config: cfg, OpenBrowser: openBrowser, Out: os.Stdout}
}

type callbackResult struct {
	token *oauth2.Token
	err   error
}

func (a *LocalServerAuthorizer) Authorize(ctx context.Context) (*oauth2.Token, error) {
	redirect, err := url.Parse(a.Config.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URL %q: %w", a.Config.RedirectURL, err)
	}
	if redirect.Host == "" {
		return nil, fmt.Errorf("invalid redirect URL %q: missing host", a.Config.RedirectURL)
	}
	callbackPath := redirect.Path
	if callbackPath == "" {
		callbackPath = "/"
	}

	state := ulid.Make().String()
	results := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, a.callbackHandler(ctx, state, results))

	ln, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}
	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			deliver(results, callbackResult{err: err})
		}
	}()
	defer func() { _ = server.Shutdown(context.WithoutCancel(ctx)) }()

	authURL := a.Config.AuthCodeURL(state)

	out := a.Out
	if out == nil {
		out = io.Discard
	}
	_, _ = fmt.Fprintln(out, "Opening browser for Google sign-in...")
	_, _ = fmt.Fprintf(out, "\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)

	if a.OpenBrowser != nil {
		if err := a.OpenBrowser(authURL); err != nil {
			log.Printf("Warning: could not open browser: %v", err)
		}
	}

	select {
	case res := <-results:
		if res.err != nil {
			return nil, fmt.Errorf("OAuth flow failed: %w", res.err)
		}
		return res.token, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("OAuth flow cancelled: %w", ctx.Err())
	}
}

func (a *LocalServerAuthorizer) callbackHandler(ctx context.Context, state string, results chan<- callbackResult) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			deliver(results, callbackResult{err: fmt.Errorf("state mismatch in OAuth callback")})
			return
		}
		if reason := q.Get("error"); reason != "" {
			http.Error(w, "authorization denied", http.StatusForbidden)
			deliver(results, callbackResult{err: fmt.Errorf("authorization denied: %s", reason)})
			return
		}

		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			deliver(results, callbackResult{err: fmt.Errorf("no authorization code received")})
			return
		}

		token, err := a.Config.Exchange(ctx, code)
		if err != nil {
			http.Error(w, "token exchange failed", http.StatusBadGateway)
			deliver(results, callbackResult{err: fmt.Errorf("failed to exchange code: %w", err)})
			return
		}

		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
		deliver(results, callbackResult{token: token})
	}
}

// deliver never blocks; only the first result matters.
func deliver(results chan<- callbackResult, res callbackResult) {
	select {
	case results <- res:
	default:
	}
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	command := exec.Command(cmd, args...)
	return command.Start()
}
