// ABOUTME: Google sign-in session state machine owned by the application root
// ABOUTME: Reattaches persisted tokens, de-duplicates sign-in, and signs out best-effort
package gcal

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// State is the session lifecycle position.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// DefaultRevokeTimeout bounds the remote revoke during sign-out.
const DefaultRevokeTimeout = 5 * time.Second

// TokenHolder receives the session's access token.
type TokenHolder interface {
	SetAccessToken(token string) error
	ClearAccessToken()
}

// AuthSession is a point-in-time view of the session.
type AuthSession struct {
	State         State    `json:"-"`
	StateName     string   `json:"state"`
	Authenticated bool     `json:"authenticated"`
	Loading       bool     `json:"loading"`
	LastError     string   `json:"last_error,omitempty"`
	Profile       *Profile `json:"profile,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// SignOutResult carries failures of the best-effort side effects.
type SignOutResult struct {
	Warnings []string
}

// SessionDeps are the collaborators a Session needs. Profiles and Revoker
// may be nil, which skips those side channels.
type SessionDeps struct {
	Store         TokenStore
	Authorizer    Authorizer
	Profiles      ProfileFetcher
	Revoker       Revoker
	RevokeTimeout time.Duration
}

// Session tracks whether the user is signed in to Google. A token is held
// exactly when the state is StateAuthenticated.
type Session struct {
	holder TokenHolder
	deps   SessionDeps

	mu          sync.Mutex
	state       State
	token       string
	lastErr     error
	profile     *Profile
	warnings    []string
	profileDone chan struct{}

	signIns singleflight.Group
}

func NewSession(holder TokenHolder, deps SessionDeps) *Session {
	if deps.RevokeTimeout <= 0 {
		deps.RevokeTimeout = DefaultRevokeTimeout
	}
	return &Session{holder: holder, deps: deps, state: StateUninitialized}
}

// Init reattaches a persisted token without validating it remotely. Expiry
// is discovered when a later API call fails. A store failure leaves the
// session unauthenticated with LastError set.
func (s *Session) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUninitialized {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: init called while %s", ErrInvalidState, state)
	}
	s.state = StateLoading
	s.mu.Unlock()

	token, err := s.deps.Store.Load()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		log.Printf("Warning: could not load saved Google token: %v", err)
		s.state = StateUnauthenticated
		s.lastErr = err
		return nil
	}
	if token == nil {
		s.state = StateUnauthenticated
		return nil
	}
	if err := s.holder.SetAccessToken(token.AccessToken); err != nil {
		s.state = StateUnauthenticated
		s.lastErr = err
		return nil
	}

	s.state = StateAuthenticated
	s.token = token.AccessToken
	return nil
}

// SignIn runs the consent flow. Concurrent callers share one flow and
// receive the same result. Valid only when unauthenticated.
func (s *Session) SignIn(ctx context.Context) (*AuthSession, error) {
	v, err, _ := s.signIns.Do("sign-in", func() (any, error) {
		return s.signIn(ctx)
	})
	if err != nil {
		return nil, err
	}
	snap := v.(AuthSession)
	return &snap, nil
}

func (s *Session) signIn(ctx context.Context) (AuthSession, error) {
	s.mu.Lock()
	if s.state != StateUnauthenticated {
		state := s.state
		s.mu.Unlock()
		return AuthSession{}, fmt.Errorf("%w: cannot sign in while %s", ErrInvalidState, state)
	}
	s.state = StateLoading
	s.lastErr = nil
	s.mu.Unlock()

	token, err := s.deps.Authorizer.Authorize(ctx)
	if err == nil && (token == nil || token.AccessToken == "") {
		err = ErrInvalidToken
	}
	if err == nil {
		err = s.holder.SetAccessToken(token.AccessToken)
	}
	if err != nil {
		s.mu.Lock()
		s.state = StateUnauthenticated
		s.lastErr = err
		s.mu.Unlock()
		return AuthSession{}, fmt.Errorf("sign-in failed: %w", err)
	}

	var warnings []string
	if err := s.deps.Store.Save(token); err != nil {
		log.Printf("Warning: signed in but token was not saved: %v", err)
		warnings = append(warnings, fmt.Sprintf("token not saved: %v", err))
	}

	done := make(chan struct{})

	s.mu.Lock()
	s.state = StateAuthenticated
	s.token = token.AccessToken
	s.profile = &Profile{Email: ProfilePlaceholderEmail}
	s.warnings = warnings
	s.profileDone = done
	snap := s.snapshotLocked()
	s.mu.Unlock()

	go s.fetchProfile(context.WithoutCancel(ctx), token.AccessToken, done)

	return snap, nil
}

// fetchProfile fills in the profile. Failure is recorded as a warning and
// never affects the authentication state.
func (s *Session) fetchProfile(ctx context.Context, token string, done chan struct{}) {
	defer close(done)
	if s.deps.Profiles == nil {
		return
	}

	profile, err := s.deps.Profiles.FetchProfile(ctx, token)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != token {
		return
	}
	if err != nil {
		log.Printf("Warning: could not fetch Google profile: %v", err)
		s.warnings = append(s.warnings, fmt.Sprintf("profile unavailable: %v", err))
		return
	}
	s.profile = profile
}

// RefreshProfile fetches the profile synchronously, e.g. after Init.
func (s *Session) RefreshProfile(ctx context.Context) (*Profile, error) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	if s.deps.Profiles == nil {
		return nil, fmt.Errorf("no profile fetcher configured")
	}

	profile, err := s.deps.Profiles.FetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.token == token {
		s.profile = profile
	}
	s.mu.Unlock()
	return profile, nil
}

// AwaitProfile blocks until the background profile fetch started by the
// last sign-in has finished, then returns the current profile.
func (s *Session) AwaitProfile(ctx context.Context) (*Profile, error) {
	s.mu.Lock()
	done := s.profileDone
	s.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil, nil
	}
	p := *s.profile
	return &p, nil
}

// SignOut always succeeds locally. Clearing the stored token and revoking
// it remotely are best effort; their failures come back as warnings.
func (s *Session) SignOut(ctx context.Context) (*SignOutResult, error) {
	s.mu.Lock()
	if s.state != StateAuthenticated {
		state := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: cannot sign out while %s", ErrInvalidState, state)
	}
	token := s.token
	s.token = ""
	s.state = StateUnauthenticated
	s.profile = nil
	s.lastErr = nil
	s.mu.Unlock()

	s.holder.ClearAccessToken()

	var warnings []string
	if err := s.deps.Store.Clear(); err != nil {
		log.Printf("Warning: could not remove saved token: %v", err)
		warnings = append(warnings, fmt.Sprintf("saved token not removed: %v", err))
	}

	if s.deps.Revoker != nil {
		rctx, cancel := context.WithTimeout(ctx, s.deps.RevokeTimeout)
		err := s.deps.Revoker.Revoke(rctx, token)
		cancel()
		if err != nil {
			log.Printf("Warning: token revocation failed: %v", err)
			warnings = append(warnings, fmt.Sprintf("remote revoke failed: %v", err))
		}
	}

	s.mu.Lock()
	s.warnings = warnings
	s.mu.Unlock()

	return &SignOutResult{Warnings: warnings}, nil
}

// IsAuthenticated reports whether a token is held.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateAuthenticated
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() AuthSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() AuthSession {
	snap := AuthSession{
		State:         s.state,
		StateName:     s.state.String(),
		Authenticated: s.state == StateAuthenticated,
		Loading:       s.state == StateLoading,
	}
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	if s.profile != nil {
		p := *s.profile
		snap.Profile = &p
	}
	if len(s.warnings) > 0 {
		snap.Warnings = append([]string(nil), s.warnings...)
	}
	return snap
}
