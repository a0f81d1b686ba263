// ABOUTME: Calendar library handle and its Google-backed loader
// ABOUTME: Wraps calendar/v3 behind a small interface with a swappable bearer token
package gcal

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// MaxListResults caps a single list request; listing is single-page.
const MaxListResults = 100

// Service is the loaded calendar library handle.
type Service interface {
	List(ctx context.Context, timeMin, timeMax time.Time, maxResults int64) ([]*calendar.Event, error)
	Insert(ctx context.Context, event *calendar.Event) (*calendar.Event, error)
	Update(ctx context.Context, id string, event *calendar.Event) (*calendar.Event, error)
	Delete(ctx context.Context, id string) error
	SetToken(token string)
}

// Loader produces a Service. Client calls it at most once successfully.
type Loader interface {
	Load(ctx context.Context) (Service, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (Service, error)

func (f LoaderFunc) Load(ctx context.Context) (Service, error) {
	return f(ctx)
}

// bearerSource hands the current access token to the oauth2 transport.
// There is no refresh token; an expired token surfaces as a 401 from the API.
type bearerSource struct {
	mu    sync.RWMutex
	token string
}

func (b *bearerSource) Token() (*oauth2.Token, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.token == "" {
		return nil, ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: b.token, TokenType: "Bearer"}, nil
}

func (b *bearerSource) set(token string) {
	b.mu.Lock()
	b.token = token
	b.mu.Unlock()
}

type googleService struct {
	svc        *calendar.Service
	calendarID string
	tokens     *bearerSource
}

// GoogleLoader returns a Loader that builds a calendar/v3 service for
// calendarID. Extra options (endpoint) are appended after the HTTP client,
// which tests use to point at an httptest server.
// The transport asks bearerSource on every request so SetToken applies to
// the very next call.
func GoogleLoader(calendarID string, opts ...option.ClientOption) Loader {
	return LoaderFunc(func(ctx context.Context) (Service, error) {
		tokens := &bearerSource{}
		httpClient := &http.Client{Transport: &oauth2.Transport{Source: tokens}}
		clientOpts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)

		// The transport outlives the call that triggered loading
		svc, err := calendar.NewService(context.WithoutCancel(ctx), clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create calendar service: %w", err)
		}

		return &googleService{svc: svc, calendarID: calendarID, tokens: tokens}, nil
	})
}

func (g *googleService) SetToken(token string) {
	g.tokens.set(token)
}

func (g *googleService) List(ctx context.Context, timeMin, timeMax time.Time, maxResults int64) ([]*calendar.Event, error) {
	resp, err := g.svc.Events.List(g.calendarID).
		Context(ctx).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		MaxResults(maxResults).
		SingleEvents(true).
		OrderBy("startTime").
		Do()
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (g *googleService) Insert(ctx context.Context, event *calendar.Event) (*calendar.Event, error) {
	return g.svc.Events.Insert(g.calendarID, event).Context(ctx).Do()
}

func (g *googleService) Update(ctx context.Context, id string, event *calendar.Event) (*calendar.Event, error) {
	return g.svc.Events.Update(g.calendarID, id, event).Context(ctx).Do()
}

func (g *googleService) Delete(ctx context.Context, id string) error {
	return g.svc.Events.Delete(g.calendarID, id).Context(ctx).Do()
}
