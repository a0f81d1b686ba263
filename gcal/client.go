// ABOUTME: Google Calendar client holding one bearer token and a lazily loaded library
// ABOUTME: Provides list/create/update/delete and concurrent batch create-or-update
package gcal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

// DefaultConcurrency bounds in-flight requests in a batch.
const DefaultConcurrency = 8

// Client is the calendar client for one account. Construct one per session.
type Client struct {
	loader      Loader
	now         func() time.Time
	concurrency int

	mu    sync.RWMutex
	token string
	svc   Service

	loads singleflight.Group
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClock overrides the time source used for default list windows.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// WithConcurrency sets the batch concurrency limit.
func WithConcurrency(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewClient creates a client that loads its library through loader on first use.
func NewClient(loader Loader, opts ...ClientOption) *Client {
	c := &Client{
		loader:      loader,
		now:         time.Now,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAccessToken stores token and pushes it into an already-loaded library.
func (c *Client) SetAccessToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	if c.svc != nil {
		c.svc.SetToken(token)
	}
	return nil
}

// ClearAccessToken drops the token; later calls fail with ErrNotAuthenticated.
func (c *Client) ClearAccessToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	if c.svc != nil {
		c.svc.SetToken("")
	}
}

// IsAuthenticated reports whether a token is held.
func (c *Client) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

func (c *Client) requireAuth() error {
	if !c.IsAuthenticated() {
		return ErrNotAuthenticated
	}
	return nil
}

// ensureLoaded loads the library once. Concurrent first callers share one
// in-flight load; a failed load is retried by the next caller.
func (c *Client) ensureLoaded(ctx context.Context) (Service, error) {
	c.mu.RLock()
	svc := c.svc
	c.mu.RUnlock()
	if svc != nil {
		return svc, nil
	}

	v, err, _ := c.loads.Do("load", func() (any, error) {
		c.mu.RLock()
		existing := c.svc
		c.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		loaded, err := c.loader.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load calendar library: %w", err)
		}

		c.mu.Lock()
		c.svc = loaded
		loaded.SetToken(c.token)
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Service), nil
}

// ListEvents lists events in [timeMin, timeMax]. Nil bounds default to now
// and one month from now. Order is the service's start-time order.
func (c *Client) ListEvents(ctx context.Context, timeMin, timeMax *time.Time) ([]*calendar.Event, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}
	svc, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	now := c.now()
	from, to := now, now.AddDate(0, 1, 0)
	if timeMin != nil {
		from = *timeMin
	}
	if timeMax != nil {
		to = *timeMax
	}

	events, err := svc.List(ctx, from, to, MaxListResults)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}
	if events == nil {
		events = []*calendar.Event{}
	}
	return events, nil
}

func (c *Client) CreateEvent(ctx context.Context, event *calendar.Event) (*calendar.Event, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}
	svc, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	created, err := svc.Insert(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return created, nil
}

func (c *Client) UpdateEvent(ctx context.Context, id string, event *calendar.Event) (*calendar.Event, error) {
	if err := c.requireAuth(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrInvalidID
	}
	svc, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := svc.Update(ctx, id, event)
	if err != nil {
		return nil, fmt.Errorf("failed to update event %s: %w", id, err)
	}
	return updated, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if id == "" {
		return ErrInvalidID
	}
	svc, err := c.ensureLoaded(ctx)
	if err != nil {
		return err
	}

	if err := svc.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, err)
	}
	return nil
}

// SyncOutcome is the result for one event in a batch.
type SyncOutcome struct {
	Event *calendar.Event
	Err   error
}

// OK reports whether the event was synced.
func (o SyncOutcome) OK() bool {
	return o.Err == nil && o.Event != nil
}

// SyncEach creates or updates every event concurrently and returns one
// outcome per input index. Events with an Id are updated, others created.
// A failure never stops the other events.
func (c *Client) SyncEach(ctx context.Context, events []*calendar.Event) []SyncOutcome {
	outcomes := make([]SyncOutcome, len(events))

	var g errgroup.Group
	g.SetLimit(c.concurrency)
	for i, event := range events {
		g.Go(func() error {
			synced, err := c.upsert(ctx, event)
			if err != nil {
				log.Printf("Warning: failed to sync event %s: %s", eventLabel(event), DescribeError(err))
			}
			outcomes[i] = SyncOutcome{Event: synced, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// SyncMultipleEvents is SyncEach reduced to the successfully synced events.
// Compare lengths with the input to count failures.
func (c *Client) SyncMultipleEvents(ctx context.Context, events []*calendar.Event) []*calendar.Event {
	var synced []*calendar.Event
	for _, o := range c.SyncEach(ctx, events) {
		if o.OK() {
			synced = append(synced, o.Event)
		}
	}
	return synced
}

func (c *Client) upsert(ctx context.Context, event *calendar.Event) (*calendar.Event, error) {
	if event == nil {
		return nil, fmt.Errorf("nil event: %w", ErrValidation)
	}
	if event.Id != "" {
		return c.UpdateEvent(ctx, event.Id, event)
	}
	return c.CreateEvent(ctx, event)
}

func eventLabel(event *calendar.Event) string {
	if event == nil {
		return "<nil>"
	}
	if event.Id != "" {
		return fmt.Sprintf("%q (%s)", event.Summary, event.Id)
	}
	return fmt.Sprintf("%q", event.Summary)
}

// DescribeError renders API errors with their HTTP status for logs and UIs.
func DescribeError(err error) string {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401:
			return "access token rejected (401), sign in again"
		case 403:
			return fmt.Sprintf("permission denied (403): %s", apiErr.Message)
		case 404:
			return "event not found (404)"
		case 410:
			return "event was deleted (410)"
		}
		return fmt.Sprintf("calendar API error %d: %s", apiErr.Code, apiErr.Message)
	}
	return err.Error()
}
