// ABOUTME: In-memory calendar service and loader used across gcal tests
// ABOUTME: Records calls and lets tests inject per-event failures
package gcal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
)

type fakeService struct {
	mu      sync.Mutex
	events  []*calendar.Event
	token   string
	nextID  int
	failFor map[string]error // keyed by Summary

	listCalls   int
	insertCalls int
	updateCalls int
	deleteCalls int
	lastMin     time.Time
	lastMax     time.Time
}

func newFakeService(events ...*calendar.Event) *fakeService {
	return &fakeService{events: events, failFor: map[string]error{}}
}

func (f *fakeService) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeService) currentToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeService) List(ctx context.Context, timeMin, timeMax time.Time, maxResults int64) ([]*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.lastMin, f.lastMax = timeMin, timeMax
	if err := f.failFor["*list*"]; err != nil {
		return nil, err
	}
	return f.events, nil
}

func (f *fakeService) Insert(ctx context.Context, event *calendar.Event) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if err := f.failFor[event.Summary]; err != nil {
		return nil, err
	}
	f.nextID++
	created := *event
	created.Id = fmt.Sprintf("evt-%d", f.nextID)
	f.events = append(f.events, &created)
	return &created, nil
}

func (f *fakeService) Update(ctx context.Context, id string, event *calendar.Event) (*calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if err := f.failFor[event.Summary]; err != nil {
		return nil, err
	}
	updated := *event
	updated.Id = id
	return &updated, nil
}

func (f *fakeService) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return nil
}

func (f *fakeService) calls() (list, insert, update, del int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.insertCalls, f.updateCalls, f.deleteCalls
}

// countingLoader returns svc after an optional delay and counts loads.
type countingLoader struct {
	svc   Service
	delay time.Duration
	err   error
	loads atomic.Int32
}

func (l *countingLoader) Load(ctx context.Context) (Service, error) {
	l.loads.Add(1)
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.svc, nil
}

type memoryTokenStore struct {
	mu       sync.Mutex
	token    *oauth2.Token
	loadErr  error
	saveErr  error
	clearErr error
	cleared  bool
}

func (m *memoryTokenStore) Load() (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.token, nil
}

func (m *memoryTokenStore) Save(token *oauth2.Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.token = token
	return nil
}

func (m *memoryTokenStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = true
	if m.clearErr != nil {
		return m.clearErr
	}
	m.token = nil
	return nil
}

// blockingAuthorizer waits for release before returning its token.
type blockingAuthorizer struct {
	token   *oauth2.Token
	err     error
	release chan struct{}
	calls   atomic.Int32
}

func (a *blockingAuthorizer) Authorize(ctx context.Context) (*oauth2.Token, error) {
	a.calls.Add(1)
	if a.release != nil {
		select {
		case <-a.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return a.token, a.err
}

type stubProfiles struct {
	profile *Profile
	err     error
	release chan struct{}
}

func (s *stubProfiles) FetchProfile(ctx context.Context, token string) (*Profile, error) {
	if s.release != nil {
		<-s.release
	}
	return s.profile, s.err
}

type stubRevoker struct {
	err     error
	token   string
	blockTo bool
}

func (r *stubRevoker) Revoke(ctx context.Context, token string) error {
	r.token = token
	if r.blockTo {
		<-ctx.Done()
		return ctx.Err()
	}
	return r.err
}

var errBoom = errors.New("boom")
