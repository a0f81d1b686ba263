// ABOUTME: Tests for the Google-backed calendar loader against a fake REST server
// ABOUTME: Verifies bearer tokens, list parameters and API error surfacing
package gcal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type fakeCalendarAPI struct {
	mu      sync.Mutex
	auth    []string
	queries []string
	status  int
}

func (f *fakeCalendarAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.queries = append(f.queries, r.URL.RawQuery)
	status := f.status
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
		return
	}

	if !strings.HasSuffix(r.URL.Path, "/calendars/primary/events") && !strings.Contains(r.URL.Path, "/calendars/primary/events/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "evt-1", "summary": "From server", "start": map[string]string{"dateTime": "2026-02-01T09:00:00Z"}},
			},
		})
	case http.MethodPost, http.MethodPut:
		var ev calendar.Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		if ev.Id == "" {
			ev.Id = "created-1"
		}
		_ = json.NewEncoder(w).Encode(ev)
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *fakeCalendarAPI) lastAuth() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth[len(f.auth)-1]
}

func (f *fakeCalendarAPI) lastQuery() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func newGoogleTestClient(t *testing.T, api *fakeCalendarAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	loader := GoogleLoader("primary", option.WithEndpoint(srv.URL+"/calendar/v3/"))
	return NewClient(loader)
}

func TestGoogleLoaderListSendsBearerToken(t *testing.T) {
	api := &fakeCalendarAPI{}
	client := newGoogleTestClient(t, api)
	require.NoError(t, client.SetAccessToken("secret-token"))

	events, err := client.ListEvents(context.Background(), nil, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt-1", events[0].Id)

	assert.Equal(t, "Bearer secret-token", api.lastAuth())
	query := api.lastQuery()
	assert.Contains(t, query, "singleEvents=true")
	assert.Contains(t, query, "orderBy=startTime")
	assert.Contains(t, query, "maxResults=100")
}

func TestGoogleLoaderPicksUpNewToken(t *testing.T) {
	api := &fakeCalendarAPI{}
	client := newGoogleTestClient(t, api)
	require.NoError(t, client.SetAccessToken("first"))

	_, err := client.CreateEvent(context.Background(), &calendar.Event{Summary: "New"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer first", api.lastAuth())

	require.NoError(t, client.SetAccessToken("second"))
	updated, err := client.UpdateEvent(context.Background(), "evt-1", &calendar.Event{Id: "evt-1", Summary: "Changed"})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", updated.Id)
	assert.Equal(t, "Bearer second", api.lastAuth())

	require.NoError(t, client.DeleteEvent(context.Background(), "evt-1"))
}

func TestGoogleLoaderSurfacesAPIErrors(t *testing.T) {
	api := &fakeCalendarAPI{status: http.StatusUnauthorized}
	client := newGoogleTestClient(t, api)
	require.NoError(t, client.SetAccessToken("expired"))

	_, err := client.ListEvents(context.Background(), nil, nil)
	require.Error(t, err)
	assert.Contains(t, DescribeError(err), "401")
}
