// ABOUTME: Tests for userinfo lookup and token revocation over fake HTTP servers
// ABOUTME: Checks request shape and error handling for both helpers
package gcal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestGoogleProfileFetcher(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"42","name":"Jane Smith","email":"jane@example.com","picture":"https://example.com/jane.png"}`))
	}))
	defer srv.Close()

	fetcher := &GoogleProfileFetcher{Options: []option.ClientOption{option.WithEndpoint(srv.URL + "/")}}
	profile, err := fetcher.FetchProfile(context.Background(), "tok")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "42", profile.ID)
	assert.Equal(t, "Jane Smith", profile.Name)
	assert.Equal(t, "jane@example.com", profile.Email)
	assert.Equal(t, "https://example.com/jane.png", profile.PictureURL)
}

func TestGoogleProfileFetcherError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	fetcher := &GoogleProfileFetcher{Options: []option.ClientOption{option.WithEndpoint(srv.URL + "/")}}
	_, err := fetcher.FetchProfile(context.Background(), "tok")
	assert.Error(t, err)
}

func TestHTTPRevoker(t *testing.T) {
	var gotToken, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		_ = r.ParseForm()
		gotToken = r.PostForm.Get("token")
	}))
	defer srv.Close()

	revoker := &HTTPRevoker{Endpoint: srv.URL}
	require.NoError(t, revoker.Revoke(context.Background(), "tok-to-revoke"))
	assert.Equal(t, "tok-to-revoke", gotToken)
	assert.Equal(t, "application/x-www-form-urlencoded", gotType)
}

func TestHTTPRevokerNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_token", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := (&HTTPRevoker{Endpoint: srv.URL}).Revoke(context.Background(), "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "invalid_token")
}

func TestHTTPRevokerHonorsDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := (&HTTPRevoker{Endpoint: srv.URL}).Revoke(ctx, "tok")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
