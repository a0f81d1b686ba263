// ABOUTME: Google user profile lookup and access token revocation
// ABOUTME: Best-effort helpers used by the session after sign-in and on sign-out
package gcal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// DefaultRevokeURL is Google's token revocation endpoint.
const DefaultRevokeURL = "https://oauth2.googleapis.com/revoke"

// ProfilePlaceholderEmail is shown until the profile fetch completes.
const ProfilePlaceholderEmail = "Loading..."

// Profile is the signed-in user's display information.
type Profile struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	PictureURL string `json:"picture_url,omitempty"`
}

// ProfileFetcher resolves the user behind an access token.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

// GoogleProfileFetcher calls the userinfo endpoint.
type GoogleProfileFetcher struct {
	Options []option.ClientOption
}

func (f *GoogleProfileFetcher) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	opts := append([]option.ClientOption{option.WithTokenSource(ts)}, f.Options...)

	svc, err := oauth2api.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}

	return &Profile{
		ID:         info.Id,
		Name:       info.Name,
		Email:      info.Email,
		PictureURL: info.Picture,
	}, nil
}

// Revoker invalidates an access token remotely.
type Revoker interface {
	Revoke(ctx context.Context, accessToken string) error
}

// HTTPRevoker posts the token to an OAuth revocation endpoint.
type HTTPRevoker struct {
	Endpoint   string
	HTTPClient *http.Client
}

func (r *HTTPRevoker) Revoke(ctx context.Context, accessToken string) error {
	endpoint := r.Endpoint
	if endpoint == "" {
		endpoint = DefaultRevokeURL
	}
	client := r.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	form := url.Values{"token": {accessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build revoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("revoke returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
