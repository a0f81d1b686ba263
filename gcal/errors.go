// ABOUTME: Error taxonomy for the Google Calendar integration
// ABOUTME: Sentinel errors matched with errors.Is by CLI, MCP and web callers
package gcal

import "errors"

var (
	// ErrValidation means a record is structurally incomplete and cannot be synced.
	ErrValidation = errors.New("cannot sync this record")

	// ErrNotAuthenticated means no access token is held; the user must sign in again.
	ErrNotAuthenticated = errors.New("not authenticated with Google Calendar, please sign in again")

	// ErrInvalidToken rejects an empty access token.
	ErrInvalidToken = errors.New("invalid access token")

	// ErrInvalidID rejects an empty event id before any request is made.
	ErrInvalidID = errors.New("invalid event id")

	// ErrInvalidState means a session operation was called from the wrong state.
	ErrInvalidState = errors.New("invalid session state")
)
