// ABOUTME: Appointment deduplication by external event id
// ABOUTME: Decides whether a pulled event is already present locally
package gcal

import (
	"strings"

	"github.com/harperreed/portal/models"
)

// EventMatcher indexes local appointments by external event id. Matching
// is identity-based: two events describing the same meeting under
// different ids are distinct.
type EventMatcher struct {
	byID map[string]struct{}
}

// NewEventMatcher indexes every appointment that carries an external id.
func NewEventMatcher(appts []models.Appointment) *EventMatcher {
	m := &EventMatcher{byID: make(map[string]struct{}, len(appts))}
	for _, a := range appts {
		m.Add(a.ExternalEventID)
	}
	return m
}

// Has reports whether id is already known.
func (m *EventMatcher) Has(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	_, ok := m.byID[id]
	return ok
}

// Add records id so a repeat within the same pull is skipped too.
func (m *EventMatcher) Add(id string) {
	id = strings.TrimSpace(id)
	if id != "" {
		m.byID[id] = struct{}{}
	}
}

// Len is the number of known ids.
func (m *EventMatcher) Len() int {
	return len(m.byID)
}
