// ABOUTME: TUI view for Google Calendar sync status and controls
// ABOUTME: Shows push/pull state and runs them asynchronously via bubbletea commands
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/portal/db"
	"github.com/harperreed/portal/gcal"
	"github.com/harperreed/portal/models"
)

const (
	servicePush = db.ServiceCalendarPush
	servicePull = db.ServiceCalendarPull
)

var syncServices = []string{servicePush, servicePull}

var (
	syncHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	syncServiceStyle = lipgloss.NewStyle().
				Bold(true).
				Width(16)

	syncIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	syncSyncingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)

	syncErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	syncMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)
)

// SyncStateDisplay is one row of the status table.
type SyncStateDisplay struct {
	Service      string
	Status       string
	LastSyncTime string
	ErrorMessage string
}

// SyncCompleteMsg is sent when a push or pull finishes.
type SyncCompleteMsg struct {
	Service string
	Summary string
	Failed  int
	Error   error
}

func serviceLabel(service string) string {
	switch service {
	case servicePush:
		return "Push"
	case servicePull:
		return "Pull"
	}
	return service
}

func (m Model) renderSyncView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("PORTAL AGENDA"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	s.WriteString(m.renderAccountLine())
	s.WriteString("\n\n")

	s.WriteString(syncHeaderStyle.Render("Service Status"))
	s.WriteString("\n\n")

	for _, service := range syncServices {
		var state *SyncStateDisplay
		for j := range m.syncStates {
			if m.syncStates[j].Service == service {
				state = &m.syncStates[j]
				break
			}
		}

		var row strings.Builder
		row.WriteString("  ")
		row.WriteString(syncServiceStyle.Render(serviceLabel(service)))

		switch {
		case m.syncInProgress[service] || (state != nil && state.Status == models.SyncStatusSyncing):
			row.WriteString(syncSyncingStyle.Render("  ⟳ Syncing..."))
		case state == nil:
			row.WriteString(syncMessageStyle.Render("  Not synced yet"))
		case state.Status == models.SyncStatusError:
			row.WriteString(syncErrorStyle.Render("  ✗ Error"))
			if state.ErrorMessage != "" {
				row.WriteString(syncErrorStyle.Render(": " + state.ErrorMessage))
			}
		default:
			row.WriteString(syncIdleStyle.Render("  ✓ Idle"))
			if state.LastSyncTime != "" {
				row.WriteString(syncMessageStyle.Render(" • Last synced " + state.LastSyncTime))
			}
		}

		s.WriteString(row.String())
		s.WriteString("\n")
	}
	s.WriteString("\n")

	if len(m.syncMessages) > 0 {
		s.WriteString(syncHeaderStyle.Render("Recent Activity"))
		s.WriteString("\n\n")
		start := max(0, len(m.syncMessages)-5)
		for _, msg := range m.syncMessages[start:] {
			s.WriteString(syncMessageStyle.Render("  " + msg))
			s.WriteString("\n")
		}
		s.WriteString("\n")
	}

	s.WriteString(m.renderSyncHelp())
	return s.String()
}

func (m Model) renderAccountLine() string {
	if m.session == nil {
		return syncMessageStyle.Render("Google: unavailable")
	}
	snap := m.session.Snapshot()
	if !snap.Authenticated {
		return syncErrorStyle.Render("Google: not signed in (run 'portal auth login')")
	}
	who := "signed in"
	if snap.Profile != nil && snap.Profile.Email != "" {
		who = snap.Profile.Email
	}
	return syncIdleStyle.Render("Google: " + who)
}

func (m Model) renderSyncHelp() string {
	help := []string{
		"p: Push",
		"l: Pull",
		"r: Refresh status",
		"Tab: Agenda",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m *Model) loadSyncStates() {
	m.syncStates = []SyncStateDisplay{}

	states, err := db.GetAllSyncStates(m.db)
	if err != nil {
		return
	}
	for _, state := range states {
		display := SyncStateDisplay{Service: state.Service, Status: state.Status}
		if state.LastSyncTime != nil {
			display.LastSyncTime = formatTimeSince(m.now(), *state.LastSyncTime)
		}
		if state.ErrorMessage != nil {
			display.ErrorMessage = *state.ErrorMessage
		}
		m.syncStates = append(m.syncStates, display)
	}
}

func (m Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "p":
		return m.startSync(servicePush)
	case "l":
		return m.startSync(servicePull)
	case "r":
		m.loadSyncStates()
	case "esc":
		m.viewMode = ViewAgenda
	}
	return m, nil
}

// startSync marks service in progress and returns the command that runs it.
// A second press while it runs is ignored.
func (m Model) startSync(service string) (tea.Model, tea.Cmd) {
	if m.syncInProgress[service] {
		return m, nil
	}
	if m.syncer == nil || m.session == nil || !m.session.Snapshot().Authenticated {
		m.addSyncMessage(fmt.Sprintf("✗ %s skipped: not signed in to Google", strings.ToLower(serviceLabel(service))))
		return m, nil
	}

	m.syncInProgress[service] = true
	m.addSyncMessage(fmt.Sprintf("Starting %s...", strings.ToLower(serviceLabel(service))))
	return m, m.syncService(service)
}

// syncService runs the push or pull off the update loop. The runner
// persists sync_state itself.
func (m Model) syncService(service string) tea.Cmd {
	syncer := m.syncer
	return func() tea.Msg {
		ctx := context.Background()
		switch service {
		case servicePush:
			res, err := syncer.Push(ctx, db.AppointmentFilter{})
			if err != nil {
				return SyncCompleteMsg{Service: service, Error: err}
			}
			return SyncCompleteMsg{Service: service, Summary: res.Summary(), Failed: len(res.Failures)}
		case servicePull:
			res, err := syncer.Pull(ctx)
			if err != nil {
				return SyncCompleteMsg{Service: service, Error: err}
			}
			return SyncCompleteMsg{Service: service, Summary: res.Summary(), Failed: len(res.Failures)}
		}
		return SyncCompleteMsg{Service: service, Error: fmt.Errorf("unknown service %q", service)}
	}
}

func (m *Model) addSyncMessage(msg string) {
	timestamp := m.now().Format("15:04:05")
	m.syncMessages = append(m.syncMessages, fmt.Sprintf("[%s] %s", timestamp, msg))
}

func (m *Model) handleSyncComplete(msg SyncCompleteMsg) {
	m.syncInProgress[msg.Service] = false

	label := strings.ToLower(serviceLabel(msg.Service))
	switch {
	case msg.Error != nil:
		m.addSyncMessage(fmt.Sprintf("✗ %s failed: %s", label, gcal.DescribeError(msg.Error)))
	case msg.Failed > 0:
		m.addSyncMessage(fmt.Sprintf("⚠ %s: %s (%d failed)", label, msg.Summary, msg.Failed))
	default:
		m.addSyncMessage(fmt.Sprintf("✓ %s: %s", label, msg.Summary))
	}

	m.loadSyncStates()
}

// formatTimeSince formats the distance from t to now in a human-readable way.
func formatTimeSince(now, t time.Time) string {
	duration := now.Sub(t)

	switch {
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	default:
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}
