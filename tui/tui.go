// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Full-screen agenda browser with Google Calendar push and pull controls
package tui

import (
	"context"
	"database/sql"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/portal/db"
	"github.com/harperreed/portal/gcal"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewAgenda ViewMode = iota
	ViewSync
)

// Syncer runs persisted calendar push and pull.
type Syncer interface {
	Push(ctx context.Context, filter db.AppointmentFilter) (*gcal.PushResult, error)
	Pull(ctx context.Context) (*gcal.PullResult, error)
}

// SessionView exposes the Google sign-in state.
type SessionView interface {
	Snapshot() gcal.AuthSession
}

// Model is the main bubbletea model
type Model struct {
	db      *sql.DB
	syncer  Syncer
	session SessionView
	now     func() time.Time

	viewMode ViewMode

	// Agenda view state
	selectedRow  int
	showUnsynced bool

	// Sync view state
	syncStates     []SyncStateDisplay
	syncInProgress map[string]bool
	syncMessages   []string

	width  int
	height int
}

// NewModel creates a new TUI model
func NewModel(database *sql.DB, syncer Syncer, session SessionView) Model {
	return Model{
		db:             database,
		syncer:         syncer,
		session:        session,
		now:            time.Now,
		viewMode:       ViewAgenda,
		syncInProgress: make(map[string]bool),
		width:          80,
		height:         24,
	}
}

// Run starts the program in the alternate screen.
func Run(database *sql.DB, syncer Syncer, session SessionView) error {
	p := tea.NewProgram(NewModel(database, syncer, session), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case SyncCompleteMsg:
		m.handleSyncComplete(msg)
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewAgenda:
		return m.renderAgendaView()
	case ViewSync:
		return m.renderSyncView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		if m.viewMode == ViewAgenda {
			m.viewMode = ViewSync
			m.loadSyncStates()
		} else {
			m.viewMode = ViewAgenda
		}
		return m, nil
	}

	switch m.viewMode {
	case ViewAgenda:
		return m.handleAgendaKeys(msg)
	case ViewSync:
		return m.handleSyncKeys(msg)
	}
	return m, nil
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)

func (m Model) renderTabs() string {
	tabs := []string{"Agenda", "Calendar Sync"}
	rendered := make([]string, 0, len(tabs))
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}
