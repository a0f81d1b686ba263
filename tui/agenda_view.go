// ABOUTME: Agenda table view for the TUI
// ABOUTME: Lists upcoming appointments with their calendar sync marker
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/portal/db"
	"github.com/harperreed/portal/models"
)

const agendaLimit = 100

func (m Model) loadAgenda() ([]models.Appointment, error) {
	now := m.now()
	from := now.AddDate(0, 0, -1)
	appts, err := db.ListAppointments(m.db, db.AppointmentFilter{From: &from, Limit: agendaLimit})
	if err != nil {
		return nil, err
	}
	if !m.showUnsynced {
		return appts, nil
	}
	filtered := appts[:0]
	for _, a := range appts {
		if !a.IsSynced() {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

func (m Model) renderAgendaView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("PORTAL AGENDA"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	appts, err := m.loadAgenda()
	if err != nil {
		s.WriteString(fmt.Sprintf("Error: %v", err))
		return s.String()
	}

	if len(appts) == 0 {
		s.WriteString("No upcoming appointments.")
	} else {
		s.WriteString(m.renderAgendaTable(appts))
	}
	s.WriteString("\n\n")
	s.WriteString(m.renderAgendaHelp())

	return s.String()
}

func (m Model) renderAgendaTable(appts []models.Appointment) string {
	columns := []table.Column{
		{Title: "When", Width: 17},
		{Title: "Title", Width: 30},
		{Title: "Client", Width: 18},
		{Title: "Status", Width: 12},
		{Title: "Cal", Width: 3},
	}

	rows := make([]table.Row, 0, len(appts))
	for _, a := range appts {
		marker := ""
		if a.IsSynced() {
			marker = "✓"
		}
		rows = append(rows, table.Row{
			a.ScheduledAt.In(m.now().Location()).Format("2006-01-02 15:04"),
			a.Title,
			a.ClientName,
			a.Status,
			marker,
		})
	}

	height := m.height - 10
	if height < 3 {
		height = 3
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t.View()
}

func (m Model) renderAgendaHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Sync view",
		"u: Toggle unsynced only",
		"p: Push to calendar",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleAgendaKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if appts, err := m.loadAgenda(); err == nil && m.selectedRow < len(appts)-1 {
			m.selectedRow++
		}
	case "u":
		m.showUnsynced = !m.showUnsynced
		m.selectedRow = 0
	case "p":
		return m.startSync(servicePush)
	}
	return m, nil
}
