package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) handleTrackerKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "esc":
		m.state = stateMenu
		return m, nil
	case "up", "k":
		if m.trk.index > 0 {
			m.trk.index--
		}
	case "down", "j":
		if m.trk.index < len(m.trk.agents)-1 {
			m.trk.index++
		}
	case "left", "p":
		m.trk.date = shiftDate(m.trk.date, -1)
		return m.reloadTrajectory()
	case "right", "n":
		m.trk.date = shiftDate(m.trk.date, 1)
		return m.reloadTrajectory()
	case "r":
		m.trk.loading = true
		return m, tea.Batch(m.spinner.Tick, m.loadAgentsCmd())
	case "enter":
		return m.reloadTrajectory()
	}
	return m, nil
}

func (m Model) reloadTrajectory() (tea.Model, tea.Cmd) {
	if m.trk.index >= len(m.trk.agents) {
		return m, nil
	}
	agent := m.trk.agents[m.trk.index]
	m.trk.loading = true
	return m, tea.Batch(m.spinner.Tick, m.loadTrajectoryCmd(agent.ID, m.trk.date))
}

func shiftDate(date string, days int) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		t = time.Now()
	}
	return t.AddDate(0, 0, days).Format("2006-01-02")
}

func (m Model) handleHealthKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "esc":
		m.state = stateMenu
		return m, nil
	case "r":
		return m, m.loadHealthCmd()
	}
	return m, nil
}
