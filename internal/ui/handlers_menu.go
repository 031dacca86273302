package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// menuEntry is one row of the main menu.
type menuEntry struct {
	label string
	run   func(*Model) tea.Cmd
}

var menuEntries = []menuEntry{
	{"Projects", func(m *Model) tea.Cmd { return m.enterList(resProjects) }},
	{"Clients", func(m *Model) tea.Cmd { return m.enterList(resClients) }},
	{"Nomenklatura", func(m *Model) tea.Cmd { return m.enterList(resNomenklatura) }},
	{"Users", func(m *Model) tea.Cmd { return m.enterList(resUsers) }},
	{"Visits", func(m *Model) tea.Cmd { return m.enterList(resVisits) }},
	{"1C Sync", func(m *Model) tea.Cmd { return m.enterSync() }},
	{"Chat", func(m *Model) tea.Cmd { return m.enterChat() }},
	{"Agent Tracker", func(m *Model) tea.Cmd { return m.enterTracker() }},
	{"Health", func(m *Model) tea.Cmd { return m.enterHealth() }},
}

func (m Model) handleMenuKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "esc":
		return m.quit()
	case "up", "k":
		if m.menuIndex > 0 {
			m.menuIndex--
		}
	case "down", "j":
		if m.menuIndex < len(menuEntries)-1 {
			m.menuIndex++
		}
	case "enter":
		return m, menuEntries[m.menuIndex].run(&m)
	}
	return m, nil
}

func (m *Model) enterList(res resource) tea.Cmd {
	m.state = stateList
	m.list.res = res
	m.list.page = 1
	m.list.index = 0
	m.list.offset = 0
	m.list.rows = nil
	m.list.filteredIdx = nil
	m.list.count = 0
	m.list.query = ""
	m.list.searching = false
	m.list.searchInput.SetValue("")
	m.list.promptKind = promptNone
	m.list.pathInput.SetValue("")
	m.list.visitStats = nil
	return m.refetchList()
}

func (m *Model) enterSync() tea.Cmd {
	m.state = stateSync
	m.sync.loading = true
	return tea.Batch(m.spinner.Tick, m.loadIntegrationsCmd())
}

func (m *Model) enterChat() tea.Cmd {
	m.state = stateChat
	m.chat.loading = true
	m.chat.focusInput = false
	return tea.Batch(m.spinner.Tick, m.loadConversationsCmd())
}

func (m *Model) enterTracker() tea.Cmd {
	m.state = stateTracker
	m.trk.loading = true
	return tea.Batch(m.spinner.Tick, m.loadAgentsCmd())
}

func (m *Model) enterHealth() tea.Cmd {
	m.state = stateHealth
	return m.loadHealthCmd()
}
