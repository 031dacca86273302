package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"ecatalog-admin/internal/api"
	"ecatalog-admin/internal/notify"
)

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.list.promptKind != promptNone {
		switch key {
		case "esc":
			m.list.promptKind = promptNone
			m.list.pathInput.SetValue("")
			m.list.pathInput.Blur()
			return m, nil
		case "enter":
			path := m.list.pathInput.Value()
			if path == "" {
				return m, nil
			}
			kind, target := m.list.promptKind, m.list.promptTargetID
			m.list.promptKind = promptNone
			m.list.pathInput.SetValue("")
			m.list.pathInput.Blur()
			if kind == promptImport {
				return m, m.importXLSXCmd(path)
			}
			return m, m.uploadImageCmd(m.list.res, target, path)
		}
		var cmd tea.Cmd
		m.list.pathInput, cmd = m.list.pathInput.Update(msg)
		return m, cmd
	}

	if m.list.searching {
		switch key {
		case "esc":
			m.list.searching = false
			m.list.searchInput.SetValue("")
			m.list.searchInput.Blur()
			if m.list.query != "" {
				m.list.query = ""
				return m, m.refetchList()
			}
			m.applyListFilter()
			return m, nil
		case "enter":
			// commit the query server-side; until the response lands the
			// local fuzzy filter keeps the view responsive
			m.list.searching = false
			m.list.searchInput.Blur()
			m.list.query = m.list.searchInput.Value()
			m.list.page = 1
			return m, m.refetchList()
		}
		var cmd tea.Cmd
		m.list.searchInput, cmd = m.list.searchInput.Update(msg)
		m.applyListFilter()
		return m, cmd
	}

	switch key {
	case "q", "esc":
		m.state = stateMenu
		return m, nil
	case "up", "k":
		if m.list.index > 0 {
			m.list.index--
			if m.list.index < m.list.offset {
				m.list.offset = m.list.index
			}
		}
	case "down", "j":
		if m.list.index < len(m.list.filteredIdx)-1 {
			m.list.index++
			if m.list.index >= m.list.offset+m.list.viewport {
				m.list.offset = m.list.index - m.list.viewport + 1
			}
		}
	case "left", "p":
		if m.list.page > 1 {
			m.list.page--
			return m, m.refetchList()
		}
	case "right", "n":
		if m.list.page < m.totalListPages() {
			m.list.page++
			return m, m.refetchList()
		}
	case "/":
		m.list.searching = true
		m.list.searchInput.Focus()
		return m, nil
	case "r":
		return m, m.refetchList()
	case "a":
		if formLabels(m.list.res) != nil {
			m.openForm(m.list.res, 0, nil)
		}
		return m, nil
	case "enter":
		row, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		if formLabels(m.list.res) == nil {
			return m, nil
		}
		return m, m.loadFormCmd(m.list.res, row.ID)
	case "u":
		if m.list.res == resUsers {
			return m, nil
		}
		row, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		m.list.promptKind = promptImage
		m.list.promptTargetID = row.ID
		m.list.pathInput.Focus()
		return m, nil
	case "I":
		if m.list.res != resNomenklatura {
			return m, nil
		}
		m.list.promptKind = promptImport
		m.list.pathInput.Focus()
		return m, nil
	case "E":
		if m.list.res != resNomenklatura {
			return m, nil
		}
		return m, m.exportXLSXCmd(false)
	case "T":
		if m.list.res != resNomenklatura {
			return m, nil
		}
		return m, m.exportXLSXCmd(true)
	case "o":
		if m.list.res != resVisits {
			return m, nil
		}
		row, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		m.askConfirm("Check out visit",
			fmt.Sprintf("Check out visit #%d (%s)?", row.ID, row.Title),
			m.checkOutVisitCmd(row.ID))
		return m, nil
	case "t":
		if m.list.res != resUsers {
			return m, nil
		}
		row, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		verb := "Activate"
		if row.Active {
			verb = "Deactivate"
		}
		m.askConfirm(verb+" user",
			fmt.Sprintf("%s %q?", verb, row.Title),
			m.toggleUserCmd(row.ID, !row.Active))
		return m, nil
	case "d":
		row, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		switch m.list.res {
		case resUsers:
			return m, nil
		case resVisits:
			m.askConfirm("Cancel visit",
				fmt.Sprintf("Cancel visit #%d (%s)?", row.ID, row.Title),
				m.deleteCmd(resVisits, row.ID))
		default:
			m.askConfirm("Delete "+m.list.res.String(),
				fmt.Sprintf("Delete %q? This cannot be undone.", row.Title),
				m.deleteCmd(m.list.res, row.ID))
		}
		return m, nil
	}
	return m, nil
}

func (m Model) selectedRow() (listRow, bool) {
	if m.list.index >= len(m.list.filteredIdx) {
		return listRow{}, false
	}
	return m.list.rows[m.list.filteredIdx[m.list.index]], true
}

func (m Model) totalListPages() int {
	return api.TotalPages(m.list.count, m.list.pageSize)
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = stateList
		return m, nil
	case "tab", "down":
		m.focusFormField(m.form.focus + 1)
		return m, nil
	case "shift+tab", "up":
		m.focusFormField(m.form.focus - 1)
		return m, nil
	case "enter":
		if m.form.saving {
			return m, nil
		}
		values := make([]string, len(m.form.fields))
		for i, f := range m.form.fields {
			values[i] = f.input.Value()
		}
		if values[0] == "" {
			m.notices.Push(notify.Error, "Name is required.")
			return m, m.scheduleToastTick()
		}
		m.form.saving = true
		return m, m.saveFormCmd(m.form.res, m.form.id, values)
	}

	var cmd tea.Cmd
	f := &m.form.fields[m.form.focus]
	f.input, cmd = f.input.Update(msg)
	return m, cmd
}

func (m *Model) focusFormField(i int) {
	n := len(m.form.fields)
	if n == 0 {
		return
	}
	m.form.fields[m.form.focus].input.Blur()
	m.form.focus = ((i % n) + n) % n
	m.form.fields[m.form.focus].input.Focus()
}
