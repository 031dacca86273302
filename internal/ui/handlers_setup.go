package ui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"ecatalog-admin/internal/notify"
)

func (m Model) handleWelcomeKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q", "esc":
		return m.quit()
	case "enter":
		if m.client.Session().Authenticated() {
			m.state = stateValidating
			m.statusMsg = "Validating token…"
			return m, tea.Batch(m.spinner.Tick, m.validateTokenCmd())
		}
		m.state = stateLogin
		m.userInput.Focus()
		return m, nil
	}
	return m, nil
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = stateWelcome
		return m, nil
	case "tab", "shift+tab", "down", "up":
		if m.userInput.Focused() {
			m.userInput.Blur()
			m.passInput.Focus()
		} else {
			m.passInput.Blur()
			m.userInput.Focus()
		}
		return m, nil
	case "enter":
		user := strings.TrimSpace(m.userInput.Value())
		pass := m.passInput.Value()
		if user == "" || pass == "" {
			m.loginErr = errEmptyCredentials
			return m, nil
		}
		m.loginErr = nil
		m.state = stateValidating
		m.statusMsg = "Signing in…"
		return m, tea.Batch(m.spinner.Tick, m.loginCmd(user, pass))
	}

	var cmd tea.Cmd
	if m.userInput.Focused() {
		m.userInput, cmd = m.userInput.Update(msg)
	} else {
		m.passInput, cmd = m.passInput.Update(msg)
	}
	return m, cmd
}

// handleConfirmKey resolves the pending prompt. The Confirm callback is
// single-shot and is the only place the action escapes, so a stacked
// keypress cannot fire it twice.
func (m Model) handleConfirmKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y", "enter":
		p := m.confirm
		cell := m.confirmAction
		m.confirm = nil
		m.confirmAction = nil
		p.Resolve(true)
		if cell == nil || *cell == nil {
			return m, nil
		}
		return m, *cell
	case "n", "N", "esc", "q":
		p := m.confirm
		m.confirm = nil
		m.confirmAction = nil
		p.Resolve(false)
		return m, nil
	}
	return m, nil
}

// askConfirm arms the modal. The action is released by the Confirm
// callback itself: only an affirmative first Resolve fills the cell.
func (m *Model) askConfirm(title, message string, action tea.Cmd) {
	cell := new(tea.Cmd)
	m.confirm = notify.NewConfirm(title, message, func(ok bool) {
		if ok {
			*cell = action
		}
	})
	m.confirmAction = cell
}

var errEmptyCredentials = errors.New("username and password are required")
