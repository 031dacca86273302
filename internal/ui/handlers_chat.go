package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"ecatalog-admin/internal/api"
)

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.chat.focusInput {
		switch key {
		case "esc":
			m.chat.focusInput = false
			m.chat.attachMode = false
			m.chat.input.Blur()
			m.chat.input.Placeholder = "Message…"
			return m, nil
		case "enter":
			if m.chat.attachMode {
				path := strings.TrimSpace(m.chat.input.Value())
				if path == "" {
					return m, nil
				}
				m.chat.input.SetValue("")
				m.chat.input.Placeholder = "Message…"
				m.chat.attachMode = false
				return m, m.sendAttachmentCmd(m.chat.selectedID, path)
			}
			body := strings.TrimSpace(m.chat.input.Value())
			if body == "" || m.chat.conn == nil {
				return m, nil
			}
			m.chat.input.SetValue("")
			// show the message immediately; the socket echo carries the
			// same client_msg_id and gets de-duplicated
			clientID := uuid.NewString()
			m.chat.log.Append(api.ChatMessage{
				Conversation: m.chat.selectedID,
				Sender:       "operator",
				Body:         body,
				ClientMsgID:  clientID,
			})
			return m, sendChatCmd(m.chat.conn, body, clientID)
		}
		var cmd tea.Cmd
		m.chat.input, cmd = m.chat.input.Update(msg)
		return m, cmd
	}

	switch key {
	case "q", "esc":
		// leaving the screen drops the socket binding
		if m.chat.conn != nil {
			m.chat.conn.Close()
			m.chat.conn = nil
		}
		m.chat.selectedID = 0
		m.state = stateMenu
		return m, nil
	case "up", "k":
		if m.chat.index > 0 {
			m.chat.index--
		}
	case "down", "j":
		if m.chat.index < len(m.chat.conversations)-1 {
			m.chat.index++
		}
	case "r":
		m.chat.loading = true
		return m, tea.Batch(m.spinner.Tick, m.loadConversationsCmd())
	case "i":
		if m.chat.selectedID != 0 {
			m.chat.focusInput = true
			m.chat.input.Focus()
		}
		return m, nil
	case "a":
		// attachments go over HTTP multipart, not the socket
		if m.chat.selectedID != 0 {
			m.chat.focusInput = true
			m.chat.attachMode = true
			m.chat.input.Placeholder = "Path to file…"
			m.chat.input.Focus()
		}
		return m, nil
	case "C":
		if m.chat.index >= len(m.chat.conversations) {
			return m, nil
		}
		conv := m.chat.conversations[m.chat.index]
		m.askConfirm("Close conversation",
			fmt.Sprintf("Close conversation #%d with %s?", conv.ID, conv.ClientName),
			m.closeConversationCmd(conv.ID))
		return m, nil
	case "enter":
		if m.chat.index >= len(m.chat.conversations) {
			return m, nil
		}
		conv := m.chat.conversations[m.chat.index]
		if conv.ID == m.chat.selectedID {
			return m, nil
		}
		// the new socket replaces the old one in handleChatOpened
		m.chat.loading = true
		return m, tea.Batch(m.spinner.Tick, m.openConversationCmd(conv.ID))
	}
	return m, nil
}
