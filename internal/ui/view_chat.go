package ui

import (
	"fmt"
	"strings"
)

func (m Model) viewChat() string {
	var b strings.Builder
	b.WriteString(listHeaderStyle.Render("Chat") + "\n")

	if !m.chat.loading && !m.chat.settings.Enabled {
		b.WriteString(warnStyle.Render("Chat is disabled on the server.") + "\n")
	} else if name := m.chat.settings.OperatorName; name != "" {
		b.WriteString(subtleStyle.Render("Operator: "+sanitizeText(name)) + "\n")
	}

	if m.chat.loading && len(m.chat.conversations) == 0 {
		b.WriteString(m.spinner.View() + " loading…\n")
		return b.String()
	}
	if len(m.chat.conversations) == 0 {
		b.WriteString(subtleStyle.Render("No conversations.") + "\n\n")
		b.WriteString(renderFooter("", "r: reload  •  Esc: back"))
		return b.String()
	}

	for i, conv := range m.chat.conversations {
		label := fmt.Sprintf("#%d %s", conv.ID, sanitizeText(conv.ClientName))
		if conv.UnreadCount > 0 {
			label += warnStyle.Render(fmt.Sprintf(" (%d)", conv.UnreadCount))
		}
		if conv.Status == "closed" {
			label = inactiveStyle.Render(label)
		}
		marker := "  "
		if conv.ID == m.chat.selectedID {
			marker = okStyle.Render("● ")
		}
		if i == m.chat.index {
			b.WriteString(selectedItemStyle.Render(marker+label) + "\n")
		} else {
			b.WriteString(itemStyle.Render(marker+label) + "\n")
		}
	}

	if m.chat.selectedID != 0 {
		b.WriteString("\n" + dividerStyle.Render(strings.Repeat("─", max(10, m.width-2))) + "\n")
		b.WriteString(m.renderMessages())
		b.WriteString("\n" + m.chat.input.View() + "\n")
	}

	b.WriteString("\n")
	help := "↑/↓: move  •  Enter: open  •  C: close  •  r: reload  •  Esc: back"
	if m.chat.selectedID != 0 {
		switch {
		case m.chat.focusInput && m.chat.attachMode:
			help = "Enter: upload file  •  Esc: cancel"
		case m.chat.focusInput:
			help = "Enter: send  •  Esc: leave input"
		default:
			help = "i: write  •  a: attach  •  " + help
		}
	}
	status := ""
	if m.chat.selectedID != 0 && m.chat.conn == nil {
		status = warnStyle.Render("disconnected")
	}
	b.WriteString(renderFooter(status, help))
	return b.String()
}

func (m Model) renderMessages() string {
	msgs := m.chat.log.Messages()
	start := max(0, len(msgs)-12)
	var b strings.Builder
	for _, msg := range msgs[start:] {
		who := sanitizeText(msg.SenderName)
		if who == "" {
			who = msg.Sender
		}
		prefix := subtitleStyle.Render(who + ":")
		if msg.Sender == "operator" {
			prefix = okStyle.Render(who + ":")
		}
		body := sanitizeText(msg.Body)
		if msg.FileURL != "" {
			body += subtleStyle.Render(" [file] " + sanitizeText(msg.FileURL))
		}
		if msg.ImageURL != "" {
			body += subtleStyle.Render(" [image] " + sanitizeText(msg.ImageURL))
		}
		b.WriteString(prefix + " " + body + "\n")
	}
	return b.String()
}
