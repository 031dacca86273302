package ui

import (
	"fmt"
	"strings"
)

func (m Model) View() string {
	if m.state == stateQuit {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("e-Catalog Admin"))
	b.WriteString("\n")
	b.WriteString(dividerStyle.Render(strings.Repeat("─", max(10, m.width-2))))
	b.WriteString("\n\n")

	switch m.state {
	case stateWelcome:
		b.WriteString(m.viewWelcome())
	case stateLogin:
		b.WriteString(m.viewLogin())
	case stateValidating:
		b.WriteString(m.spinner.View() + " " + m.statusMsg)
	case stateMenu:
		b.WriteString(m.viewMenu())
	case stateList:
		b.WriteString(m.viewList())
	case stateForm:
		b.WriteString(m.viewForm())
	case stateSync:
		b.WriteString(m.viewSync())
	case stateChat:
		b.WriteString(m.viewChat())
	case stateTracker:
		b.WriteString(m.viewTracker())
	case stateHealth:
		b.WriteString(m.viewHealth())
	}

	if m.confirm != nil {
		b.WriteString("\n\n")
		b.WriteString(confirmStyle.Render(
			focusStyle.Render(m.confirm.Title) + "\n" +
				m.confirm.Message + "\n\n" +
				helpStyle.Render("y: yes  •  n: no")))
	}

	if toasts := m.notices.Active(); len(toasts) > 0 {
		b.WriteString("\n")
		for _, t := range toasts {
			style, ok := toastStyles[t.Kind]
			if !ok {
				style = subtleStyle
			}
			b.WriteString("\n" + style.Render("▌ "+sanitizeText(t.Message)))
		}
	}
	return b.String()
}

func (m Model) viewWelcome() string {
	var statusLines []string
	if m.cfg.Token != "" {
		statusLines = append(statusLines, okStyle.Render("✓ Token found"))
	} else {
		statusLines = append(statusLines, warnStyle.Render("⚠ No token (~/.ecatrc or ECAT_TOKEN)"))
	}
	statusLines = append(statusLines, subtleStyle.Render("API: "+m.cfg.APIURL))
	if m.statusMsg != "" {
		statusLines = append(statusLines, subtleStyle.Render(m.statusMsg))
	}

	content := subtitleStyle.Render("Catalog, CRM and 1C sync console") + "\n\n" +
		strings.Join(statusLines, "\n")
	return welcomeBoxStyle.Render(content) + "\n" +
		renderFooter("", "Enter: continue  •  q: quit")
}

func (m Model) viewLogin() string {
	var b strings.Builder
	b.WriteString(listHeaderStyle.Render("Sign in") + "\n")
	b.WriteString(m.userInput.View() + "\n")
	b.WriteString(m.passInput.View() + "\n\n")
	if m.loginErr != nil {
		b.WriteString(errorStyle.Render(sanitizeText(m.loginErr.Error())) + "\n\n")
	}
	b.WriteString(renderFooter("", "Tab: switch field  •  Enter: sign in  •  Esc: back"))
	return b.String()
}

func (m Model) viewMenu() string {
	var b strings.Builder
	b.WriteString(listHeaderStyle.Render("Main menu") + "\n")
	for i, e := range menuEntries {
		if i == m.menuIndex {
			b.WriteString(selectedItemStyle.Render("> "+e.label) + "\n")
		} else {
			b.WriteString(itemStyle.Render("  "+e.label) + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(renderFooter("", "↑/↓: move  •  Enter: open  •  q: quit"))
	return b.String()
}

func (m Model) viewForm() string {
	var b strings.Builder
	verb := "Edit"
	if m.form.id == 0 {
		verb = "New"
	}
	b.WriteString(listHeaderStyle.Render(fmt.Sprintf("%s %s", verb, m.form.res)) + "\n")
	for i, f := range m.form.fields {
		label := f.label
		if i == m.form.focus {
			label = focusStyle.Render(label)
		} else {
			label = subtleStyle.Render(label)
		}
		b.WriteString(label + "\n" + f.input.View() + "\n")
	}
	b.WriteString("\n")
	status := ""
	if m.form.saving {
		status = m.spinner.View() + " saving…"
	}
	b.WriteString(renderFooter(status, "Tab: next field  •  Enter: save  •  Esc: cancel"))
	return b.String()
}

func (m Model) viewHealth() string {
	var b strings.Builder
	b.WriteString(listHeaderStyle.Render("Backend health") + "\n")
	switch m.health.Status {
	case "ok":
		b.WriteString(okStyle.Render("● "+m.health.Status) + "\n")
	case "degraded":
		b.WriteString(warnStyle.Render("● "+m.health.Status) + "\n")
	case "":
		b.WriteString(m.spinner.View() + " checking…\n")
	default:
		b.WriteString(errorStyle.Render("● "+m.health.Status) + "\n")
	}
	if m.health.Version != "" {
		b.WriteString(subtleStyle.Render("version "+m.health.Version) + "\n")
	}
	if m.health.UptimeSecs > 0 {
		b.WriteString(subtleStyle.Render(fmt.Sprintf("uptime %ds", m.health.UptimeSecs)) + "\n")
	}
	for name, st := range m.health.Components {
		line := fmt.Sprintf("%-10s %s", name, st)
		if st == "ok" {
			b.WriteString(okStyle.Render("  "+line) + "\n")
		} else {
			b.WriteString(warnStyle.Render("  "+line) + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(renderFooter("", "r: refresh  •  Esc: back"))
	return b.String()
}
