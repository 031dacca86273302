package ui

import (
	"fmt"
	"strings"
)

func (m Model) viewList() string {
	var b strings.Builder
	b.WriteString(listHeaderStyle.Render(m.list.res.String()) + "\n")

	if m.list.searching || m.list.searchInput.Value() != "" {
		b.WriteString(m.list.searchInput.View() + "\n\n")
	}

	if m.list.promptKind != promptNone {
		label := "Image file"
		if m.list.promptKind == promptImport {
			label = "XLSX file"
		}
		b.WriteString(label + ": " + m.list.pathInput.View() + "\n\n")
	}

	if m.list.res == resVisits && m.list.visitStats != nil {
		s := m.list.visitStats
		b.WriteString(subtleStyle.Render(fmt.Sprintf(
			"%d visits · %d planned · %d in progress · %d completed · %d cancelled",
			s.Total, s.Planned, s.InProgress, s.Completed, s.Cancelled)) + "\n\n")
	}

	switch {
	case m.list.loading && len(m.list.rows) == 0:
		b.WriteString(m.spinner.View() + " loading…\n")
	case len(m.list.filteredIdx) == 0:
		b.WriteString(subtleStyle.Render("Nothing here.") + "\n")
	default:
		end := min(m.list.offset+m.list.viewport, len(m.list.filteredIdx))
		for vi := m.list.offset; vi < end; vi++ {
			row := m.list.rows[m.list.filteredIdx[vi]]
			line := m.renderListRow(row, vi == m.list.index)
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(renderFooter(m.listFooterStatus(), m.listFooterHelp()))
	return b.String()
}

func (m Model) renderListRow(row listRow, selected bool) string {
	title := sanitizeText(row.Title)
	sub := sanitizeText(row.Subtitle)
	text := fmt.Sprintf("#%-5d %s", row.ID, title)
	if sub != "" {
		text += "  " + sub
	}
	width := m.width - 4
	if width > 10 {
		text = truncateLine(text, width)
	}
	if !row.Active {
		text = inactiveStyle.Render(text)
	}
	if selected {
		return selectedItemStyle.Render(text)
	}
	return itemStyle.Render(text)
}

// listFooterStatus renders the pagination line, e.g. "Page 2/3 · 45 items".
func (m Model) listFooterStatus() string {
	total := m.totalListPages()
	if total == 0 {
		total = 1
	}
	status := fmt.Sprintf("Page %d/%d · %d items", m.list.page, total, m.list.count)
	if m.list.loading {
		status += "  " + m.spinner.View()
	}
	if q := m.list.searchInput.Value(); q != "" && !m.list.searching {
		status += fmt.Sprintf("  filter: %q", q)
	}
	return status
}

func (m Model) listFooterHelp() string {
	if m.list.promptKind != promptNone {
		return "type the path  •  Enter: upload  •  Esc: cancel"
	}
	if m.list.searching {
		return "type to filter  •  Enter: search server-side  •  Esc: clear"
	}
	help := "↑/↓: move  •  ←/→: page  •  /: search  •  r: reload  •  Esc: back"
	switch m.list.res {
	case resUsers:
		help = "t: toggle active  •  " + help
	case resVisits:
		help = "o: check out  •  u: image  •  d: cancel visit  •  " + help
	case resNomenklatura:
		help = "a: new  •  Enter: edit  •  d: delete  •  u: image  •  I/E/T: import/export/template  •  " + help
	default:
		help = "a: new  •  Enter: edit  •  d: delete  •  u: image  •  " + help
	}
	return help
}
