package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"ecatalog-admin/internal/api"
)

func (m Model) viewSync() string {
	var b strings.Builder
	b.WriteString(listHeaderStyle.Render("1C Synchronization") + "\n")

	if m.sync.loading && len(m.sync.integrations) == 0 {
		b.WriteString(m.spinner.View() + " loading integrations…\n")
		return b.String()
	}
	if len(m.sync.integrations) == 0 {
		b.WriteString(subtleStyle.Render("No integrations configured.") + "\n\n")
		b.WriteString(renderFooter("", "r: reload  •  Esc: back"))
		return b.String()
	}

	for i, in := range m.sync.integrations {
		label := fmt.Sprintf("%s (project %d)", sanitizeText(in.Name), in.Project)
		if !in.IsActive {
			label = inactiveStyle.Render(label)
		}
		if i == m.sync.index {
			b.WriteString(selectedItemStyle.Render("> "+label) + "\n")
		} else {
			b.WriteString(itemStyle.Render("  "+label) + "\n")
		}
	}

	if len(m.sync.runs) > 0 {
		b.WriteString("\n" + focusStyle.Render("Runs") + "\n")
		for _, key := range sortedRunKeys(m.sync.runs) {
			b.WriteString(m.renderRun(key, m.sync.runs[key]) + "\n")
		}
	}

	if len(m.sync.history) > 0 {
		b.WriteString("\n" + focusStyle.Render("History") + "\n")
		for i, h := range m.sync.history {
			if i >= 5 {
				break
			}
			b.WriteString(subtleStyle.Render("  "+renderHistoryEntry(h)) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(renderFooter(m.httpStatsLine(),
		"n: sync nomenklatura  •  c: sync clients  •  x: cancel all  •  r: reload  •  Esc: back"))
	return b.String()
}

// httpStatsLine summarizes transport activity for the footer.
func (m Model) httpStatsLine() string {
	snap := m.client.Metrics().Snapshot()
	line := fmt.Sprintf("HTTP: %d requests (%d read / %d write), %d retries",
		snap.TotalRequests, snap.ReadRequests, snap.WriteRequests, snap.TotalRetries)
	if snap.TotalBackoffNanos > 0 {
		line += fmt.Sprintf(", %s backoff", time.Duration(snap.TotalBackoffNanos).Round(time.Millisecond))
	}
	if snap.Status429 > 0 || snap.Status5xx > 0 {
		line += fmt.Sprintf(" · %d rate-limited, %d server errors", snap.Status429, snap.Status5xx)
	}
	return line
}

func (m Model) renderRun(key string, rv *syncRunView) string {
	t := rv.task
	switch {
	case rv.active && t.TaskID == "":
		return fmt.Sprintf("  %s %s starting…", key, m.spinner.View())
	case rv.active:
		return fmt.Sprintf("  %s [%s] %s %d/%d",
			key, t.Status, rv.bar.ViewAs(t.Progress()), t.ProcessedItems, t.TotalItems)
	case t.Status == api.StatusError:
		return "  " + errorStyle.Render(fmt.Sprintf("%s failed: %s", key, sanitizeText(t.ErrorDetails)))
	default:
		return "  " + okStyle.Render(fmt.Sprintf("%s done: %d created / %d updated / %d errors",
			key, t.CreatedItems, t.UpdatedItems, t.ErrorItems))
	}
}

func renderHistoryEntry(h api.SyncHistoryEntry) string {
	line := fmt.Sprintf("%s #%d [%s] %d/%d", h.SyncType, h.Integration, h.Status,
		h.ProcessedItems, h.TotalItems)
	if h.ErrorItems > 0 {
		line += fmt.Sprintf(" (%d errors)", h.ErrorItems)
	}
	if h.CompletedAt != "" {
		line += " " + h.CompletedAt
	}
	return line
}

func sortedRunKeys(runs map[string]*syncRunView) []string {
	keys := make([]string, 0, len(runs))
	for k := range runs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
