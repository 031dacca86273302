package ui

import (
	"fmt"
	"strings"
	"time"
)

func (m Model) viewTracker() string {
	var b strings.Builder
	b.WriteString(listHeaderStyle.Render("Agent Tracker") + "\n")
	b.WriteString(subtleStyle.Render("Date: "+m.trk.date) + "\n\n")

	if m.trk.loading && len(m.trk.agents) == 0 {
		b.WriteString(m.spinner.View() + " loading…\n")
		return b.String()
	}
	if len(m.trk.agents) == 0 {
		b.WriteString(subtleStyle.Render("No agents have reported locations.") + "\n\n")
		b.WriteString(renderFooter("", "r: reload  •  Esc: back"))
		return b.String()
	}

	for i, a := range m.trk.agents {
		name := a.Username
		if a.FirstName != "" || a.LastName != "" {
			name = strings.TrimSpace(a.FirstName + " " + a.LastName)
		}
		label := sanitizeText(name)
		if i == m.trk.index {
			b.WriteString(selectedItemStyle.Render("> "+label) + "\n")
		} else {
			b.WriteString(itemStyle.Render("  "+label) + "\n")
		}
	}

	if m.trk.points > 0 {
		s := m.trk.stats
		b.WriteString("\n" + focusStyle.Render("Trajectory") + "\n")
		b.WriteString(fmt.Sprintf("  %d points  %.1f km  %s on route  avg %.1f km/h\n",
			s.Points, s.TotalDistanceM/1000, s.Duration.Round(time.Minute), s.AvgSpeedKmh))
		if len(s.Stops) > 0 {
			b.WriteString(fmt.Sprintf("  %d stops:\n", len(s.Stops)))
			for _, st := range s.Stops {
				b.WriteString(subtleStyle.Render(fmt.Sprintf("    %.5f,%.5f for %s",
					st.Latitude, st.Longitude, st.Duration().Round(time.Minute))) + "\n")
			}
		}
	} else if !m.trk.loading {
		b.WriteString("\n" + subtleStyle.Render("No trajectory for this day.") + "\n")
	}

	if len(m.trk.regional) > 0 {
		b.WriteString("\n" + focusStyle.Render("Regional activity") + "\n")
		for _, r := range m.trk.regional {
			b.WriteString(subtleStyle.Render(fmt.Sprintf("  %-20s %3d visits, %d agents",
				sanitizeText(r.Region), r.VisitCount, r.AgentCount)) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(renderFooter("", "↑/↓: agent  •  Enter: load  •  ←/→: day  •  r: reload  •  Esc: back"))
	return b.String()
}
