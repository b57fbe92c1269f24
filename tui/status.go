package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderStatusBar draws one full-width line: objective count on the left,
// online actors and active assignments on the right. Actor names collapse
// to a count when they do not fit.
func (m Model) renderStatusBar() string {
	eng := m.console.Engine
	online := eng.Online()
	names := eng.Objectives.Names()

	active := 0
	for _, name := range names {
		if tr, err := eng.Objectives.Tracker(name); err == nil {
			active += tr.Len()
		}
	}

	left := fmt.Sprintf(" questrules | Objectives: %d", len(names))
	var right string
	switch {
	case len(online) == 0:
		right = fmt.Sprintf("Active: %d ", active)
	default:
		right = fmt.Sprintf("Online: %s | Active: %d ", strings.Join(online, ", "), active)
		if lipgloss.Width(left)+lipgloss.Width(right)+2 >= m.width {
			right = fmt.Sprintf("Online: %d | Active: %d ", len(online), active)
		}
	}

	pad := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return barStyle.Width(m.width).Render(left + strings.Repeat(" ", pad) + right)
}
