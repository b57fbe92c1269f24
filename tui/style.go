package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindResult lineKind = iota
	kindMet
	kindUnmet
	kindSystem
	kindWarning
	kindError
	kindInput
)

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

var (
	barStyle    = lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("252")).Bold(true)
	promptStyle = fg("34")

	kindStyles = map[lineKind]lipgloss.Style{
		kindResult:  fg("255"),
		kindMet:     fg("34").Bold(true),
		kindUnmet:   fg("203"),
		kindSystem:  fg("243"),
		kindWarning: fg("214"),
		kindError:   fg("196"),
		kindInput:   fg("34"),
	}
)

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "error:"):
		return kindError
	case strings.HasPrefix(line, "warning:"):
		return kindWarning
	case strings.HasSuffix(line, "= true"):
		return kindMet
	case strings.HasSuffix(line, "= false"):
		return kindUnmet
	}
	return kindResult
}

func render(kind lineKind, text string) string {
	return kindStyles[kind].Render(text)
}
