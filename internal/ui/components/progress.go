package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/marut/grasp/internal/ui/theme"
)

// ProgressBar renders a one-line bar for document generation progress.
// Filled cells use block glyphs rather than background color so the bar
// survives terminals that drop backgrounds.
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int
}

func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{Label: label, Percent: percent, ShowPercent: showPercent, Width: width}
}

func (p ProgressBar) View() string {
	var b strings.Builder
	if p.Label != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label))
		b.WriteString("  ")
	}

	reserved := lipgloss.Width(b.String())
	if p.ShowPercent {
		reserved += 6
	}
	cells := p.Width - reserved
	if cells < 4 {
		cells = 4
	}

	pct := clamp01(p.Percent)
	filled := int(pct * float64(cells))

	b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).
		Render(strings.Repeat("█", filled)))
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).
		Render(strings.Repeat("░", cells-filled)))

	if p.ShowPercent {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).
			Render(fmt.Sprintf("  %d%%", int(pct*100))))
	}
	return b.String()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
