package theme

import (
	"charm.land/lipgloss/v2"

	"github.com/marut/grasp/internal/graph"
)

// Color palette: dark background, cool accents
var (
	Primary   = lipgloss.Color("#38BDF8") // Sky
	Secondary = lipgloss.Color("#818CF8") // Indigo
	Accent    = lipgloss.Color("#FBBF24") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgDark    = lipgloss.Color("#0F172A") // Deep Navy
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// Mastery ramp. The tier colors mirror what the graph service renders in the
// browser so a node looks the same in the terminal and on the canvas.
var (
	TierMastered = lipgloss.NewStyle().Foreground(lipgloss.Color(graph.ColorMastered)).Bold(true)
	TierPartial  = lipgloss.NewStyle().Foreground(lipgloss.Color(graph.ColorPartial))
	TierUnscored = lipgloss.NewStyle().Foreground(lipgloss.Color(graph.ColorUnscored))
)

// NodeStyle maps a decorated node tier to its terminal style.
func NodeStyle(tier graph.Tier) lipgloss.Style {
	switch tier {
	case graph.TierMastered:
		return TierMastered
	case graph.TierPartial:
		return TierPartial
	default:
		return TierUnscored
	}
}

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Layout
var (
	Header = lipgloss.NewStyle().
		Background(BgCard).
		Padding(0, 2)

	Footer = lipgloss.NewStyle().
		Background(BgCard).
		Padding(0, 2)

	Card = lipgloss.NewStyle().
		Background(BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)
