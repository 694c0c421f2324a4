package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/marut/grasp/internal/ui/theme"
)

// MenuItem is one entry of a vertical menu. A nil Action makes the entry
// inert; Disabled entries render dimmed and are skipped while navigating.
type MenuItem struct {
	Label    string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical selection menu driven by up/down/enter.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu builds a menu with the first enabled item selected.
func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items}
	for i, it := range items {
		if !it.Disabled {
			m.Selected = i
			break
		}
	}
	return m
}

func (m Menu) Init() tea.Cmd {
	return nil
}

// Update moves the selection or fires the selected item's action.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		m.Selected = m.seek(m.Selected, -1)
	case "down", "j":
		m.Selected = m.seek(m.Selected, 1)
	case "enter":
		if m.Selected >= 0 && m.Selected < len(m.Items) {
			it := m.Items[m.Selected]
			if it.Action != nil && !it.Disabled {
				return m, it.Action()
			}
		}
	}
	return m, nil
}

// seek returns the next enabled index in the given direction, or from when
// there is none.
func (m Menu) seek(from, dir int) int {
	for i := from + dir; i >= 0 && i < len(m.Items); i += dir {
		if !m.Items[i].Disabled {
			return i
		}
	}
	return from
}

func (m Menu) View() string {
	var b strings.Builder
	disabled := lipgloss.NewStyle().Foreground(theme.TextDim)

	for i, it := range m.Items {
		switch {
		case it.Disabled:
			b.WriteString(disabled.Render("    " + it.Label))
		case i == m.Selected:
			b.WriteString(theme.Selected.Render("  ▸ " + it.Label))
		default:
			b.WriteString(theme.Unselected.Render("    " + it.Label))
		}
		b.WriteString("\n")
	}
	return b.String()
}
