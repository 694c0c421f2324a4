package components

import (
	"strconv"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/marut/grasp/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with Grasp styling and a submit marker.
// NumericOnly inputs drop every printable key that is not a digit before the
// wrapped model sees it.
type TextInput struct {
	Model       textinput.Model
	NumericOnly bool
	MaxWidth    int

	submitted bool
	valid     bool
}

// NewTextInput creates a focused input. maxWidth > 0 doubles as the
// character limit.
func NewTextInput(placeholder string, numericOnly bool, maxWidth int) TextInput {
	m := textinput.New()
	m.Placeholder = placeholder
	m.Focus()
	if maxWidth > 0 {
		m.CharLimit = maxWidth
	}
	return TextInput{Model: m, NumericOnly: numericOnly, MaxWidth: maxWidth}
}

func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if t.NumericOnly {
		if kmsg, ok := msg.(tea.KeyMsg); ok {
			if k := kmsg.String(); len(k) == 1 && (k[0] < '0' || k[0] > '9') {
				return t, nil
			}
		}
	}

	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the input, with a trailing check or cross once submitted.
func (t TextInput) View() string {
	v := t.Model.View()
	if !t.submitted {
		return v
	}
	if t.valid {
		return v + " " + lipgloss.NewStyle().Foreground(theme.Success).Render("✓")
	}
	return v + " " + lipgloss.NewStyle().Foreground(theme.Error).Render("✗")
}

// Value returns the current input text.
func (t TextInput) Value() string {
	return t.Model.Value()
}

// NumericValue parses the input as an integer.
func (t TextInput) NumericValue() (int, error) {
	return strconv.Atoi(t.Model.Value())
}

// Submit records a validation outcome for display next to the input.
func (t *TextInput) Submit(valid bool) {
	t.submitted = true
	t.valid = valid
}
