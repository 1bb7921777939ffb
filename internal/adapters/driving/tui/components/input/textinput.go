// Package input is a labelled single-line text field with a history of
// submitted entries.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/styles"
)

const (
	charLimit  = 1000
	minWidth   = 20
	maxHistory = 50
)

// Input wraps a bubbles textinput.
type Input struct {
	field  textinput.Model
	styles *styles.Styles
	label  string
	width  int

	history []string
	// cursor indexes history while recalling; len(history) is the
	// line being typed.
	cursor int
	draft  string
}

// New creates a focused input with a label such as "Ask: ".
func New(s *styles.Styles, label, placeholder string) *Input {
	if s == nil {
		s = styles.DefaultStyles()
	}
	field := textinput.New()
	field.Placeholder = placeholder
	field.CharLimit = charLimit
	field.Width = 50
	field.Focus()

	return &Input{field: field, styles: s, label: label, width: 50}
}

// Init starts the cursor blinking.
func (in *Input) Init() tea.Cmd {
	return textinput.Blink
}

// Update forwards msg to the text field.
func (in *Input) Update(msg tea.Msg) (*Input, tea.Cmd) {
	var cmd tea.Cmd
	in.field, cmd = in.field.Update(msg)
	return in, cmd
}

// View renders the label beside the bordered field.
func (in *Input) View() string {
	//nolint:misspell // lipgloss spelling
	return lipgloss.JoinHorizontal(lipgloss.Center,
		in.styles.Title.Render(in.label),
		in.styles.InputField.Render(in.field.View()))
}

// Value returns the text typed so far.
func (in *Input) Value() string {
	return in.field.Value()
}

// SetValue replaces the text and moves the cursor to its end.
func (in *Input) SetValue(value string) {
	in.field.SetValue(value)
	in.field.CursorEnd()
}

// Record adds the trimmed value to the history and returns it. Blank
// values and repeats of the last entry are not recorded.
func (in *Input) Record() string {
	value := strings.TrimSpace(in.field.Value())
	if value != "" && (len(in.history) == 0 || in.history[len(in.history)-1] != value) {
		in.history = append(in.history, value)
		if len(in.history) > maxHistory {
			in.history = in.history[len(in.history)-maxHistory:]
		}
	}
	in.cursor = len(in.history)
	in.draft = ""
	return value
}

// Submit records the value and clears the field.
func (in *Input) Submit() string {
	value := in.Record()
	in.field.Reset()
	return value
}

// Recall steps through the history: negative delta moves to older
// entries, positive to newer ones. Stepping past the newest entry restores
// the text that was being typed.
func (in *Input) Recall(delta int) {
	if len(in.history) == 0 {
		return
	}
	if in.cursor == len(in.history) {
		in.draft = in.field.Value()
	}
	in.cursor = min(max(in.cursor+delta, 0), len(in.history))
	if in.cursor == len(in.history) {
		in.SetValue(in.draft)
		return
	}
	in.SetValue(in.history[in.cursor])
}

// History returns the recorded entries, oldest first.
func (in *Input) History() []string {
	return in.history
}

// Focus focuses the field.
func (in *Input) Focus() tea.Cmd {
	return in.field.Focus()
}

// Blur removes focus.
func (in *Input) Blur() {
	in.field.Blur()
}

// Focused reports whether the field has focus.
func (in *Input) Focused() bool {
	return in.field.Focused()
}

// SetWidth fits the field into width next to the label.
func (in *Input) SetWidth(width int) {
	in.width = width
	in.field.Width = max(width-lipgloss.Width(in.label)-6, minWidth)
}

// Width returns the width set last.
func (in *Input) Width() int {
	return in.width
}

// Reset clears the text. History is kept.
func (in *Input) Reset() {
	in.field.Reset()
	in.cursor = len(in.history)
	in.draft = ""
}
