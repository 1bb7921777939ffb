// Package styles holds the colours and lipgloss styles of the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

// Theme is a colour palette.
type Theme struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color
	Bar        lipgloss.Color

	// KeyPoints gives every key point type its own tag colour.
	KeyPoints map[domain.KeyPointType]lipgloss.Color
}

// DefaultTheme is a dark palette with a blue accent.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    "#3B82F6",
		Secondary:  "#06B6D4",
		Foreground: "#CDD6F4",
		Muted:      "#6C7086",
		Success:    "#A6E3A1",
		Warning:    "#F9E2AF",
		Error:      "#F38BA8",
		Border:     "#45475A",
		Bar:        "#181825",
		KeyPoints: map[domain.KeyPointType]lipgloss.Color{
			domain.KeyPointDate:     "#89B4FA",
			domain.KeyPointPerson:   "#A6E3A1",
			domain.KeyPointLocation: "#FAB387",
			domain.KeyPointTask:     "#F9E2AF",
			domain.KeyPointDecision: "#CBA6F7",
			domain.KeyPointDocument: "#94E2D5",
		},
	}
}

// Styles are the lipgloss styles the views render with.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Help     lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	// Chat roles and the source list under an answer.
	User      lipgloss.Style
	Assistant lipgloss.Style
	Citation  lipgloss.Style
}

// NewStyles derives styles from theme, or from DefaultTheme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	return &Styles{
		theme:    theme,
		Title:    fg(theme.Primary).Bold(true),
		Subtitle: fg(theme.Secondary).Bold(true),
		Normal:   fg(theme.Foreground),
		Muted:    fg(theme.Muted),
		Selected: fg(theme.Foreground).Background(theme.Primary).Bold(true),
		Help:     fg(theme.Muted),

		Error:   fg(theme.Error),
		Success: fg(theme.Success),
		Warning: fg(theme.Warning),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		StatusBar: fg(theme.Muted).Background(theme.Bar).Padding(0, 1),

		User:      fg(theme.Secondary).Bold(true),
		Assistant: fg(theme.Primary).Bold(true),
		Citation:  fg(theme.Muted).Italic(true),
	}
}

// DefaultStyles returns NewStyles(DefaultTheme()).
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// KeyPoint is the bold tag style of a key point type. Unknown types are muted.
func (s *Styles) KeyPoint(t domain.KeyPointType) lipgloss.Style {
	c, ok := s.theme.KeyPoints[t]
	if !ok {
		c = s.theme.Muted
	}
	return lipgloss.NewStyle().Bold(true).Foreground(c)
}

// Status colours a document status: completed green, error red,
// processing yellow.
func (s *Styles) Status(status domain.DocumentStatus) lipgloss.Style {
	switch status {
	case domain.StatusCompleted:
		return s.Success
	case domain.StatusError:
		return s.Error
	case domain.StatusProcessing:
		return s.Warning
	default:
		return s.Muted
	}
}
