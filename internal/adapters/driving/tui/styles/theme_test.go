package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	assert.NotEmpty(t, string(theme.Primary))
	assert.NotEmpty(t, string(theme.Secondary))
	assert.NotEmpty(t, string(theme.Foreground))
	assert.NotEmpty(t, string(theme.Muted))
	assert.NotEmpty(t, string(theme.Error))
	assert.NotEmpty(t, string(theme.Border))
}

func TestDefaultTheme_EveryKeyPointTypeHasColour(t *testing.T) {
	theme := DefaultTheme()

	seen := make(map[lipgloss.Color]bool)
	for _, kt := range domain.KeyPointTypes {
		c, ok := theme.KeyPoints[kt]
		require.True(t, ok, "no colour for %s", kt)
		assert.False(t, seen[c], "duplicate colour for %s", kt)
		seen[c] = true
	}
}

func TestNewStyles_NilTheme(t *testing.T) {
	styles := NewStyles(nil)

	require.NotNil(t, styles)
	assert.NotNil(t, styles.Theme())
}

func TestStyles_AllStylesInitialised(t *testing.T) {
	styles := DefaultStyles()

	for name, style := range map[string]lipgloss.Style{
		"Title":      styles.Title,
		"Subtitle":   styles.Subtitle,
		"Normal":     styles.Normal,
		"Muted":      styles.Muted,
		"Selected":   styles.Selected,
		"Error":      styles.Error,
		"InputField": styles.InputField,
		"StatusBar":  styles.StatusBar,
		"User":       styles.User,
		"Assistant":  styles.Assistant,
		"Citation":   styles.Citation,
	} {
		assert.NotEqual(t, lipgloss.Style{}, style, name)
		assert.Contains(t, style.Render("text"), "text", name)
	}
}

func TestStyles_KeyPoint(t *testing.T) {
	styles := DefaultStyles()

	assert.Equal(t, styles.Theme().KeyPoints[domain.KeyPointTask], styles.KeyPoint(domain.KeyPointTask).GetForeground())
	assert.Equal(t, styles.Theme().Muted, styles.KeyPoint("colour").GetForeground())
}

func TestStyles_Status(t *testing.T) {
	styles := DefaultStyles()
	theme := styles.Theme()

	assert.Equal(t, theme.Success, styles.Status(domain.StatusCompleted).GetForeground())
	assert.Equal(t, theme.Error, styles.Status(domain.StatusError).GetForeground())
	assert.Equal(t, theme.Warning, styles.Status(domain.StatusProcessing).GetForeground())
	assert.Equal(t, theme.Muted, styles.Status("queued").GetForeground())
}
