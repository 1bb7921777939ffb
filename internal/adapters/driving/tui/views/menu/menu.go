// Package menu is the project start screen listing the other views.
package menu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsight/internal/core/domain"
)

// Item is one menu entry. Quit items exit instead of opening a view.
type Item struct {
	Label string
	View  messages.ViewType
	Quit  bool
}

// DefaultItems lists every view of the TUI.
func DefaultItems() []Item {
	return []Item{
		{Label: "Chat", View: messages.ViewChat},
		{Label: "Key points", View: messages.ViewKeyPoints},
		{Label: "Documents", View: messages.ViewDocuments},
		{Label: "Search", View: messages.ViewSearch},
		{Label: "Help", View: messages.ViewHelp},
		{Label: "Quit", Quit: true},
	}
}

// View is the menu model.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	help     help.Model
	project  domain.ProjectSummary
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates a menu for project. Nil items means DefaultItems.
func NewView(s *styles.Styles, km *keymap.KeyMap, project domain.ProjectSummary, items []Item) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if items == nil {
		items = DefaultItems()
	}
	return &View{
		styles:  s,
		keymap:  km,
		help:    help.New(),
		project: project,
		items:   items,
		width:   80,
		height:  24,
	}
}

// Init implements tea.Model.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the selection with the arrow keys, wrapping at both ends.
// Enter or the item's number opens it.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		k := msg.String()
		switch {
		case keymap.Matches(k, v.keymap.Up):
			v.selected = (v.selected - 1 + len(v.items)) % len(v.items)
		case keymap.Matches(k, v.keymap.Down):
			v.selected = (v.selected + 1) % len(v.items)
		case keymap.Matches(k, v.keymap.Select):
			return v, v.open(v.selected)
		case keymap.Matches(k, v.keymap.Quit):
			return v, tea.Quit
		default:
			if n, err := strconv.Atoi(k); err == nil && n >= 1 && n <= len(v.items) {
				v.selected = n - 1
				return v, v.open(v.selected)
			}
		}
	}
	return v, nil
}

func (v *View) open(i int) tea.Cmd {
	item := v.items[i]
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: item.View}
	}
}

// View renders the project header and the numbered items.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("docsight"))
	b.WriteString("  ")
	b.WriteString(v.styles.Subtitle.Render(v.project.Name))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%d documents, %d key points",
		v.project.DocumentsCount, v.project.KeyPointsCount)))
	b.WriteString("\n\n")

	for i, item := range v.items {
		label := fmt.Sprintf("%d  %s", i+1, item.Label)
		if i == v.selected {
			b.WriteString("> " + v.styles.Selected.Render(label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.help.ShortHelpView(v.keymap.MenuHelp()))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.help.Width = width
	v.ready = true
}

// SetProject refreshes the project header.
func (v *View) SetProject(project domain.ProjectSummary) {
	v.project = project
}

// Selected returns the selected index.
func (v *View) Selected() int {
	return v.selected
}

// Items returns the menu items.
func (v *View) Items() []Item {
	return v.items
}
