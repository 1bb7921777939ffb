// Package search provides the similarity search view for the TUI.
package search

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

// DefaultLimit is the number of chunks requested per search.
const DefaultLimit = 10

// View represents the search view with input, results list, and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.Input
	list      *list.ResultList
	statusbar *status.Bar

	search    driving.SearchService
	documents driving.DocumentService
	projectID string
	ctx       context.Context

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true while typing, false while navigating results
}

// NewView creates a search view over one project. documents may be nil,
// in which case opened results carry only the document ID and name.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	search driving.SearchService,
	documents driving.DocumentService,
	projectID string,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetHints(km.ResultsHelp())

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.New(s, "Search: ", "Search this project's documents..."),
		list:       list.NewResultList(s),
		statusbar:  bar,
		search:     search,
		documents:  documents,
		projectID:  projectID,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init focuses the input.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.input.Focus())
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.SetError(msg.Err)
		return v, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	v.statusbar, cmd = v.statusbar.Update(msg)
	cmds = append(cmds, cmd)
	v.input, cmd = v.input.Update(msg)
	cmds = append(cmds, cmd)
	return v, tea.Batch(cmds...)
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if v.focusInput {
		switch {
		case keymap.Matches(msg.String(), v.keymap.PrevInput):
			v.input.Recall(-1)
			return v, nil
		case keymap.Matches(msg.String(), v.keymap.NextInput):
			v.input.Recall(1)
			return v, nil
		case msg.Type == tea.KeyEnter:
			query := v.input.Record()
			if query == "" {
				return v, nil
			}
			v.focusInput = false
			v.input.Blur()
			return v, tea.Batch(v.statusbar.SetWorking("Searching..."), v.performSearch(query))
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	key := msg.String()
	switch {
	case msg.Type == tea.KeyEnter:
		if result := v.list.SelectedResult(); result != nil {
			return v, v.openResult(*result)
		}
	case keymap.Matches(key, v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(key, v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(key, v.keymap.NewSearch):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	}
	return v, nil
}

func (v *View) performSearch(query string) tea.Cmd {
	search := v.search
	ctx := v.ctx
	projectID := v.projectID
	return func() tea.Msg {
		if search == nil {
			return messages.SearchCompleted{Err: ErrNoSearchService}
		}
		results, err := search.Search(ctx, projectID, query, DefaultLimit)
		return messages.SearchCompleted{Results: results, Err: err}
	}
}

// openResult resolves the result's document and selects it.
func (v *View) openResult(result driving.SearchResult) tea.Cmd {
	documents := v.documents
	ctx := v.ctx
	return func() tea.Msg {
		if documents == nil {
			return messages.DocumentSelected{Document: domain.Document{
				ID:   result.Hit.DocumentID,
				Name: result.DocumentName,
			}}
		}
		doc, err := documents.Get(ctx, result.Hit.DocumentID)
		if err != nil {
			return messages.ErrorOccurred{Err: err}
		}
		return messages.DocumentSelected{Document: *doc}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	if msg.Err != nil {
		v.err = msg.Err
		v.statusbar.SetError(msg.Err)
		return
	}

	v.err = nil
	v.list.SetResults(v.input.Value(), msg.Results)
	v.statusbar.SetResults(len(msg.Results), "results")
	v.focusInput = false
	v.input.Blur()
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections, v.styles.Title.Render("Search"), "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-8)
	v.statusbar.SetWidth(width)
}

// Query returns the current search query.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the search query.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Results returns the current search results.
func (v *View) Results() []driving.SearchResult {
	return v.list.Results()
}

// SelectedIndex returns the index of the selected result.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Reset returns the view to input mode with no results.
func (v *View) Reset() tea.Cmd {
	v.focusInput = true
	v.input.SetValue("")
	v.list.SetResults("", nil)
	v.err = nil
	v.statusbar.SetReady("")
	return v.input.Focus()
}
