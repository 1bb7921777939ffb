package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/views/doccontent"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/views/documents"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/views/keypoints"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/docsight/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports   *Ports
	project domain.ProjectSummary
	ctx     context.Context
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	help    help.Model

	menuView      *menu.View
	chatView      *chat.View
	keyPointsView *keypoints.View

	// The document views are nil when the Documents port is absent,
	// and searchView when Search is.
	documentsView  *documents.View
	docContentView *doccontent.View
	searchView     *search.View

	currentView messages.ViewType
	err         error
	width       int
	height      int
	ready       bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a TUI for one project.
func NewApp(ports *Ports, project domain.ProjectSummary) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}
	if project.ID == "" {
		return nil, fmt.Errorf("creating app: %w", ErrMissingProject)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	a := &App{
		ports:         ports,
		project:       project,
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		help:          help.New(),
		chatView:      chat.NewView(s, km, ports.Chat, project.ID),
		keyPointsView: keypoints.NewView(s, km, ports.KeyPoints, project.ID),
		currentView:   messages.ViewMenu,
	}

	items := []menu.Item{
		{Label: "Chat", View: messages.ViewChat},
		{Label: "Key points", View: messages.ViewKeyPoints},
	}
	if ports.Documents != nil {
		a.documentsView = documents.NewView(s, km, ports.Documents, project.ID)
		a.docContentView = doccontent.NewView(s, ports.Documents)
		items = append(items, menu.Item{Label: "Documents", View: messages.ViewDocuments})
	}
	if ports.Search != nil {
		a.searchView = search.NewView(s, km, ports.Search, ports.Documents, project.ID)
		items = append(items, menu.Item{Label: "Search", View: messages.ViewSearch})
	}
	items = append(items,
		menu.Item{Label: "Help", View: messages.ViewHelp},
		menu.Item{Label: "Quit", Quit: true},
	)
	a.menuView = menu.NewView(s, km, project, items)

	return a, nil
}

// WithContext sets the context used by every view for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.keyPointsView.WithContext(ctx)
	if a.documentsView != nil {
		a.documentsView.WithContext(ctx)
		a.docContentView.WithContext(ctx)
	}
	if a.searchView != nil {
		a.searchView.WithContext(ctx)
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.SetWindowTitle("docsight - " + a.project.Name)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message router
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if msg.Type == tea.KeyEsc || msg.String() == "q" {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		return a, a.updateCurrent(msg)

	case messages.ViewChanged:
		return a, a.switchTo(msg.View)

	case messages.Quit:
		return a, tea.Quit

	case messages.HistoryLoaded, messages.AnswerReceived, messages.HistoryCleared:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.KeyPointsLoaded:
		a.keyPointsView, cmd = a.keyPointsView.Update(msg)
		return a, cmd

	case messages.DocumentsLoaded, messages.DocumentDeleted, messages.DocumentReprocessed:
		if a.documentsView != nil {
			a.documentsView, cmd = a.documentsView.Update(msg)
		}
		return a, cmd

	case messages.DocumentSelected:
		if a.docContentView == nil {
			a.err = fmt.Errorf("cannot show %s: documents are not available", msg.Document.Name)
			return a, nil
		}
		back := a.currentView
		a.currentView = messages.ViewDocContent
		return a, a.docContentView.SetDocument(msg.Document, back)

	case messages.DocumentContentLoaded:
		if a.docContentView != nil {
			a.docContentView, cmd = a.docContentView.Update(msg)
		}
		return a, cmd

	case messages.SearchCompleted:
		if a.searchView != nil {
			a.searchView, cmd = a.searchView.Update(msg)
		}
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
	}

	return a, a.updateCurrent(msg)
}

// updateCurrent forwards msg to the active view.
func (a *App) updateCurrent(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	//nolint:exhaustive // help has no state
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewChat:
		a.chatView, cmd = a.chatView.Update(msg)
	case messages.ViewKeyPoints:
		a.keyPointsView, cmd = a.keyPointsView.Update(msg)
	case messages.ViewDocuments:
		if a.documentsView != nil {
			a.documentsView, cmd = a.documentsView.Update(msg)
		}
	case messages.ViewDocContent:
		if a.docContentView != nil {
			a.docContentView, cmd = a.docContentView.Update(msg)
		}
	case messages.ViewSearch:
		if a.searchView != nil {
			a.searchView, cmd = a.searchView.Update(msg)
		}
	}
	return cmd
}

// switchTo activates view and returns its start-up command.
func (a *App) switchTo(view messages.ViewType) tea.Cmd {
	switch view {
	case messages.ViewDocuments, messages.ViewDocContent:
		if a.documentsView == nil {
			return nil
		}
	case messages.ViewSearch:
		if a.searchView == nil {
			return nil
		}
	}

	from := a.currentView
	a.currentView = view
	a.err = nil

	//nolint:exhaustive // remaining views need no start-up work
	switch view {
	case messages.ViewChat:
		return a.chatView.Init()
	case messages.ViewKeyPoints:
		return a.keyPointsView.Init()
	case messages.ViewDocuments:
		return a.documentsView.Init()
	case messages.ViewSearch:
		// Returning from a document keeps the results.
		if from == messages.ViewDocContent {
			return nil
		}
		return a.searchView.Reset()
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	var out string
	//nolint:exhaustive // menu is the fallback
	switch a.currentView {
	case messages.ViewChat:
		out = a.chatView.View()
	case messages.ViewKeyPoints:
		out = a.keyPointsView.View()
	case messages.ViewDocuments:
		out = a.documentsView.View()
	case messages.ViewDocContent:
		out = a.docContentView.View()
	case messages.ViewSearch:
		out = a.searchView.View()
	case messages.ViewHelp:
		out = a.viewHelp()
	default:
		out = a.menuView.View()
	}

	if a.err != nil && a.currentView == messages.ViewMenu {
		out += "\n\n" + a.styles.Error.Render("Error: "+a.err.Error())
	}
	return out
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	b.WriteString(a.help.FullHelpView(a.keymap.FullHelp()))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Muted.Render("Chat answers cite their sources as [n]. Key points are grouped by type; use tab to switch."))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// Run starts the TUI on the alternate screen.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Project returns the project the TUI was opened for.
func (a *App) Project() domain.ProjectSummary {
	return a.project
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sizes the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.help.Width = width

	a.menuView.SetDimensions(width, height)
	a.chatView.SetDimensions(width, height)
	a.keyPointsView.SetDimensions(width, height)
	if a.documentsView != nil {
		a.documentsView.SetDimensions(width, height)
		a.docContentView.SetDimensions(width, height)
	}
	if a.searchView != nil {
		a.searchView.SetDimensions(width, height)
	}
}
