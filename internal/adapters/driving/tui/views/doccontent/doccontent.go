// Package doccontent provides the document text view for the TUI.
package doccontent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

// reserved covers the title, metadata line, separator and help footer.
const reserved = 7

var errNoDocumentService = errors.New("document service not available")

// View shows the normalised text of one document.
type View struct {
	styles    *styles.Styles
	documents driving.DocumentService
	viewport  viewport.Model
	ctx       context.Context

	document *domain.Document
	back     messages.ViewType
	content  string
	width    int
	height   int
	ready    bool
	loading  bool
	err      error
}

// NewView creates a document content view.
func NewView(s *styles.Styles, documents driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:    s,
		documents: documents,
		viewport:  viewport.New(80, 24-reserved),
		ctx:       context.Background(),
		back:      messages.ViewDocuments,
		width:     80,
		height:    24,
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetDocument shows doc and loads its text. Esc returns to back.
func (v *View) SetDocument(doc domain.Document, back messages.ViewType) tea.Cmd {
	v.document = &doc
	v.back = back
	v.content = ""
	v.err = nil
	v.loading = true
	v.viewport.SetContent("")
	v.viewport.GotoTop()

	documents := v.documents
	ctx := v.ctx
	return func() tea.Msg {
		if documents == nil {
			return messages.DocumentContentLoaded{DocumentID: doc.ID, Err: errNoDocumentService}
		}
		content, err := documents.Content(ctx, doc.ID)
		return messages.DocumentContentLoaded{DocumentID: doc.ID, Content: content, Err: err}
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the document content view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentContentLoaded:
		if v.document == nil || msg.DocumentID != v.document.ID {
			return v, nil
		}
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.content = msg.Content
		v.render()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		back := v.back
		return v, func() tea.Msg {
			return messages.ViewChanged{View: back}
		}
	case "g", "home":
		v.viewport.GotoTop()
		return v, nil
	case "G", "end":
		v.viewport.GotoBottom()
		return v, nil
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// render wraps the content to the view width.
func (v *View) render() {
	if v.content == "" {
		v.viewport.SetContent(v.styles.Muted.Render("(No content)"))
		return
	}
	wrapped := lipgloss.NewStyle().Width(max(v.width-4, 20)).Render(v.content)
	v.viewport.SetContent(wrapped)
}

// View renders the document content view.
func (v *View) View() string {
	var b strings.Builder

	title := "Document"
	if v.document != nil {
		title = v.document.Name
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	if v.document != nil {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%s, %s, %s",
			v.document.SourceType, humanize.Bytes(uint64(max(v.document.Size, 0))), v.document.Status)))
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading content..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	default:
		b.WriteString(v.viewport.View())
		if v.viewport.TotalLineCount() > v.viewport.Height {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%.0f%%]", v.viewport.ScrollPercent()*100)))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.viewport.Width = width
	v.viewport.Height = max(height-reserved, 3)
	if v.content != "" {
		v.render()
	}
}

// Document returns the document shown.
func (v *View) Document() *domain.Document {
	return v.document
}

// Content returns the loaded text.
func (v *View) Content() string {
	return v.content
}

// Loading reports whether the text is still being fetched.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
