// Package documents lists the documents of a project in the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

var errNoDocumentService = errors.New("document service not available")

// View is the document list. Enter opens a document, p queues it for
// processing again and d deletes it once confirmed with y.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusbar *status.Bar
	documents driving.DocumentService
	projectID string
	ctx       context.Context

	items   []domain.Document
	cursor  int
	offset  int
	confirm *domain.Document
	loading bool
	width   int
	height  int
	err     error
}

// NewView creates the document list of one project.
func NewView(s *styles.Styles, km *keymap.KeyMap, documents driving.DocumentService, projectID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	bar := status.NewBar(s, km)
	bar.SetHints(km.DocumentsHelp())
	return &View{
		styles:    s,
		keymap:    km,
		statusbar: bar,
		documents: documents,
		projectID: projectID,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the documents.
func (v *View) Init() tea.Cmd {
	return v.load()
}

func (v *View) load() tea.Cmd {
	v.loading = true
	svc, ctx, projectID := v.documents, v.ctx, v.projectID
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: errNoDocumentService}
		}
		docs, err := svc.List(ctx, projectID)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Update handles messages for the document list.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		return v, v.handleKey(msg.String())

	case messages.DocumentsLoaded:
		v.loading = false
		if v.fail(msg.Err) {
			return v, nil
		}
		v.items = msg.Documents
		v.cursor = min(v.cursor, max(len(v.items)-1, 0))
		v.scroll()
		// A notice from the last action outlives the reload it triggered.
		if v.statusbar.State() != status.StateReady || v.statusbar.Message() == "" {
			v.statusbar.SetResults(len(v.items), "documents")
		}

	case messages.DocumentDeleted:
		if v.fail(msg.Err) {
			return v, nil
		}
		v.statusbar.SetReady("Document deleted")
		return v, v.load()

	case messages.DocumentReprocessed:
		if v.fail(msg.Err) {
			return v, nil
		}
		v.statusbar.SetReady("Document queued for processing")
		return v, v.load()

	case messages.ErrorOccurred:
		v.fail(msg.Err)
	}
	return v, nil
}

// fail records err and reports whether there was one.
func (v *View) fail(err error) bool {
	v.err = err
	if err != nil {
		v.statusbar.SetError(err)
		return true
	}
	return false
}

func (v *View) handleKey(k string) tea.Cmd {
	if v.confirm != nil {
		doc := *v.confirm
		v.confirm = nil
		if keymap.Matches(k, v.keymap.Confirm) {
			return v.act(doc, func(ctx context.Context, svc driving.DocumentService) tea.Msg {
				return messages.DocumentDeleted{DocumentID: doc.ID, Err: svc.Delete(ctx, doc.ID)}
			})
		}
		v.statusbar.SetReady("Delete cancelled")
		return nil
	}

	switch {
	case keymap.Matches(k, v.keymap.Up):
		v.move(-1)
	case keymap.Matches(k, v.keymap.Down):
		v.move(1)
	case keymap.Matches(k, v.keymap.Back):
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	case keymap.Matches(k, v.keymap.Reload):
		v.statusbar.SetResults(len(v.items), "documents")
		return v.load()
	}

	doc := v.SelectedDocument()
	if doc == nil {
		return nil
	}
	switch {
	case keymap.Matches(k, v.keymap.Select):
		selected := *doc
		return func() tea.Msg { return messages.DocumentSelected{Document: selected} }
	case keymap.Matches(k, v.keymap.Reprocess):
		id := doc.ID
		return v.act(*doc, func(ctx context.Context, svc driving.DocumentService) tea.Msg {
			return messages.DocumentReprocessed{DocumentID: id, Err: svc.Reprocess(ctx, id)}
		})
	case keymap.Matches(k, v.keymap.Delete):
		pending := *doc
		v.confirm = &pending
	}
	return nil
}

// act runs fn against the document service off the update loop.
func (v *View) act(doc domain.Document, fn func(context.Context, driving.DocumentService) tea.Msg) tea.Cmd {
	svc, ctx := v.documents, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: fmt.Errorf("%s: %w", doc.Name, errNoDocumentService)}
		}
		return fn(ctx, svc)
	}
}

func (v *View) move(delta int) {
	next := v.cursor + delta
	if next < 0 || next >= len(v.items) {
		return
	}
	v.cursor = next
	v.scroll()
}

// scroll keeps the cursor inside the visible window.
func (v *View) scroll() {
	rows := v.rows()
	switch {
	case v.cursor < v.offset:
		v.offset = v.cursor
	case v.cursor >= v.offset+rows:
		v.offset = v.cursor - rows + 1
	}
}

func (v *View) rows() int {
	return max(v.height-8, 1)
}

// View renders the document list.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.items))))
	b.WriteString("\n\n")

	switch {
	case v.loading && len(v.items) == 0:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case len(v.items) == 0 && v.err == nil:
		b.WriteString(v.styles.Muted.Render("No documents in this project. Upload with: docsight document upload <file>"))
	default:
		end := min(v.offset+v.rows(), len(v.items))
		for i := v.offset; i < end; i++ {
			b.WriteString(v.renderRow(i, &v.items[i]))
			b.WriteString("\n")
		}
		if len(v.items) > v.rows() {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]", v.offset+1, end, len(v.items))))
			b.WriteString("\n")
		}
	}

	if doc := v.SelectedDocument(); doc != nil && doc.Status == domain.StatusError && doc.Error != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render(doc.Name + ": " + doc.Error))
	}
	if v.confirm != nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Delete %s and its key points? [y/N]", v.confirm.Name)))
	}

	b.WriteString("\n\n")
	b.WriteString(v.statusbar.View())
	return b.String()
}

func (v *View) renderRow(i int, doc *domain.Document) string {
	nameWidth := max(v.width/2-6, 10)
	name := []rune(doc.Name)
	if len(name) > nameWidth {
		name = append(name[:nameWidth-3], []rune("...")...)
	}
	cols := fmt.Sprintf("%-*s %-9s %9s  ", nameWidth, string(name), doc.SourceType, humanize.Bytes(uint64(max(doc.Size, 0))))

	if i == v.cursor {
		return v.styles.Selected.Render("> " + cols + v.statusText(doc))
	}
	return v.styles.Normal.Render("  "+cols) + v.styles.Status(doc.Status).Render(v.statusText(doc))
}

// statusText adds the pipeline stage to documents still processing.
func (v *View) statusText(doc *domain.Document) string {
	if doc.Status != domain.StatusProcessing || v.documents == nil {
		return string(doc.Status)
	}
	if state, ok := v.documents.State(doc.ID); ok && state.Stage != "" {
		return fmt.Sprintf("%s (%s)", doc.Status, state.Stage)
	}
	return string(doc.Status)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.statusbar.SetWidth(width)
	v.scroll()
}

// Documents returns the listed documents.
func (v *View) Documents() []domain.Document {
	return v.items
}

// SelectedIndex returns the cursor position.
func (v *View) SelectedIndex() int {
	return v.cursor
}

// SelectedDocument returns the document under the cursor, or nil.
func (v *View) SelectedDocument() *domain.Document {
	if v.cursor < len(v.items) {
		return &v.items[v.cursor]
	}
	return nil
}

// Confirming reports whether a delete is waiting for confirmation.
func (v *View) Confirming() bool {
	return v.confirm != nil
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
