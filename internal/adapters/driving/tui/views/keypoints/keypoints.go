// Package keypoints provides the key point browser view for the TUI.
package keypoints

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

// View lists key points with a type tab and a text filter.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	query     *input.Input
	statusbar *status.Bar

	service   driving.KeyPointService
	projectID string
	ctx       context.Context

	// tab is 0 for all types, otherwise an index into domain.KeyPointTypes plus one.
	tab          int
	keyPoints    []domain.KeyPoint
	stats        domain.KeyPointStats
	selected     int
	scrollOffset int
	filtering    bool
	loading      bool
	width        int
	height       int
	ready        bool
	err          error
}

// NewView creates a key point view for one project.
func NewView(s *styles.Styles, km *keymap.KeyMap, service driving.KeyPointService, projectID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	q := input.New(s, "Filter: ", "text in content or source")
	q.Blur()

	bar := status.NewBar(s, km)
	bar.SetHints(km.KeyPointsHelp())

	return &View{
		styles:    s,
		keymap:    km,
		query:     q,
		statusbar: bar,
		service:   service,
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

// Init loads the key points.
func (v *View) Init() tea.Cmd {
	return v.load()
}

// Filter returns the filter for the current tab and query.
func (v *View) Filter() domain.KeyPointFilter {
	f := domain.KeyPointFilter{Query: strings.TrimSpace(v.query.Value())}
	if v.tab > 0 {
		f.Types = []domain.KeyPointType{domain.KeyPointTypes[v.tab-1]}
	}
	return f
}

func (v *View) load() tea.Cmd {
	v.loading = true
	filter := v.Filter()
	return func() tea.Msg {
		kps, err := v.service.List(v.ctx, v.projectID, filter)
		if err != nil {
			return messages.KeyPointsLoaded{Err: err}
		}
		stats, err := v.service.Stats(v.ctx, v.projectID)
		return messages.KeyPointsLoaded{KeyPoints: kps, Stats: stats, Err: err}
	}
}

// Update handles messages for the key point view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.filtering {
			return v.handleFilterKey(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.KeyPointsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			v.statusbar.SetError(msg.Err)
			return v, nil
		}
		v.err = nil
		v.keyPoints = msg.KeyPoints
		v.stats = msg.Stats
		v.selected = 0
		v.scrollOffset = 0
		v.statusbar.SetResults(len(msg.KeyPoints), "key points")
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		v.statusbar.SetError(msg.Err)
		return v, nil
	}

	return v, nil
}

func (v *View) handleFilterKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyEnter:
		v.filtering = false
		v.query.Blur()
		return v, v.load()
	case tea.KeyEsc:
		v.filtering = false
		v.query.Blur()
		v.query.Reset()
		return v, v.load()
	}
	var cmd tea.Cmd
	v.query, cmd = v.query.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case msg.Type == tea.KeyEsc:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case keymap.Matches(key, v.keymap.NextFilter):
		v.tab = (v.tab + 1) % (len(domain.KeyPointTypes) + 1)
		return v, v.load()
	case keymap.Matches(key, v.keymap.PrevFilter):
		v.tab = (v.tab + len(domain.KeyPointTypes)) % (len(domain.KeyPointTypes) + 1)
		return v, v.load()
	case keymap.Matches(key, v.keymap.Find):
		v.filtering = true
		return v, v.query.Focus()
	case keymap.Matches(key, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case keymap.Matches(key, v.keymap.Down):
		if v.selected < len(v.keyPoints)-1 {
			v.selected++
			v.adjustScroll()
		}
	case keymap.Matches(key, v.keymap.Reload):
		return v, v.load()
	}
	return v, nil
}

// adjustScroll keeps the selected item visible.
func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	// Title, tabs, filter, blank lines and status bar.
	return max(v.height-10, 1)
}

// View renders the key point view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Key points"))
	b.WriteString("\n\n")
	b.WriteString(v.renderTabs())
	b.WriteString("\n")
	if v.filtering || v.query.Value() != "" {
		b.WriteString(v.query.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case v.loading && len(v.keyPoints) == 0:
		b.WriteString(v.styles.Muted.Render("Loading key points..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.keyPoints) == 0:
		b.WriteString(v.styles.Muted.Render("No key points match."))
	default:
		end := min(v.scrollOffset+v.visibleItemCount(), len(v.keyPoints))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString(v.renderKeyPoint(i, &v.keyPoints[i]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.statusbar.View())
	return b.String()
}

func (v *View) renderTabs() string {
	tabs := make([]string, 0, len(domain.KeyPointTypes)+1)
	label := fmt.Sprintf("All (%d)", v.stats.Total)
	tabs = append(tabs, v.renderTab(0, label))
	for i, t := range domain.KeyPointTypes {
		tabs = append(tabs, v.renderTab(i+1, fmt.Sprintf("%s (%d)", t.Label(), v.stats.ByType[t])))
	}
	return strings.Join(tabs, " ")
}

func (v *View) renderTab(index int, label string) string {
	if index == v.tab {
		return v.styles.Selected.Render(" " + label + " ")
	}
	return v.styles.Muted.Render(" " + label + " ")
}

func (v *View) renderKeyPoint(index int, kp *domain.KeyPoint) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	tag := v.styles.KeyPoint(kp.Type).Render(fmt.Sprintf("%-9s", kp.Type))
	content := kp.Content
	if index == v.selected {
		content = v.styles.Selected.Render(content)
	} else {
		content = v.styles.Normal.Render(content)
	}
	meta := v.styles.Muted.Render(fmt.Sprintf("  %s, %.0f%%", kp.Source, kp.Confidence*100))
	return indicator + tag + " " + content + meta
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.query.SetWidth(width)
	v.statusbar.SetWidth(width)
}

// KeyPoints returns the listed key points.
func (v *View) KeyPoints() []domain.KeyPoint {
	return v.keyPoints
}

// Selected returns the selected index.
func (v *View) Selected() int {
	return v.selected
}

// Filtering reports whether the text filter has focus.
func (v *View) Filtering() bool {
	return v.filtering
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
