// Package chat provides the project conversation view for the TUI.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

// reserved is the number of lines used by the header, input and status bar.
const reserved = 7

// View is the chat view: the conversation above an input line.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	viewport  viewport.Model
	input     *input.Input
	statusbar *status.Bar

	chat      driving.ChatService
	projectID string
	ctx       context.Context

	messages []domain.ChatMessage
	busy     bool
	width    int
	height   int
	ready    bool
	err      error
}

// NewView creates a chat view for one project.
func NewView(s *styles.Styles, km *keymap.KeyMap, chat driving.ChatService, projectID string) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	bar := status.NewBar(s, km)
	bar.SetHints(km.ChatHelp())

	return &View{
		styles:    s,
		keymap:    km,
		viewport:  viewport.New(80, 24-reserved),
		input:     input.New(s, "Ask: ", "Ask a question about this project..."),
		statusbar: bar,
		chat:      chat,
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

// Init loads the conversation.
func (v *View) Init() tea.Cmd {
	v.input.Focus()
	return tea.Batch(v.input.Init(), v.loadHistory())
}

// loadHistory returns the stored conversation, or the welcome message
// when there is none yet.
func (v *View) loadHistory() tea.Cmd {
	return func() tea.Msg {
		history, err := v.chat.History(v.ctx, v.projectID, 0)
		if err != nil || len(history) > 0 {
			return messages.HistoryLoaded{Messages: history, Err: err}
		}
		welcome, err := v.chat.Welcome(v.ctx, v.projectID)
		if err != nil {
			return messages.HistoryLoaded{Err: err}
		}
		return messages.HistoryLoaded{Messages: []domain.ChatMessage{*welcome}}
	}
}

func (v *View) ask(question string) tea.Cmd {
	return func() tea.Msg {
		answer, err := v.chat.Ask(v.ctx, v.projectID, question)
		return messages.AnswerReceived{Message: answer, Err: err}
	}
}

func (v *View) clear() tea.Cmd {
	return func() tea.Msg {
		return messages.HistoryCleared{Err: v.chat.Clear(v.ctx, v.projectID)}
	}
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.HistoryLoaded:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.messages = msg.Messages
		v.refresh()
		return v, nil

	case messages.AnswerReceived:
		v.busy = false
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.err = nil
		v.statusbar.SetReady("")
		if msg.Message != nil {
			v.messages = append(v.messages, *msg.Message)
		}
		v.refresh()
		return v, nil

	case messages.HistoryCleared:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.messages = nil
		v.statusbar.SetReady("Conversation cleared")
		return v, v.loadHistory()

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	v.statusbar, cmd = v.statusbar.Update(msg)
	cmds = append(cmds, cmd)
	v.input, cmd = v.input.Update(msg)
	cmds = append(cmds, cmd)
	v.viewport, cmd = v.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return v, tea.Batch(cmds...)
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyEsc:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case keymap.Matches(msg.String(), v.keymap.ClearChat):
		if v.busy {
			return v, nil
		}
		return v, v.clear()

	case keymap.Matches(msg.String(), v.keymap.PrevInput):
		v.input.Recall(-1)
		return v, nil

	case keymap.Matches(msg.String(), v.keymap.NextInput):
		v.input.Recall(1)
		return v, nil

	case msg.Type == tea.KeyEnter:
		if v.busy || strings.TrimSpace(v.input.Value()) == "" {
			return v, nil
		}
		question := v.input.Submit()
		v.busy = true
		v.messages = append(v.messages, domain.ChatMessage{
			ProjectID: v.projectID,
			Role:      domain.RoleUser,
			Content:   question,
			CreatedAt: time.Now(),
		})
		v.refresh()
		return v, tea.Batch(v.statusbar.SetWorking("Thinking..."), v.ask(question))

	case msg.Type == tea.KeyPgUp, msg.Type == tea.KeyPgDown, msg.Type == tea.KeyUp, msg.Type == tea.KeyDown:
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) setError(err error) {
	v.busy = false
	v.err = err
	v.statusbar.SetError(err)
}

// refresh re-renders the conversation into the viewport and scrolls to
// the newest message.
func (v *View) refresh() {
	v.viewport.SetContent(v.renderMessages())
	v.viewport.GotoBottom()
}

func (v *View) renderMessages() string {
	if len(v.messages) == 0 {
		return v.styles.Muted.Render("No messages yet.")
	}

	width := max(v.width-4, 20)
	body := lipgloss.NewStyle().Width(width).PaddingLeft(2)

	var b strings.Builder
	for i := range v.messages {
		m := &v.messages[i]
		if m.Role == domain.RoleUser {
			b.WriteString(v.styles.User.Render("You"))
		} else {
			b.WriteString(v.styles.Assistant.Render("docsight"))
		}
		b.WriteString("\n")
		b.WriteString(body.Render(m.Content))
		b.WriteString("\n")
		for n, src := range m.Sources {
			line := fmt.Sprintf("  [%d] %s (%.0f%%)", n+1, src.DocumentName, src.Confidence*100)
			b.WriteString(v.styles.Citation.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{
		v.styles.Title.Render("Chat"),
		v.viewport.View(),
		v.input.View(),
		v.statusbar.View(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.viewport.Width = width
	v.viewport.Height = max(height-reserved, 3)
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.refresh()
}

// Messages returns the conversation shown.
func (v *View) Messages() []domain.ChatMessage {
	return v.messages
}

// Busy reports whether a question is awaiting its answer.
func (v *View) Busy() bool {
	return v.busy
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// SetInput sets the question being typed.
func (v *View) SetInput(value string) {
	v.input.SetValue(value)
}
