package chat

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docsight/internal/core/domain"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	history []domain.ChatMessage
	answer  *domain.ChatMessage
	welcome *domain.ChatMessage
	err     error
	asked   string
	cleared bool
	limit   int
}

func (m *mockChatService) Ask(_ context.Context, _ string, question string) (*domain.ChatMessage, error) {
	m.asked = question
	return m.answer, m.err
}

func (m *mockChatService) Welcome(context.Context, string) (*domain.ChatMessage, error) {
	return m.welcome, m.err
}

func (m *mockChatService) History(_ context.Context, _ string, limit int) ([]domain.ChatMessage, error) {
	m.limit = limit
	return m.history, m.err
}

func (m *mockChatService) Clear(context.Context, string) error {
	m.cleared = true
	return m.err
}

func newView(chat *mockChatService) *View {
	v := NewView(nil, nil, chat, "p-1")
	v.SetDimensions(100, 30)
	return v
}

func TestView_LoadHistory(t *testing.T) {
	t.Run("returns stored conversation", func(t *testing.T) {
		chat := &mockChatService{history: []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}}}
		v := newView(chat)

		msg := v.loadHistory()()

		loaded, ok := msg.(messages.HistoryLoaded)
		require.True(t, ok)
		assert.Len(t, loaded.Messages, 1)
		assert.Equal(t, 0, chat.limit)
	})

	t.Run("falls back to welcome", func(t *testing.T) {
		chat := &mockChatService{welcome: &domain.ChatMessage{Role: domain.RoleAssistant, Content: "Welcome to Acme"}}
		v := newView(chat)

		loaded := v.loadHistory()().(messages.HistoryLoaded)

		require.Len(t, loaded.Messages, 1)
		assert.Equal(t, "Welcome to Acme", loaded.Messages[0].Content)
	})
}

func TestView_HistoryLoadedRenders(t *testing.T) {
	v := newView(&mockChatService{})

	v.Update(messages.HistoryLoaded{Messages: []domain.ChatMessage{
		{Role: domain.RoleAssistant, Content: "Welcome to Acme Deal."},
	}})

	assert.Len(t, v.Messages(), 1)
	assert.Contains(t, v.View(), "Welcome to Acme Deal.")
}

func TestView_EnterAsksQuestion(t *testing.T) {
	chat := &mockChatService{answer: &domain.ChatMessage{
		Role:    domain.RoleAssistant,
		Content: "The deadline is 31 March [1].",
		Sources: []domain.SourceCitation{{DocumentName: "contract.pdf", Confidence: 0.82}},
	}}
	v := newView(chat)
	v.SetInput("When is the deadline?")

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.True(t, v.Busy())
	require.Len(t, v.Messages(), 1)
	assert.Equal(t, domain.RoleUser, v.Messages()[0].Role)

	answer := v.ask("When is the deadline?")()
	v.Update(answer)

	assert.Equal(t, "When is the deadline?", chat.asked)
	assert.False(t, v.Busy())
	require.Len(t, v.Messages(), 2)
	out := v.View()
	assert.Contains(t, out, "The deadline is 31 March [1].")
	assert.Contains(t, out, "[1] contract.pdf (82%)")
}

func TestView_EnterIgnoredWhileBusyOrEmpty(t *testing.T) {
	v := newView(&mockChatService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	v.busy = true
	v.SetInput("again")
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Empty(t, v.Messages())
}

func TestView_AnswerErrorShown(t *testing.T) {
	v := newView(&mockChatService{})
	v.busy = true

	v.Update(messages.AnswerReceived{Err: errors.New("project not found")})

	assert.False(t, v.Busy())
	assert.EqualError(t, v.Err(), "project not found")
	assert.Contains(t, v.View(), "project not found")
}

func TestView_ClearConversation(t *testing.T) {
	chat := &mockChatService{welcome: &domain.ChatMessage{Content: "Welcome"}}
	v := newView(chat)
	v.messages = []domain.ChatMessage{{Content: "old"}}

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	require.NotNil(t, cmd)
	msg := cmd()
	assert.True(t, chat.cleared)

	_, cmd = v.Update(msg)
	assert.Empty(t, v.Messages())
	require.NotNil(t, cmd, "history reloads after clearing")
}

func TestView_EscGoesBack(t *testing.T) {
	v := newView(&mockChatService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_NotReady(t *testing.T) {
	v := NewView(nil, nil, &mockChatService{}, "p-1")

	assert.Equal(t, "Initialising...", v.View())
}

func TestView_RecallPreviousQuestion(t *testing.T) {
	v := newView(&mockChatService{answer: &domain.ChatMessage{Role: domain.RoleAssistant, Content: "ok"}})
	v.SetInput("Who signed?")
	v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v.Update(messages.AnswerReceived{Message: &domain.ChatMessage{Role: domain.RoleAssistant, Content: "ok"}})

	assert.Empty(t, v.input.Value())

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, "Who signed?", v.input.Value())

	v.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Empty(t, v.input.Value())
}
