package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
	"github.com/custodia-labs/docsight/internal/logger"
)

// Ensure chatService implements the interface.
var _ driving.ChatService = (*chatService)(nil)

// ApologyMessage replaces an answer that could not be produced.
const ApologyMessage = "Sorry, I could not answer that right now. Please try again."

// WelcomeID identifies the greeting message, which is never stored.
const WelcomeID = "welcome"

type chatService struct {
	store     driven.Store
	responder *Responder
}

// NewChatService creates a new chat service.
func NewChatService(store driven.Store, responder *Responder) driving.ChatService {
	return &chatService{store: store, responder: responder}
}

// Ask records the question, answers it and records the answer.
func (s *chatService) Ask(ctx context.Context, projectID, question string) (*domain.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	history, err := s.store.ListMessages(ctx, projectID, s.responder.HistoryTurns())
	if err != nil {
		logger.Warn("chat %s: load history: %v", projectID, err)
		history = nil
	}

	userMsg := newMessage(projectID, domain.RoleUser, question)
	if err := s.store.AppendMessage(ctx, userMsg); err != nil {
		logger.Error("chat %s: store question: %v", projectID, err)
		return newMessage(projectID, domain.RoleAssistant, ApologyMessage), nil
	}
	_ = s.store.TouchProject(ctx, projectID)

	reply := newMessage(projectID, domain.RoleAssistant, ApologyMessage)
	answer, err := s.responder.Answer(ctx, projectID, question, history)
	if err != nil {
		logger.Warn("chat %s: %v", projectID, err)
	} else {
		reply.Content = answer.Text
		reply.Sources = answer.Sources
	}

	// Keep the answer strictly after the question.
	if !reply.CreatedAt.After(userMsg.CreatedAt) {
		reply.CreatedAt = userMsg.CreatedAt.Add(time.Microsecond)
	}
	if err := s.store.AppendMessage(ctx, reply); err != nil {
		logger.Error("chat %s: store answer: %v", projectID, err)
	}
	return reply, nil
}

// Welcome returns the greeting shown at the start of a conversation.
func (s *chatService) Welcome(ctx context.Context, projectID string) (*domain.ChatMessage, error) {
	summary, err := s.store.SummariseProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var text string
	if summary.DocumentsCount == 0 {
		text = fmt.Sprintf("Hello! I am your assistant for the project %q. "+
			"Upload documents and I will extract their key points and answer your questions about them.", summary.Name)
	} else {
		text = fmt.Sprintf("Hello! I am your assistant for the project %q. "+
			"I have analysed %s and extracted %s. What would you like to know?",
			summary.Name, plural(summary.DocumentsCount, "document"), plural(summary.KeyPointsCount, "key point"))
	}

	msg := newMessage(projectID, domain.RoleAssistant, text)
	msg.ID = WelcomeID
	return msg, nil
}

// History returns the last limit messages; zero returns all.
func (s *chatService) History(ctx context.Context, projectID string, limit int) ([]domain.ChatMessage, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, projectID, limit)
}

// Clear removes a project conversation.
func (s *chatService) Clear(ctx context.Context, projectID string) error {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return err
	}
	return s.store.ClearMessages(ctx, projectID)
}

func newMessage(projectID string, role domain.ChatRole, content string) *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
