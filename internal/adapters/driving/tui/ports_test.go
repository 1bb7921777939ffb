package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

// MockChatService implements driving.ChatService for testing.
type MockChatService struct {
	Messages []domain.ChatMessage
	Answer   *domain.ChatMessage
	Err      error
}

func (m *MockChatService) Ask(context.Context, string, string) (*domain.ChatMessage, error) {
	return m.Answer, m.Err
}

func (m *MockChatService) Welcome(_ context.Context, projectID string) (*domain.ChatMessage, error) {
	return &domain.ChatMessage{ProjectID: projectID, Role: domain.RoleAssistant, Content: "Welcome"}, m.Err
}

func (m *MockChatService) History(context.Context, string, int) ([]domain.ChatMessage, error) {
	return m.Messages, m.Err
}

func (m *MockChatService) Clear(context.Context, string) error {
	return m.Err
}

// MockKeyPointService implements driving.KeyPointService for testing.
type MockKeyPointService struct {
	KeyPoints []domain.KeyPoint
}

func (m *MockKeyPointService) List(context.Context, string, domain.KeyPointFilter) ([]domain.KeyPoint, error) {
	return m.KeyPoints, nil
}

func (m *MockKeyPointService) Stats(context.Context, string) (domain.KeyPointStats, error) {
	return domain.NewKeyPointStats(m.KeyPoints), nil
}

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	Docs []domain.Document
	Text string
}

func (m *MockDocumentService) Upload(context.Context, string, string, []byte) (*domain.Document, error) {
	return nil, nil
}

func (m *MockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.Docs {
		if m.Docs[i].ID == id {
			return &m.Docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) List(context.Context, string) ([]domain.Document, error) {
	return m.Docs, nil
}

func (m *MockDocumentService) Content(context.Context, string) (string, error) {
	return m.Text, nil
}

func (m *MockDocumentService) Delete(context.Context, string) error {
	return nil
}

func (m *MockDocumentService) Reprocess(context.Context, string) error {
	return nil
}

func (m *MockDocumentService) Wait(context.Context, string) (*domain.Document, error) {
	return nil, nil
}

func (m *MockDocumentService) State(string) (domain.TaskState, bool) {
	return domain.TaskState{}, false
}

// MockSearchService implements driving.SearchService for testing.
type MockSearchService struct {
	Results []driving.SearchResult
}

func (m *MockSearchService) Search(context.Context, string, string, int) ([]driving.SearchResult, error) {
	return m.Results, nil
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		want  error
	}{
		{"nil ports", nil, ErrInvalidPorts},
		{"missing chat", &Ports{KeyPoints: &MockKeyPointService{}}, ErrMissingChatService},
		{"missing key points", &Ports{Chat: &MockChatService{}}, ErrMissingKeyPointService},
		{"required only", &Ports{Chat: &MockChatService{}, KeyPoints: &MockKeyPointService{}}, nil},
		{"all ports", &Ports{
			Chat:      &MockChatService{},
			KeyPoints: &MockKeyPointService{},
			Documents: &MockDocumentService{},
			Search:    &MockSearchService{},
		}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
