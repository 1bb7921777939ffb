package mcp

import (
	"context"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results   []driving.SearchResult
	err       error
	projectID string
	k         int
}

func (m *mockSearchService) Search(_ context.Context, projectID, _ string, k int) ([]driving.SearchResult, error) {
	m.projectID = projectID
	m.k = k
	return m.results, m.err
}

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answer    *domain.ChatMessage
	err       error
	projectID string
	question  string
}

func (m *mockChatService) Ask(_ context.Context, projectID, question string) (*domain.ChatMessage, error) {
	m.projectID = projectID
	m.question = question
	return m.answer, m.err
}

func (m *mockChatService) Welcome(context.Context, string) (*domain.ChatMessage, error) {
	return m.answer, m.err
}

func (m *mockChatService) History(context.Context, string, int) ([]domain.ChatMessage, error) {
	return nil, m.err
}

func (m *mockChatService) Clear(context.Context, string) error {
	return m.err
}

// mockProjectService is a mock implementation of driving.ProjectService.
type mockProjectService struct {
	projects []domain.ProjectSummary
	err      error
}

func (m *mockProjectService) Create(context.Context, string, string, string) (*domain.Project, error) {
	return nil, m.err
}

func (m *mockProjectService) Get(_ context.Context, id string) (*domain.ProjectSummary, error) {
	for i := range m.projects {
		if m.projects[i].ID == id {
			return &m.projects[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockProjectService) List(context.Context) ([]domain.ProjectSummary, error) {
	return m.projects, m.err
}

func (m *mockProjectService) Update(context.Context, string, driving.ProjectUpdate) (*domain.Project, error) {
	return nil, m.err
}

func (m *mockProjectService) Archive(context.Context, string) error { return m.err }

func (m *mockProjectService) Delete(context.Context, string) error { return m.err }

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	content   string
	err       error
	projectID string
}

func (m *mockDocumentService) Upload(context.Context, string, string, []byte) (*domain.Document, error) {
	return nil, m.err
}

func (m *mockDocumentService) Get(context.Context, string) (*domain.Document, error) {
	return nil, m.err
}

func (m *mockDocumentService) List(_ context.Context, projectID string) ([]domain.Document, error) {
	m.projectID = projectID
	return m.documents, m.err
}

func (m *mockDocumentService) Content(context.Context, string) (string, error) {
	return m.content, m.err
}

func (m *mockDocumentService) Delete(context.Context, string) error { return m.err }

func (m *mockDocumentService) Reprocess(context.Context, string) error { return m.err }

func (m *mockDocumentService) Wait(context.Context, string) (*domain.Document, error) {
	return nil, m.err
}

func (m *mockDocumentService) State(string) (domain.TaskState, bool) {
	return domain.TaskState{}, false
}

// mockKeyPointService is a mock implementation of driving.KeyPointService.
type mockKeyPointService struct {
	keyPoints []domain.KeyPoint
	filter    domain.KeyPointFilter
	err       error
}

func (m *mockKeyPointService) List(_ context.Context, _ string, filter domain.KeyPointFilter) ([]domain.KeyPoint, error) {
	m.filter = filter
	return m.keyPoints, m.err
}

func (m *mockKeyPointService) Stats(context.Context, string) (domain.KeyPointStats, error) {
	return domain.NewKeyPointStats(m.keyPoints), m.err
}

func testProjects() *mockProjectService {
	return &mockProjectService{projects: []domain.ProjectSummary{
		{Project: domain.Project{ID: "p-1", Name: "Acme Deal", Status: domain.ProjectActive}, DocumentsCount: 3, KeyPointsCount: 12},
		{Project: domain.Project{ID: "p-2", Name: "Hiring", Status: domain.ProjectArchived}},
	}}
}
