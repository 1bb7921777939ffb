package httpapi

import (
	"context"
	"time"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

var testTime = time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

type mockProjects struct {
	projects map[string]*domain.ProjectSummary
	updated  driving.ProjectUpdate
	archived string
	deleted  string
}

func newMockProjects() *mockProjects {
	return &mockProjects{projects: map[string]*domain.ProjectSummary{
		"p1": {
			Project:        domain.Project{ID: "p1", Name: "HR", Color: domain.DefaultProjectColor, Status: domain.ProjectActive, CreatedAt: testTime},
			DocumentsCount: 2,
			KeyPointsCount: 7,
		},
	}}
}

func (m *mockProjects) Create(_ context.Context, name, description, color string) (*domain.Project, error) {
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	return &domain.Project{ID: "new", Name: name, Description: description, Color: color, Status: domain.ProjectActive, CreatedAt: testTime}, nil
}

func (m *mockProjects) Get(_ context.Context, id string) (*domain.ProjectSummary, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *mockProjects) List(context.Context) ([]domain.ProjectSummary, error) {
	var out []domain.ProjectSummary
	for _, p := range m.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockProjects) Update(_ context.Context, id string, update driving.ProjectUpdate) (*domain.Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	m.updated = update
	out := p.Project
	if update.Name != nil {
		out.Name = *update.Name
	}
	if update.Status != nil {
		if !update.Status.IsValid() {
			return nil, domain.ErrInvalidInput
		}
		out.Status = *update.Status
	}
	return &out, nil
}

func (m *mockProjects) Archive(_ context.Context, id string) error {
	m.archived = id
	return nil
}

func (m *mockProjects) Delete(_ context.Context, id string) error {
	if _, ok := m.projects[id]; !ok {
		return domain.ErrNotFound
	}
	m.deleted = id
	return nil
}

type mockDocuments struct {
	uploadedName    string
	uploadedContent []byte
	reprocessed     string
	deleted         string
}

func (m *mockDocuments) Upload(_ context.Context, projectID, filename string, content []byte) (*domain.Document, error) {
	if filename == "virus.exe" {
		return nil, domain.ErrUnsupportedFormat
	}
	m.uploadedName = filename
	m.uploadedContent = content
	return &domain.Document{ID: "d-new", ProjectID: projectID, Name: filename, Size: int64(len(content)),
		Status: domain.StatusProcessing, UploadedAt: testTime}, nil
}

func (m *mockDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	if id != "d1" {
		return nil, domain.ErrNotFound
	}
	return &domain.Document{ID: "d1", ProjectID: "p1", Name: "notes.txt", SourceType: domain.SourceText,
		Size: 42, Status: domain.StatusCompleted, Summary: "Notes.", UploadedAt: testTime}, nil
}

func (m *mockDocuments) List(_ context.Context, projectID string) ([]domain.Document, error) {
	return []domain.Document{
		{ID: "d1", ProjectID: projectID, Name: "notes.txt", Status: domain.StatusCompleted},
		{ID: "d2", ProjectID: projectID, Name: "plan.pdf", Status: domain.StatusProcessing},
	}, nil
}

func (m *mockDocuments) Content(_ context.Context, id string) (string, error) {
	if id != "d1" {
		return "", domain.ErrNotFound
	}
	return "plain text", nil
}

func (m *mockDocuments) Delete(_ context.Context, id string) error {
	m.deleted = id
	return nil
}

func (m *mockDocuments) Reprocess(_ context.Context, id string) error {
	m.reprocessed = id
	return nil
}

func (m *mockDocuments) Wait(ctx context.Context, id string) (*domain.Document, error) {
	return m.Get(ctx, id)
}

func (m *mockDocuments) State(id string) (domain.TaskState, bool) {
	if id == "d2" || id == "d-new" {
		return domain.TaskState{DocumentID: id, Stage: domain.StageExtracting}, true
	}
	return domain.TaskState{}, false
}

type mockKeyPoints struct {
	filter domain.KeyPointFilter
}

func (m *mockKeyPoints) List(_ context.Context, _ string, filter domain.KeyPointFilter) ([]domain.KeyPoint, error) {
	m.filter = filter
	return []domain.KeyPoint{
		{ID: "k1", DocumentID: "d1", Type: domain.KeyPointDate, Content: "31 March 2025", Source: "notes.txt", Confidence: 0.9},
	}, nil
}

func (m *mockKeyPoints) Stats(context.Context, string) (domain.KeyPointStats, error) {
	return domain.NewKeyPointStats([]domain.KeyPoint{{Type: domain.KeyPointDate}, {Type: domain.KeyPointTask}}), nil
}

type mockChat struct {
	asked   string
	cleared bool
}

func (m *mockChat) Ask(_ context.Context, projectID, question string) (*domain.ChatMessage, error) {
	if question == "" {
		return nil, domain.ErrInvalidInput
	}
	m.asked = question
	return &domain.ChatMessage{
		ID:        "m2",
		ProjectID: projectID,
		Role:      domain.RoleAssistant,
		Content:   "Encrypt laptops [1]",
		Sources: []domain.SourceCitation{
			{DocumentID: "d1", DocumentName: "notes.txt", ChunkID: "d1#0", Excerpt: "Encrypt", Confidence: 0.8},
		},
		CreatedAt: testTime,
	}, nil
}

func (m *mockChat) Welcome(_ context.Context, projectID string) (*domain.ChatMessage, error) {
	return &domain.ChatMessage{ID: "w", ProjectID: projectID, Role: domain.RoleAssistant, Content: "Hello"}, nil
}

func (m *mockChat) History(_ context.Context, projectID string, limit int) ([]domain.ChatMessage, error) {
	msgs := []domain.ChatMessage{
		{ID: "m1", ProjectID: projectID, Role: domain.RoleUser, Content: "q"},
		{ID: "m2", ProjectID: projectID, Role: domain.RoleAssistant, Content: "a"},
	}
	if limit > 0 && limit < len(msgs) {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (m *mockChat) Clear(context.Context, string) error {
	m.cleared = true
	return nil
}

type mockSearch struct {
	k   int
	err error
}

func (m *mockSearch) Search(_ context.Context, _ string, _ string, k int) ([]driving.SearchResult, error) {
	m.k = k
	if m.err != nil {
		return nil, m.err
	}
	return []driving.SearchResult{{
		Hit:          domain.SearchHit{ChunkID: "d1#0", DocumentID: "d1", Content: "Encrypt laptops", Score: 0.7},
		DocumentName: "notes.txt",
	}}, nil
}
