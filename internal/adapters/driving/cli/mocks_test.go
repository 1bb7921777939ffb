package cli

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/docsight/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

var testTime = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

// mockProjectService implements driving.ProjectService for testing.
type mockProjectService struct {
	projects []domain.ProjectSummary
	updates  []driving.ProjectUpdate
	archived []string
	deleted  []string
}

func (m *mockProjectService) Create(_ context.Context, name, description, color string) (*domain.Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("name is required")
	}
	p := domain.Project{ID: "p-new", Name: name, Description: description, Color: color, Status: domain.ProjectActive}
	m.projects = append(m.projects, domain.ProjectSummary{Project: p})
	return &p, nil
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
	return m.projects, nil
}

func (m *mockProjectService) Update(ctx context.Context, id string, update driving.ProjectUpdate) (*domain.Project, error) {
	p, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.updates = append(m.updates, update)
	if update.Name != nil {
		p.Name = *update.Name
	}
	return &p.Project, nil
}

func (m *mockProjectService) Archive(_ context.Context, id string) error {
	m.archived = append(m.archived, id)
	return nil
}

func (m *mockProjectService) Delete(_ context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

// mockDocumentService implements driving.DocumentService for testing.
type mockDocumentService struct {
	docs        []domain.Document
	content     map[string]string
	states      map[string]domain.TaskState
	uploaded    []string
	deleted     []string
	reprocessed []string
	waited      []string
}

func (m *mockDocumentService) Upload(_ context.Context, projectID, name string, content []byte) (*domain.Document, error) {
	if len(content) == 0 {
		return nil, errors.New("empty file")
	}
	m.uploaded = append(m.uploaded, name)
	doc := domain.Document{
		ID:        "d-" + name,
		ProjectID: projectID,
		Name:      name,
		Size:      int64(len(content)),
		Status:    domain.StatusProcessing,
	}
	m.docs = append(m.docs, doc)
	return &doc, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) List(_ context.Context, projectID string) ([]domain.Document, error) {
	var out []domain.Document
	for _, d := range m.docs {
		if d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockDocumentService) Content(_ context.Context, id string) (string, error) {
	text, ok := m.content[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return text, nil
}

func (m *mockDocumentService) Delete(ctx context.Context, id string) error {
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockDocumentService) Reprocess(ctx context.Context, id string) error {
	if _, err := m.Get(ctx, id); err != nil {
		return err
	}
	m.reprocessed = append(m.reprocessed, id)
	return nil
}

func (m *mockDocumentService) Wait(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.waited = append(m.waited, id)
	done := *doc
	done.Status = domain.StatusCompleted
	done.Summary = "Summary of " + doc.Name
	return &done, nil
}

func (m *mockDocumentService) State(id string) (domain.TaskState, bool) {
	s, ok := m.states[id]
	return s, ok
}

// mockKeyPointService implements driving.KeyPointService for testing.
type mockKeyPointService struct {
	keyPoints  []domain.KeyPoint
	lastFilter domain.KeyPointFilter
}

func (m *mockKeyPointService) List(_ context.Context, _ string, filter domain.KeyPointFilter) ([]domain.KeyPoint, error) {
	m.lastFilter = filter
	if len(filter.Types) == 0 {
		return m.keyPoints, nil
	}
	var out []domain.KeyPoint
	for _, kp := range m.keyPoints {
		for _, t := range filter.Types {
			if kp.Type == t {
				out = append(out, kp)
			}
		}
	}
	return out, nil
}

func (m *mockKeyPointService) Stats(context.Context, string) (domain.KeyPointStats, error) {
	return domain.NewKeyPointStats(m.keyPoints), nil
}

// mockChatService implements driving.ChatService for testing.
type mockChatService struct {
	history []domain.ChatMessage
	asked   []string
	cleared []string
	limit   int
}

func (m *mockChatService) Ask(_ context.Context, projectID, question string) (*domain.ChatMessage, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.New("question is empty")
	}
	m.asked = append(m.asked, question)
	return &domain.ChatMessage{
		ProjectID: projectID,
		Role:      domain.RoleAssistant,
		Content:   "Closing is on 31 March [1].",
		Sources:   []domain.SourceCitation{{DocumentName: "contract.pdf", Confidence: 0.87}},
		CreatedAt: testTime,
	}, nil
}

func (m *mockChatService) Welcome(_ context.Context, projectID string) (*domain.ChatMessage, error) {
	return &domain.ChatMessage{ProjectID: projectID, Role: domain.RoleAssistant, Content: "Welcome"}, nil
}

func (m *mockChatService) History(_ context.Context, _ string, limit int) ([]domain.ChatMessage, error) {
	m.limit = limit
	return m.history, nil
}

func (m *mockChatService) Clear(_ context.Context, projectID string) error {
	m.cleared = append(m.cleared, projectID)
	return nil
}

// mockSearchService implements driving.SearchService for testing.
type mockSearchService struct {
	results []driving.SearchResult
	query   string
	k       int
}

func (m *mockSearchService) Search(_ context.Context, _, query string, k int) ([]driving.SearchResult, error) {
	m.query = query
	m.k = k
	if len(m.results) > k {
		return m.results[:k], nil
	}
	return m.results, nil
}

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	projects  *mockProjectService
	documents *mockDocumentService
	keyPoints *mockKeyPointService
	chat      *mockChatService
	search    *mockSearchService
	backend   *Backend
}

var mocks *testServices

func newTestServices() *testServices {
	ts := &testServices{
		projects: &mockProjectService{projects: []domain.ProjectSummary{
			{
				Project: domain.Project{
					ID: "p-1", Name: "Acme Deal", Description: "Acquisition of Acme",
					Color: "#3B82F6", Status: domain.ProjectActive,
					CreatedAt: testTime, LastActivityAt: testTime,
				},
				DocumentsCount: 2,
				KeyPointsCount: 3,
			},
			{
				Project:        domain.Project{ID: "p-2", Name: "Old Lease", Status: domain.ProjectArchived},
				DocumentsCount: 1,
			},
		}},
		documents: &mockDocumentService{
			docs: []domain.Document{
				{
					ID: "doc-1", ProjectID: "p-1", Name: "contract.pdf", SourceType: domain.SourcePDF,
					Size: 2048, Status: domain.StatusCompleted, Summary: "Share purchase agreement",
					UploadedAt: testTime, UpdatedAt: testTime,
				},
				{
					ID: "doc-2", ProjectID: "p-1", Name: "minutes.docx", SourceType: domain.SourceDocument,
					Size: 512, Status: domain.StatusProcessing,
				},
			},
			content: map[string]string{"doc-1": "Closing takes place on 31 March."},
			states:  map[string]domain.TaskState{"doc-2": {DocumentID: "doc-2", Stage: domain.StageExtracting}},
		},
		keyPoints: &mockKeyPointService{keyPoints: []domain.KeyPoint{
			{ID: "k1", Type: domain.KeyPointDate, Content: "Closing on 31 March", Source: "contract.pdf", Confidence: 0.9},
			{ID: "k2", Type: domain.KeyPointPerson, Content: "Jane Roe, CFO", Source: "contract.pdf", Confidence: 0.8},
			{ID: "k3", Type: domain.KeyPointTask, Content: "Sign the NDA", Source: "minutes.docx", Confidence: 0.7},
		}},
		chat: &mockChatService{},
		search: &mockSearchService{results: []driving.SearchResult{
			{
				Hit:          domain.SearchHit{ChunkID: "c1", DocumentID: "doc-1", Content: "Closing takes place\n on 31 March.", Score: 0.91},
				DocumentName: "contract.pdf",
			},
			{
				Hit:          domain.SearchHit{ChunkID: "c2", DocumentID: "doc-2", Content: "The board approved the deal.", Score: 0.74},
				DocumentName: "minutes.docx",
			},
		}},
	}
	ts.backend = &Backend{
		Projects:  ts.projects,
		Documents: ts.documents,
		KeyPoints: ts.keyPoints,
		Chat:      ts.chat,
		Search:    ts.search,
	}
	return ts
}

// setupTestServices installs fresh mocks and an in-memory config store,
// and returns a function restoring the previous state.
func setupTestServices() func() {
	oldBackend := backend
	oldEnv := environment
	oldConfig := configStore
	oldDrain := drainOnExit
	oldMocks := mocks
	oldServices := []any{projectService, documentService, keyPointService, chatService, searchService}

	mocks = newTestServices()
	useBackend(mocks.backend)
	environment = nil
	configStore = memory.NewConfigStore(nil)
	drainOnExit = false
	resetFlags(rootCmd)

	return func() {
		backend = oldBackend
		environment = oldEnv
		configStore = oldConfig
		drainOnExit = oldDrain
		mocks = oldMocks
		projectService, _ = oldServices[0].(driving.ProjectService)
		documentService, _ = oldServices[1].(driving.DocumentService)
		keyPointService, _ = oldServices[2].(driving.KeyPointService)
		chatService, _ = oldServices[3].(driving.ChatService)
		searchService, _ = oldServices[4].(driving.SearchService)
		resetFlags(rootCmd)
	}
}

// resetFlags returns every flag of cmd and its subcommands to its default,
// since flag variables outlive a single Execute.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
