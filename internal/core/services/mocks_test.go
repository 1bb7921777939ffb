package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/vectormath"
)

// mockStore is an in-memory driven.Store.
type mockStore struct {
	mu        sync.Mutex
	projects  map[string]domain.Project
	docs      map[string]domain.Document
	raw       map[string][]byte
	text      map[string]string
	keyPoints map[string][]domain.KeyPoint
	messages  map[string][]domain.ChatMessage

	appendErr  error
	replaceErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		projects:  make(map[string]domain.Project),
		docs:      make(map[string]domain.Document),
		raw:       make(map[string][]byte),
		text:      make(map[string]string),
		keyPoints: make(map[string][]domain.KeyPoint),
		messages:  make(map[string][]domain.ChatMessage),
	}
}

func (m *mockStore) SaveProject(_ context.Context, p *domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = *p
	return nil
}

func (m *mockStore) GetProject(_ context.Context, id string) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (m *mockStore) summary(p domain.Project) domain.ProjectSummary {
	s := domain.ProjectSummary{Project: p}
	for _, d := range m.docs {
		if d.ProjectID == p.ID {
			s.DocumentsCount++
			s.KeyPointsCount += len(m.keyPoints[d.ID])
		}
	}
	return s
}

func (m *mockStore) ListProjects(_ context.Context) ([]domain.ProjectSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ProjectSummary, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, m.summary(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockStore) SummariseProject(_ context.Context, id string) (*domain.ProjectSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	s := m.summary(p)
	return &s, nil
}

func (m *mockStore) TouchProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.LastActivityAt = time.Now()
	m.projects[id] = p
	return nil
}

func (m *mockStore) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	for docID, d := range m.docs {
		if d.ProjectID == id {
			m.deleteDocLocked(docID)
		}
	}
	delete(m.messages, id)
	return nil
}

func (m *mockStore) SaveDocument(_ context.Context, d *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[d.ID] = *d
	return nil
}

func (m *mockStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &d, nil
}

func (m *mockStore) ListDocuments(_ context.Context, projectID string) ([]domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Document
	for _, d := range m.docs {
		if d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (m *mockStore) SetDocumentStatus(_ context.Context, id string, status domain.DocumentStatus, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.Status = status
	d.Error = errMsg
	m.docs[id] = d
	return nil
}

func (m *mockStore) SetSummary(_ context.Context, id, summary string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	d.Summary = summary
	m.docs[id] = d
	return nil
}

func (m *mockStore) SaveContent(_ context.Context, id string, raw []byte, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if raw != nil {
		m.raw[id] = raw
	}
	if text != "" {
		m.text[id] = text
	}
	return nil
}

func (m *mockStore) GetContent(_ context.Context, id string) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.raw[id]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	return raw, m.text[id], nil
}

func (m *mockStore) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteDocLocked(id)
	return nil
}

func (m *mockStore) deleteDocLocked(id string) {
	delete(m.docs, id)
	delete(m.raw, id)
	delete(m.text, id)
	delete(m.keyPoints, id)
}

func (m *mockStore) AppendKeyPoints(_ context.Context, documentID string, kps []domain.KeyPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyPoints[documentID] = append(m.keyPoints[documentID], kps...)
	return nil
}

func (m *mockStore) ReplaceKeyPoints(_ context.Context, documentID string, kps []domain.KeyPoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.keyPoints[documentID] = append([]domain.KeyPoint(nil), kps...)
	return nil
}

func (m *mockStore) ListKeyPoints(_ context.Context, projectID string, filter domain.KeyPointFilter) ([]domain.KeyPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.KeyPoint
	for docID, kps := range m.keyPoints {
		if m.docs[docID].ProjectID != projectID {
			continue
		}
		for _, kp := range kps {
			if filter.Matches(kp) {
				out = append(out, kp)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Content < out[j].Content })
	return out, nil
}

func (m *mockStore) AppendMessage(_ context.Context, msg *domain.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.messages[msg.ProjectID] = append(m.messages[msg.ProjectID], *msg)
	return nil
}

func (m *mockStore) ListMessages(_ context.Context, projectID string, limit int) ([]domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.messages[projectID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]domain.ChatMessage(nil), msgs...), nil
}

func (m *mockStore) ClearMessages(_ context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.messages, projectID)
	return nil
}

func (m *mockStore) Close() error { return nil }

// mockIndex is a brute-force driven.VectorIndex.
type mockIndex struct {
	mu      sync.Mutex
	chunks  map[string][]domain.SearchHit
	project map[string]string
	dims    int
}

func newMockIndex() *mockIndex {
	return &mockIndex{chunks: make(map[string][]domain.SearchHit), project: make(map[string]string)}
}

func (m *mockIndex) Upsert(_ context.Context, projectID, documentID string, chunks []domain.ChunkInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	hits := make([]domain.SearchHit, 0, len(chunks))
	for _, c := range chunks {
		if m.dims != 0 && len(c.Embedding) != m.dims {
			return domain.ErrDimensionMismatch
		}
		hits = append(hits, domain.SearchHit{
			ChunkID:    domain.ChunkID(documentID, c.Ordinal),
			DocumentID: documentID,
			Ordinal:    c.Ordinal,
			Content:    c.Content,
		})
	}
	m.chunks[documentID] = hits
	m.project[documentID] = projectID
	return nil
}

func (m *mockIndex) Search(_ context.Context, projectID string, query []float32, k int) ([]domain.SearchHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []domain.SearchHit
	for docID, hits := range m.chunks {
		if m.project[docID] != projectID {
			continue
		}
		for _, h := range hits {
			h.Score = vectormath.Cosine(query, hashVector(h.Content))
			all = append(all, h)
		}
	}
	return vectormath.TopK(all, k), nil
}

func (m *mockIndex) Delete(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chunks, documentID)
	delete(m.project, documentID)
	return nil
}

func (m *mockIndex) DeleteProject(_ context.Context, projectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for docID, p := range m.project {
		if p == projectID {
			delete(m.chunks, docID)
			delete(m.project, docID)
		}
	}
	return nil
}

func (m *mockIndex) Count(_ context.Context, projectID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for docID, hits := range m.chunks {
		if m.project[docID] == projectID {
			n += len(hits)
		}
	}
	return n, nil
}

func (m *mockIndex) Dimensions() int { return m.dims }
func (m *mockIndex) Close() error    { return nil }

// hashVector is a tiny bag-of-letters embedding shared by the mock
// embedder and index.
func hashVector(text string) []float32 {
	v := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v
}

// mockEmbedder embeds with hashVector and can fail a number of times.
type mockEmbedder struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.failures > 0 {
		m.failures--
		return nil, m.err
	}
	return hashVector(text), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return 26 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockLLM records chat requests and returns a canned answer.
type mockLLM struct {
	mu       sync.Mutex
	answer   string
	generate string
	summary  string
	err      error
	failures int
	chats    [][]driven.ChatMessage
}

func (m *mockLLM) Generate(_ context.Context, _ string, _ driven.GenerateOptions) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.generate, nil
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats = append(m.chats, messages)
	if m.failures != 0 {
		if m.failures > 0 {
			m.failures--
		}
		return "", m.err
	}
	return m.answer, nil
}

func (m *mockLLM) Summarise(_ context.Context, _ string, _ int) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.summary, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) lastChat() []driven.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.chats) == 0 {
		return nil
	}
	return m.chats[len(m.chats)-1]
}

// mockNER returns fixed entities.
type mockNER struct {
	entities []driven.Entity
	err      error
}

func (m *mockNER) Entities(_ context.Context, _ string) ([]driven.Entity, error) {
	return m.entities, m.err
}

// mockRegistry normalises plain text and rejects other extensions.
type mockRegistry struct {
	delay time.Duration
	panic bool
}

func (m *mockRegistry) Register(driven.Normaliser) {}

func (m *mockRegistry) SupportedExtensions() []string { return []string{"txt"} }

func (m *mockRegistry) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.NormalisedText, error) {
	if m.panic {
		panic("boom")
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if domain.Extension(raw.Filename) != "txt" {
		return nil, domain.ErrUnsupportedFormat
	}
	content := strings.TrimSpace(string(raw.Content))
	if content == "" {
		return nil, domain.ErrCorruptFile
	}
	return &domain.NormalisedText{DocumentID: raw.DocumentID, Title: raw.Filename, Content: content, MIMEType: "text/plain"}, nil
}

// paragraphPipeline makes one chunk per paragraph.
type paragraphPipeline struct{}

func (paragraphPipeline) Process(_ context.Context, text *domain.NormalisedText) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for i, para := range strings.Split(text.Content, "\n\n") {
		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(text.DocumentID, i),
			DocumentID: text.DocumentID,
			Ordinal:    i,
			Content:    para,
		})
	}
	return chunks, nil
}

// wordCounter counts whitespace separated words as tokens.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }
