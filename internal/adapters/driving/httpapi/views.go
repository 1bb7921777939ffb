package httpapi

import (
	"time"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

// JSON views of the domain types.

type projectView struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Color          string     `json:"color"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
	DocumentsCount *int       `json:"documents_count,omitempty"`
	KeyPointsCount *int       `json:"key_points_count,omitempty"`
}

func newProjectView(p *domain.Project) projectView {
	v := projectView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Color:       p.Color,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
	}
	if !p.LastActivityAt.IsZero() {
		at := p.LastActivityAt
		v.LastActivityAt = &at
	}
	return v
}

func newSummaryView(s *domain.ProjectSummary) projectView {
	v := newProjectView(&s.Project)
	docs, kps := s.DocumentsCount, s.KeyPointsCount
	v.DocumentsCount = &docs
	v.KeyPointsCount = &kps
	return v
}

type documentView struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Name       string    `json:"name"`
	SourceType string    `json:"source_type"`
	Size       int64     `json:"size"`
	Status     string    `json:"status"`
	Stage      string    `json:"stage,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	Error      string    `json:"error,omitempty"`
	UploadedAt time.Time `json:"uploaded_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newDocumentView(d *domain.Document, state domain.TaskState, running bool) documentView {
	v := documentView{
		ID:         d.ID,
		ProjectID:  d.ProjectID,
		Name:       d.Name,
		SourceType: string(d.SourceType),
		Size:       d.Size,
		Status:     string(d.Status),
		Summary:    d.Summary,
		Error:      d.Error,
		UploadedAt: d.UploadedAt,
		UpdatedAt:  d.UpdatedAt,
	}
	if running {
		v.Stage = string(state.Stage)
	}
	return v
}

type keyPointView struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Type       string    `json:"type"`
	Content    string    `json:"content"`
	Source     string    `json:"source"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

func newKeyPointViews(kps []domain.KeyPoint) []keyPointView {
	out := make([]keyPointView, len(kps))
	for i, kp := range kps {
		out[i] = keyPointView{
			ID:         kp.ID,
			DocumentID: kp.DocumentID,
			Type:       string(kp.Type),
			Content:    kp.Content,
			Source:     kp.Source,
			Confidence: kp.Confidence,
			CreatedAt:  kp.CreatedAt,
		}
	}
	return out
}

type statsView struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
}

func newStatsView(s domain.KeyPointStats) statsView {
	v := statsView{Total: s.Total, ByType: make(map[string]int, len(s.ByType))}
	for t, n := range s.ByType {
		v.ByType[string(t)] = n
	}
	return v
}

type citationView struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	ChunkID      string  `json:"chunk_id"`
	Excerpt      string  `json:"excerpt"`
	Confidence   float64 `json:"confidence"`
}

type messageView struct {
	ID        string         `json:"id"`
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Sources   []citationView `json:"sources,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func newMessageView(m *domain.ChatMessage) messageView {
	v := messageView{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
	for _, s := range m.Sources {
		v.Sources = append(v.Sources, citationView{
			DocumentID:   s.DocumentID,
			DocumentName: s.DocumentName,
			ChunkID:      s.ChunkID,
			Excerpt:      s.Excerpt,
			Confidence:   s.Confidence,
		})
	}
	return v
}

type searchResultView struct {
	ChunkID      string  `json:"chunk_id"`
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	Ordinal      int     `json:"ordinal"`
	Content      string  `json:"content"`
	Score        float64 `json:"score"`
}

func newSearchResultViews(results []driving.SearchResult) []searchResultView {
	out := make([]searchResultView, len(results))
	for i, r := range results {
		out[i] = searchResultView{
			ChunkID:      r.Hit.ChunkID,
			DocumentID:   r.Hit.DocumentID,
			DocumentName: r.DocumentName,
			Ordinal:      r.Hit.Ordinal,
			Content:      r.Hit.Content,
			Score:        r.Hit.Score,
		}
	}
	return out
}
