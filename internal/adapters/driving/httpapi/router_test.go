package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

type fixture struct {
	projects  *mockProjects
	documents *mockDocuments
	keyPoints *mockKeyPoints
	chat      *mockChat
	search    *mockSearch
	router    *gin.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fixture{
		projects:  newMockProjects(),
		documents: &mockDocuments{},
		keyPoints: &mockKeyPoints{},
		chat:      &mockChat{},
		search:    &mockSearch{},
	}
	ports := Ports{Projects: f.projects, Documents: f.documents, KeyPoints: f.keyPoints, Chat: f.chat, Search: f.search}
	require.NoError(t, ports.Validate())
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "docsight_up 1\n")
	})
	f.router = NewRouter(ports, metrics)
	return f
}

func (f *fixture) do(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = http.NoBody
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) json(method, path, body string) *httptest.ResponseRecorder {
	return f.do(method, path, strings.NewReader(body), "application/json")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestPorts_Validate(t *testing.T) {
	assert.ErrorIs(t, Ports{}.Validate(), ErrMissingService)
}

func TestHealthzAndMetrics(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "docsight_up 1")
}

func TestProjects(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/projects", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "HR", list[0]["name"])
	assert.EqualValues(t, 2, list[0]["documents_count"])
	assert.EqualValues(t, 7, list[0]["key_points_count"])

	rec = f.json(http.MethodPost, "/api/projects", `{"name":"Legal","color":"#000000"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[map[string]any](t, rec)
	assert.Equal(t, "Legal", created["name"])
	assert.NotContains(t, created, "documents_count")

	rec = f.json(http.MethodPatch, "/api/projects/p1", `{"name":"People","status":"archived"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[map[string]any](t, rec)
	assert.Equal(t, "People", updated["name"])
	assert.Equal(t, "archived", updated["status"])
	assert.Nil(t, f.projects.updated.Description)

	rec = f.do(http.MethodPost, "/api/projects/p1/archive", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "p1", f.projects.archived)

	rec = f.do(http.MethodDelete, "/api/projects/p1", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "p1", f.projects.deleted)
}

func TestErrorEnvelope(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"missing project", http.MethodGet, "/api/projects/nope", "", http.StatusNotFound, CodeNotFound},
		{"empty name", http.MethodPost, "/api/projects", `{"name":""}`, http.StatusBadRequest, CodeInvalidInput},
		{"malformed json", http.MethodPost, "/api/projects", `{`, http.StatusBadRequest, CodeInvalidInput},
		{"bad status", http.MethodPatch, "/api/projects/p1", `{"status":"gone"}`, http.StatusBadRequest, CodeInvalidInput},
		{"empty question", http.MethodPost, "/api/projects/p1/chat", `{"message":""}`, http.StatusBadRequest, CodeInvalidInput},
		{"bad key point type", http.MethodGet, "/api/projects/p1/keypoints?type=colour", "", http.StatusBadRequest, CodeInvalidInput},
		{"bad limit", http.MethodGet, "/api/projects/p1/chat?limit=-1", "", http.StatusBadRequest, CodeInvalidInput},
		{"missing query", http.MethodGet, "/api/projects/p1/search", "", http.StatusBadRequest, CodeInvalidInput},
		{"missing document", http.MethodGet, "/api/documents/nope", "", http.StatusNotFound, CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.json(tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			env := decode[ErrorEnvelope](t, rec)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.NotEmpty(t, env.Error.Message)
		})
	}
}

func TestRespondError_ProviderErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("embed: %w", domain.ErrTimeout), http.StatusGatewayTimeout, CodeTimeout},
		{fmt.Errorf("embed: %w", domain.ErrProviderError), http.StatusBadGateway, CodeProviderError},
		{fmt.Errorf("search: %w", domain.ErrDimensionMismatch), http.StatusConflict, CodeDimensionMismatch},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			f := newFixture(t)
			f.search.err = tt.err
			rec := f.do(http.MethodGet, "/api/projects/p1/search?q=laptops", nil, "")
			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[ErrorEnvelope](t, rec).Error.Code)
		})
	}
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestUploadDocument(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t, "file", "notes.txt", "hello world")
	rec := f.do(http.MethodPost, "/api/projects/p1/documents", body, contentType)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	doc := decode[map[string]any](t, rec)
	assert.Equal(t, "d-new", doc["id"])
	assert.Equal(t, "processing", doc["status"])
	assert.Equal(t, "extracting", doc["stage"])
	assert.Equal(t, "notes.txt", f.documents.uploadedName)
	assert.Equal(t, "hello world", string(f.documents.uploadedContent))
}

func TestUploadDocument_Errors(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t, "attachment", "notes.txt", "x")
	rec := f.do(http.MethodPost, "/api/projects/p1/documents", body, contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, contentType = multipartBody(t, "file", "virus.exe", "x")
	rec = f.do(http.MethodPost, "/api/projects/p1/documents", body, contentType)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, CodeUnsupportedFormat, decode[ErrorEnvelope](t, rec).Error.Code)
}

func TestDocuments(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/projects/p1/documents", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	docs := decode[[]map[string]any](t, rec)
	require.Len(t, docs, 2)
	assert.NotContains(t, docs[0], "stage")
	assert.Equal(t, "extracting", docs[1]["stage"])

	rec = f.do(http.MethodGet, "/api/documents/d1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[map[string]any](t, rec)
	assert.Equal(t, "text", doc["source_type"])
	assert.Equal(t, "Notes.", doc["summary"])

	rec = f.do(http.MethodGet, "/api/documents/d1/content", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "plain text", rec.Body.String())

	rec = f.do(http.MethodPost, "/api/documents/d1/reprocess", nil, "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "d1", f.documents.reprocessed)

	rec = f.do(http.MethodDelete, "/api/documents/d1", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "d1", f.documents.deleted)
}

func TestKeyPoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/projects/p1/keypoints?type=date,task&type=person&q=March&document=d1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	kps := decode[[]map[string]any](t, rec)
	require.Len(t, kps, 1)
	assert.Equal(t, "date", kps[0]["type"])
	assert.Equal(t, []domain.KeyPointType{domain.KeyPointDate, domain.KeyPointTask, domain.KeyPointPerson}, f.keyPoints.filter.Types)
	assert.Equal(t, "March", f.keyPoints.filter.Query)
	assert.Equal(t, "d1", f.keyPoints.filter.DocumentID)

	rec = f.do(http.MethodGet, "/api/projects/p1/keypoints/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[statsView](t, rec)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByType["date"])
	assert.Equal(t, 0, stats.ByType["location"])
}

func TestChat(t *testing.T) {
	f := newFixture(t)

	rec := f.json(http.MethodPost, "/api/projects/p1/chat", `{"message":"Which laptops?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	msg := decode[messageView](t, rec)
	assert.Equal(t, "assistant", msg.Role)
	require.Len(t, msg.Sources, 1)
	assert.Equal(t, "notes.txt", msg.Sources[0].DocumentName)
	assert.Equal(t, "Which laptops?", f.chat.asked)

	rec = f.do(http.MethodGet, "/api/projects/p1/chat?limit=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	history := decode[[]messageView](t, rec)
	require.Len(t, history, 1)
	assert.Equal(t, "m2", history[0].ID)

	rec = f.do(http.MethodGet, "/api/projects/p1/chat/welcome", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello", decode[messageView](t, rec).Content)

	rec = f.do(http.MethodDelete, "/api/projects/p1/chat", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, f.chat.cleared)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/projects/p1/search?q=laptops", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultSearchK, f.search.k)
	results := decode[[]searchResultView](t, rec)
	require.Len(t, results, 1)
	assert.Equal(t, "notes.txt", results[0].DocumentName)

	f.do(http.MethodGet, "/api/projects/p1/search?q=laptops&k=2", nil, "")
	assert.Equal(t, 2, f.search.k)
}
