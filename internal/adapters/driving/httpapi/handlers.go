package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

// MaxUploadBytes bounds one uploaded file.
const MaxUploadBytes = 100 << 20

const defaultSearchK = 5

type handler struct {
	ports Ports
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

type updateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Status      *string `json:"status"`
}

type askRequest struct {
	Message string `json:"message"`
}

// GET /api/projects
func (h *handler) listProjects(c *gin.Context) {
	projects, err := h.ports.Projects.List(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	out := make([]projectView, len(projects))
	for i := range projects {
		out[i] = newSummaryView(&projects[i])
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/projects
func (h *handler) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body: "+err.Error())
		return
	}
	project, err := h.ports.Projects.Create(c.Request.Context(), req.Name, req.Description, req.Color)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newProjectView(project))
}

// GET /api/projects/:id
func (h *handler) getProject(c *gin.Context) {
	project, err := h.ports.Projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSummaryView(project))
}

// PATCH /api/projects/:id
func (h *handler) updateProject(c *gin.Context) {
	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body: "+err.Error())
		return
	}
	update := driving.ProjectUpdate{Name: req.Name, Description: req.Description, Color: req.Color}
	if req.Status != nil {
		status := domain.ProjectStatus(*req.Status)
		update.Status = &status
	}
	project, err := h.ports.Projects.Update(c.Request.Context(), c.Param("id"), update)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProjectView(project))
}

// POST /api/projects/:id/archive
func (h *handler) archiveProject(c *gin.Context) {
	if err := h.ports.Projects.Archive(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /api/projects/:id
// Cascades to documents, key points, chunks and the conversation.
func (h *handler) deleteProject(c *gin.Context) {
	if err := h.ports.Projects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/projects/:id/documents
func (h *handler) listDocuments(c *gin.Context) {
	docs, err := h.ports.Documents.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	out := make([]documentView, len(docs))
	for i := range docs {
		state, running := h.ports.Documents.State(docs[i].ID)
		out[i] = newDocumentView(&docs[i], state, running)
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/projects/:id/documents
// Multipart upload with the file in the "file" field. Processing runs in
// the background; the response carries the processing document.
func (h *handler) uploadDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond(c, http.StatusRequestEntityTooLarge, CodeTooLarge,
				fmt.Errorf("file exceeds %d bytes", MaxUploadBytes))
			return
		}
		badRequest(c, "multipart field \"file\" is required")
		return
	}
	f, err := header.Open()
	if err != nil {
		RespondError(c, err)
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		RespondError(c, err)
		return
	}

	doc, err := h.ports.Documents.Upload(c.Request.Context(), c.Param("id"), header.Filename, content)
	if err != nil {
		RespondError(c, err)
		return
	}
	state, running := h.ports.Documents.State(doc.ID)
	c.JSON(http.StatusAccepted, newDocumentView(doc, state, running))
}

// GET /api/documents/:id
func (h *handler) getDocument(c *gin.Context) {
	doc, err := h.ports.Documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	state, running := h.ports.Documents.State(doc.ID)
	c.JSON(http.StatusOK, newDocumentView(doc, state, running))
}

// GET /api/documents/:id/content
func (h *handler) documentContent(c *gin.Context) {
	text, err := h.ports.Documents.Content(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

// DELETE /api/documents/:id
func (h *handler) deleteDocument(c *gin.Context) {
	if err := h.ports.Documents.Delete(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/documents/:id/reprocess
func (h *handler) reprocessDocument(c *gin.Context) {
	if err := h.ports.Documents.Reprocess(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// GET /api/projects/:id/keypoints?type=&q=&document=
// type may be repeated or comma separated.
func (h *handler) listKeyPoints(c *gin.Context) {
	filter := domain.KeyPointFilter{
		Query:      c.Query("q"),
		DocumentID: c.Query("document"),
	}
	for _, raw := range c.QueryArray("type") {
		for _, t := range strings.Split(raw, ",") {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			kind := domain.KeyPointType(t)
			if !kind.IsValid() {
				badRequest(c, fmt.Sprintf("unknown key point type %q", t))
				return
			}
			filter.Types = append(filter.Types, kind)
		}
	}

	kps, err := h.ports.KeyPoints.List(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newKeyPointViews(kps))
}

// GET /api/projects/:id/keypoints/stats
func (h *handler) keyPointStats(c *gin.Context) {
	stats, err := h.ports.KeyPoints.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStatsView(stats))
}

// GET /api/projects/:id/chat?limit=
func (h *handler) chatHistory(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	msgs, err := h.ports.Chat.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	out := make([]messageView, len(msgs))
	for i := range msgs {
		out[i] = newMessageView(&msgs[i])
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/projects/:id/chat
func (h *handler) ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body: "+err.Error())
		return
	}
	msg, err := h.ports.Chat.Ask(c.Request.Context(), c.Param("id"), req.Message)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMessageView(msg))
}

// DELETE /api/projects/:id/chat
func (h *handler) clearChat(c *gin.Context) {
	if err := h.ports.Chat.Clear(c.Request.Context(), c.Param("id")); err != nil {
		RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/projects/:id/chat/welcome
func (h *handler) welcome(c *gin.Context) {
	msg, err := h.ports.Chat.Welcome(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMessageView(msg))
}

// GET /api/projects/:id/search?q=&k=
func (h *handler) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		badRequest(c, "query parameter q is required")
		return
	}
	k, ok := intQuery(c, "k", defaultSearchK)
	if !ok {
		return
	}
	results, err := h.ports.Search.Search(c.Request.Context(), c.Param("id"), query, k)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSearchResultViews(results))
}

// intQuery parses a non-negative integer query parameter. It writes the
// error response and returns false when the value is malformed.
func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, fmt.Sprintf("%s must be a non-negative integer", key))
		return 0, false
	}
	return n, true
}
