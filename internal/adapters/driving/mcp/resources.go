package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

const (
	scheme       = "docsight://"
	mimeJSON     = "application/json"
	mimePlain    = "text/plain"
	projectsPath = "projects/"
)

// registerResources exposes read-only views of the same data the list
// tools return.
func (s *Server) registerResources() {
	s.inner.AddResource(&mcp.Resource{
		URI: scheme + "projects", Name: "projects",
		Description: "Every project with document and key point counts", MIMEType: mimeJSON,
	}, s.readProjects)

	if s.ports.Documents != nil {
		s.inner.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: scheme + projectsPath + "{project}/documents", Name: "project-documents",
			Description: "Documents uploaded to a project", MIMEType: mimeJSON,
		}, s.readDocuments)
		s.inner.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: scheme + "documents/{document}", Name: "document-content",
			Description: "Normalised text of a document", MIMEType: mimePlain,
		}, s.readDocumentContent)
	}

	if s.ports.KeyPoints != nil {
		s.inner.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: scheme + projectsPath + "{project}/keypoints", Name: "project-keypoints",
			Description: "Key points extracted from a project's documents", MIMEType: mimeJSON,
		}, s.readKeyPoints)
	}
}

func (s *Server) readProjects(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	if s.ports.Projects == nil {
		return contents(req.Params.URI, mimeJSON, "[]"), nil
	}
	_, out, err := s.handleListProjects(ctx, nil, ProjectsInput{})
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return jsonContents(req.Params.URI, out.Projects)
}

func (s *Server) readDocuments(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	project, ok := projectSegment(req.Params.URI, "documents")
	if !ok || s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	_, out, err := s.handleListDocuments(ctx, nil, DocumentsInput{Project: project})
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return jsonContents(req.Params.URI, out.Documents)
}

func (s *Server) readKeyPoints(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	project, ok := projectSegment(req.Params.URI, "keypoints")
	if !ok || s.ports.KeyPoints == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	_, out, err := s.handleListKeyPoints(ctx, nil, KeyPointsInput{Project: project})
	if err != nil {
		return nil, fmt.Errorf("listing key points: %w", err)
	}
	return jsonContents(req.Params.URI, out.KeyPoints)
}

func (s *Server) readDocumentContent(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	id, ok := strings.CutPrefix(req.Params.URI, scheme+"documents/")
	if !ok || id == "" || strings.Contains(id, "/") || s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	text, err := s.ports.Documents.Content(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", mcp.ResourceNotFoundError(req.Params.URI), err)
		}
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return contents(req.Params.URI, mimePlain, text), nil
}

// projectSegment returns {project} from docsight://projects/{project}/{leaf}.
func projectSegment(uri, leaf string) (string, bool) {
	rest, ok := strings.CutPrefix(uri, scheme+projectsPath)
	if !ok {
		return "", false
	}
	project, ok := strings.CutSuffix(rest, "/"+leaf)
	if !ok || project == "" || strings.Contains(project, "/") {
		return "", false
	}
	return project, true
}

func jsonContents(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", uri, err)
	}
	return contents(uri, mimeJSON, string(data)), nil
}

func contents(uri, mime, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mime, Text: text}},
	}
}
