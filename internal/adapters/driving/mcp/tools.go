package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docsight/internal/core/domain"
)

const defaultSearchLimit = 5

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Project  string `json:"project" jsonschema:"the project ID or name"`
	Question string `json:"question" jsonschema:"the question to answer from the project's documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string           `json:"answer"`
	Sources []CitationOutput `json:"sources,omitempty"`
}

// CitationOutput points an answer back to a document chunk.
type CitationOutput struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	Excerpt      string  `json:"excerpt"`
	Confidence   float64 `json:"confidence"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Project string `json:"project" jsonschema:"the project ID or name"`
	Query   string `json:"query" jsonschema:"the text to find similar passages for"`
	Limit   int    `json:"limit,omitempty" jsonschema:"maximum number of passages to return (default 5)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single retrieved passage.
type SearchResultOutput struct {
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	Score        float64 `json:"score"`
	Content      string  `json:"content"`
}

// KeyPointsInput is the input schema for the list_keypoints tool.
type KeyPointsInput struct {
	Project  string   `json:"project" jsonschema:"the project ID or name"`
	Types    []string `json:"types,omitempty" jsonschema:"restrict to these types: date, person, location, task, decision, document"`
	Query    string   `json:"query,omitempty" jsonschema:"case-insensitive text the content or source must contain"`
	Document string   `json:"document,omitempty" jsonschema:"restrict to one document ID"`
}

// KeyPointsOutput is the output schema for the list_keypoints tool.
type KeyPointsOutput struct {
	KeyPoints []KeyPointOutput `json:"key_points"`
	Count     int              `json:"count"`
}

// KeyPointOutput is one extracted key point.
type KeyPointOutput struct {
	Type       string  `json:"type"`
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	DocumentID string  `json:"document_id"`
	Confidence float64 `json:"confidence"`
}

// DocumentsInput is the input schema for the list_documents tool.
type DocumentsInput struct {
	Project string `json:"project" jsonschema:"the project ID or name"`
}

// DocumentsOutput is the output schema for the list_documents tool.
type DocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput describes one document.
type DocumentOutput struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Size    int64  `json:"size"`
	Status  string `json:"status"`
	Summary string `json:"summary,omitempty"`
}

// ProjectsInput is the input schema for the list_projects tool.
type ProjectsInput struct{}

// ProjectsOutput is the output schema for the list_projects tool.
type ProjectsOutput struct {
	Projects []ProjectOutput `json:"projects"`
}

// ProjectOutput describes one project.
type ProjectOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Documents int    `json:"documents"`
	KeyPoints int    `json:"key_points"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.inner, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from a project's documents, with citations",
	}, s.handleAsk)

	mcp.AddTool(s.inner, &mcp.Tool{
		Name:        "search",
		Description: "Find the passages of a project's documents most similar to a query",
	}, s.handleSearch)

	if s.ports.KeyPoints != nil {
		mcp.AddTool(s.inner, &mcp.Tool{
			Name:        "list_keypoints",
			Description: "List dates, people, locations, tasks, decisions and documents extracted from a project",
		}, s.handleListKeyPoints)
	}

	if s.ports.Documents != nil {
		mcp.AddTool(s.inner, &mcp.Tool{
			Name:        "list_documents",
			Description: "List the documents of a project with their processing status",
		}, s.handleListDocuments)
	}

	if s.ports.Projects != nil {
		mcp.AddTool(s.inner, &mcp.Tool{
			Name:        "list_projects",
			Description: "List projects with document and key point counts",
		}, s.handleListProjects)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	projectID, err := s.resolveProject(ctx, input.Project)
	if err != nil {
		return nil, AskOutput{}, err
	}

	msg, err := s.ports.Chat.Ask(ctx, projectID, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{Answer: msg.Content}
	for _, src := range msg.Sources {
		output.Sources = append(output.Sources, CitationOutput{
			DocumentID:   src.DocumentID,
			DocumentName: src.DocumentName,
			Excerpt:      src.Excerpt,
			Confidence:   src.Confidence,
		})
	}
	return nil, output, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	projectID, err := s.resolveProject(ctx, input.Project)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	results, err := s.ports.Search.Search(ctx, projectID, input.Query, limit)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			DocumentID:   results[i].Hit.DocumentID,
			DocumentName: results[i].DocumentName,
			Score:        results[i].Hit.Score,
			Content:      results[i].Hit.Content,
		}
	}
	return nil, output, nil
}

// handleListKeyPoints handles the list_keypoints tool invocation.
func (s *Server) handleListKeyPoints(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input KeyPointsInput,
) (*mcp.CallToolResult, KeyPointsOutput, error) {
	projectID, err := s.resolveProject(ctx, input.Project)
	if err != nil {
		return nil, KeyPointsOutput{}, err
	}

	filter := domain.KeyPointFilter{Query: input.Query, DocumentID: input.Document}
	for _, t := range input.Types {
		kind := domain.KeyPointType(strings.ToLower(strings.TrimSpace(t)))
		if !kind.IsValid() {
			return nil, KeyPointsOutput{}, fmt.Errorf("%w: unknown key point type %q", domain.ErrInvalidInput, t)
		}
		filter.Types = append(filter.Types, kind)
	}

	kps, err := s.ports.KeyPoints.List(ctx, projectID, filter)
	if err != nil {
		return nil, KeyPointsOutput{}, err
	}

	output := KeyPointsOutput{KeyPoints: make([]KeyPointOutput, len(kps)), Count: len(kps)}
	for i, kp := range kps {
		output.KeyPoints[i] = KeyPointOutput{
			Type:       string(kp.Type),
			Content:    kp.Content,
			Source:     kp.Source,
			DocumentID: kp.DocumentID,
			Confidence: kp.Confidence,
		}
	}
	return nil, output, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DocumentsInput,
) (*mcp.CallToolResult, DocumentsOutput, error) {
	projectID, err := s.resolveProject(ctx, input.Project)
	if err != nil {
		return nil, DocumentsOutput{}, err
	}

	docs, err := s.ports.Documents.List(ctx, projectID)
	if err != nil {
		return nil, DocumentsOutput{}, err
	}

	output := DocumentsOutput{Documents: make([]DocumentOutput, len(docs)), Count: len(docs)}
	for i := range docs {
		output.Documents[i] = DocumentOutput{
			ID:      docs[i].ID,
			Name:    docs[i].Name,
			Type:    string(docs[i].SourceType),
			Size:    docs[i].Size,
			Status:  string(docs[i].Status),
			Summary: docs[i].Summary,
		}
	}
	return nil, output, nil
}

// handleListProjects handles the list_projects tool invocation.
func (s *Server) handleListProjects(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ProjectsInput,
) (*mcp.CallToolResult, ProjectsOutput, error) {
	projects, err := s.ports.Projects.List(ctx)
	if err != nil {
		return nil, ProjectsOutput{}, err
	}

	output := ProjectsOutput{Projects: make([]ProjectOutput, len(projects))}
	for i := range projects {
		output.Projects[i] = ProjectOutput{
			ID:        projects[i].ID,
			Name:      projects[i].Name,
			Status:    string(projects[i].Status),
			Documents: projects[i].DocumentsCount,
			KeyPoints: projects[i].KeyPointsCount,
		}
	}
	return nil, output, nil
}

// resolveProject accepts a project ID or a case-insensitive project name.
// Without a project service the reference is taken as an ID.
func (s *Server) resolveProject(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: project is required", domain.ErrInvalidInput)
	}
	if s.ports.Projects == nil {
		return ref, nil
	}

	projects, err := s.ports.Projects.List(ctx)
	if err != nil {
		return "", err
	}
	for i := range projects {
		if projects[i].ID == ref {
			return ref, nil
		}
	}
	for i := range projects {
		if strings.EqualFold(projects[i].Name, ref) {
			return projects[i].ID, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownProject, ref)
}
