package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/logger"
	"github.com/custodia-labs/docsight/internal/retry"
	"github.com/custodia-labs/docsight/internal/sentences"
)

// Ensure Responder implements the interface.
var _ driven.PromptStoreAware = (*Responder)(nil)

// HedgedAnswer is returned when a project has nothing indexed to ground an answer.
const HedgedAnswer = "I do not have enough grounded information in this project's documents to answer that. " +
	"Try uploading a document that covers the question."

const (
	excerptLength = 200

	// noContextInstruction replaces the context blocks when retrieval found nothing.
	noContextInstruction = "No context blocks matched this question. " +
		"Say that you do not have enough grounded information to answer it."
)

// ResponderConfig tunes retrieval and prompt assembly.
type ResponderConfig struct {
	// TopK is the number of chunks retrieved per question.
	TopK int

	// HistoryTurns is the number of previous messages sent with the question.
	HistoryTurns int

	// MaxContextTokens bounds the context blocks placed in the prompt.
	MaxContextTokens int

	// ProviderTimeout bounds one embedding or generation call. Zero means no limit.
	ProviderTimeout time.Duration
}

// DefaultResponderConfig returns the default chat settings.
func DefaultResponderConfig() ResponderConfig {
	return ResponderConfig{TopK: 5, HistoryTurns: 6, MaxContextTokens: 3000, ProviderTimeout: 60 * time.Second}
}

// Responder answers questions grounded in a project's indexed chunks.
type Responder struct {
	embedder    driven.EmbeddingService
	index       driven.VectorIndex
	llm         driven.LLMService
	documents   driven.DocumentStore
	counter     driven.TokenCounter
	metrics     driven.Metrics
	promptStore driven.PromptStore
	config      ResponderConfig
}

// NewResponder creates a responder. counter may be nil, in which case
// tokens are estimated from the character count.
func NewResponder(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	llm driven.LLMService,
	documents driven.DocumentStore,
	counter driven.TokenCounter,
	metrics driven.Metrics,
	config ResponderConfig,
) *Responder {
	def := DefaultResponderConfig()
	if config.TopK <= 0 {
		config.TopK = def.TopK
	}
	if config.HistoryTurns < 0 {
		config.HistoryTurns = def.HistoryTurns
	}
	if config.MaxContextTokens <= 0 {
		config.MaxContextTokens = def.MaxContextTokens
	}
	return &Responder{
		embedder:  embedder,
		index:     index,
		llm:       llm,
		documents: documents,
		counter:   counter,
		metrics:   metricsOrNop(metrics),
		config:    config,
	}
}

// SetPromptStore sets the prompt store for the chat system prompt.
func (r *Responder) SetPromptStore(store driven.PromptStore) {
	r.promptStore = store
}

// HistoryTurns returns the number of previous messages the responder uses.
func (r *Responder) HistoryTurns() int {
	return r.config.HistoryTurns
}

// turn tracks the state of one question.
type turn struct {
	projectID string
	state     domain.TurnState
	start     time.Time
	metrics   driven.Metrics
}

func (t *turn) to(state domain.TurnState) {
	logger.Debug("chat %s: %s -> %s", t.projectID, t.state, state)
	t.state = state
	t.metrics.ChatTurn(state, time.Since(t.start))
}

// contextBlock is one retrieved chunk placed in the prompt.
type contextBlock struct {
	hit  domain.SearchHit
	name string
	text string
}

// Answer runs one chat turn. history holds earlier messages, oldest first,
// without the question itself. It fails only with
// domain.ErrGenerationUnavailable.
func (r *Responder) Answer(ctx context.Context, projectID, question string, history []domain.ChatMessage) (*domain.Answer, error) {
	t := &turn{projectID: projectID, state: domain.TurnReceived, start: time.Now(), metrics: r.metrics}
	t.metrics.ChatTurn(domain.TurnReceived, 0)

	fail := func(err error) (*domain.Answer, error) {
		if errors.Is(err, domain.ErrDimensionMismatch) {
			logger.Error("chat %s: %v (check embedding.provider and index.dimensions)", projectID, err)
		} else {
			logger.Warn("chat %s failed while %s: %v", projectID, t.state, err)
		}
		t.to(domain.TurnFailed)
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}

	blocks, err := r.retrieve(ctx, t, projectID, question)
	if errors.Is(err, domain.ErrNoIndexedContent) {
		t.to(domain.TurnAnswered)
		return &domain.Answer{Text: HedgedAnswer, State: domain.TurnAnswered}, nil
	}
	if err != nil {
		return fail(err)
	}

	t.to(domain.TurnGenerating)
	messages := r.buildMessages(question, history, blocks)
	text, err := retry.DoWithResult(ctx, retry.DefaultConfig("chat generation"), func(ctx context.Context) (string, error) {
		callCtx, cancel := r.providerContext(ctx)
		defer cancel()
		start := time.Now()
		out, err := r.llm.Chat(callCtx, messages, driven.ChatOptions{MaxTokens: 1024, Temperature: 0.2})
		r.metrics.ProviderCall(r.llm.ModelName(), "chat", err, time.Since(start))
		return out, err
	})
	if err != nil {
		return fail(err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fail(fmt.Errorf("%w: empty answer", domain.ErrProviderError))
	}

	t.to(domain.TurnAnswered)
	return &domain.Answer{
		Text:     text,
		Sources:  citations(blocks),
		State:    domain.TurnAnswered,
		Grounded: len(blocks) > 0,
	}, nil
}

// retrieve embeds the question and returns the context blocks that fit the
// token budget. It returns domain.ErrNoIndexedContent when the project has
// no chunks at all.
func (r *Responder) retrieve(ctx context.Context, t *turn, projectID, question string) ([]contextBlock, error) {
	count, err := r.index.Count(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, domain.ErrNoIndexedContent
	}

	t.to(domain.TurnEmbedding)
	vector, err := retry.DoWithResult(ctx, retry.DefaultConfig("question embedding"), func(ctx context.Context) ([]float32, error) {
		callCtx, cancel := r.providerContext(ctx)
		defer cancel()
		start := time.Now()
		v, err := r.embedder.Embed(callCtx, question)
		r.metrics.ProviderCall(r.embedder.ModelName(), "embed", err, time.Since(start))
		return v, err
	})
	if err != nil {
		return nil, err
	}

	t.to(domain.TurnRetrieving)
	hits, err := r.index.Search(ctx, projectID, vector, r.config.TopK)
	if err != nil {
		return nil, err
	}
	r.metrics.RetrievalHits(len(hits))

	return r.fitBlocks(ctx, hits), nil
}

// fitBlocks numbers hits in retrieval order and keeps those that fit in
// MaxContextTokens. It stops at the first block that does not fit.
func (r *Responder) fitBlocks(ctx context.Context, hits []domain.SearchHit) []contextBlock {
	names := make(map[string]string)
	var blocks []contextBlock
	used := 0
	for _, hit := range hits {
		name, ok := names[hit.DocumentID]
		if !ok {
			name = hit.DocumentID
			if doc, err := r.documents.GetDocument(ctx, hit.DocumentID); err == nil {
				name = doc.Name
			}
			names[hit.DocumentID] = name
		}

		text := fmt.Sprintf("[%d] (%s) %s", len(blocks)+1, name, hit.Content)
		n := r.countTokens(text)
		if used+n > r.config.MaxContextTokens {
			logger.Debug("context budget reached after %d of %d blocks", len(blocks), len(hits))
			break
		}
		used += n
		blocks = append(blocks, contextBlock{hit: hit, name: name, text: text})
	}
	return blocks
}

func (r *Responder) countTokens(text string) int {
	if r.counter != nil {
		return r.counter.Count(text)
	}
	return (utf8.RuneCountInString(text) + 3) / 4
}

func (r *Responder) buildMessages(question string, history []domain.ChatMessage, blocks []contextBlock) []driven.ChatMessage {
	messages := []driven.ChatMessage{{
		Role:    string(domain.RoleSystem),
		Content: driven.LoadPrompt(r.promptStore, driven.PromptChatSystem),
	}}

	if n := r.config.HistoryTurns; len(history) > n {
		history = history[len(history)-n:]
	}
	for _, msg := range history {
		if msg.Role != domain.RoleUser && msg.Role != domain.RoleAssistant {
			continue
		}
		messages = append(messages, driven.ChatMessage{Role: string(msg.Role), Content: msg.Content})
	}

	var b strings.Builder
	if len(blocks) == 0 {
		b.WriteString(noContextInstruction)
	} else {
		b.WriteString("Context:\n\n")
		for i, block := range blocks {
			if i > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(block.text)
		}
	}
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)

	return append(messages, driven.ChatMessage{Role: string(domain.RoleUser), Content: b.String()})
}

func citations(blocks []contextBlock) []domain.SourceCitation {
	if len(blocks) == 0 {
		return nil
	}
	out := make([]domain.SourceCitation, len(blocks))
	for i, block := range blocks {
		out[i] = domain.SourceCitation{
			DocumentID:   block.hit.DocumentID,
			DocumentName: block.name,
			ChunkID:      block.hit.ChunkID,
			Excerpt:      sentences.Truncate(block.hit.Content, excerptLength),
			Confidence:   block.hit.Score,
		}
	}
	return out
}

func (r *Responder) providerContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.config.ProviderTimeout > 0 {
		return context.WithTimeout(ctx, r.config.ProviderTimeout)
	}
	return context.WithCancel(ctx)
}
