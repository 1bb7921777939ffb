package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/logger"
	"github.com/custodia-labs/docsight/internal/sentences"
)

// Ensure Extractor implements the interface.
var _ driven.PromptStoreAware = (*Extractor)(nil)

// MaxSummaryLength bounds document summaries, in characters.
const MaxSummaryLength = 500

// llmWindow is the largest text span sent in one key point request.
const llmWindow = 6000

// ExtractorConfig selects the extraction strategies.
type ExtractorConfig struct {
	// UseNER enables the named entity recogniser.
	UseNER bool

	// UseLLM asks the generation backend for key points as well.
	UseLLM bool

	// Timeout bounds one Extract call. Zero means no limit.
	Timeout time.Duration
}

// DefaultExtractorConfig returns rules plus NER, without LLM extraction.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{UseNER: true, Timeout: 2 * time.Minute}
}

// Extractor finds typed key points in normalised text and summarises it.
//
// Every section runs the rules strategy, then the entity recogniser when
// enabled. The generation backend, when enabled, sees the whole text in
// windows. All findings then collapse on (type, folded content), keeping
// the highest confidence and the position of the first occurrence.
type Extractor struct {
	ner         driven.EntityRecogniser
	llm         driven.LLMService
	promptStore driven.PromptStore
	config      ExtractorConfig
}

// NewExtractor creates an extractor. ner and llm may be nil; a nil llm
// gives the frequency based summary.
func NewExtractor(ner driven.EntityRecogniser, llm driven.LLMService, config ExtractorConfig) *Extractor {
	return &Extractor{ner: ner, llm: llm, config: config}
}

// SetPromptStore sets the prompt store for the summarise and key point prompts.
func (e *Extractor) SetPromptStore(store driven.PromptStore) {
	e.promptStore = store
}

// collector deduplicates key points while keeping first-seen order.
type collector struct {
	source string
	order  []string
	byKey  map[string]*domain.KeyPoint
}

func newCollector(source string) *collector {
	return &collector{source: source, byKey: make(map[string]*domain.KeyPoint)}
}

func (c *collector) add(kind domain.KeyPointType, content string, confidence float64) {
	content = strings.TrimSpace(content)
	if content == "" || !kind.IsValid() {
		return
	}
	kp := domain.KeyPoint{Type: kind, Content: content, Confidence: domain.ClampConfidence(confidence)}
	key := kp.DedupKey()
	if existing, ok := c.byKey[key]; ok {
		// Ties keep the earlier instance.
		if kp.Confidence > existing.Confidence {
			existing.Content = kp.Content
			existing.Confidence = kp.Confidence
		}
		return
	}
	c.order = append(c.order, key)
	c.byKey[key] = &kp
}

func (c *collector) result() []domain.KeyPoint {
	out := make([]domain.KeyPoint, 0, len(c.order))
	now := time.Now()
	for _, key := range c.order {
		kp := *c.byKey[key]
		kp.ID = uuid.New().String()
		kp.Source = c.source
		kp.CreatedAt = now
		out = append(out, kp)
	}
	return out
}

// Extract returns the deduplicated key points of text and its summary.
// Any strategy failure fails the whole call with ErrExtractionUnavailable.
func (e *Extractor) Extract(ctx context.Context, text, sourceName string) (kps []domain.KeyPoint, summary string, err error) {
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			kps, summary = nil, ""
			err = fmt.Errorf("%w: panic: %v", domain.ErrExtractionUnavailable, r)
		}
	}()

	c := newCollector(sourceName)
	for _, para := range sentences.Paragraphs(text) {
		if err := ctx.Err(); err != nil {
			return nil, "", unavailable(err)
		}
		for _, sentence := range sentences.Split(para) {
			applyRules(sentence, c.add)
		}
		if e.config.UseNER && e.ner != nil {
			entities, err := e.ner.Entities(ctx, para)
			if err != nil {
				return nil, "", unavailable(err)
			}
			for _, ent := range entities {
				if kind, ok := entityType(ent.Label); ok {
					c.add(kind, ent.Text, confidenceEntity)
				}
			}
		}
	}

	if e.config.UseLLM && e.llm != nil {
		if err := e.extractWithLLM(ctx, text, c); err != nil {
			return nil, "", unavailable(err)
		}
	}

	summary, err = e.summarise(ctx, text)
	if err != nil {
		return nil, "", unavailable(err)
	}

	kps = c.result()
	logger.Debug("extracted %d key points from %s", len(kps), sourceName)
	return kps, summary, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", domain.ErrExtractionUnavailable, err)
}

func entityType(label string) (domain.KeyPointType, bool) {
	switch strings.ToUpper(label) {
	case "PERSON":
		return domain.KeyPointPerson, true
	case "GPE", "LOCATION", "LOC":
		return domain.KeyPointLocation, true
	default:
		return "", false
	}
}

type llmKeyPoint struct {
	Type       string   `json:"type"`
	Content    string   `json:"content"`
	Confidence *float64 `json:"confidence"`
}

func (e *Extractor) extractWithLLM(ctx context.Context, text string, c *collector) error {
	template := driven.LoadPrompt(e.promptStore, driven.PromptExtractKeyPoints)
	for _, window := range windows(text, llmWindow) {
		out, err := e.llm.Generate(ctx, fmt.Sprintf(template, window), driven.GenerateOptions{
			MaxTokens:   1024,
			Temperature: 0,
			JSON:        true,
		})
		if err != nil {
			return err
		}
		points, err := parseLLMKeyPoints(out)
		if err != nil {
			return err
		}
		for _, p := range points {
			confidence := confidenceLLMDefault
			if p.Confidence != nil {
				confidence = *p.Confidence
			}
			c.add(domain.KeyPointType(strings.ToLower(strings.TrimSpace(p.Type))), p.Content, confidence)
		}
	}
	return nil
}

// parseLLMKeyPoints reads the first JSON array in out. Providers in JSON
// mode may wrap the array in an object, so {"key_points": [...]} is
// accepted as well.
func parseLLMKeyPoints(out string) ([]llmKeyPoint, error) {
	start := strings.Index(out, "[")
	end := strings.LastIndex(out, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("key point response is not a JSON array: %q", sentences.Truncate(out, 80))
	}
	var points []llmKeyPoint
	if err := json.Unmarshal([]byte(out[start:end+1]), &points); err != nil {
		return nil, fmt.Errorf("decode key point response: %w", err)
	}
	return points, nil
}

// windows groups paragraphs into spans of at most size characters.
// A single paragraph longer than size becomes its own span.
func windows(text string, size int) []string {
	var out []string
	var cur strings.Builder
	for _, para := range sentences.Paragraphs(text) {
		if cur.Len() > 0 && cur.Len()+len(para)+2 > size {
			out = append(out, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(para)
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func (e *Extractor) summarise(ctx context.Context, text string) (string, error) {
	if e.llm == nil {
		return sentences.Summary(text, MaxSummaryLength), nil
	}
	summary, err := e.llm.Summarise(ctx, text, MaxSummaryLength)
	if err != nil {
		return "", err
	}
	return sentences.Truncate(summary, MaxSummaryLength), nil
}
