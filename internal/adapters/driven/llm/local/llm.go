// Package local provides an offline LLM service. It answers by quoting the
// context sentences that share the most words with the question, so chat
// works without a model provider.
package local

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/sentences"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// ModelName identifies answers produced by this service.
const ModelName = "local-extractive"

// NoAnswer is returned when no context sentence overlaps the question.
const NoAnswer = "I do not have enough grounded information in the provided documents to answer that."

const (
	maxAnswerSentences = 3
	defaultSummaryLen  = 500
)

var blockStart = regexp.MustCompile(`(?m)^\[(\d+)\] \(([^)]*)\) `)

// LLMService is the offline extractive responder.
type LLMService struct{}

// NewLLMService creates the offline responder.
func NewLLMService() *LLMService {
	return &LLMService{}
}

// Generate summarises the prompt. JSON requests get an empty array, since
// nothing can be extracted without a model.
func (s *LLMService) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if opts.JSON {
		return "[]", nil
	}
	maxLen := defaultSummaryLen
	if opts.MaxTokens > 0 {
		maxLen = opts.MaxTokens * 4
	}
	return sentences.Summary(prompt, maxLen), nil
}

// Chat answers the last user message from its numbered context blocks.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var last string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			last = messages[i].Content
			break
		}
	}
	return answer(last), nil
}

// Summarise picks the most representative sentences of content.
func (s *LLMService) Summarise(ctx context.Context, content string, maxLength int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return sentences.Summary(content, maxLength), nil
}

// ModelName returns ModelName.
func (s *LLMService) ModelName() string { return ModelName }

// Ping always succeeds.
func (s *LLMService) Ping(context.Context) error { return nil }

// Close releases nothing.
func (s *LLMService) Close() error { return nil }

type block struct {
	number string
	text   string
}

type candidate struct {
	sentence string
	number   string
	score    float64
	order    int
}

func answer(message string) string {
	question := message
	if i := strings.LastIndex(message, "\n\nQuestion: "); i >= 0 {
		question = message[i+len("\n\nQuestion: "):]
		message = message[:i]
	}
	blocks := parseBlocks(message)
	if len(blocks) == 0 {
		return NoAnswer
	}

	terms := map[string]bool{}
	for _, tok := range sentences.Tokens(question) {
		if !sentences.IsStopword(tok) {
			terms[tok] = true
		}
	}
	if len(terms) == 0 {
		return NoAnswer
	}

	var cands []candidate
	for _, b := range blocks {
		for _, sentence := range sentences.Split(b.text) {
			toks := sentences.Tokens(sentence)
			seen := map[string]bool{}
			for _, tok := range toks {
				if terms[tok] {
					seen[tok] = true
				}
			}
			if len(seen) == 0 {
				continue
			}
			cands = append(cands, candidate{
				sentence: strings.TrimSpace(sentence),
				number:   b.number,
				score:    float64(len(seen)) / math.Sqrt(float64(len(toks))),
				order:    len(cands),
			})
		}
	}
	if len(cands) == 0 {
		return NoAnswer
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	if len(cands) > maxAnswerSentences {
		cands = cands[:maxAnswerSentences]
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].order < cands[j].order })

	parts := make([]string, len(cands))
	for i, c := range cands {
		parts[i] = c.sentence + " [" + c.number + "]"
	}
	return strings.Join(parts, " ")
}

// parseBlocks splits the "Context:" section into numbered blocks.
func parseBlocks(message string) []block {
	i := strings.Index(message, "Context:\n\n")
	if i < 0 {
		return nil
	}
	body := message[i+len("Context:\n\n"):]

	locs := blockStart.FindAllStringSubmatchIndex(body, -1)
	out := make([]block, 0, len(locs))
	for n, loc := range locs {
		end := len(body)
		if n+1 < len(locs) {
			end = locs[n+1][0]
		}
		out = append(out, block{
			number: body[loc[2]:loc[3]],
			text:   strings.TrimSpace(body[loc[1]:end]),
		})
	}
	return out
}
