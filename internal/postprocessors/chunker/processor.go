// Package chunker provides a paragraph-aware text chunking processor.
package chunker

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

var (
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
	sentenceEnd    = regexp.MustCompile(`([.!?;:])\s+`)
)

// Processor splits normalised text into chunks. Paragraphs are kept whole
// when they fit, long paragraphs are split at sentence ends and then at
// word boundaries. Each chunk after the first starts with the trailing
// words of the previous one, up to the overlap.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
	counter   driven.TokenCounter
	maxTokens int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// WithTokenLimit caps every chunk at maxTokens as counted by counter,
// on top of the character size.
func WithTokenLimit(counter driven.TokenCounter, maxTokens int) Option {
	return func(p *Processor) {
		if counter != nil && maxTokens > 0 {
			p.counter = counter
			p.maxTokens = maxTokens
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the text into chunks.
// Input chunks are ignored; this processor creates new chunks from the text.
// Chunk ids derive from the document id and ordinal so reprocessing the same
// text yields the same ids.
func (p *Processor) Process(ctx context.Context, text *domain.NormalisedText, _ []domain.Chunk) ([]domain.Chunk, error) {
	if text == nil || strings.TrimSpace(text.Content) == "" {
		return nil, nil
	}

	spans := p.pack(p.pieces(text.Content))
	chunks := make([]domain.Chunk, 0, len(spans))
	for i, span := range spans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(text.DocumentID, i),
			DocumentID: text.DocumentID,
			Ordinal:    i,
			Content:    span,
		})
	}
	return chunks, nil
}

type piece struct {
	text    string
	newPara bool
}

func (p *Processor) fits(s string) bool {
	if utf8.RuneCountInString(s) > p.chunkSize {
		return false
	}
	return p.counter == nil || p.counter.Count(s) <= p.maxTokens
}

// pieces breaks content into units that each fit in one chunk.
func (p *Processor) pieces(content string) []piece {
	var out []piece
	for _, para := range paragraphBreak.Split(content, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		first := true
		for _, unit := range p.splitParagraph(para) {
			out = append(out, piece{text: unit, newPara: first})
			first = false
		}
	}
	return out
}

func (p *Processor) splitParagraph(para string) []string {
	if p.fits(para) {
		return []string{para}
	}
	var out []string
	for _, sentence := range splitSentences(para) {
		if p.fits(sentence) {
			out = append(out, sentence)
			continue
		}
		out = append(out, p.splitWords(sentence)...)
	}
	return out
}

func splitSentences(para string) []string {
	marked := sentenceEnd.ReplaceAllString(para, "$1\x00")
	parts := strings.Split(marked, "\x00")
	out := parts[:0]
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// splitWords packs words into windows that fit, cutting single words that
// are longer than a chunk.
func (p *Processor) splitWords(s string) []string {
	var out []string
	var cur string
	for _, word := range strings.Fields(s) {
		for !p.fits(word) {
			cut := p.longestPrefix(word)
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			out = append(out, cut)
			word = word[len(cut):]
		}
		if word == "" {
			continue
		}
		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if p.fits(candidate) {
			cur = candidate
			continue
		}
		out = append(out, cur)
		cur = word
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func (p *Processor) longestPrefix(word string) string {
	runes := []rune(word)
	n := p.chunkSize
	if n > len(runes) {
		n = len(runes)
	}
	for n > 1 && !p.fits(string(runes[:n])) {
		n--
	}
	return string(runes[:n])
}

// pack greedily joins pieces into chunks, paragraphs separated by a blank line.
func (p *Processor) pack(pieces []piece) []string {
	var chunks []string
	cur := ""
	for _, pc := range pieces {
		sep := " "
		if pc.newPara {
			sep = "\n\n"
		}
		if cur == "" {
			cur = pc.text
			continue
		}
		if candidate := cur + sep + pc.text; p.fits(candidate) {
			cur = candidate
			continue
		}
		chunks = append(chunks, cur)
		cur = pc.text
		if tail := p.tail(chunks[len(chunks)-1]); tail != "" {
			if candidate := tail + sep + pc.text; p.fits(candidate) {
				cur = candidate
			}
		}
	}
	if cur != "" {
		chunks = append(chunks, cur)
	}
	return chunks
}

// tail returns the trailing words of chunk that fit in the overlap.
func (p *Processor) tail(chunk string) string {
	if p.overlap == 0 {
		return ""
	}
	words := strings.Fields(chunk)
	start := len(words)
	size := 0
	for start > 0 {
		n := utf8.RuneCountInString(words[start-1])
		if start < len(words) {
			n++
		}
		if size+n > p.overlap {
			break
		}
		size += n
		start--
	}
	if start == len(words) || start == 0 {
		return ""
	}
	return strings.Join(words[start:], " ")
}
