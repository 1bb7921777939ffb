// Package normalisers provides implementations of the Normaliser interface
// for the supported document formats, and the registry that picks one.
//
// Normalisers are registered with a Registry at startup.
package normalisers

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry dispatches raw documents to normalisers.
// Selection is by file extension; files without an extension fall back to
// the declared or sniffed MIME type. Candidates are tried highest priority
// first and a lower priority candidate only runs when a higher one fails.
type Registry struct {
	mu     sync.RWMutex
	byExt  map[string][]driven.Normaliser
	byMIME map[string][]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byExt:  make(map[string][]driven.Normaliser),
		byMIME: make(map[string][]driven.Normaliser),
	}
}

// Register adds a normaliser under each of its extensions and MIME types.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range n.SupportedExtensions() {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		r.byExt[ext] = insertByPriority(r.byExt[ext], n)
	}
	for _, mt := range n.SupportedMIMETypes() {
		mt = strings.ToLower(mt)
		r.byMIME[mt] = insertByPriority(r.byMIME[mt], n)
	}
}

func insertByPriority(list []driven.Normaliser, n driven.Normaliser) []driven.Normaliser {
	list = append(list, n)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Priority() > list[j].Priority()
	})
	return list
}

// SupportedExtensions returns every registered extension, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether filename has a registered extension.
func (r *Registry) Supports(filename string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byExt[domain.Extension(filename)]
	return ok
}

// Normalise transforms raw with the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.NormalisedText, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if raw.MIMEType == "" && len(raw.Content) > 0 {
		raw.MIMEType = sniff(raw.Content)
	}

	candidates, err := r.candidates(raw)
	if err != nil {
		return nil, err
	}

	var firstErr error
	for _, n := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := n.Normalise(ctx, raw)
		if err == nil && strings.TrimSpace(text.Content) == "" {
			err = fmt.Errorf("%w: no text extracted from %s", domain.ErrCorruptFile, raw.Filename)
		}
		if err == nil {
			return text, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		logger.Debug("normaliser %T failed for %s: %v", n, raw.Filename, err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func (r *Registry) candidates(raw *domain.RawDocument) ([]driven.Normaliser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ext := domain.Extension(raw.Filename); ext != "" {
		list, ok := r.byExt[ext]
		if !ok {
			return nil, fmt.Errorf("%w: .%s", domain.ErrUnsupportedFormat, ext)
		}
		return list, nil
	}

	mt := baseMIME(raw.MIMEType)
	if list, ok := r.byMIME[mt]; ok {
		return list, nil
	}
	return nil, fmt.Errorf("%w: %s has no extension and type %q", domain.ErrUnsupportedFormat, raw.Filename, mt)
}

// sniff detects a MIME type from content, recognising compound Office files
// that http.DetectContentType reports as a generic binary stream.
func sniff(content []byte) string {
	mt := baseMIME(http.DetectContentType(content))
	if mt == "application/octet-stream" && len(content) >= 8 &&
		string(content[:8]) == "\xD0\xCF\x11\xE0\xA1\xB1\x1A\xE1" {
		return "application/msword"
	}
	if mt == "application/zip" {
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return mt
}

func baseMIME(mt string) string {
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		return strings.ToLower(parsed)
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
