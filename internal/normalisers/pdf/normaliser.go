// Package pdf extracts text from PDF documents.
//
// pdfcpu parses the file structure and hands back each page's decoded
// content stream. Text is then recovered from the text showing operators
// of that stream. Scanned PDFs without a text layer are reported as
// corrupt since there is nothing to index.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/logger"
	"github.com/custodia-labs/docsight/internal/normalisers/textutil"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const maxTitleLen = 120

var disableConfigDir sync.Once

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	disableConfigDir.Do(api.DisableConfigDir)
	return &Normaliser{}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{"pdf"}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise reads every page and joins page texts with blank lines.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.NormalisedText, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadValidateAndOptimize(bytes.NewReader(raw.Content), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}

	pages := make([]string, 0, pdfCtx.PageCount)
	for page := 1; page <= pdfCtx.PageCount; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := pdfcpu.ExtractPageContent(pdfCtx, page)
		if err != nil {
			logger.Debug("pdf: page %d of %s: %v", page, raw.Filename, err)
			continue
		}
		if r == nil {
			continue
		}
		stream, err := io.ReadAll(r)
		if err != nil {
			logger.Debug("pdf: page %d of %s: %v", page, raw.Filename, err)
			continue
		}
		if text := strings.TrimSpace(ContentText(stream)); text != "" {
			pages = append(pages, text)
		}
	}

	content := textutil.Clean(strings.Join(pages, "\n\n"))
	if content == "" {
		return nil, fmt.Errorf("%w: no text layer in PDF", domain.ErrCorruptFile)
	}

	title := textutil.FirstLine(content, maxTitleLen)
	if title == "" {
		title = textutil.TitleFromFilename(raw.Filename)
	}

	metadata := textutil.CopyMetadata(raw.Metadata)
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = "pdf"
	metadata["pages"] = pdfCtx.PageCount

	return &domain.NormalisedText{
		DocumentID: raw.DocumentID,
		Title:      title,
		Content:    content,
		MIMEType:   "application/pdf",
		Metadata:   metadata,
	}, nil
}
