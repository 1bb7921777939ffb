// Package msword extracts text from legacy Word 97-2003 .doc files.
//
// Text is read from the WordDocument stream between the fcMin and fcMac
// offsets of the file information block. Files whose text is split across
// a complex piece table fall back to scanning the stream for printable runs.
package msword

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/richardlehane/mscfb"
	xunicode "golang.org/x/text/encoding/unicode"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/normalisers/textutil"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

const (
	wordStream = "WordDocument"
	fibMagic   = 0xA5EC
	minRunLen  = 4
)

// Normaliser handles .doc files.
type Normaliser struct{}

// New creates a new Word 97 normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{"doc"}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/msword"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the document body text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.NormalisedText, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	stream, err := readWordStream(raw.Content)
	if err != nil {
		return nil, err
	}

	text := ExtractText(stream)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: no text found in Word document", domain.ErrCorruptFile)
	}

	metadata := textutil.CopyMetadata(raw.Metadata)
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = "doc"

	return &domain.NormalisedText{
		DocumentID: raw.DocumentID,
		Title:      textutil.TitleFromFilename(raw.Filename),
		Content:    text,
		MIMEType:   "application/msword",
		Metadata:   metadata,
	}, nil
}

func readWordStream(content []byte) ([]byte, error) {
	doc, err := mscfb.New(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name != wordStream {
			continue
		}
		data, err := io.ReadAll(entry)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: missing %s stream", domain.ErrCorruptFile, wordStream)
}

// ExtractText returns the cleaned text of a WordDocument stream.
func ExtractText(stream []byte) string {
	if len(stream) >= 0x20 && binary.LittleEndian.Uint16(stream[0:2]) == fibMagic {
		fcMin := int(binary.LittleEndian.Uint32(stream[0x18:0x1C]))
		fcMac := int(binary.LittleEndian.Uint32(stream[0x1C:0x20]))
		if fcMin > 0 && fcMin < fcMac && fcMac <= len(stream) {
			if text := cleanWordText(decodeSpan(stream[fcMin:fcMac])); hasLetters(text) {
				return text
			}
		}
	}
	return cleanWordText(printableRuns(stream))
}

// decodeSpan reads a text span as UTF-16LE when every other byte is mostly
// zero, otherwise as Windows-1252.
func decodeSpan(b []byte) string {
	if looksUTF16(b) {
		out, err := xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM).NewDecoder().Bytes(b)
		if err == nil {
			return string(out)
		}
	}
	return textutil.ToUTF8(b)
}

func looksUTF16(b []byte) bool {
	if len(b) < 4 {
		return false
	}
	zeros := 0
	pairs := len(b) / 2
	for i := 1; i < len(b); i += 2 {
		if b[i] == 0 {
			zeros++
		}
	}
	return zeros*10 >= pairs*6
}

// printableRuns collects runs of printable text from an unstructured stream.
func printableRuns(b []byte) string {
	var out []string
	if looksUTF16(b) {
		out = append(out, runs(decodeSpan(b))...)
	} else {
		out = append(out, runs(textutil.ToUTF8(b))...)
	}
	return strings.Join(out, "\n")
}

func runs(s string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		if utf8.RuneCountInString(cur.String()) >= minRunLen && hasLetters(cur.String()) {
			out = append(out, cur.String())
		}
		cur.Reset()
	}
	for _, r := range s {
		if r == '\r' || r == '\n' || unicode.IsPrint(r) {
			cur.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}

// cleanWordText maps Word's control characters to plain text.
func cleanWordText(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\r', 0x0B, 0x0C:
			return '\n'
		case 0x07:
			return '\t'
		case 0x13, 0x14, 0x15, 0x01, 0x08:
			return -1
		}
		return r
	}, s)
	return textutil.Clean(s)
}

func hasLetters(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if letters >= 2 {
				return true
			}
		}
	}
	return false
}
