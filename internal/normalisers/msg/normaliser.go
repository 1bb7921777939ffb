// Package msg normalises Outlook .msg files, which are OLE compound files
// holding one stream per MAPI property.
package msg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/unicode"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/normalisers/eml"
	"github.com/custodia-labs/docsight/internal/normalisers/textutil"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MAPI property tags of the fields we keep. Streams end in 001F for
// UTF-16 strings and 001E for 8-bit strings.
const (
	propSubject     = "0037"
	propBody        = "1000"
	propHTMLBody    = "1013"
	propSenderName  = "0C1A"
	propSenderEmail = "0C1F"
	propDisplayTo   = "0E04"
	propDisplayCc   = "0E03"
	streamPrefix    = "__substg1.0_"
)

// Normaliser handles Outlook message files.
type Normaliser struct{}

// New creates a new MSG normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{"msg"}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/vnd.ms-outlook"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise reads the message properties and renders them like an email.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.NormalisedText, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	props, err := readProperties(raw.Content)
	if err != nil {
		return nil, err
	}

	from := props[propSenderName]
	if email := props[propSenderEmail]; email != "" && !strings.Contains(from, email) {
		if from == "" {
			from = email
		} else {
			from = fmt.Sprintf("%s <%s>", from, email)
		}
	}

	headers := eml.Headers{
		From:    from,
		To:      props[propDisplayTo],
		Cc:      props[propDisplayCc],
		Subject: props[propSubject],
	}

	body := props[propBody]
	if strings.TrimSpace(body) == "" && props[propHTMLBody] != "" {
		if _, text, err := textutil.HTMLToText(props[propHTMLBody]); err == nil {
			body = text
		}
	}
	if strings.TrimSpace(body) == "" && headers.Subject == "" {
		return nil, fmt.Errorf("%w: no subject or body in message", domain.ErrCorruptFile)
	}

	title := headers.Subject
	if title == "" {
		title = textutil.TitleFromFilename(raw.Filename)
	}

	metadata := textutil.CopyMetadata(raw.Metadata)
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = "msg"
	if headers.From != "" {
		metadata["from"] = headers.From
	}
	if headers.To != "" {
		metadata["to"] = headers.To
	}

	return &domain.NormalisedText{
		DocumentID: raw.DocumentID,
		Title:      title,
		Content:    textutil.Clean(headers.Block() + "\n\n" + body),
		MIMEType:   "application/vnd.ms-outlook",
		Metadata:   metadata,
	}, nil
}

// readProperties collects the top-level string properties of a message.
// Streams inside attachment and recipient storages are skipped.
func readProperties(content []byte) (map[string]string, error) {
	doc, err := mscfb.New(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}

	props := make(map[string]string)
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if !strings.HasPrefix(entry.Name, streamPrefix) || nested(entry.Path) {
			continue
		}
		tag := strings.TrimPrefix(entry.Name, streamPrefix)
		if len(tag) != 8 {
			continue
		}
		id, kind := strings.ToUpper(tag[:4]), strings.ToUpper(tag[4:])
		if kind != "001F" && kind != "001E" && kind != "0102" {
			continue
		}

		data, err := io.ReadAll(entry)
		if err != nil {
			continue
		}
		value := decodeProperty(data, kind)
		if value != "" {
			props[id] = value
		}
	}
	return props, nil
}

func nested(path []string) bool {
	for _, p := range path {
		if strings.HasPrefix(p, "__attach") || strings.HasPrefix(p, "__recip") || strings.HasPrefix(p, "__nameid") {
			return true
		}
	}
	return false
}

func decodeProperty(data []byte, kind string) string {
	switch kind {
	case "001F":
		out, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(data)
		if err != nil {
			return ""
		}
		return strings.TrimRight(string(out), "\x00")
	default:
		return strings.TrimRight(textutil.ToUTF8(data), "\x00")
	}
}
