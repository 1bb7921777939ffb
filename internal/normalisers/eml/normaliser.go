package eml

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"

	"github.com/custodia-labs/docsight/internal/core/domain"
	"github.com/custodia-labs/docsight/internal/core/ports/driven"
	"github.com/custodia-labs/docsight/internal/normalisers/textutil"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// maxDepth bounds multipart recursion.
const maxDepth = 8

// Normaliser handles RFC 822 email messages.
type Normaliser struct{}

// New creates a new EML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{"eml"}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"message/rfc822"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts an email into a header block followed by its body.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.NormalisedText, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptFile, err)
	}

	headers := Headers{
		From:    decodeHeader(msg.Header.Get("From")),
		To:      decodeHeader(msg.Header.Get("To")),
		Cc:      decodeHeader(msg.Header.Get("Cc")),
		Date:    msg.Header.Get("Date"),
		Subject: decodeHeader(msg.Header.Get("Subject")),
	}

	body := readPart(mailHeader(msg.Header), msg.Body, 0)

	title := headers.Subject
	if title == "" {
		title = textutil.TitleFromFilename(raw.Filename)
	}

	metadata := textutil.CopyMetadata(raw.Metadata)
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = "eml"
	headers.addTo(metadata)

	return &domain.NormalisedText{
		DocumentID: raw.DocumentID,
		Title:      title,
		Content:    textutil.Clean(headers.Block() + "\n\n" + body),
		MIMEType:   "message/rfc822",
		Metadata:   metadata,
	}, nil
}

// Headers are the email fields kept in the normalised text.
// The Outlook normaliser reuses them so both email formats read alike.
type Headers struct {
	From    string
	To      string
	Cc      string
	Date    string
	Subject string
}

// Block renders the non-empty headers, one per line.
func (h Headers) Block() string {
	var b strings.Builder
	write := func(name, value string) {
		if value != "" {
			b.WriteString(name)
			b.WriteString(": ")
			b.WriteString(value)
			b.WriteString("\n")
		}
	}
	write("From", h.From)
	write("To", h.To)
	write("Cc", h.Cc)
	write("Date", h.Date)
	write("Subject", h.Subject)
	return strings.TrimSuffix(b.String(), "\n")
}

func (h Headers) addTo(metadata map[string]any) {
	for k, v := range map[string]string{"from": h.From, "to": h.To, "cc": h.Cc, "date": h.Date, "subject": h.Subject} {
		if v != "" {
			metadata[k] = v
		}
	}
}

// decodeHeader decodes RFC 2047 encoded headers.
func decodeHeader(header string) string {
	if header == "" {
		return ""
	}
	dec := &mime.WordDecoder{CharsetReader: charsetReader}
	decoded, err := dec.DecodeHeader(header)
	if err != nil {
		return header
	}
	return decoded
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	b, err := io.ReadAll(input)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(textutil.DecodeCharset(b, charset)), nil
}

// partHeader is the subset of MIME headers needed to decode a part.
type partHeader interface {
	Get(key string) string
}

type mailHeader mail.Header

func (h mailHeader) Get(key string) string { return mail.Header(h).Get(key) }

// readPart returns the text of a MIME entity, preferring text/plain over
// text/html in alternatives.
func readPart(h partHeader, r io.Reader, depth int) string {
	contentType := h.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, params = "text/plain", map[string]string{}
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		if depth >= maxDepth || params["boundary"] == "" {
			return ""
		}
		return readMultipart(r, params["boundary"], mediaType == "multipart/alternative", depth+1)
	}

	if h.Get("Content-Disposition") != "" && strings.HasPrefix(strings.ToLower(h.Get("Content-Disposition")), "attachment") {
		return ""
	}

	content, err := io.ReadAll(decodeTransfer(h.Get("Content-Transfer-Encoding"), r))
	if err != nil {
		return ""
	}

	switch mediaType {
	case "text/plain":
		return textutil.DecodeCharset(content, params["charset"])
	case "text/html":
		_, text, err := textutil.HTMLToText(textutil.DecodeCharset(content, params["charset"]))
		if err != nil {
			return ""
		}
		return text
	default:
		return ""
	}
}

func readMultipart(r io.Reader, boundary string, alternative bool, depth int) string {
	mr := multipart.NewReader(r, boundary)
	var plain, html, other []string

	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		mediaType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		text := strings.TrimSpace(readPart(part.Header, part, depth))
		part.Close()
		if text == "" {
			continue
		}
		switch mediaType {
		case "text/html":
			html = append(html, text)
		case "text/plain", "":
			plain = append(plain, text)
		default:
			other = append(other, text)
		}
	}

	if alternative {
		if len(plain) > 0 {
			return plain[0]
		}
		if len(html) > 0 {
			return html[0]
		}
		return strings.Join(other, "\n\n")
	}
	return strings.Join(append(append(plain, other...), html...), "\n\n")
}

// decodeTransfer undoes base64 and quoted-printable encodings.
// multipart.Reader already decodes quoted-printable parts itself, and the
// base64 decoder skips line breaks.
func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}
