package domain

// RawDocument represents uploaded bytes before normalisation.
type RawDocument struct {
	// DocumentID links to the tracked Document, if any.
	DocumentID string

	// Filename is the original file name; its extension drives dispatch.
	Filename string

	// MIMEType is the declared or sniffed content type.
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains transport-specific key-value pairs.
	Metadata map[string]any
}

// NormalisedText is plain text extracted from a raw document.
// Paragraphs are separated by a blank line.
type NormalisedText struct {
	// DocumentID links to the tracked Document, if any.
	DocumentID string

	// Title is a human-readable title.
	Title string

	// Content is the plain text.
	Content string

	// MIMEType is the format the text was extracted from.
	MIMEType string

	// Metadata carries format-specific fields such as email headers.
	Metadata map[string]any
}
