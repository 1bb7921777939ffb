// Package textutil holds helpers shared by the format normalisers: text
// cleanup that keeps paragraph boundaries, charset decoding, HTML to text
// conversion, and title derivation.
package textutil

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

var (
	blankRuns  = regexp.MustCompile(`\n{3,}`)
	spaceRuns  = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	lineEnding = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// Clean normalises line endings, drops control characters, collapses
// horizontal whitespace, trims each line and keeps at most one blank line
// between paragraphs.
func Clean(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	s = lineEnding.Replace(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\t':
			return r
		case r == utf8.RuneError:
			return -1
		case unicode.IsControl(r):
			return ' '
		default:
			return r
		}
	}, s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spaceRuns.ReplaceAllString(line, " "))
	}
	s = strings.Join(lines, "\n")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// ToUTF8 returns b as UTF-8 text. Invalid UTF-8 is read as Windows-1252,
// the usual encoding of legacy western European files.
func ToUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "")
	}
	return string(out)
}

// DecodeCharset converts b from the named charset to UTF-8.
// Unknown or empty charsets fall back to ToUTF8.
func DecodeCharset(b []byte, charset string) string {
	charset = strings.TrimSpace(strings.ToLower(charset))
	if charset == "" || charset == "utf-8" || charset == "us-ascii" {
		return ToUTF8(b)
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return ToUTF8(b)
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return ToUTF8(b)
	}
	return string(out)
}

// TitleFromFilename derives a readable title from a file name.
func TitleFromFilename(name string) string {
	filename := filepath.Base(name)
	if ext := filepath.Ext(filename); ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return strings.TrimSpace(filename)
}

// FirstLine returns the first non-empty line of s, cut to max runes.
func FirstLine(s string, max int) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > max {
			line = string([]rune(line)[:max])
		}
		return line
	}
	return ""
}

// CopyMetadata creates a shallow copy of metadata, never nil.
func CopyMetadata(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src)+4)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
