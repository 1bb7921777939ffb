// Package sentences splits text into sentences and ranks them by word
// frequency. It backs the extractive summary and the offline responder.
package sentences

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	tokenPattern   = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\d+`)
	paragraphBreak = regexp.MustCompile(`\n\s*\n`)
)

// abbreviations end with a period without ending a sentence.
var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "st": {}, "mme": {},
	"mlle": {}, "m": {}, "vs": {}, "etc": {}, "e.g": {}, "i.e": {}, "no": {},
	"jan": {}, "feb": {}, "mar": {}, "apr": {}, "jun": {}, "jul": {}, "aug": {},
	"sep": {}, "sept": {}, "oct": {}, "nov": {}, "dec": {},
}

// Paragraphs splits text on blank lines, dropping empty paragraphs.
func Paragraphs(text string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Split breaks a paragraph into sentences. A sentence ends at ., ! or ?
// followed by whitespace, unless the word before the period is a known
// abbreviation or a single initial. Line breaks also end a sentence.
func Split(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		out = append(out, splitLine(line)...)
	}
	return out
}

func splitLine(line string) []string {
	var out []string
	start := 0
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		next := i + 1
		for next < len(line) && (line[next] == '.' || line[next] == '!' || line[next] == '?' || line[next] == '"' || line[next] == ')') {
			next++
		}
		if next < len(line) && line[next] != ' ' && line[next] != '\t' {
			continue
		}
		if c == '.' && isAbbreviation(line[start:i]) {
			continue
		}
		if s := strings.TrimSpace(line[start:next]); s != "" {
			out = append(out, s)
		}
		start = next
		i = next - 1
	}
	if s := strings.TrimSpace(line[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isAbbreviation(before string) bool {
	fields := strings.Fields(before)
	if len(fields) == 0 {
		return false
	}
	word := strings.ToLower(strings.TrimLeft(fields[len(fields)-1], "(\"'"))
	if _, ok := abbreviations[word]; ok {
		return true
	}
	r, size := utf8.DecodeRuneInString(word)
	return size == len(word) && unicode.IsLetter(r)
}

// Tokens returns the lower-cased words and numbers of text.
func Tokens(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// IsStopword reports whether a lower-cased token carries no topic.
func IsStopword(tok string) bool {
	_, ok := stopwords[tok]
	return ok
}

// Ranked is a sentence with its position and frequency score.
type Ranked struct {
	Index int
	Text  string
	Score float64
}

// Rank scores every sentence of text by the normalised frequency of its
// non-stopword tokens, dampened by sentence length. The result is sorted by
// descending score, then position.
func Rank(text string) []Ranked {
	var all []string
	for _, p := range Paragraphs(text) {
		all = append(all, Split(p)...)
	}
	if len(all) == 0 {
		return nil
	}

	freq := map[string]float64{}
	for _, s := range all {
		for _, tok := range Tokens(s) {
			if !IsStopword(tok) {
				freq[tok]++
			}
		}
	}
	maxF := 0.0
	for _, v := range freq {
		if v > maxF {
			maxF = v
		}
	}

	ranked := make([]Ranked, len(all))
	for i, s := range all {
		score := 0.0
		toks := Tokens(s)
		for _, tok := range toks {
			score += freq[tok]
		}
		if maxF > 0 {
			score /= maxF
		}
		if len(toks) > 0 {
			score /= math.Sqrt(float64(len(toks)))
		}
		ranked[i] = Ranked{Index: i, Text: s, Score: score}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Summary picks the best ranked sentences that fit in maxChars and returns
// them in document order.
func Summary(text string, maxChars int) string {
	ranked := Rank(text)
	if len(ranked) == 0 {
		return ""
	}

	var picked []Ranked
	used := 0
	for _, r := range ranked {
		n := utf8.RuneCountInString(r.Text)
		if len(picked) > 0 {
			n++
		}
		if used+n > maxChars {
			continue
		}
		picked = append(picked, r)
		used += n
	}
	if len(picked) == 0 {
		return Truncate(ranked[0].Text, maxChars)
	}

	sort.Slice(picked, func(i, j int) bool { return picked[i].Index < picked[j].Index })
	parts := make([]string, len(picked))
	for i, r := range picked {
		parts[i] = r.Text
	}
	return strings.Join(parts, " ")
}

// Truncate cuts s to at most max runes, on a word boundary when there is
// one, and adds an ellipsis when it cut.
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:max-1])
	if i := strings.LastIndexFunc(cut, unicode.IsSpace); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRightFunc(cut, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	}) + "…"
}

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in",
		"on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being",
		"it", "this", "that", "these", "those", "from", "up", "down", "over", "under",
		"again", "further", "than", "so", "such", "into", "about", "between", "through",
		"during", "before", "after", "above", "below", "out", "off", "own", "same", "too",
		"very", "can", "will", "just", "should", "now", "we", "you", "he", "she", "they",
		"i", "our", "your", "their", "has", "have", "had", "do", "does", "did", "not",
		"who", "what", "when", "where", "which", "why", "how", "all", "any",
		"le", "la", "les", "un", "une", "des", "du", "de", "et", "ou", "à", "au", "aux",
		"en", "dans", "par", "pour", "sur", "avec", "est", "sont", "ce", "cette", "qui",
		"que", "nous", "vous", "il", "elle", "ils", "pas", "ne",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
