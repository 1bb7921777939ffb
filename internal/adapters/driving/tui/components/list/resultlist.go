// Package list renders ranked search results.
package list

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/docsight/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docsight/internal/core/ports/driving"
)

// linesPerResult is the height of one rendered result: name, preview and
// a blank separator.
const linesPerResult = 3

// ResultList shows search results with their similarity and a preview of
// the matching passage, query terms highlighted.
type ResultList struct {
	results  []driving.SearchResult
	terms    []string
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates an empty list.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ResultList{styles: s, width: 80, height: 10}
}

// SetResults replaces the results for query and selects the first.
func (r *ResultList) SetResults(query string, results []driving.SearchResult) {
	r.results = results
	r.terms = queryTerms(query)
	r.selected = 0
}

// View renders the visible window of results around the selection.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results")
	}

	var b strings.Builder
	b.WriteString(r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.results))))
	b.WriteString("\n\n")

	visible := max((r.height-4)/linesPerResult, 1)
	start := max(r.selected-visible+1, 0)
	end := min(start+visible, len(r.results))
	for i := start; i < end; i++ {
		r.writeResult(&b, i)
	}
	return b.String()
}

func (r *ResultList) writeResult(b *strings.Builder, i int) {
	res := &r.results[i]
	name := res.DocumentName
	if name == "" {
		name = res.Hit.DocumentID
	}
	nameWidth := max(r.width-24, 10)
	line := fmt.Sprintf("[%d] %-*s", i+1, nameWidth, truncate(name, nameWidth))

	if i == r.selected {
		b.WriteString("> " + r.styles.Selected.Render(line))
	} else {
		b.WriteString("  " + r.styles.Normal.Render(line))
	}
	b.WriteString("  " + r.styles.Muted.Render(relevance(res.Hit.Score)))
	b.WriteString("\n      ")

	preview := truncate(strings.Join(strings.Fields(res.Hit.Content), " "), max(r.width-8, 20))
	b.WriteString(r.highlight(preview))
	b.WriteString("\n\n")
}

// highlight renders words containing a query term in the accent style.
func (r *ResultList) highlight(text string) string {
	words := strings.Split(text, " ")
	for i, w := range words {
		if r.matches(w) {
			words[i] = r.styles.Subtitle.Render(w)
		} else {
			words[i] = r.styles.Muted.Render(w)
		}
	}
	return strings.Join(words, " ")
}

func (r *ResultList) matches(word string) bool {
	w := strings.ToLower(word)
	for _, t := range r.terms {
		if strings.Contains(w, t) {
			return true
		}
	}
	return false
}

// queryTerms lower-cases the words of query, dropping those under three
// letters.
func queryTerms(query string) []string {
	var terms []string
	for _, f := range strings.FieldsFunc(strings.ToLower(query), func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	}) {
		if len([]rune(f)) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}

// relevance draws score in [0,1] as a five cell bar and a percentage.
func relevance(score float64) string {
	score = min(max(score, 0), 1)
	filled := int(score*5 + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", 5-filled) + fmt.Sprintf(" %3.0f%%", score*100)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// Results returns the current results.
func (r *ResultList) Results() []driving.SearchResult {
	return r.results
}

// Selected returns the index of the selected result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SelectedResult returns the selected result, or nil when empty.
func (r *ResultList) SelectedResult() *driving.SearchResult {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

// MoveUp selects the previous result.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown selects the next result.
func (r *ResultList) MoveDown() {
	if r.selected < len(r.results)-1 {
		r.selected++
	}
}

// SetDimensions sets the space available to the list.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of results.
func (r *ResultList) Count() int {
	return len(r.results)
}

// IsEmpty reports whether there are no results.
func (r *ResultList) IsEmpty() bool {
	return len(r.results) == 0
}
