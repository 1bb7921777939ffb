package domain

import (
	"strings"
	"time"
)

// KeyPointType is the category of an extracted fact.
type KeyPointType string

// Key point types.
const (
	KeyPointDate     KeyPointType = "date"
	KeyPointPerson   KeyPointType = "person"
	KeyPointLocation KeyPointType = "location"
	KeyPointTask     KeyPointType = "task"
	KeyPointDecision KeyPointType = "decision"
	KeyPointDocument KeyPointType = "document"
)

// KeyPointTypes lists every type in display order.
var KeyPointTypes = []KeyPointType{
	KeyPointDate,
	KeyPointPerson,
	KeyPointLocation,
	KeyPointTask,
	KeyPointDecision,
	KeyPointDocument,
}

// IsValid returns true if the type is recognised.
func (t KeyPointType) IsValid() bool {
	for _, known := range KeyPointTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Label returns a human-readable label for the type.
func (t KeyPointType) Label() string {
	switch t {
	case KeyPointDate:
		return "Dates"
	case KeyPointPerson:
		return "People"
	case KeyPointLocation:
		return "Locations"
	case KeyPointTask:
		return "Tasks"
	case KeyPointDecision:
		return "Decisions"
	case KeyPointDocument:
		return "Documents"
	default:
		return "Unknown"
	}
}

// KeyPoint is a typed fact extracted from a document.
type KeyPoint struct {
	// ID is the unique identifier for the key point.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Type is the key point category.
	Type KeyPointType

	// Content is the extracted text.
	Content string

	// Source is the name of the document the point came from.
	Source string

	// Confidence is a ranking signal in [0,1], not a probability.
	Confidence float64

	// CreatedAt is when the key point was stored.
	CreatedAt time.Time
}

// DedupKey is the key under which near-identical key points collapse.
func (k KeyPoint) DedupKey() string {
	return string(k.Type) + "\x00" + FoldText(k.Content)
}

// FoldText lower-cases s and collapses runs of whitespace to one space.
func FoldText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ClampConfidence bounds c to [0,1].
func ClampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

// KeyPointFilter narrows a key point listing.
type KeyPointFilter struct {
	// Types restricts results to these types. Empty means all.
	Types []KeyPointType

	// Query is a case-insensitive substring matched on content or source.
	Query string

	// DocumentID restricts results to one document.
	DocumentID string
}

// Matches reports whether kp passes the filter.
func (f KeyPointFilter) Matches(kp KeyPoint) bool {
	if f.DocumentID != "" && kp.DocumentID != f.DocumentID {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if kp.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		return strings.Contains(strings.ToLower(kp.Content), q) ||
			strings.Contains(strings.ToLower(kp.Source), q)
	}
	return true
}

// KeyPointStats counts key points per type.
type KeyPointStats struct {
	Total  int
	ByType map[KeyPointType]int
}

// NewKeyPointStats tallies kps.
func NewKeyPointStats(kps []KeyPoint) KeyPointStats {
	stats := KeyPointStats{ByType: make(map[KeyPointType]int, len(KeyPointTypes))}
	for _, t := range KeyPointTypes {
		stats.ByType[t] = 0
	}
	for _, kp := range kps {
		stats.ByType[kp.Type]++
		stats.Total++
	}
	return stats
}
