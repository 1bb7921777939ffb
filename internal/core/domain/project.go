package domain

import "time"

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

// Project statuses.
const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
)

// IsValid returns true if the status is recognised.
func (s ProjectStatus) IsValid() bool {
	return s == ProjectActive || s == ProjectArchived
}

// DefaultProjectColor is used when a project is created without a color.
const DefaultProjectColor = "#3B82F6"

// Project groups documents and a conversation.
type Project struct {
	// ID is the unique identifier for the project.
	ID string

	// Name is the display name.
	Name string

	// Description is optional free text.
	Description string

	// Color is a hex color used by front ends to tag the project.
	Color string

	// Status is active or archived.
	Status ProjectStatus

	// CreatedAt is when the project was created.
	CreatedAt time.Time

	// LastActivityAt is bumped on uploads and chat turns.
	LastActivityAt time.Time
}

// ProjectSummary is a project with counts derived from its documents.
// The counts are computed by the store on read and never persisted.
type ProjectSummary struct {
	Project

	// DocumentsCount is the number of documents owned by the project.
	DocumentsCount int

	// KeyPointsCount is the number of key points across those documents.
	KeyPointsCount int
}
