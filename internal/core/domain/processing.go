package domain

// TaskStage is the stage of a document processing task.
type TaskStage string

// Processing stages.
const (
	StageQueued      TaskStage = "queued"
	StageNormalising TaskStage = "normalising"
	StageExtracting  TaskStage = "extracting"
	StageIndexing    TaskStage = "indexing"
	StageDone        TaskStage = "done"
	StageFailed      TaskStage = "failed"
)

// TaskState is the observable state of a document's processing.
type TaskState struct {
	// DocumentID is the document being processed.
	DocumentID string

	// Stage is the current stage of the running task.
	Stage TaskStage

	// Queued counts further submissions waiting behind the running task.
	Queued int
}

// DocumentEvent is delivered once per processing task with its terminal status.
type DocumentEvent struct {
	DocumentID string
	ProjectID  string
	Status     DocumentStatus

	// Discarded is true when the document was deleted mid-flight.
	Discarded bool

	// KeyPoints is the number of key points committed.
	KeyPoints int

	// Chunks is the number of chunks indexed.
	Chunks int

	Err error
}
