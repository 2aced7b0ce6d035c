package importer

import "time"

// Status is the lifecycle state of an import task. Transitions are
// monotonic: pending -> processing -> {completed|failed|cancelled}.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether the status is final.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Task is the tracked state of one batch import. Processed counts every
// photo that finished its pipeline (success or failure); Failed counts
// only the fatally-failed subset, so Failed <= Processed <= Total holds
// at every point in time.
type Task struct {
	ID          string     `json:"task_id"`
	Status      Status     `json:"status"`
	Total       int        `json:"total"`
	Processed   int        `json:"processed"`
	Failed      int        `json:"failed"`
	CurrentFile *string    `json:"current_file"`
	Message     string     `json:"message,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	cancelRequested bool
}

// CancelRequested reports whether cancellation has been requested. The
// runner checks this between photos.
func (t *Task) CancelRequested() bool {
	return t.cancelRequested
}

// PhotoSource identifies one photo to be imported: where its bytes live
// on disk and the name shown to clients in progress events.
type PhotoSource struct {
	Path        string
	DisplayName string
}
