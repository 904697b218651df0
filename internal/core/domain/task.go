package domain

import (
	"encoding/json"
	"time"
)

// TaskKind identifies which worker consumes a task.
type TaskKind string

const (
	// TaskProbe issues a count-only search for a domain range.
	TaskProbe TaskKind = "probe"

	// TaskSearch pages through a leaf range's full result set.
	TaskSearch TaskKind = "search"

	// TaskFetchDetail downloads enrichment content for a candidate.
	TaskFetchDetail TaskKind = "fetch_detail"

	// TaskScore computes a candidate's similarity and decides accept/reject.
	TaskScore TaskKind = "score"
)

// TaskStatus is the lifecycle state of a task.
// Tasks are never deleted, only transitioned, so a run can be audited
// and resumed after a restart.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskFailed     TaskStatus = "failed"
)

// Priority classes for the built-in task kinds. Scoring runs ahead of
// fetching, fetching ahead of searching, so results surface while the
// discovery frontier is still being expanded.
const (
	PriorityProbe  = 10
	PrioritySearch = 10
	PriorityFetch  = 20
	PriorityScore  = 30
)

// Task is a unit of pending work in the persisted queue.
type Task struct {
	// ID is the unique identifier for the task.
	ID string

	// Kind selects the worker that will claim this task.
	Kind TaskKind

	// Payload is the kind-specific payload, stored as JSON and decoded
	// at claim time via DecodePayload.
	Payload json.RawMessage

	// Priority orders claims: higher first, FIFO within equal priority.
	Priority int

	// Status is the current lifecycle state.
	Status TaskStatus

	// RetryCount is incremented every time the task fails.
	RetryCount int

	// LastError holds the most recent failure reason, if any.
	LastError string

	// CreatedAt is when the task was enqueued.
	CreatedAt time.Time

	// UpdatedAt is when the task last changed state.
	UpdatedAt time.Time
}

// ProbePayload asks the splitter to count matches in a range.
type ProbePayload struct {
	Range DomainRange `json:"range"`
}

// SearchPayload asks the search worker to enumerate one page of a leaf
// range. Page is 1-based.
type SearchPayload struct {
	Range DomainRange `json:"range"`
	Page  int         `json:"page"`

	// Truncated marks a range that could not be split further and may
	// miss results beyond the cap.
	Truncated bool `json:"truncated,omitempty"`
}

// FetchPayload asks the fetch worker to download a candidate's README.
type FetchPayload struct {
	ExternalID string `json:"external_id"`
	Owner      string `json:"owner"`
	Repo       string `json:"repo"`
	Ref        string `json:"ref"`
}

// ScorePayload asks the score worker to decide on a candidate.
type ScorePayload struct {
	ExternalID string `json:"external_id"`
}

// NewTask builds a pending task with a JSON-encoded payload.
func NewTask(id string, kind TaskKind, payload any, priority int) (*Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Task{
		ID:       id,
		Kind:     kind,
		Payload:  data,
		Priority: priority,
		Status:   TaskPending,
	}, nil
}

// DecodePayload unmarshals the task payload into the variant matching
// the task kind. Returns ErrInvalidInput for an unknown kind.
func (t *Task) DecodePayload() (any, error) {
	switch t.Kind {
	case TaskProbe:
		var p ProbePayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TaskSearch:
		var p SearchPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TaskFetchDetail:
		var p FetchPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return nil, err
		}
		return p, nil
	case TaskScore:
		var p ScorePayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, ErrInvalidInput
	}
}
