package queue

import "time"

// Kind identifies what a job asks the worker to do.
type Kind string

const (
	KindDownload Kind = "download"
	KindStretch  Kind = "stretch"
	KindSeparate Kind = "separate"
)

var allKinds = []Kind{KindDownload, KindStretch, KindSeparate}

// ValidKind reports whether value names a known job kind.
func ValidKind(value Kind) bool {
	for _, kind := range allKinds {
		if kind == value {
			return true
		}
	}
	return false
}

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{StatusPending, StatusRunning, StatusCompleted, StatusFailed}

// ValidStatus reports whether value names a known job status.
func ValidStatus(value Status) bool {
	for _, status := range allStatuses {
		if status == value {
			return true
		}
	}
	return false
}

// Job is one unit of pipeline work persisted in SQLite. Source is a URL
// for downloads and a file path otherwise. TargetSeconds only applies to
// stretch jobs.
type Job struct {
	ID            int64
	Kind          Kind
	Source        string
	Output        string
	TargetSeconds float64
	Status        Status
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Summary aggregates job counts per lifecycle state.
type Summary struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
}
