package models

import "fmt"

// Status Enumeration of the job states reported by Mozart
type Status string

const (
	// StatusQueued Job is waiting in a queue
	StatusQueued Status = "job-queued"

	// StatusStarted Job is running on a worker
	StatusStarted Status = "job-started"

	// StatusCompleted Job finished successfully
	StatusCompleted Status = "job-completed"

	// StatusFailed Job finished with an error
	StatusFailed Status = "job-failed"

	// StatusDeduped Job was dropped as a duplicate of an earlier submission
	StatusDeduped Status = "job-deduped"

	// StatusOffline Worker running the job went offline
	StatusOffline Status = "job-offline"
)

// Statuses All job states known to Mozart
var Statuses = []Status{
	StatusQueued,
	StatusStarted,
	StatusCompleted,
	StatusFailed,
	StatusDeduped,
	StatusOffline,
}

// IsTerminal Whether the job can make no further state transition
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusDeduped, StatusOffline:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus Validates a status value against the known job states
func ParseStatus(value string) (Status, error) {
	for _, s := range Statuses {
		if string(s) == value {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown job status %q", value)
}
