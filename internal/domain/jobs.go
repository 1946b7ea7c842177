package domain

import (
	"context"
	"time"
)

// ExecutionMode tells BulkSync whether follow-up activations run inline
// or are deferred to the job queue. Passed explicitly by the caller.
type ExecutionMode string

const (
	RunInline ExecutionMode = "inline"
	RunQueued ExecutionMode = "queued"
)

const (
	JobBulkSync        = "user.sync"
	JobEnrollmentSweep = "user.enrollment_timeout"
	JobLock            = "user.lock"
	JobUnlock          = "user.unlock"
	JobActivate        = "user.activate"
)

// Job is the unit of asynchronous work exchanged over the queue.
type Job struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Username   string    `json:"username,omitempty"`
	RecordID   string    `json:"record_id,omitempty"`
	Base       string    `json:"base,omitempty"`
	Interval   string    `json:"interval,omitempty"`
	DryRun     bool      `json:"dry_run,omitempty"`
	Attempt    int       `json:"attempt,omitempty"`
	NotBefore  time.Time `json:"not_before,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// PartitionKey keeps jobs for the same user on the same partition so
// they serialize behind each other.
func (j Job) PartitionKey() []byte {
	switch {
	case j.RecordID != "":
		return []byte(j.RecordID)
	case j.Username != "":
		return []byte(j.Username)
	default:
		return []byte(j.Name)
	}
}

type JobPublisherPort interface {
	Enqueue(ctx context.Context, job Job) error
}

type JobSubscriberPort interface {
	Subscribe(ctx context.Context) (<-chan Job, error)
}
