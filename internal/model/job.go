// Package model defines the core types for scrape-and-research jobs.
package model

import "time"

// JobStatus represents the current state of a scrape job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransition reports whether moving from s to next is a legal step in the
// pending -> running -> {completed, failed} lifecycle. Statuses never regress
// and terminal statuses never change.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusRunning || next == JobStatusCompleted || next == JobStatusFailed
	case JobStatusRunning:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

// Job tracks one scrape-and-research orchestration request.
// Result is set iff the job completed; Error is set iff the job failed.
type Job struct {
	ID          string           `json:"job_id"`
	URL         string           `json:"url"`
	CompanyName string           `json:"company_name"`
	Industry    string           `json:"industry,omitempty"`
	Status      JobStatus        `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	Result      *AggregateResult `json:"result,omitempty"`
	Error       string           `json:"error,omitempty"`
}
