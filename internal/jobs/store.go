// Package jobs tracks scrape jobs through their lifecycle and dispatches
// their execution onto a bounded worker pool.
package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pitch-intel/internal/model"
)

// ErrNotFound is returned for operations on an unknown job id.
var ErrNotFound = eris.New("jobs: job not found")

// ErrIllegalTransition is returned when a status change would regress the
// pending -> running -> {completed, failed} lifecycle.
var ErrIllegalTransition = eris.New("jobs: illegal status transition")

// Store is an in-memory registry of jobs keyed by id. Each job is mutated
// only by its owning runner; status polling reads concurrently, so every
// access goes through the mutex.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*model.Job)}
}

// Create registers a new pending job and returns a snapshot of it.
func (s *Store) Create(url, companyName, industry string) model.Job {
	job := &model.Job{
		ID:          uuid.New().String(),
		URL:         url,
		CompanyName: companyName,
		Industry:    industry,
		Status:      model.JobStatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	return *job
}

// Get returns a snapshot of the job, or ErrNotFound.
func (s *Store) Get(id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return model.Job{}, ErrNotFound
	}
	return *job, nil
}

// MarkRunning transitions the job from pending to running.
func (s *Store) MarkRunning(id string) error {
	return s.transition(id, model.JobStatusRunning, func(*model.Job) {})
}

// Complete transitions the job to completed and attaches its result.
// The result is owned by the job from this point and must not be mutated.
func (s *Store) Complete(id string, result *model.AggregateResult) error {
	return s.transition(id, model.JobStatusCompleted, func(j *model.Job) {
		j.Result = result
	})
}

// Fail transitions the job to failed with a human-readable cause.
func (s *Store) Fail(id string, errMsg string) error {
	return s.transition(id, model.JobStatusFailed, func(j *model.Job) {
		j.Error = errMsg
	})
}

func (s *Store) transition(id string, next model.JobStatus, apply func(*model.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if !job.Status.CanTransition(next) {
		return eris.Wrapf(ErrIllegalTransition, "%s -> %s for job %s", job.Status, next, id)
	}

	job.Status = next
	apply(job)
	return nil
}
