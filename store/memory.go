package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"shortsmith/models"
)

// MemoryStore keeps jobs in process memory
type MemoryStore struct {
	jobs map[string]*models.JobStatus
	mu   sync.RWMutex
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*models.JobStatus)}
}

// Create stores a copy of job
func (s *MemoryStore) Create(_ context.Context, job *models.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *job
	s.jobs[job.JobID] = &stored
	return nil
}

// Get returns a copy so callers never race with updates
func (s *MemoryStore) Get(_ context.Context, jobID string) (*models.JobStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

// Update applies fn under the write lock
func (s *MemoryStore) Update(_ context.Context, jobID string, fn func(job *models.JobStatus)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	fn(job)
	job.UpdatedAt = time.Now()
	return nil
}

// List returns the most recent jobs first
func (s *MemoryStore) List(_ context.Context, limit int) ([]models.JobStatus, error) {
	s.mu.RLock()
	jobs := make([]models.JobStatus, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, *job)
	}
	s.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}
