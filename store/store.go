package store

import (
	"context"
	"errors"

	"shortsmith/models"
)

// ErrJobNotFound is returned for unknown job IDs
var ErrJobNotFound = errors.New("job not found")

// JobStore persists render job status
type JobStore interface {
	Create(ctx context.Context, job *models.JobStatus) error
	Get(ctx context.Context, jobID string) (*models.JobStatus, error)
	// Update applies fn to the stored job and saves the result
	Update(ctx context.Context, jobID string, fn func(job *models.JobStatus)) error
	List(ctx context.Context, limit int) ([]models.JobStatus, error)
}
