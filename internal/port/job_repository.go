package port

import (
	"context"

	"github.com/google/uuid"

	"doklado/internal/domain"
)

// JobRepository persists document jobs and their pipeline results.
type JobRepository interface {
	Create(ctx context.Context, job *domain.DocumentJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DocumentJob, error)
	List(ctx context.Context, offset, limit int) ([]domain.DocumentJob, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus) error
	UpdateResult(ctx context.Context, job *domain.DocumentJob) error
	Requeue(ctx context.Context, id uuid.UUID, options []byte) error
	// ClaimQueued atomically claims up to limit queued jobs for processing.
	ClaimQueued(ctx context.Context, limit int) ([]domain.DocumentJob, error)
}
