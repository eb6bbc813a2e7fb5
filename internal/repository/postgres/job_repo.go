package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"doklado/internal/domain"
	"doklado/internal/port"
)

type jobRepo struct {
	db *sqlx.DB
}

// NewJobRepo creates a new PostgreSQL-backed JobRepository.
func NewJobRepo(db *sqlx.DB) port.JobRepository {
	return &jobRepo{db: db}
}

func (r *jobRepo) Create(ctx context.Context, job *domain.DocumentJob) error {
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	query := `INSERT INTO document_jobs (
		id, original_name, content_type, file_size,
		s3_bucket, s3_key, status, options, result,
		error_code, process_attempts, processed_at, notify_email,
		created_at, updated_at
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8, $9,
		$10, $11, $12, $13,
		$14, $15
	)`

	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.OriginalName, job.ContentType, job.FileSize,
		job.S3Bucket, job.S3Key, job.Status, job.Options, job.Result,
		job.ErrorCode, job.ProcessAttempts, job.ProcessedAt, job.NotifyEmail,
		job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("jobRepo.Create: %w", err)
	}
	return nil
}

func (r *jobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.DocumentJob, error) {
	var job domain.DocumentJob
	err := r.db.GetContext(ctx, &job,
		"SELECT * FROM document_jobs WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("jobRepo.GetByID: %w", err)
	}
	return &job, nil
}

func (r *jobRepo) List(ctx context.Context, offset, limit int) ([]domain.DocumentJob, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM document_jobs")
	if err != nil {
		return nil, 0, fmt.Errorf("jobRepo.List count: %w", err)
	}

	jobs := []domain.DocumentJob{}
	err = r.db.SelectContext(ctx, &jobs,
		"SELECT * FROM document_jobs ORDER BY created_at DESC OFFSET $1 LIMIT $2",
		offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("jobRepo.List: %w", err)
	}
	return jobs, total, nil
}

func (r *jobRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE document_jobs SET status = $1, updated_at = $2 WHERE id = $3",
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("jobRepo.UpdateStatus: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("jobRepo.UpdateStatus rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *jobRepo) UpdateResult(ctx context.Context, job *domain.DocumentJob) error {
	job.UpdatedAt = time.Now().UTC()

	query := `UPDATE document_jobs SET
		status = $1, result = $2, error_code = $3,
		process_attempts = $4, processed_at = $5, updated_at = $6
	WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		job.Status, job.Result, job.ErrorCode,
		job.ProcessAttempts, job.ProcessedAt, job.UpdatedAt, job.ID)
	if err != nil {
		return fmt.Errorf("jobRepo.UpdateResult: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("jobRepo.UpdateResult rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *jobRepo) Requeue(ctx context.Context, id uuid.UUID, options []byte) error {
	query := `UPDATE document_jobs SET
		status = $1, options = $2, result = NULL, error_code = '',
		processed_at = NULL, updated_at = $3
	WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query,
		domain.JobStatusQueued, options, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("jobRepo.Requeue: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("jobRepo.Requeue rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// ClaimQueued atomically moves up to limit queued jobs to the received state
// and returns them. SKIP LOCKED keeps concurrent workers from claiming the
// same job twice.
func (r *jobRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.DocumentJob, error) {
	query := `UPDATE document_jobs SET
		status = $1, process_attempts = process_attempts + 1, updated_at = $2
	WHERE id IN (
		SELECT id FROM document_jobs
		WHERE status = $3
		ORDER BY created_at
		LIMIT $4
		FOR UPDATE SKIP LOCKED
	)
	RETURNING *`

	jobs := []domain.DocumentJob{}
	err := r.db.SelectContext(ctx, &jobs, query,
		domain.JobStatusReceived, time.Now().UTC(), domain.JobStatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("jobRepo.ClaimQueued: %w", err)
	}
	return jobs, nil
}
