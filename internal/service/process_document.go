package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"doklado/internal/domain"
)

// ProcessDocument runs the extraction pipeline for one claimed job and
// persists the outcome. Transient failures before the pipeline starts are
// requeued up to maxRetries; pipeline failures are terminal because the
// fallback chain has already retried internally.
func (s *documentService) ProcessDocument(ctx context.Context, job *domain.DocumentJob, maxRetries int) {
	fileBytes, err := s.storage.Download(ctx, job.S3Bucket, job.S3Key)
	if err != nil {
		log.Printf("documentService: downloading %s for job %s: %v", job.S3Key, job.ID, err)
		s.handleTransientFailure(ctx, job, maxRetries, "could not fetch the stored document")
		return
	}

	opts := job.DecodeOptions()
	result := s.pipeline.Run(ctx, fileBytes, job.ContentType, opts, func(status domain.JobStatus) {
		if err := s.jobRepo.UpdateStatus(ctx, job.ID, status); err != nil {
			log.Printf("documentService: updating status for job %s: %v", job.ID, err)
		}
	})

	resultJSON, err := json.Marshal(result)
	if err != nil {
		log.Printf("documentService: marshaling result for job %s: %v", job.ID, err)
		resultJSON = nil
	}

	now := time.Now().UTC()
	job.Result = resultJSON
	job.ProcessedAt = &now
	if result.Success {
		job.Status = domain.JobStatusDone
		job.ErrorCode = ""
	} else {
		job.Status = domain.JobStatusFailed
		if len(result.Errors) > 0 {
			job.ErrorCode = string(result.Errors[len(result.Errors)-1].Code)
		}
	}

	if err := s.jobRepo.UpdateResult(ctx, job); err != nil {
		log.Printf("documentService: persisting result for job %s: %v", job.ID, err)
		return
	}

	if !result.Success {
		s.notifyFailure(ctx, job, failureReason(result))
	}
}

func (s *documentService) handleTransientFailure(ctx context.Context, job *domain.DocumentJob, maxRetries int, reason string) {
	if job.ProcessAttempts < maxRetries {
		if err := s.jobRepo.UpdateStatus(ctx, job.ID, domain.JobStatusQueued); err != nil {
			log.Printf("documentService: requeueing job %s: %v", job.ID, err)
		}
		return
	}

	now := time.Now().UTC()
	job.Status = domain.JobStatusFailed
	job.ErrorCode = string(domain.ErrCodeProviderUnavailable)
	job.ProcessedAt = &now
	if err := s.jobRepo.UpdateResult(ctx, job); err != nil {
		log.Printf("documentService: persisting failure for job %s: %v", job.ID, err)
	}
	s.notifyFailure(ctx, job, reason)
}

func (s *documentService) notifyFailure(ctx context.Context, job *domain.DocumentJob, reason string) {
	if job.NotifyEmail == "" || s.email == nil {
		return
	}
	if err := s.email.SendProcessingFailedEmail(ctx, job.NotifyEmail, job.OriginalName, reason); err != nil {
		log.Printf("documentService: sending failure email for job %s: %v", job.ID, err)
	}
}

func failureReason(result *domain.PipelineResult) string {
	if len(result.Errors) == 0 {
		return "processing did not complete"
	}
	return result.Errors[len(result.Errors)-1].Message
}
