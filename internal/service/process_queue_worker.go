package service

import (
	"context"
	"log"
	"sync"
	"time"

	"doklado/internal/port"
)

// ProcessQueueConfig holds settings for the process queue worker.
type ProcessQueueConfig struct {
	PollInterval time.Duration
	MaxRetries   int
	Concurrency  int
}

// ProcessQueueWorker polls for queued document jobs and dispatches them to
// the extraction pipeline.
type ProcessQueueWorker struct {
	jobRepo    port.JobRepository
	docService DocumentService
	cfg        ProcessQueueConfig
	wg         sync.WaitGroup
}

// NewProcessQueueWorker creates a new ProcessQueueWorker.
func NewProcessQueueWorker(jobRepo port.JobRepository, docService DocumentService, cfg ProcessQueueConfig) *ProcessQueueWorker {
	return &ProcessQueueWorker{
		jobRepo:    jobRepo,
		docService: docService,
		cfg:        cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight pipeline runs have finished.
func (w *ProcessQueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("processQueueWorker: started (poll=%s, concurrency=%d, maxRetries=%d)",
		w.cfg.PollInterval, w.cfg.Concurrency, w.cfg.MaxRetries)

	for {
		select {
		case <-ctx.Done():
			log.Printf("processQueueWorker: shutting down, waiting for in-flight jobs...")
			w.wg.Wait()
			log.Printf("processQueueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			jobs, err := w.jobRepo.ClaimQueued(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					// Context canceled during poll, exit gracefully
					continue
				}
				log.Printf("processQueueWorker: ClaimQueued error: %v", err)
				continue
			}

			for i := range jobs {
				job := jobs[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Use a fresh context independent of the poll context
					// so in-flight jobs complete even during shutdown.
					jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
					defer cancel()

					log.Printf("processQueueWorker: dispatching job %s (attempt %d)", job.ID, job.ProcessAttempts)
					w.docService.ProcessDocument(jobCtx, &job, w.cfg.MaxRetries)
				}()
			}
		}
	}
}
