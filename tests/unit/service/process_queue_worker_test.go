package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"doklado/internal/domain"
	"doklado/internal/service"
	"doklado/mocks"
)

func TestProcessQueueWorker_DispatchesClaimedJobs(t *testing.T) {
	jobRepo := new(mocks.MockJobRepository)
	docService := new(mocks.MockDocumentService)

	jobID := uuid.New()
	processed := make(chan struct{})

	jobRepo.On("ClaimQueued", mock.Anything, mock.Anything).
		Return([]domain.DocumentJob{{ID: jobID, Status: domain.JobStatusReceived}}, nil).Once()
	jobRepo.On("ClaimQueued", mock.Anything, mock.Anything).
		Return([]domain.DocumentJob{}, nil)
	docService.On("ProcessDocument", mock.Anything, mock.MatchedBy(func(job *domain.DocumentJob) bool {
		return job.ID == jobID
	}), 3).Run(func(mock.Arguments) {
		close(processed)
	}).Once()

	worker := service.NewProcessQueueWorker(jobRepo, docService, service.ProcessQueueConfig{
		PollInterval: 10 * time.Millisecond,
		MaxRetries:   3,
		Concurrency:  2,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	select {
	case <-processed:
	case <-time.After(2 * time.Second):
		t.Fatal("job was never dispatched")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not shut down")
	}

	docService.AssertExpectations(t)
}

func TestProcessQueueWorker_SurvivesClaimErrors(t *testing.T) {
	jobRepo := new(mocks.MockJobRepository)
	docService := new(mocks.MockDocumentService)

	claimed := make(chan struct{})
	jobRepo.On("ClaimQueued", mock.Anything, mock.Anything).
		Return(nil, errors.New("deadlock detected")).Once()
	jobRepo.On("ClaimQueued", mock.Anything, mock.Anything).
		Return([]domain.DocumentJob{}, nil).Run(func(mock.Arguments) {
		select {
		case claimed <- struct{}{}:
		default:
		}
	})

	worker := service.NewProcessQueueWorker(jobRepo, docService, service.ProcessQueueConfig{
		PollInterval: 10 * time.Millisecond,
		MaxRetries:   3,
		Concurrency:  1,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	// The loop keeps polling after a claim error.
	select {
	case <-claimed:
	case <-time.After(2 * time.Second):
		t.Fatal("worker stopped polling after a claim error")
	}

	cancel()
	<-done
	docService.AssertNotCalled(t, "ProcessDocument", mock.Anything, mock.Anything, mock.Anything)
}
