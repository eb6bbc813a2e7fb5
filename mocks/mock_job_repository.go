package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"doklado/internal/domain"
)

// MockJobRepository is a mock implementation of port.JobRepository.
type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) Create(ctx context.Context, job *domain.DocumentJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DocumentJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DocumentJob), args.Error(1)
}

func (m *MockJobRepository) List(ctx context.Context, offset, limit int) ([]domain.DocumentJob, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.DocumentJob), args.Int(1), args.Error(2)
}

func (m *MockJobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.JobStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockJobRepository) UpdateResult(ctx context.Context, job *domain.DocumentJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepository) Requeue(ctx context.Context, id uuid.UUID, options []byte) error {
	args := m.Called(ctx, id, options)
	return args.Error(0)
}

func (m *MockJobRepository) ClaimQueued(ctx context.Context, limit int) ([]domain.DocumentJob, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DocumentJob), args.Error(1)
}
