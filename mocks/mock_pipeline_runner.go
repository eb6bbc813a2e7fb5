package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"doklado/internal/domain"
	"doklado/internal/pipeline"
)

// MockPipelineRunner is a mock implementation of service.PipelineRunner.
type MockPipelineRunner struct {
	mock.Mock
}

func (m *MockPipelineRunner) Run(ctx context.Context, fileBytes []byte, contentType string, opts domain.ProcessingOptions, status pipeline.StatusFunc) *domain.PipelineResult {
	args := m.Called(ctx, fileBytes, contentType, opts, status)
	return args.Get(0).(*domain.PipelineResult)
}
