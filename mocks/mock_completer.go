package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"doklado/internal/port"
)

// MockCompleter is a mock implementation of port.Completer.
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, input port.CompleteInput) (*port.CompleteOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.CompleteOutput), args.Error(1)
}
