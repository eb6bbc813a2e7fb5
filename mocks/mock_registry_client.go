package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"doklado/internal/port"
)

// MockRegistryClient is a mock implementation of port.RegistryClient.
type MockRegistryClient struct {
	mock.Mock
}

func (m *MockRegistryClient) Lookup(ctx context.Context, registryID string) (*port.RegistryEntity, error) {
	args := m.Called(ctx, registryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.RegistryEntity), args.Error(1)
}
