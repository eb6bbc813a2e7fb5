package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"doklado/internal/domain"
)

// MockRecognizer is a mock implementation of port.Recognizer.
type MockRecognizer struct {
	mock.Mock
}

func (m *MockRecognizer) Recognize(ctx context.Context, fileBytes []byte, contentType string) (*domain.OCRResult, error) {
	args := m.Called(ctx, fileBytes, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OCRResult), args.Error(1)
}

func (m *MockRecognizer) ProviderID() string {
	args := m.Called()
	return args.String(0)
}
