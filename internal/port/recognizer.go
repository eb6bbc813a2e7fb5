package port

import (
	"context"

	"doklado/internal/domain"
)

// Recognizer abstracts one text-recognition backend (cloud or local).
// Implementations must respect the context deadline and return a tagged
// *ProviderError for recoverable provider failures instead of panicking.
// Adapters hold no cross-call state.
type Recognizer interface {
	Recognize(ctx context.Context, fileBytes []byte, contentType string) (*domain.OCRResult, error)
	ProviderID() string
}
