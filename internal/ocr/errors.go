package ocr

import "fmt"

// ProviderError tags a recoverable recognition-backend failure (quota,
// transport, timeout) with its provider. Adapters return it instead of
// panicking; the fusion engine treats it as "this provider contributed
// nothing".
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("ocr provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError wraps err as a tagged provider failure.
func NewProviderError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Err: err}
}
