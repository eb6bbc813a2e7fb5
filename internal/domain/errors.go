package domain

import "errors"

var (
	ErrJobNotFound           = errors.New("document job not found")
	ErrUnsupportedFileType   = errors.New("unsupported file type")
	ErrFileTooLarge          = errors.New("file exceeds maximum allowed size")
	ErrEmptyDocument         = errors.New("document contains no bytes")
	ErrUploadFailed          = errors.New("file upload to storage failed")
	ErrNoTextExtracted       = errors.New("no text could be extracted from document")
	ErrBudgetExceeded        = errors.New("extraction cost exceeds job budget")
	ErrChainExhausted        = errors.New("extraction fallback chain exhausted")
	ErrRegistryNotFound      = errors.New("identifier not found in business registry")
	ErrRegistryUnavailable   = errors.New("business registry unavailable")
	ErrNoTierFitsConstraints = errors.New("no extraction tier fits the given constraints")
)
