package domain

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// JobStatus tracks a document job through the extraction state machine.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusReceived   JobStatus = "received"
	JobStatusOCR        JobStatus = "ocr"
	JobStatusRouting    JobStatus = "routing"
	JobStatusExtracting JobStatus = "extracting"
	JobStatusParsing    JobStatus = "parsing"
	JobStatusValidating JobStatus = "validating"
	JobStatusEnriching  JobStatus = "enriching"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// Complexity classifies how hard a document is to extract.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// Tier identifies an extraction model tier in increasing cost/capability order.
type Tier string

const (
	TierFast     Tier = "fast"
	TierBalanced Tier = "balanced"
	TierPremium  Tier = "premium"
)

// ProcessingMode selects the cost/accuracy trade-off for a job.
type ProcessingMode string

const (
	ModeCostOptimized ProcessingMode = "cost_optimized"
	ModeAccuracyFirst ProcessingMode = "accuracy_first"
	ModeSpeedFirst    ProcessingMode = "speed_first"
	ModeBudgetStrict  ProcessingMode = "budget_strict"
)

// ErrorCode classifies pipeline failures carried in the result envelope.
type ErrorCode string

const (
	ErrCodeProviderUnavailable    ErrorCode = "provider_unavailable"
	ErrCodeParseFailure           ErrorCode = "parse_failure"
	ErrCodeValidationFailure      ErrorCode = "validation_failure"
	ErrCodeBudgetExceeded         ErrorCode = "budget_exceeded"
	ErrCodeEnrichmentUnavailable  ErrorCode = "enrichment_unavailable"
	ErrCodeNoTextExtracted        ErrorCode = "no_text_extracted"
	ErrCodeNoAcceptableExtraction ErrorCode = "no_acceptable_extraction"
	ErrCodeUnsupportedMIME        ErrorCode = "unsupported_mime"
	ErrCodeCancelled              ErrorCode = "cancelled"
)
