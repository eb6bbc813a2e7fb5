package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProcessingOptions configures one pipeline run. Recognized by the
// orchestrator; persisted alongside the job as JSONB.
type ProcessingOptions struct {
	Mode             ProcessingMode `json:"mode"`
	MaxCost          float64        `json:"max_cost"`
	MinConfidence    float64        `json:"min_confidence"`
	EnableFallbacks  bool           `json:"enable_fallbacks"`
	EnableEnrichment bool           `json:"enable_enrichment"`
	Language         string         `json:"language"`
}

// DefaultProcessingOptions returns the options used when the caller
// supplies none.
func DefaultProcessingOptions() ProcessingOptions {
	return ProcessingOptions{
		Mode:             ModeCostOptimized,
		MaxCost:          0.50,
		MinConfidence:    0.60,
		EnableFallbacks:  true,
		EnableEnrichment: true,
		Language:         "cs",
	}
}

// DocumentJob is the persistent unit of work: one uploaded document plus its
// processing configuration and, once finished, the pipeline result. The raw
// bytes live in object storage under S3Bucket/S3Key.
type DocumentJob struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	OriginalName    string          `db:"original_name" json:"original_name"`
	ContentType     string          `db:"content_type" json:"content_type"`
	FileSize        int64           `db:"file_size" json:"file_size"`
	S3Bucket        string          `db:"s3_bucket" json:"-"`
	S3Key           string          `db:"s3_key" json:"-"`
	Status          JobStatus       `db:"status" json:"status"`
	Options         json.RawMessage `db:"options" json:"options"`
	Result          json.RawMessage `db:"result" json:"result,omitempty"`
	ErrorCode       string          `db:"error_code" json:"error_code,omitempty"`
	ProcessAttempts int             `db:"process_attempts" json:"process_attempts"`
	ProcessedAt     *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	NotifyEmail     string          `db:"notify_email" json:"notify_email,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// DecodeOptions unmarshals the job's stored options, falling back to the
// defaults when the column is empty or malformed.
func (j *DocumentJob) DecodeOptions() ProcessingOptions {
	opts := DefaultProcessingOptions()
	if len(j.Options) > 0 {
		_ = json.Unmarshal(j.Options, &opts)
	}
	return opts
}
