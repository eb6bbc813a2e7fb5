package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"doklado/internal/config"
	"doklado/internal/domain"
	"doklado/internal/pipeline"
	"doklado/internal/port"
)

// PipelineRunner is the extraction pipeline contract the service drives.
type PipelineRunner interface {
	Run(ctx context.Context, fileBytes []byte, contentType string, opts domain.ProcessingOptions, status pipeline.StatusFunc) *domain.PipelineResult
}

// DocumentUploadInput is the DTO for document upload requests.
type DocumentUploadInput struct {
	File        multipart.File
	Header      *multipart.FileHeader
	Options     domain.ProcessingOptions
	NotifyEmail string
}

// DocumentService defines the document job contract.
type DocumentService interface {
	Upload(ctx context.Context, input DocumentUploadInput) (*domain.DocumentJob, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DocumentJob, error)
	List(ctx context.Context, offset, limit int) ([]domain.DocumentJob, int, error)
	Reprocess(ctx context.Context, id uuid.UUID, opts domain.ProcessingOptions) (*domain.DocumentJob, error)
	ProcessDocument(ctx context.Context, job *domain.DocumentJob, maxRetries int)
}

type documentService struct {
	jobRepo  port.JobRepository
	storage  port.ObjectStorage
	pipeline PipelineRunner
	email    port.EmailSender
	cfg      *config.S3Config
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(
	jobRepo port.JobRepository,
	storage port.ObjectStorage,
	runner PipelineRunner,
	email port.EmailSender,
	cfg *config.S3Config,
) DocumentService {
	return &documentService{
		jobRepo:  jobRepo,
		storage:  storage,
		pipeline: runner,
		email:    email,
		cfg:      cfg,
	}
}

func (s *documentService) Upload(ctx context.Context, input DocumentUploadInput) (*domain.DocumentJob, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.Header.Filename), "."))
	if _, ok := domain.AllowedExtensions[ext]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	maxBytes := s.cfg.MaxFileSizeMB * 1024 * 1024
	if input.Header.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	if input.Header.Size == 0 {
		return nil, domain.ErrEmptyDocument
	}

	fileBytes, err := io.ReadAll(input.File)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	// Trust the magic bytes, not the declared content type or extension.
	contentType := mimetype.Detect(fileBytes).String()
	if _, ok := domain.AllowedContentTypes[contentType]; !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	optionsJSON, err := json.Marshal(input.Options)
	if err != nil {
		return nil, fmt.Errorf("marshaling options: %w", err)
	}

	jobID := uuid.New()
	s3Key := fmt.Sprintf("documents/%s/%s", jobID, input.Header.Filename)

	if _, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         s3Key,
		Body:        bytes.NewReader(fileBytes),
		ContentType: contentType,
		Size:        int64(len(fileBytes)),
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	job := &domain.DocumentJob{
		ID:           jobID,
		OriginalName: input.Header.Filename,
		ContentType:  contentType,
		FileSize:     int64(len(fileBytes)),
		S3Bucket:     s.cfg.Bucket,
		S3Key:        s3Key,
		Status:       domain.JobStatusQueued,
		Options:      optionsJSON,
		NotifyEmail:  input.NotifyEmail,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *documentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.DocumentJob, error) {
	return s.jobRepo.GetByID(ctx, id)
}

func (s *documentService) List(ctx context.Context, offset, limit int) ([]domain.DocumentJob, int, error) {
	return s.jobRepo.List(ctx, offset, limit)
}

func (s *documentService) Reprocess(ctx context.Context, id uuid.UUID, opts domain.ProcessingOptions) (*domain.DocumentJob, error) {
	if _, err := s.jobRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	optionsJSON, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("marshaling options: %w", err)
	}
	if err := s.jobRepo.Requeue(ctx, id, optionsJSON); err != nil {
		return nil, err
	}
	return s.jobRepo.GetByID(ctx, id)
}
