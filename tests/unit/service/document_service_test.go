package service_test

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"doklado/internal/config"
	"doklado/internal/domain"
	"doklado/internal/port"
	"doklado/internal/service"
	"doklado/mocks"
)

var pngContent = append(
	[]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	bytes.Repeat([]byte{0x00}, 64)...,
)

var pdfContent = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n%%EOF\n")

func createMultipartFile(t *testing.T, filename string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	header := form.File["file"][0]
	file, err := header.Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })

	return file, header
}

type serviceFixture struct {
	jobRepo *mocks.MockJobRepository
	storage *mocks.MockObjectStorage
	runner  *mocks.MockPipelineRunner
	email   *mocks.MockEmailSender
	svc     service.DocumentService
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		jobRepo: new(mocks.MockJobRepository),
		storage: new(mocks.MockObjectStorage),
		runner:  new(mocks.MockPipelineRunner),
		email:   new(mocks.MockEmailSender),
	}
	f.svc = service.NewDocumentService(f.jobRepo, f.storage, f.runner, f.email, &config.S3Config{
		Bucket:        "doklado-test",
		MaxFileSizeMB: 1,
	})
	return f
}

func uploadInput(t *testing.T, filename string, content []byte) service.DocumentUploadInput {
	t.Helper()
	file, header := createMultipartFile(t, filename, content)
	return service.DocumentUploadInput{
		File:    file,
		Header:  header,
		Options: domain.DefaultProcessingOptions(),
	}
}

func TestUpload_ValidPNG(t *testing.T) {
	f := newServiceFixture()
	f.storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{ETag: "abc123"}, nil).Once()
	f.jobRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	job, err := f.svc.Upload(context.Background(), uploadInput(t, "uctenka.png", pngContent))

	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusQueued, job.Status)
	assert.Equal(t, "uctenka.png", job.OriginalName)
	assert.Equal(t, "image/png", job.ContentType)
	assert.Equal(t, "doklado-test", job.S3Bucket)
	assert.True(t, strings.HasPrefix(job.S3Key, "documents/"))
	assert.True(t, strings.HasSuffix(job.S3Key, "/uctenka.png"))
	assert.NotEmpty(t, job.Options)
	f.storage.AssertExpectations(t)
	f.jobRepo.AssertExpectations(t)
}

func TestUpload_ValidPDF(t *testing.T) {
	f := newServiceFixture()
	f.storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{ETag: "abc123"}, nil).Once()
	f.jobRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	job, err := f.svc.Upload(context.Background(), uploadInput(t, "faktura.pdf", pdfContent))

	require.NoError(t, err)
	assert.Equal(t, "application/pdf", job.ContentType)
}

func TestUpload_RejectsUnsupportedExtension(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.Upload(context.Background(), uploadInput(t, "faktura.txt", []byte("hello")))

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestUpload_RejectsOversizedFile(t *testing.T) {
	f := newServiceFixture()
	big := append(append([]byte{}, pngContent...), bytes.Repeat([]byte{0xAB}, 2<<20)...)

	_, err := f.svc.Upload(context.Background(), uploadInput(t, "velky.png", big))

	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestUpload_RejectsEmptyFile(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.Upload(context.Background(), uploadInput(t, "prazdny.png", nil))

	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestUpload_RejectsMismatchedMagicBytes(t *testing.T) {
	f := newServiceFixture()

	// Named .png but carries plain text. The sniffed type wins.
	_, err := f.svc.Upload(context.Background(), uploadInput(t, "podvrh.png", []byte("just some text")))

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestUpload_StorageFailure(t *testing.T) {
	f := newServiceFixture()
	f.storage.On("Upload", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset")).Once()

	_, err := f.svc.Upload(context.Background(), uploadInput(t, "uctenka.png", pngContent))

	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	f.jobRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetByID_Passthrough(t *testing.T) {
	f := newServiceFixture()
	id := uuid.New()
	f.jobRepo.On("GetByID", mock.Anything, id).
		Return(&domain.DocumentJob{ID: id, Status: domain.JobStatusDone}, nil).Once()

	job, err := f.svc.GetByID(context.Background(), id)

	require.NoError(t, err)
	assert.Equal(t, id, job.ID)
}

func TestList_Passthrough(t *testing.T) {
	f := newServiceFixture()
	f.jobRepo.On("List", mock.Anything, 0, 20).
		Return([]domain.DocumentJob{{ID: uuid.New()}, {ID: uuid.New()}}, 2, nil).Once()

	jobs, total, err := f.svc.List(context.Background(), 0, 20)

	require.NoError(t, err)
	assert.Len(t, jobs, 2)
	assert.Equal(t, 2, total)
}

func TestReprocess_RequeuesWithNewOptions(t *testing.T) {
	f := newServiceFixture()
	id := uuid.New()
	queued := &domain.DocumentJob{ID: id, Status: domain.JobStatusQueued}
	f.jobRepo.On("GetByID", mock.Anything, id).Return(queued, nil).Twice()
	f.jobRepo.On("Requeue", mock.Anything, id, mock.Anything).Return(nil).Once()

	opts := domain.DefaultProcessingOptions()
	opts.Mode = domain.ModeAccuracyFirst
	job, err := f.svc.Reprocess(context.Background(), id, opts)

	require.NoError(t, err)
	assert.Equal(t, id, job.ID)
	f.jobRepo.AssertExpectations(t)
}

func TestReprocess_UnknownJob(t *testing.T) {
	f := newServiceFixture()
	id := uuid.New()
	f.jobRepo.On("GetByID", mock.Anything, id).Return(nil, domain.ErrJobNotFound).Once()

	_, err := f.svc.Reprocess(context.Background(), id, domain.DefaultProcessingOptions())

	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	f.jobRepo.AssertNotCalled(t, "Requeue", mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessDocument_Success(t *testing.T) {
	f := newServiceFixture()
	job := &domain.DocumentJob{
		ID:       uuid.New(),
		S3Bucket: "doklado-test",
		S3Key:    "documents/x/uctenka.png",
	}
	f.storage.On("Download", mock.Anything, "doklado-test", job.S3Key).
		Return(pngContent, nil).Once()
	f.runner.On("Run", mock.Anything, pngContent, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.PipelineResult{Success: true, Confidence: 0.85}).Once()
	f.jobRepo.On("UpdateResult", mock.Anything, job).Return(nil).Once()

	f.svc.ProcessDocument(context.Background(), job, 3)

	assert.Equal(t, domain.JobStatusDone, job.Status)
	assert.Empty(t, job.ErrorCode)
	assert.NotNil(t, job.ProcessedAt)
	assert.NotEmpty(t, job.Result)
	f.email.AssertNotCalled(t, "SendProcessingFailedEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.jobRepo.AssertExpectations(t)
}

func TestProcessDocument_PipelineFailureNotifies(t *testing.T) {
	f := newServiceFixture()
	job := &domain.DocumentJob{
		ID:           uuid.New(),
		OriginalName: "faktura.pdf",
		S3Bucket:     "doklado-test",
		S3Key:        "documents/x/faktura.pdf",
		NotifyEmail:  "ucetni@example.cz",
	}
	f.storage.On("Download", mock.Anything, mock.Anything, mock.Anything).
		Return(pdfContent, nil).Once()
	f.runner.On("Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.PipelineResult{
			Success: false,
			Errors: []domain.PipelineError{
				{Code: domain.ErrCodeNoAcceptableExtraction, Message: "extraction chain exhausted without reaching the confidence target"},
			},
		}).Once()
	f.jobRepo.On("UpdateResult", mock.Anything, job).Return(nil).Once()
	f.email.On("SendProcessingFailedEmail", mock.Anything, "ucetni@example.cz", "faktura.pdf", mock.Anything).
		Return(nil).Once()

	f.svc.ProcessDocument(context.Background(), job, 3)

	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Equal(t, string(domain.ErrCodeNoAcceptableExtraction), job.ErrorCode)
	f.email.AssertExpectations(t)
}

func TestProcessDocument_TransientDownloadFailureRequeues(t *testing.T) {
	f := newServiceFixture()
	job := &domain.DocumentJob{
		ID:              uuid.New(),
		S3Bucket:        "doklado-test",
		S3Key:           "documents/x/uctenka.png",
		ProcessAttempts: 1,
	}
	f.storage.On("Download", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("timeout")).Once()
	f.jobRepo.On("UpdateStatus", mock.Anything, job.ID, domain.JobStatusQueued).Return(nil).Once()

	f.svc.ProcessDocument(context.Background(), job, 3)

	f.jobRepo.AssertExpectations(t)
	f.jobRepo.AssertNotCalled(t, "UpdateResult", mock.Anything, mock.Anything)
	f.runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessDocument_RetriesExhausted(t *testing.T) {
	f := newServiceFixture()
	job := &domain.DocumentJob{
		ID:              uuid.New(),
		OriginalName:    "uctenka.png",
		S3Bucket:        "doklado-test",
		S3Key:           "documents/x/uctenka.png",
		ProcessAttempts: 3,
		NotifyEmail:     "ucetni@example.cz",
	}
	f.storage.On("Download", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("timeout")).Once()
	f.jobRepo.On("UpdateResult", mock.Anything, job).Return(nil).Once()
	f.email.On("SendProcessingFailedEmail", mock.Anything, "ucetni@example.cz", "uctenka.png", mock.Anything).
		Return(nil).Once()

	f.svc.ProcessDocument(context.Background(), job, 3)

	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Equal(t, string(domain.ErrCodeProviderUnavailable), job.ErrorCode)
	f.jobRepo.AssertExpectations(t)
	f.email.AssertExpectations(t)
}
