package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"doklado/internal/domain"
	"doklado/internal/service"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// DocumentHandler handles document job endpoints.
type DocumentHandler struct {
	docService service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(docService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

// Upload handles POST /api/v1/documents
// Multipart form: file (required), plus optional processing fields:
// mode, max_cost, min_confidence, enable_fallbacks, enable_enrichment,
// language, notify_email.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "multipart field 'file' is required")
		return
	}
	defer file.Close()

	opts, err := parseProcessingOptions(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_OPTIONS", err.Error())
		return
	}

	job, err := h.docService.Upload(c.Request.Context(), service.DocumentUploadInput{
		File:        file,
		Header:      header,
		Options:     opts,
		NotifyEmail: c.PostForm("notify_email"),
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, job)
}

// GetByID handles GET /api/v1/documents/:id
func (h *DocumentHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID")
		return
	}

	job, err := h.docService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, job)
}

// List handles GET /api/v1/documents?offset=0&limit=20
func (h *DocumentHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > maxPageLimit {
		limit = defaultPageLimit
	}

	jobs, total, err := h.docService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, jobs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Reprocess handles POST /api/v1/documents/:id/reprocess
// Accepts the same processing fields as Upload, as form or query values.
func (h *DocumentHandler) Reprocess(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID")
		return
	}

	opts, err := parseProcessingOptions(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_OPTIONS", err.Error())
		return
	}

	job, err := h.docService.Reprocess(c.Request.Context(), id, opts)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, job)
}

// parseProcessingOptions reads processing fields from the request, starting
// from the defaults so absent fields keep their documented values.
func parseProcessingOptions(c *gin.Context) (domain.ProcessingOptions, error) {
	opts := domain.DefaultProcessingOptions()

	if v := formOrQuery(c, "mode"); v != "" {
		mode := domain.ProcessingMode(v)
		switch mode {
		case domain.ModeCostOptimized, domain.ModeAccuracyFirst, domain.ModeSpeedFirst, domain.ModeBudgetStrict:
			opts.Mode = mode
		default:
			return opts, &optionError{field: "mode", value: v}
		}
	}
	if v := formOrQuery(c, "max_cost"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return opts, &optionError{field: "max_cost", value: v}
		}
		opts.MaxCost = f
	}
	if v := formOrQuery(c, "min_confidence"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return opts, &optionError{field: "min_confidence", value: v}
		}
		opts.MinConfidence = f
	}
	if v := formOrQuery(c, "enable_fallbacks"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, &optionError{field: "enable_fallbacks", value: v}
		}
		opts.EnableFallbacks = b
	}
	if v := formOrQuery(c, "enable_enrichment"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, &optionError{field: "enable_enrichment", value: v}
		}
		opts.EnableEnrichment = b
	}
	if v := formOrQuery(c, "language"); v != "" {
		opts.Language = v
	}
	return opts, nil
}

func formOrQuery(c *gin.Context, key string) string {
	if v := c.PostForm(key); v != "" {
		return v
	}
	return c.Query(key)
}

type optionError struct {
	field string
	value string
}

func (e *optionError) Error() string {
	return "invalid value " + strconv.Quote(e.value) + " for option " + e.field
}
