package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scamshield/scamshield/internal/httpx"
	"github.com/scamshield/scamshield/internal/media"
	"github.com/scamshield/scamshield/internal/observability/metrics"
	"github.com/scamshield/scamshield/pkg/logging"
)

// MediaService drives media job lifecycles.
type MediaService interface {
	CreateUpload(ctx context.Context, contentType string) (*media.UploadTicket, error)
	Analyze(ctx context.Context, jobID string) (*media.JobRecord, error)
	Status(ctx context.Context, jobID string) (*media.JobRecord, error)
}

// MediaHandler serves the /api/media routes.
type MediaHandler struct {
	service MediaService
	metrics *metrics.AnalysisMetrics
	logger  *logging.Logger
}

// NewMediaHandler creates the media handler.
func NewMediaHandler(service MediaService, m *metrics.AnalysisMetrics, logger *logging.Logger) *MediaHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &MediaHandler{service: service, metrics: m, logger: logger.Component("media_http")}
}

type uploadRequest struct {
	ContentType string `json:"contentType"`
}

// Upload handles POST /api/media/upload.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, httpx.NewValidationError("body", "invalid JSON"))
		return
	}
	if req.ContentType == "" {
		writeError(w, h.logger, httpx.NewValidationError("contentType", "contentType required"))
		return
	}

	ticket, err := h.service.CreateUpload(r.Context(), req.ContentType)
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedMedia) {
			writeError(w, h.logger, httpx.NewValidationError("contentType", "unsupported media type"))
			return
		}
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, ticket)
}

// Analyze handles POST /api/media/{jobID}/analyze. Repeat calls return the
// job's current state without re-running the pipeline.
func (h *MediaHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := h.service.Analyze(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, media.ErrJobNotFound) {
			writeJSON(w, h.logger, http.StatusNotFound, map[string]string{"error": "job not found"})
			return
		}
		writeError(w, h.logger, err)
		return
	}

	if job.Status.Terminal() {
		h.metrics.ObserveMediaJob(string(job.Status))
	}
	writeJSON(w, h.logger, http.StatusAccepted, job)
}

// Status handles GET /api/media/{jobID}.
func (h *MediaHandler) Status(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := h.service.Status(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, media.ErrJobNotFound) {
			writeJSON(w, h.logger, http.StatusNotFound, map[string]string{"error": "job not found"})
			return
		}
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, job)
}
