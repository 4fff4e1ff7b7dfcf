package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/scamshield/scamshield/internal/analysis"
	"github.com/scamshield/scamshield/internal/httpx"
	"github.com/scamshield/scamshield/internal/observability/metrics"
	"github.com/scamshield/scamshield/pkg/logging"
)

const (
	maxBodyBytes  = 10 << 20
	maxImageBytes = 5 << 20
	maxTextChars  = 10000
	maxImages     = 10
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// AnalysisEngine runs the verdict pipeline.
type AnalysisEngine interface {
	Analyze(ctx context.Context, sub analysis.Submission) (*analysis.Outcome, error)
}

// AnalyzeHandler serves POST /api/analyze.
type AnalyzeHandler struct {
	engine  AnalysisEngine
	metrics *metrics.AnalysisMetrics
	logger  *logging.Logger
}

// NewAnalyzeHandler creates the analyze handler.
func NewAnalyzeHandler(engine AnalysisEngine, m *metrics.AnalysisMetrics, logger *logging.Logger) *AnalyzeHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AnalyzeHandler{engine: engine, metrics: m, logger: logger.Component("analyze")}
}

type analyzeRequest struct {
	Text        string         `json:"text"`
	Images      []imagePayload `json:"images"`
	CountryCode string         `json:"countryCode"`
}

type imagePayload struct {
	Data      string `json:"data"`
	MediaType string `json:"mediaType"`
}

type analyzeResponse struct {
	Verdict         analysis.Verdict          `json:"verdict"`
	Confidence      float64                   `json:"confidence"`
	Summary         string                    `json:"summary"`
	RedFlags        []string                  `json:"redFlags"`
	NextSteps       []string                  `json:"nextSteps"`
	URLsChecked     []string                  `json:"urlsChecked"`
	MaliciousURLs   []string                  `json:"maliciousURLs"`
	CountryCode     string                    `json:"countryCode,omitempty"`
	ScammerContacts *analysis.ScammerContacts `json:"scammerContacts,omitempty"`
	ScammerURLs     []string                  `json:"scammerUrls,omitempty"`
}

// Analyze handles POST /api/analyze.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	// Reject oversized payloads before reading the body.
	if r.ContentLength > maxBodyBytes {
		writeError(w, h.logger, httpx.NewPayloadTooLargeError("request body exceeds 10MB"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, httpx.NewValidationError("body", "invalid JSON"))
		return
	}

	sub, err := buildSubmission(req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	start := time.Now()
	out, err := h.engine.Analyze(r.Context(), sub)
	if err != nil {
		writeError(w, h.logger, &httpx.UpstreamError{Op: "analysis", Err: err})
		return
	}
	h.observe(out, time.Since(start))

	writeJSON(w, h.logger, http.StatusOK, buildResponse(req.CountryCode, out))
}

func buildSubmission(req analyzeRequest) (analysis.Submission, error) {
	var sub analysis.Submission

	if req.Text == "" && len(req.Images) == 0 {
		return sub, httpx.NewValidationError("body", "text or images required")
	}
	if utf8.RuneCountInString(req.Text) > maxTextChars {
		return sub, httpx.NewValidationError("text", "text exceeds 10,000 characters")
	}
	if len(req.Images) > maxImages {
		return sub, httpx.NewValidationError("images", "at most 10 images allowed")
	}

	sub.Text = req.Text
	for _, img := range req.Images {
		if !allowedImageTypes[img.MediaType] {
			return analysis.Submission{}, httpx.NewValidationError("images", "unsupported image type")
		}
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			return analysis.Submission{}, httpx.NewValidationError("images", "invalid base64 image data")
		}
		if len(data) == 0 {
			return analysis.Submission{}, httpx.NewValidationError("images", "empty image")
		}
		if len(data) > maxImageBytes {
			return analysis.Submission{}, httpx.NewPayloadTooLargeError("image exceeds 5MB")
		}
		sub.Images = append(sub.Images, analysis.Image{Data: data, MediaType: img.MediaType})
	}
	return sub, nil
}

func buildResponse(countryCode string, out *analysis.Outcome) analyzeResponse {
	resp := analyzeResponse{
		Verdict:       out.Result.Verdict,
		Confidence:    out.Result.Confidence,
		Summary:       out.Result.Summary,
		RedFlags:      out.Result.RedFlags,
		NextSteps:     out.Result.NextSteps,
		URLsChecked:   []string{},
		MaliciousURLs: []string{},
		CountryCode:   countryCode,
	}
	if resp.RedFlags == nil {
		resp.RedFlags = []string{}
	}
	if resp.NextSteps == nil {
		resp.NextSteps = []string{}
	}
	for _, check := range out.URLChecks {
		resp.URLsChecked = append(resp.URLsChecked, check.URL)
		if check.Malicious {
			resp.MaliciousURLs = append(resp.MaliciousURLs, check.URL)
		}
	}
	if contacts := out.Result.ScammerContacts; contacts != nil {
		resp.ScammerContacts = contacts
		resp.ScammerURLs = contacts.URLs
	}
	return resp
}

func (h *AnalyzeHandler) observe(out *analysis.Outcome, elapsed time.Duration) {
	h.metrics.ObserveAnalysis(string(out.Result.Verdict), out.CacheHit, elapsed)
	if out.Injection.Detected {
		h.metrics.ObserveInjection()
	}
	for _, check := range out.URLChecks {
		if !check.Malicious {
			continue
		}
		for _, source := range check.Sources {
			h.metrics.ObserveMaliciousURL(source)
		}
	}
}
