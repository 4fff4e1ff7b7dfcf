// Package handlers wires HTTP requests to the analysis and media services.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/scamshield/scamshield/internal/httpx"
	"github.com/scamshield/scamshield/pkg/logging"
)

func writeJSON(w http.ResponseWriter, logger *logging.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to write JSON response", "error", err)
	}
}

// writeError maps typed errors to status codes. Anything unrecognized
// becomes a generic 500 so internal detail never reaches the client.
func writeError(w http.ResponseWriter, logger *logging.Logger, err error) {
	var validation *httpx.ValidationError
	if errors.As(err, &validation) {
		status := http.StatusBadRequest
		if validation.TooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, logger, status, map[string]string{"error": validation.Message})
		return
	}

	var quota *httpx.QuotaExceededError
	if errors.As(err, &quota) {
		writeJSON(w, logger, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
		return
	}

	var upstream *httpx.UpstreamError
	if errors.As(err, &upstream) {
		logger.Error("upstream dependency failed", "op", upstream.Op, "error", upstream.Err)
		writeJSON(w, logger, http.StatusInternalServerError, map[string]string{"error": "analysis failed, please try again"})
		return
	}

	logger.Error("request failed", "error", err)
	writeJSON(w, logger, http.StatusInternalServerError, map[string]string{"error": "analysis failed, please try again"})
}
