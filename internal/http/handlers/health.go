package handlers

import (
	"net/http"

	"github.com/scamshield/scamshield/pkg/logging"
)

// HealthHandler answers load balancer probes.
type HealthHandler struct {
	logger *logging.Logger
}

func NewHealthHandler(logger *logging.Logger) *HealthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &HealthHandler{logger: logger}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "scamshield-api",
	})
}
