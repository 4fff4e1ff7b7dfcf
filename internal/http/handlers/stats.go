package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/scamshield/scamshield/internal/httpx"
	"github.com/scamshield/scamshield/internal/store"
	"github.com/scamshield/scamshield/pkg/logging"
)

const maxStatsDays = 90

// StatsProvider returns the per-day aggregate analysis counters.
type StatsProvider interface {
	RecentStats(ctx context.Context, days int) ([]store.DailyStat, error)
}

// StatsHandler serves GET /api/stats.
type StatsHandler struct {
	stats  StatsProvider
	logger *logging.Logger
}

// NewStatsHandler creates the stats handler.
func NewStatsHandler(stats StatsProvider, logger *logging.Logger) *StatsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &StatsHandler{stats: stats, logger: logger.Component("stats")}
}

type statsResponse struct {
	Days  int               `json:"days"`
	Stats []store.DailyStat `json:"stats"`
}

// Recent handles GET /api/stats. The optional days query parameter defaults
// to 7 and is clamped to 90.
func (h *StatsHandler) Recent(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, h.logger, httpx.NewValidationError("days", "days must be a positive integer"))
			return
		}
		if n > maxStatsDays {
			n = maxStatsDays
		}
		days = n
	}

	stats, err := h.stats.RecentStats(r.Context(), days)
	if err != nil {
		writeError(w, h.logger, &httpx.UpstreamError{Op: "stats", Err: err})
		return
	}
	if stats == nil {
		stats = []store.DailyStat{}
	}
	writeJSON(w, h.logger, http.StatusOK, statsResponse{Days: days, Stats: stats})
}
