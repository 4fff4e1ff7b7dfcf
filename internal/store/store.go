// Package store persists verified scam reports and aggregate analysis stats
// in Postgres. Reports are written PII-scrubbed only; raw submissions are
// never stored.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/scamshield/scamshield/internal/analysis"
	"github.com/scamshield/scamshield/pkg/logging"
)

// PgxPool is the subset of pgxpool.Pool the store uses.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements report and stats persistence for the verdict engine.
type Store struct {
	pool   PgxPool
	logger *logging.Logger
}

var _ analysis.ReportSaver = (*Store)(nil)
var _ analysis.StatsRecorder = (*Store)(nil)

// NewStore builds a store over the given pool.
func NewStore(pool PgxPool, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// SaveReport inserts a scrubbed high-risk finding.
func (s *Store) SaveReport(ctx context.Context, report analysis.Report) error {
	if s.pool == nil {
		return nil
	}
	query := `
		INSERT INTO scam_reports (id, verdict, scam_type, impersonated_brand, channel, summary, scrubbed_text, malicious_urls)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, query,
		uuid.New(),
		string(report.Verdict),
		report.ScamType,
		report.ImpersonatedBrand,
		report.Channel,
		report.Summary,
		report.ScrubbedText,
		report.MaliciousURLs,
	)
	if err != nil {
		return fmt.Errorf("store: insert report: %w", err)
	}
	return nil
}

// RecordAnalysis bumps the per-day, per-verdict counters. Cache hits count
// toward totals too.
func (s *Store) RecordAnalysis(ctx context.Context, verdict analysis.Verdict, cacheHit bool) error {
	if s.pool == nil {
		return nil
	}
	hit := 0
	if cacheHit {
		hit = 1
	}
	query := `
		INSERT INTO analysis_stats (day, verdict, total, cache_hits)
		VALUES (CURRENT_DATE, $1, 1, $2)
		ON CONFLICT (day, verdict)
		DO UPDATE SET total = analysis_stats.total + 1,
			cache_hits = analysis_stats.cache_hits + $2
	`
	_, err := s.pool.Exec(ctx, query, string(verdict), hit)
	if err != nil {
		return fmt.Errorf("store: record analysis: %w", err)
	}
	return nil
}

// DailyStat is one row of the aggregate counters.
type DailyStat struct {
	Day       string           `json:"day"`
	Verdict   analysis.Verdict `json:"verdict"`
	Total     int64            `json:"total"`
	CacheHits int64            `json:"cacheHits"`
}

// RecentStats returns per-verdict counters for the last n days, newest
// first.
func (s *Store) RecentStats(ctx context.Context, days int) ([]DailyStat, error) {
	if s.pool == nil {
		return nil, nil
	}
	if days <= 0 {
		days = 7
	}
	query := `
		SELECT day::text, verdict, total, cache_hits
		FROM analysis_stats
		WHERE day > CURRENT_DATE - $1::int
		ORDER BY day DESC, verdict
	`
	rows, err := s.pool.Query(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("store: query stats: %w", err)
	}
	defer rows.Close()

	var stats []DailyStat
	for rows.Next() {
		var st DailyStat
		var verdict string
		if err := rows.Scan(&st.Day, &verdict, &st.Total, &st.CacheHits); err != nil {
			return nil, fmt.Errorf("store: scan stats: %w", err)
		}
		st.Verdict = analysis.Verdict(verdict)
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate stats: %w", err)
	}
	return stats, nil
}
