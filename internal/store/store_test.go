package store

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scamshield/scamshield/internal/analysis"
	"github.com/scamshield/scamshield/pkg/logging"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewStore(mock, logging.New("error")), mock
}

func TestSaveReport(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO scam_reports").
		WithArgs(pgxmock.AnyArg(), "HIGH_RISK", "phishing", "Acme Bank", "sms",
			"credential phishing", "Your account [EMAIL] is locked", []string{"http://203.0.113.9/login"}).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveReport(context.Background(), analysis.Report{
		Verdict:           analysis.VerdictHighRisk,
		ScamType:          "phishing",
		ImpersonatedBrand: "Acme Bank",
		Channel:           "sms",
		Summary:           "credential phishing",
		ScrubbedText:      "Your account [EMAIL] is locked",
		MaliciousURLs:     []string{"http://203.0.113.9/login"},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordAnalysis(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO analysis_stats").
		WithArgs("SAFE", 0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO analysis_stats").
		WithArgs("HIGH_RISK", 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.RecordAnalysis(context.Background(), analysis.VerdictSafe, false))
	require.NoError(t, s.RecordAnalysis(context.Background(), analysis.VerdictHighRisk, true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentStats(t *testing.T) {
	s, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{"day", "verdict", "total", "cache_hits"}).
		AddRow("2026-03-02", "HIGH_RISK", int64(12), int64(4)).
		AddRow("2026-03-01", "SAFE", int64(30), int64(11))
	mock.ExpectQuery("SELECT day::text, verdict, total, cache_hits").
		WithArgs(7).
		WillReturnRows(rows)

	stats, err := s.RecentStats(context.Background(), 7)

	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, analysis.VerdictHighRisk, stats[0].Verdict)
	assert.Equal(t, int64(12), stats[0].Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreErrorsWrapped(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO scam_reports").
		WillReturnError(errors.New("connection refused"))

	err := s.SaveReport(context.Background(), analysis.Report{Verdict: analysis.VerdictHighRisk})
	assert.ErrorContains(t, err, "store: insert report")
}

func TestNilPoolIsNoOp(t *testing.T) {
	s := NewStore(nil, nil)
	ctx := context.Background()

	assert.NoError(t, s.SaveReport(ctx, analysis.Report{}))
	assert.NoError(t, s.RecordAnalysis(ctx, analysis.VerdictSafe, false))
}
