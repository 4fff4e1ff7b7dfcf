package analysis

import (
	"context"
	"strings"

	"github.com/scamshield/scamshield/internal/reputation"
	"github.com/scamshield/scamshield/internal/security"
	"github.com/scamshield/scamshield/pkg/logging"
)

const (
	linkWarningStep      = "Do not click any links in this message."
	manipulationRedFlag  = "The content attempts to manipulate the automated analysis."
	manipulationScamType = "manipulation"
)

// URLChecker resolves reputation for a URL batch.
type URLChecker interface {
	Check(ctx context.Context, urls []string) []reputation.URLCheck
}

// TaskRunner executes persistence side-effects detached from the request
// path. Submit never blocks the caller.
type TaskRunner interface {
	Submit(name string, fn func(ctx context.Context)) bool
}

// StatsRecorder increments aggregate analysis counters.
type StatsRecorder interface {
	RecordAnalysis(ctx context.Context, verdict Verdict, cacheHit bool) error
}

// Report is the PII-scrubbed record persisted for high-risk findings.
type Report struct {
	Verdict           Verdict
	ScamType          string
	ImpersonatedBrand string
	Channel           string
	Summary           string
	ScrubbedText      string
	MaliciousURLs     []string
}

// ReportSaver persists scam reports.
type ReportSaver interface {
	SaveReport(ctx context.Context, report Report) error
}

// Outcome bundles the sanitized result with the signals that produced it.
type Outcome struct {
	Result    *Result
	URLChecks []reputation.URLCheck
	Injection security.InjectionResult
	CacheHit  bool
}

// Engine runs the request-hardening and verdict pipeline.
type Engine struct {
	classifier Classifier
	urls       URLChecker
	cache      *Cache
	tasks      TaskRunner
	stats      StatsRecorder
	reports    ReportSaver
	logger     *logging.Logger
}

// EngineConfig holds engine dependencies. Cache, Tasks, Stats and Reports
// are optional; a nil value disables the corresponding side-effect.
type EngineConfig struct {
	Classifier Classifier
	URLs       URLChecker
	Cache      *Cache
	Tasks      TaskRunner
	Stats      StatsRecorder
	Reports    ReportSaver
	Logger     *logging.Logger
}

// NewEngine creates an Engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Engine{
		classifier: cfg.Classifier,
		urls:       cfg.URLs,
		cache:      cfg.Cache,
		tasks:      cfg.Tasks,
		stats:      cfg.Stats,
		reports:    cfg.Reports,
		logger:     cfg.Logger,
	}
}

// Analyze hardens the submission, runs the classifier concurrently with URL
// reputation, merges the signals and returns a sanitized verdict. Classifier
// failure is fatal; reputation failure degrades to "no signal".
func (e *Engine) Analyze(ctx context.Context, sub Submission) (*Outcome, error) {
	if sub.TextOnly() && e.cache != nil {
		if cached := e.cache.Get(ctx, sub.Text); cached != nil {
			// A cache hit still counts toward aggregate stats.
			e.recordStats(cached.Verdict, true)
			return &Outcome{Result: cached, CacheHit: true}, nil
		}
	}

	injection := security.Detect(sub.Text)
	scrubbed := security.Scrub(sub.Text)
	urls := security.ExtractURLs(sub.Text)
	wrapped, _ := security.WrapUntrusted(scrubbed)

	// Classifier and URL reputation have no data dependency; run them
	// concurrently.
	var checks []reputation.URLCheck
	checksDone := make(chan struct{})
	go func() {
		defer close(checksDone)
		if e.urls != nil && len(urls) > 0 {
			checks = e.urls.Check(ctx, urls)
		}
	}()

	raw, err := e.classifier.Classify(ctx, wrapped, sub.Images)
	<-checksDone
	if err != nil {
		// No verdict can be produced without the classifier.
		return nil, err
	}

	result := sanitize(raw)
	e.merge(result, checks, injection)

	if result.Verdict != VerdictSafe {
		result.ScammerContacts = extractScammerContacts(sub.Text)
	}

	e.persist(sub, result, checks)

	return &Outcome{
		Result:    result,
		URLChecks: checks,
		Injection: injection,
		CacheHit:  false,
	}, nil
}

// merge applies the escalation rules in order: flagged URLs force HIGH_RISK,
// then a detected injection floors the verdict at SUSPICIOUS. Escalation is
// monotone; an already-raised verdict is never lowered.
func (e *Engine) merge(result *Result, checks []reputation.URLCheck, injection security.InjectionResult) {
	if countMalicious(checks) > 0 {
		result.Verdict = result.Verdict.escalate(VerdictHighRisk)
		if !containsFold(result.NextSteps, linkWarningStep) {
			result.NextSteps = truncateList(append([]string{linkWarningStep}, result.NextSteps...))
		}
	}

	if injection.Detected {
		result.Verdict = result.Verdict.escalate(VerdictSuspicious)
		if !containsFold(result.RedFlags, manipulationRedFlag) {
			result.RedFlags = truncateList(append(result.RedFlags, manipulationRedFlag))
		}
		if result.ScamType == "" || result.ScamType == "none" {
			result.ScamType = manipulationScamType
		}
	}
}

// persist schedules the fire-and-forget side-effects: cache write, stats
// increment, and high-risk report storage. The caller gets its verdict
// before these complete; their failure is logged, never surfaced.
func (e *Engine) persist(sub Submission, result *Result, checks []reputation.URLCheck) {
	if sub.TextOnly() && e.cache != nil && e.tasks != nil {
		text := sub.Text
		cached := *result
		e.tasks.Submit("cache_write", func(ctx context.Context) {
			e.cache.Set(ctx, text, &cached)
		})
	}

	e.recordStats(result.Verdict, false)

	if result.Verdict == VerdictHighRisk && e.reports != nil && e.tasks != nil {
		report := Report{
			Verdict:           result.Verdict,
			ScamType:          result.ScamType,
			ImpersonatedBrand: result.ImpersonatedBrand,
			Channel:           result.Channel,
			Summary:           result.Summary,
			ScrubbedText:      security.Scrub(sub.Text),
			MaliciousURLs:     maliciousURLs(checks),
		}
		e.tasks.Submit("report_save", func(ctx context.Context) {
			if err := e.reports.SaveReport(ctx, report); err != nil {
				e.logger.Warn("scam report persistence failed", "error", err)
			}
		})
	}
}

func (e *Engine) recordStats(verdict Verdict, cacheHit bool) {
	if e.stats == nil || e.tasks == nil {
		return
	}
	e.tasks.Submit("stats_increment", func(ctx context.Context) {
		if err := e.stats.RecordAnalysis(ctx, verdict, cacheHit); err != nil {
			e.logger.Warn("stats increment failed", "error", err)
		}
	})
}

func countMalicious(checks []reputation.URLCheck) int {
	n := 0
	for _, c := range checks {
		if c.Malicious {
			n++
		}
	}
	return n
}

func maliciousURLs(checks []reputation.URLCheck) []string {
	var out []string
	for _, c := range checks {
		if c.Malicious {
			out = append(out, c.URL)
		}
	}
	return out
}

func containsFold(items []string, target string) bool {
	for _, item := range items {
		if strings.EqualFold(item, target) {
			return true
		}
	}
	return false
}
