// Package analysis orchestrates the hardened classification pipeline: it
// merges the LLM classifier verdict with URL reputation and injection
// signals, sanitizes the output, and caches text-only verdicts.
package analysis

// Verdict is the closed output classification. Anything outside the enum is
// coerced to SUSPICIOUS during sanitation, never to SAFE.
type Verdict string

const (
	VerdictSafe       Verdict = "SAFE"
	VerdictSuspicious Verdict = "SUSPICIOUS"
	VerdictHighRisk   Verdict = "HIGH_RISK"
)

// rank orders verdicts for monotone escalation. Merging never lowers an
// already-escalated verdict.
func (v Verdict) rank() int {
	switch v {
	case VerdictSafe:
		return 0
	case VerdictSuspicious:
		return 1
	case VerdictHighRisk:
		return 2
	}
	return 1
}

// escalate returns the higher of two verdicts.
func (v Verdict) escalate(to Verdict) Verdict {
	if to.rank() > v.rank() {
		return to
	}
	return v
}

const (
	maxListEntries = 10
	maxStringLen   = 500
)

// ScammerContacts holds contact details attributed to the scammer. Attached
// only when the verdict is not SAFE.
type ScammerContacts struct {
	Phones []string `json:"phones,omitempty"`
	Emails []string `json:"emails,omitempty"`
	URLs   []string `json:"urls,omitempty"`
}

// Result is the sanitized verdict returned to callers and cached.
type Result struct {
	Verdict           Verdict          `json:"verdict"`
	Confidence        float64          `json:"confidence"`
	Summary           string           `json:"summary"`
	RedFlags          []string         `json:"redFlags"`
	NextSteps         []string         `json:"nextSteps"`
	ScamType          string           `json:"scamType,omitempty"`
	ImpersonatedBrand string           `json:"impersonatedBrand,omitempty"`
	Channel           string           `json:"channel,omitempty"`
	ScammerContacts   *ScammerContacts `json:"scammerContacts,omitempty"`
}

// Image is one attached submission image.
type Image struct {
	Data      []byte
	MediaType string
}

// Submission is the ephemeral, request-scoped input. It is never persisted
// verbatim.
type Submission struct {
	Text   string
	Images []Image
}

// TextOnly reports whether the submission is eligible for the
// content-addressed cache.
func (s Submission) TextOnly() bool {
	return s.Text != "" && len(s.Images) == 0
}
