package analysis

import "strings"

// rawResult is the classifier's response before sanitation. The oracle is
// untrusted: every field is re-validated here, never trusted verbatim.
type rawResult struct {
	Verdict           string   `json:"verdict"`
	Confidence        any      `json:"confidence"`
	Summary           string   `json:"summary"`
	RedFlags          []string `json:"redFlags"`
	NextSteps         []string `json:"nextSteps"`
	ScamType          string   `json:"scamType"`
	ImpersonatedBrand string   `json:"impersonatedBrand"`
	Channel           string   `json:"channel"`
}

// coerceVerdict maps an arbitrary string into the closed enum. Unknown
// values become SUSPICIOUS, never SAFE.
func coerceVerdict(s string) Verdict {
	switch Verdict(strings.ToUpper(strings.TrimSpace(s))) {
	case VerdictSafe:
		return VerdictSafe
	case VerdictSuspicious:
		return VerdictSuspicious
	case VerdictHighRisk:
		return VerdictHighRisk
	}
	return VerdictSuspicious
}

// clampConfidence forces confidence into [0,1]; non-numeric values land on
// the 0.5 midpoint.
func clampConfidence(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	default:
		return 0.5
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// truncateString caps a string at maxStringLen characters.
func truncateString(s string) string {
	if len(s) > maxStringLen {
		return s[:maxStringLen]
	}
	return s
}

// truncateList caps a list at maxListEntries entries of maxStringLen each,
// dropping empties.
func truncateList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, truncateString(item))
		if len(out) == maxListEntries {
			break
		}
	}
	return out
}

// sanitize converts the untrusted classifier output into a Result honoring
// all output invariants.
func sanitize(raw *rawResult) *Result {
	if raw == nil {
		raw = &rawResult{}
	}
	return &Result{
		Verdict:           coerceVerdict(raw.Verdict),
		Confidence:        clampConfidence(raw.Confidence),
		Summary:           truncateString(strings.TrimSpace(raw.Summary)),
		RedFlags:          truncateList(raw.RedFlags),
		NextSteps:         truncateList(raw.NextSteps),
		ScamType:          truncateString(strings.TrimSpace(raw.ScamType)),
		ImpersonatedBrand: truncateString(strings.TrimSpace(raw.ImpersonatedBrand)),
		Channel:           truncateString(strings.TrimSpace(raw.Channel)),
	}
}
