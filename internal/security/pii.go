// Package security hardens untrusted submissions before they cross the trust
// boundary: PII scrubbing, prompt-injection detection, prompt wrapping, and
// SSRF-safe URL extraction.
package security

import "regexp"

// piiStage is one named substitution in the scrub cascade. valid, when set,
// vets each regexp match before it is replaced.
type piiStage struct {
	name        string
	re          *regexp.Regexp
	valid       func(match string) bool
	replacement string
}

// piiCascade runs in declaration order. Order is a correctness invariant:
// fixed-width structured identifiers (card numbers, ID triplets, dashed SSN)
// must run before the generic phone matcher, which is a greedy digit-run
// matcher that would otherwise swallow and mis-tag them.
var piiCascade = []piiStage{
	{name: "card", re: regexp.MustCompile(`\b(?:\d[ -]?){15}\d\b`), replacement: "[CARD]"},
	{name: "national_id", re: regexp.MustCompile(`\b\d{3}[ -]\d{3}[ -]\d{3}\b`), replacement: "[NATIONAL_ID]"},
	{name: "health_id", re: regexp.MustCompile(`\b\d{4}[ -]\d{5}[ -]\d\b`), replacement: "[HEALTH_ID]"},
	{name: "ssn", re: regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), replacement: "[SSN]"},
	{name: "email", re: regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), replacement: "[EMAIL]"},
	{name: "ip_address", re: regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), replacement: "[IP]"},
	{name: "street_address", re: regexp.MustCompile(`(?i)\b\d{1,5}\s+[A-Za-z0-9.\- ]{2,40}\s(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|court|ct|place|pl|way)\b\.?`), replacement: "[ADDRESS]"},
	// valid keeps the greedy digit-run matcher off ISO dates (8 digits).
	{name: "phone", re: regexp.MustCompile(`\+?\d[\d\s().-]{7,}\d`), valid: hasPhoneDigitCount, replacement: "[PHONE]"},
}

var digitRe = regexp.MustCompile(`\d`)

func hasPhoneDigitCount(match string) bool {
	return len(digitRe.FindAllString(match, -1)) >= 9
}

// Scrub removes sensitive substrings from text, replacing each with a tag.
// It is pure and deterministic; each stage rewrites the previous stage's
// output. Best-effort redaction, not a compliance guarantee.
func Scrub(text string) string {
	for _, stage := range piiCascade {
		if stage.valid == nil {
			text = stage.re.ReplaceAllString(text, stage.replacement)
			continue
		}
		text = stage.re.ReplaceAllStringFunc(text, func(match string) string {
			if stage.valid(match) {
				return stage.replacement
			}
			return match
		})
	}
	return text
}
