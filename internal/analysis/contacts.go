package analysis

import (
	"regexp"
	"strings"

	"github.com/scamshield/scamshield/internal/security"
)

const (
	maxContactsPerKind = 5
	maxContactLen      = 100
)

var (
	contactPhoneRe = regexp.MustCompile(`\+?\d[\d\s().-]{8,}\d`)
	contactEmailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	digitsRe       = regexp.MustCompile(`\d`)

	// Contacts the submitter introduces as their own are excluded.
	// Misattributing a victim's contact as the scammer's is the worse
	// failure, so when in doubt, exclude.
	ownContactRe = regexp.MustCompile(`(?i)\b(?:my|our|i'?m\s+at|reach\s+me|this\s+is\s+my)\b[^.\n]{0,30}$`)
)

// extractScammerContacts pulls contact details attributed to the scammer out
// of the original submission text. Called only for non-SAFE verdicts.
func extractScammerContacts(text string) *ScammerContacts {
	contacts := &ScammerContacts{
		Phones: collectContacts(text, contactPhoneRe, isPlausiblePhone),
		Emails: collectContacts(text, contactEmailRe, nil),
		URLs:   capContacts(security.ExtractURLs(text)),
	}
	if len(contacts.Phones) == 0 && len(contacts.Emails) == 0 && len(contacts.URLs) == 0 {
		return nil
	}
	return contacts
}

func collectContacts(text string, re *regexp.Regexp, accept func(string) bool) []string {
	var out []string
	seen := make(map[string]bool)
	for _, loc := range re.FindAllStringIndex(text, -1) {
		match := strings.TrimSpace(text[loc[0]:loc[1]])
		if len(match) > maxContactLen {
			match = match[:maxContactLen]
		}
		if seen[match] {
			continue
		}
		if accept != nil && !accept(match) {
			continue
		}
		if claimedAsOwn(text, loc[0]) {
			continue
		}
		seen[match] = true
		out = append(out, match)
		if len(out) == maxContactsPerKind {
			break
		}
	}
	return out
}

// claimedAsOwn checks the text immediately before the match for first-person
// possessive phrasing.
func claimedAsOwn(text string, start int) bool {
	from := start - 40
	if from < 0 {
		from = 0
	}
	return ownContactRe.MatchString(text[from:start])
}

func isPlausiblePhone(candidate string) bool {
	return len(digitsRe.FindAllString(candidate, -1)) >= 10
}

func capContacts(items []string) []string {
	if len(items) > maxContactsPerKind {
		items = items[:maxContactsPerKind]
	}
	for i, item := range items {
		if len(item) > maxContactLen {
			items[i] = item[:maxContactLen]
		}
	}
	return items
}
