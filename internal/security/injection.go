package security

import "regexp"

// InjectionResult reports which adversarial patterns matched.
type InjectionResult struct {
	Detected bool     `json:"detected"`
	Patterns []string `json:"patterns"`
}

// injectionPattern holds a compiled rule with a stable label.
// All patterns are compiled once at package init and shared across requests.
type injectionPattern struct {
	name string
	re   *regexp.Regexp
}

// Patterns are evaluated in order; result labels preserve that order.
// All rules are case-insensitive.
var injectionPatterns = []injectionPattern{
	{"instruction_override", regexp.MustCompile(`(?i)\b(?:ignore|disregard|forget|override)\s+(?:all\s+|any\s+|the\s+)?(?:previous|prior|above|earlier|preceding)\s+(?:instructions?|prompts?|rules?|directives?)`)},
	{"role_reassignment", regexp.MustCompile(`(?i)\byou\s+are\s+(?:now|no\s+longer)\s+(?:a|an|the|my)?\b|\bact\s+as\s+(?:a|an|if\s+you\s+(?:are|were))\b|\bpretend\s+(?:to\s+be|you\s+are)\b`)},
	{"jailbreak", regexp.MustCompile(`(?i)\bjailbreak\b|\bDAN\s+mode\b|\bdeveloper\s+mode\b|\bdo\s+anything\s+now\b`)},
	{"forced_verdict", regexp.MustCompile(`(?i)(?:respond|reply|answer|return|output)\s+(?:only\s+)?with\s+["'{\x60]*\s*(?:"?verdict"?\s*[:=]\s*)?["']?safe\b|\bmark\s+(?:this|it)\s+(?:as\s+)?safe\b|\bclassify\s+(?:this|it)\s+as\s+safe\b|"verdict"\s*:\s*"?safe`)},
	{"memory_wipe", regexp.MustCompile(`(?i)\b(?:forget|erase|wipe|clear|reset)\s+(?:your\s+|all\s+)?(?:memory|context|history|training)\b|\bstart\s+(?:over|fresh|anew)\s+with\s+new\s+instructions\b`)},
	{"prompt_extraction", regexp.MustCompile(`(?i)\b(?:reveal|show|print|repeat|display|output)\s+(?:me\s+)?(?:your|the)\s+(?:system\s+)?(?:prompt|instructions?)\b|\bwhat\s+(?:is|are)\s+your\s+(?:system\s+)?(?:prompt|instructions?)\b`)},
	{"analysis_bypass", regexp.MustCompile(`(?i)\b(?:skip|bypass|disable|turn\s+off)\s+(?:the\s+|your\s+)?(?:analysis|scan|check|filter|detection|moderation)s?\b|\bdo\s+not\s+(?:analy[sz]e|scan|check)\s+(?:this|the\s+following)\b`)},
	{"delimiter_breakout", regexp.MustCompile(`(?i)</?\s*user_data[^>]*>|\x60{3}\s*(?:end|system)|\[/?(?:INST|SYS)\]|<\|(?:im_start|im_end|endoftext)\|>`)},
	{"control_tag", regexp.MustCompile(`(?i)<\s*/?\s*(?:system|assistant|prompt)\s*>|\{\{\s*system\s*\}\}`)},
}

// Detect pattern-matches adversarial instructions in free text. Labels of
// matched rules are returned in rule order, each at most once.
func Detect(text string) InjectionResult {
	var result InjectionResult
	for _, p := range injectionPatterns {
		if p.re.MatchString(text) {
			result.Detected = true
			result.Patterns = append(result.Patterns, p.name)
		}
	}
	return result
}
