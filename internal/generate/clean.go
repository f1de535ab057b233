package generate

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	paragraphPlaceholderRe = regexp.MustCompile(`(?i)\[[^\]]*paragraph[^\]]*\]`)
	yourVisualCueRe        = regexp.MustCompile(`(?i)\(Your visual cue here\)`)
)

// CleanRawScript strips LLM preamble and template placeholders from a raw
// model response. The first '(' marks the true start of the script: models
// routinely prepend "Here is your script:" style chatter before the first
// visual cue.
func CleanRawScript(raw string) string {
	script := raw
	if idx := strings.Index(raw, "("); idx != -1 {
		script = raw[idx:]
	}

	script = paragraphPlaceholderRe.ReplaceAllString(script, "")
	script = yourVisualCueRe.ReplaceAllString(script, "(Visual cue)")
	return strings.TrimSpace(script)
}

// QualityCheck performs the basic checks a script must pass before it is
// worth translating: it must be substantial, must not be an error message in
// disguise, and must open with a visual cue.
func QualityCheck(script string) (bool, string) {
	if script == "" || strings.Contains(strings.ToLower(script), "error") || len(strings.TrimSpace(script)) < 10 {
		return false, "QC Failed: Generation returned an empty or error-like response."
	}

	cleaned := paragraphPlaceholderRe.ReplaceAllString(script, "")
	words := strings.Fields(cleaned)
	if len(words) < 20 {
		return false, fmt.Sprintf("QC Failed: Generated script is too short (words: %d).", len(words))
	}

	trimmed := strings.TrimLeft(strings.TrimSpace(script), " *")
	if !strings.HasPrefix(trimmed, "(") {
		return false, "QC Failed: Script does not start with a visual cue as requested."
	}

	return true, "Quality check passed."
}
