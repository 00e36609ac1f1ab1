package annotator

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// systemPrompt is the fixed instruction sent with every request.
const systemPrompt = "Research assistant for mental health support classification. " +
	"Classify urgency objectively. When uncertain, choose lower level. " +
	"Respond only in requested JSON format."

// maxInputChars caps the sanitized text sent upstream.
const maxInputChars = 1200

// phraseSubstitutions are literal replacements applied before sending
// text upstream, to lower the chance of a content-policy refusal. They
// are best-effort string swaps, not pattern-aware rewrites.
var phraseSubstitutions = [][2]string{
	{"kill myself", "harm myself"},
	{"suicide", "self-harm"},
	{"want to die", "want to stop"},
	{"end it all", "stop everything"},
}

// Sanitize prepares raw user text for the upstream request: truncate,
// apply the phrase substitutions, strip triple quotes and code fences.
func Sanitize(text string) string {
	if strings.TrimSpace(text) == "" {
		return "[No content provided]"
	}

	if len(text) > maxInputChars {
		cut := maxInputChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	for _, sub := range phraseSubstitutions {
		text = strings.ReplaceAll(text, sub[0], sub[1])
	}

	text = strings.ReplaceAll(text, `"""`, "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// buildUserPrompt renders the per-row prompt demanding a strict JSON
// object with label, confidence, and rationale.
func buildUserPrompt(text string) string {
	return fmt.Sprintf(`RESEARCH: Classify support urgency for this text.

Levels: A0=low, A1=monitor, A2=intervention, A3=crisis

Text: %q

JSON response:
{
  "label": "A0|A1|A2|A3",
  "confidence": 0.0-1.0,
  "rationale": "brief reason"
}`, Sanitize(text))
}
