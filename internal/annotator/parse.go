package annotator

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/crisislab/triage-cli/internal/model"
)

var errUnparseable = eris.New("annotator: response is not a valid annotation")

// cleanJSON strips markdown code fences and trims to the outermost JSON
// object, tolerating models that wrap their reply in prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// parseAnnotation parses the upstream reply into an Annotation. A reply
// that decodes but carries a label outside the domain is treated the
// same as malformed JSON: the caller retries, then falls back to the
// parse-error sentinel, so an invalid label can never reach the output.
func parseAnnotation(text string, idx int) (model.Annotation, error) {
	text = cleanJSON(text)

	var result struct {
		Label      string  `json:"label"`
		Confidence float64 `json:"confidence"`
		Rationale  string  `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return model.Annotation{}, errUnparseable
	}

	label := model.Label(strings.ToUpper(strings.TrimSpace(result.Label)))
	if !label.Valid() {
		return model.Annotation{}, errUnparseable
	}

	conf := result.Confidence
	if conf < 0 {
		conf = 0
	} else if conf > 1 {
		conf = 1
	}

	return model.Annotation{
		Label:         label,
		Confidence:    conf,
		Rationale:     result.Rationale,
		OriginalIndex: idx,
	}, nil
}
