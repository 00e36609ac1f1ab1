package model

// Annotation is the model's verdict for a single input row. Produced
// exactly once per row by the annotator, real or sentinel, and never
// mutated afterward.
type Annotation struct {
	Label         Label   `json:"label"`
	Confidence    float64 `json:"confidence"`
	Rationale     string  `json:"rationale"`
	OriginalIndex int     `json:"original_index"`
}

// Sentinel rationales. The review selector and the analysis stage key
// off these strings, so they are fixed.
const (
	RationaleParseError      = "JSON parse error"
	RationaleContentFiltered = "Content filtered"
)

// SentinelParseError is substituted when the upstream reply never parsed
// as JSON within the retry budget.
func SentinelParseError(idx int) Annotation {
	return Annotation{Label: LabelA0, Confidence: 0, Rationale: RationaleParseError, OriginalIndex: idx}
}

// SentinelContentFiltered is substituted on a content-policy refusal.
// The refusal itself is treated as a moderate-urgency signal.
func SentinelContentFiltered(idx int) Annotation {
	return Annotation{Label: LabelA2, Confidence: 0.8, Rationale: RationaleContentFiltered, OriginalIndex: idx}
}

// SentinelFailed is substituted after the retry budget is exhausted on
// transport or upstream errors.
func SentinelFailed(idx int, rationale string) Annotation {
	return Annotation{Label: LabelA0, Confidence: 0, Rationale: rationale, OriginalIndex: idx}
}
