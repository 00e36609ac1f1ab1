package model

// Row is one record of the tabular dataset. Columns accumulate stage by
// stage: annotate fills label/confidence/rationale, review select fills
// the review flags, the review form fills human_label/annotator_notes,
// freeze fills final_label. Zero values mean "column not present yet".
//
// The same struct backs the CSV files and the JSON review-queue files,
// which mirror the CSV columns by contract.
type Row struct {
	Title    string `json:"title,omitempty"`
	UserText string `json:"usertext"`

	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`

	NeedsHumanReview bool   `json:"needs_human_review"`
	ReviewReason     string `json:"review_reason"`

	HumanLabel     string `json:"human_label"`
	AnnotatorNotes string `json:"annotator_notes"`

	FinalLabel string `json:"final_label,omitempty"`
}

// Reviewed reports whether a human has labeled the row. The empty
// string is the "not yet reviewed" sentinel.
func (r Row) Reviewed() bool {
	return r.HumanLabel != ""
}

// EffectiveLabel is the human label when present, the model label
// otherwise. The freeze stage persists it as final_label.
func (r Row) EffectiveLabel() string {
	if r.HumanLabel != "" {
		return r.HumanLabel
	}
	return r.Label
}
