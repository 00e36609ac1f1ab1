// Package analysis computes dataset quality statistics: label
// distribution, text-length stats, review coverage, and human/model
// agreement.
package analysis

import (
	"io"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/crisislab/triage-cli/internal/model"
)

// TokenStats summarizes whitespace-token counts per row.
type TokenStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
}

// Pattern is one model-vs-human disagreement pair with its count.
type Pattern struct {
	ModelLabel string `json:"model_label"`
	HumanLabel string `json:"human_label"`
	Count      int    `json:"count"`
}

// Report is the full analysis output, serializable as JSON.
type Report struct {
	Total        int            `json:"total"`
	Distribution map[string]int `json:"label_distribution"`
	Tokens       TokenStats     `json:"token_stats"`

	ParseErrors     int `json:"parse_errors"`
	ContentFiltered int `json:"content_filtered"`
	Failed          int `json:"failed"`

	FlaggedForReview int     `json:"flagged_for_review"`
	Reviewed         int     `json:"reviewed"`
	ReviewCoverage   float64 `json:"review_coverage"`

	Agreements      int       `json:"agreements"`
	Disagreements   int       `json:"disagreements"`
	AgreementRate   float64   `json:"agreement_rate"`
	CrisisAgreement float64   `json:"crisis_agreement"`
	CrisisReviewed  int       `json:"crisis_reviewed"`
	AdjacentPairs   int       `json:"adjacent_pairs"`
	Patterns        []Pattern `json:"disagreement_patterns"`
}

// Analyze computes the report over an annotated (and possibly reviewed
// or frozen) dataset.
func Analyze(rows []model.Row) *Report {
	r := &Report{
		Total:        len(rows),
		Distribution: map[string]int{},
	}

	var tokenCounts []int
	patterns := map[[2]string]int{}
	var crisisAgree int

	for _, row := range rows {
		r.Distribution[labelKey(row)]++
		tokenCounts = append(tokenCounts, len(strings.Fields(row.UserText)))

		switch {
		case strings.Contains(row.Rationale, "JSON parse error"):
			r.ParseErrors++
		case strings.Contains(row.Rationale, "Content filtered"):
			r.ContentFiltered++
		case strings.Contains(row.Rationale, "Failed after"):
			r.Failed++
		}

		if row.NeedsHumanReview {
			r.FlaggedForReview++
		}
		if !row.Reviewed() {
			continue
		}
		r.Reviewed++

		if row.Label == string(model.CrisisLabel) {
			r.CrisisReviewed++
			if row.HumanLabel == row.Label {
				crisisAgree++
			}
		}

		if row.HumanLabel == row.Label {
			r.Agreements++
			continue
		}
		r.Disagreements++
		patterns[[2]string{row.Label, row.HumanLabel}]++
		if adjacentPair(row.Label, row.HumanLabel) {
			r.AdjacentPairs++
		}
	}

	r.Tokens = tokenStats(tokenCounts)
	if r.FlaggedForReview > 0 {
		r.ReviewCoverage = float64(r.Reviewed) / float64(r.FlaggedForReview)
	}
	if r.Reviewed > 0 {
		r.AgreementRate = float64(r.Agreements) / float64(r.Reviewed)
	}
	if r.CrisisReviewed > 0 {
		r.CrisisAgreement = float64(crisisAgree) / float64(r.CrisisReviewed)
	}

	for pair, n := range patterns {
		r.Patterns = append(r.Patterns, Pattern{ModelLabel: pair[0], HumanLabel: pair[1], Count: n})
	}
	sort.Slice(r.Patterns, func(i, j int) bool {
		if r.Patterns[i].Count != r.Patterns[j].Count {
			return r.Patterns[i].Count > r.Patterns[j].Count
		}
		if r.Patterns[i].ModelLabel != r.Patterns[j].ModelLabel {
			return r.Patterns[i].ModelLabel < r.Patterns[j].ModelLabel
		}
		return r.Patterns[i].HumanLabel < r.Patterns[j].HumanLabel
	})
	return r
}

// adjacentPair reports the A1/A2 boundary confusion, the pair the
// severity rubric treats as hardest to separate.
func adjacentPair(a, b string) bool {
	return (a == string(model.LabelA1) && b == string(model.LabelA2)) ||
		(a == string(model.LabelA2) && b == string(model.LabelA1))
}

func labelKey(row model.Row) string {
	if row.FinalLabel != "" {
		return row.FinalLabel
	}
	return row.Label
}

func tokenStats(counts []int) TokenStats {
	if len(counts) == 0 {
		return TokenStats{}
	}
	sorted := make([]int, len(counts))
	copy(sorted, counts)
	sort.Ints(sorted)

	sum := 0
	for _, c := range sorted {
		sum += c
	}
	median := float64(sorted[len(sorted)/2])
	if len(sorted)%2 == 0 {
		median = float64(sorted[len(sorted)/2-1]+sorted[len(sorted)/2]) / 2
	}
	return TokenStats{
		Mean:   float64(sum) / float64(len(sorted)),
		Median: median,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

// Render prints a human-readable report with locale-aware number
// formatting.
func (r *Report) Render(w io.Writer) {
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "Rows: %d\n\n", r.Total)

	p.Fprintf(w, "Label distribution:\n")
	for _, label := range sortedKeys(r.Distribution) {
		n := r.Distribution[label]
		p.Fprintf(w, "  %-4s %8d  (%.1f%%)\n", label, n, pct(n, r.Total))
	}

	p.Fprintf(w, "\nMessage length (whitespace tokens): mean %.1f, median %.1f, min %d, max %d\n",
		r.Tokens.Mean, r.Tokens.Median, r.Tokens.Min, r.Tokens.Max)

	if r.ParseErrors+r.ContentFiltered+r.Failed > 0 {
		p.Fprintf(w, "\nDegraded annotations: %d parse errors, %d content filtered, %d failed\n",
			r.ParseErrors, r.ContentFiltered, r.Failed)
	}

	p.Fprintf(w, "\nReview: %d flagged, %d reviewed (%.1f%% coverage)\n",
		r.FlaggedForReview, r.Reviewed, r.ReviewCoverage*100)

	if r.Reviewed == 0 {
		return
	}

	p.Fprintf(w, "\nHuman/model agreement: %d/%d (%.1f%%)\n",
		r.Agreements, r.Reviewed, r.AgreementRate*100)
	if r.CrisisReviewed > 0 {
		p.Fprintf(w, "%s agreement: %.1f%% over %d reviewed\n",
			model.CrisisLabel, r.CrisisAgreement*100, r.CrisisReviewed)
	}
	if r.AdjacentPairs > 0 {
		p.Fprintf(w, "%s/%s boundary confusions: %d\n", model.LabelA1, model.LabelA2, r.AdjacentPairs)
	}
	if len(r.Patterns) > 0 {
		p.Fprintf(w, "\nDisagreement patterns:\n")
		for _, pat := range r.Patterns {
			p.Fprintf(w, "  model %s -> human %s: %d\n", pat.ModelLabel, pat.HumanLabel, pat.Count)
		}
	}
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
