// Package freeze merges human review decisions back onto the full
// annotated dataset and locks in a final_label per row.
package freeze

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/crisislab/triage-cli/internal/model"
)

// Result summarizes a freeze merge for reporting.
type Result struct {
	Total         int
	Overridden    int            // rows whose final label came from a human
	Distribution  map[string]int // final_label counts
	ReviewedTotal int            // reviewed rows carrying a human label
	Unmatched     int            // reviewed rows with no matching usertext
}

// Apply joins reviewed rows onto the annotated dataset by exact usertext
// equality and fills final_label in place. It validates every final
// label before reporting success, so a caller that persists only on a
// nil error never writes an out-of-domain label.
func Apply(rows []model.Row, reviewed []model.Row) (*Result, error) {
	overrides, unmatchedKeys := buildOverrides(rows, reviewed)

	res := &Result{
		Total:        len(rows),
		Distribution: map[string]int{},
		Unmatched:    len(unmatchedKeys),
	}
	for _, r := range reviewed {
		if r.Reviewed() {
			res.ReviewedTotal++
		}
	}

	for i := range rows {
		if rows[i].UserText == "" {
			zap.L().Warn("empty usertext at freeze", zap.Int("row", i))
		}
		if o, ok := overrides[rows[i].UserText]; ok {
			rows[i].HumanLabel = o.HumanLabel
			rows[i].AnnotatorNotes = o.AnnotatorNotes
			res.Overridden++
		}
		rows[i].FinalLabel = rows[i].EffectiveLabel()
	}

	for i, row := range rows {
		if !model.Label(row.FinalLabel).Valid() {
			return nil, eris.Errorf(
				"freeze: row %d has final label %q outside {%s}; fix the input before freezing",
				i, row.FinalLabel, joinLabels())
		}
		res.Distribution[row.FinalLabel]++
	}
	return res, nil
}

// buildOverrides indexes reviewed rows by usertext. Duplicate texts in
// either file make the join ambiguous; last reviewed decision wins and
// every ambiguity is logged.
func buildOverrides(rows, reviewed []model.Row) (map[string]model.Row, []string) {
	seen := map[string]int{}
	for _, r := range rows {
		seen[r.UserText]++
	}
	for text, n := range seen {
		if n > 1 {
			zap.L().Warn("duplicate usertext in dataset; review decisions apply to all copies",
				zap.Int("copies", n), zap.String("usertext", truncate(text, 80)))
		}
	}

	overrides := map[string]model.Row{}
	var unmatched []string
	for _, r := range reviewed {
		if !r.Reviewed() {
			continue
		}
		if _, dup := overrides[r.UserText]; dup {
			zap.L().Warn("duplicate usertext in reviewed file; keeping the last decision",
				zap.String("usertext", truncate(r.UserText, 80)))
		}
		if seen[r.UserText] == 0 {
			unmatched = append(unmatched, r.UserText)
			zap.L().Warn("reviewed row matches no dataset row",
				zap.String("usertext", truncate(r.UserText, 80)))
			continue
		}
		overrides[r.UserText] = r
	}
	return overrides, unmatched
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func joinLabels() string {
	var names []string
	for _, l := range model.AllLabels() {
		names = append(names, string(l))
	}
	return strings.Join(names, ", ")
}
