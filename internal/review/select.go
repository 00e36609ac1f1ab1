// Package review covers the human-review leg of the pipeline: queue
// selection, the review session state machine, and the browser form
// server.
package review

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/crisislab/triage-cli/internal/model"
)

// Review reason tags, pipe-joined into the review_reason column.
const (
	ReasonModelError      = "model_error"
	ReasonLowConfidence   = "low_confidence"
	ReasonContentFiltered = "content_filtered"
	ReasonCrisisSample    = "A3_sample"
	ReasonRandomSample    = "random_sample"
)

// SelectConfig holds the selection rule tunables.
type SelectConfig struct {
	// ConfidenceThreshold flags every row below it.
	ConfidenceThreshold float64
	// CrisisSampleFrac is the fraction of A3 rows sampled (floor).
	CrisisSampleFrac float64
	// RandomSampleFrac is the fraction of otherwise-unflagged rows
	// sampled (floor).
	RandomSampleFrac float64
	// Seed makes both samples reproducible.
	Seed int64
}

// Select applies the review-selection rules in place, filling
// needs_human_review and review_reason on every row. It is a pure
// function of (rows, cfg): rerunning with the same seed and input
// reproduces the same flags.
func Select(rows []model.Row, cfg SelectConfig) int {
	reasons := make([][]string, len(rows))

	var crisisIdx []int
	for i, row := range rows {
		if !model.Label(row.Label).Valid() {
			reasons[i] = append(reasons[i], ReasonModelError)
		}
		if row.Confidence < cfg.ConfidenceThreshold {
			reasons[i] = append(reasons[i], ReasonLowConfidence)
		}
		if strings.Contains(strings.ToLower(row.Rationale), "filtered") {
			reasons[i] = append(reasons[i], ReasonContentFiltered)
		}
		if model.Label(row.Label) == model.CrisisLabel {
			crisisIdx = append(crisisIdx, i)
		}
	}

	// One seeded stream drives both samples, so the flag set is a
	// deterministic function of the input order.
	rng := rand.New(rand.NewSource(cfg.Seed))

	for _, i := range sampleIndices(rng, crisisIdx, cfg.CrisisSampleFrac) {
		reasons[i] = append(reasons[i], ReasonCrisisSample)
	}

	var remainder []int
	for i := range rows {
		if len(reasons[i]) == 0 {
			remainder = append(remainder, i)
		}
	}
	for _, i := range sampleIndices(rng, remainder, cfg.RandomSampleFrac) {
		reasons[i] = append(reasons[i], ReasonRandomSample)
	}

	flagged := 0
	for i := range rows {
		rows[i].NeedsHumanReview = len(reasons[i]) > 0
		rows[i].ReviewReason = strings.Join(reasons[i], "|")
		if rows[i].NeedsHumanReview {
			flagged++
		}
	}
	return flagged
}

// sampleIndices draws floor(len(candidates)*frac) elements without
// replacement and returns them in ascending order.
func sampleIndices(rng *rand.Rand, candidates []int, frac float64) []int {
	n := int(float64(len(candidates)) * frac)
	if n <= 0 {
		return nil
	}

	perm := rng.Perm(len(candidates))
	picked := make([]int, 0, n)
	for _, p := range perm[:n] {
		picked = append(picked, candidates[p])
	}
	sort.Ints(picked)
	return picked
}

// BuildQueue extracts the flagged rows as a fresh review queue with
// empty human labels and notes.
func BuildQueue(rows []model.Row) []model.Row {
	var queue []model.Row
	for _, row := range rows {
		if !row.NeedsHumanReview {
			continue
		}
		row.HumanLabel = ""
		row.AnnotatorNotes = ""
		queue = append(queue, row)
	}
	return queue
}
