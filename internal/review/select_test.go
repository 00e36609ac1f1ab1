package review

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisislab/triage-cli/internal/model"
)

func defaultSelectConfig() SelectConfig {
	return SelectConfig{
		ConfidenceThreshold: 0.70,
		CrisisSampleFrac:    0.15,
		RandomSampleFrac:    0.10,
		Seed:                42,
	}
}

func TestSelect_LowConfidence(t *testing.T) {
	rows := []model.Row{
		{UserText: "a", Label: "A1", Confidence: 0.69},
		{UserText: "b", Label: "A1", Confidence: 0.70},
	}

	cfg := defaultSelectConfig()
	cfg.CrisisSampleFrac = 0
	cfg.RandomSampleFrac = 0
	flagged := Select(rows, cfg)

	assert.Equal(t, 1, flagged)
	assert.True(t, rows[0].NeedsHumanReview)
	assert.Equal(t, ReasonLowConfidence, rows[0].ReviewReason)
	assert.False(t, rows[1].NeedsHumanReview)
	assert.Equal(t, "", rows[1].ReviewReason)
}

func TestSelect_ModelErrorAndFiltered(t *testing.T) {
	rows := []model.Row{
		{UserText: "a", Label: "A9", Confidence: 0.9},
		{UserText: "b", Label: "A2", Confidence: 0.8, Rationale: "Content filtered"},
		{UserText: "c", Label: "A2", Confidence: 0.8, Rationale: "was Filtered upstream"},
	}

	cfg := defaultSelectConfig()
	cfg.CrisisSampleFrac = 0
	cfg.RandomSampleFrac = 0
	Select(rows, cfg)

	assert.Equal(t, ReasonModelError, rows[0].ReviewReason)
	assert.Equal(t, ReasonContentFiltered, rows[1].ReviewReason)
	// Substring match is case-insensitive.
	assert.Equal(t, ReasonContentFiltered, rows[2].ReviewReason)
}

func TestSelect_ReasonsPipeJoined(t *testing.T) {
	rows := []model.Row{
		{UserText: "a", Label: "A9", Confidence: 0.1, Rationale: "Content filtered"},
	}

	cfg := defaultSelectConfig()
	cfg.CrisisSampleFrac = 0
	cfg.RandomSampleFrac = 0
	Select(rows, cfg)

	parts := strings.Split(rows[0].ReviewReason, "|")
	assert.ElementsMatch(t, []string{ReasonModelError, ReasonLowConfidence, ReasonContentFiltered}, parts)
}

func TestSelect_CrisisSampleFloor(t *testing.T) {
	// 20 A3 rows at 15% floors to 3 sampled.
	var rows []model.Row
	for i := 0; i < 20; i++ {
		rows = append(rows, model.Row{UserText: "crisis", Label: "A3", Confidence: 0.95})
	}

	cfg := defaultSelectConfig()
	cfg.RandomSampleFrac = 0
	Select(rows, cfg)

	sampled := 0
	for _, r := range rows {
		if r.ReviewReason == ReasonCrisisSample {
			sampled++
		}
	}
	assert.Equal(t, 3, sampled)
}

func TestSelect_RandomSampleDrawsFromUnflaggedOnly(t *testing.T) {
	var rows []model.Row
	for i := 0; i < 10; i++ {
		rows = append(rows, model.Row{UserText: "low", Label: "A1", Confidence: 0.2})
	}
	for i := 0; i < 20; i++ {
		rows = append(rows, model.Row{UserText: "clean", Label: "A0", Confidence: 0.9})
	}

	cfg := defaultSelectConfig()
	cfg.CrisisSampleFrac = 0
	Select(rows, cfg)

	randomSampled := 0
	for _, r := range rows {
		if strings.Contains(r.ReviewReason, ReasonRandomSample) {
			randomSampled++
			// Never stacked on an already-flagged row.
			assert.Equal(t, ReasonRandomSample, r.ReviewReason)
		}
	}
	// floor(20 unflagged * 10%) = 2
	assert.Equal(t, 2, randomSampled)
}

func TestSelect_Deterministic(t *testing.T) {
	build := func() []model.Row {
		var rows []model.Row
		for i := 0; i < 50; i++ {
			label := "A0"
			if i%5 == 0 {
				label = "A3"
			}
			rows = append(rows, model.Row{UserText: "msg", Label: label, Confidence: 0.9})
		}
		return rows
	}

	first := build()
	second := build()
	Select(first, defaultSelectConfig())
	Select(second, defaultSelectConfig())

	for i := range first {
		assert.Equal(t, first[i].ReviewReason, second[i].ReviewReason, "row %d", i)
	}
}

func TestBuildQueue(t *testing.T) {
	rows := []model.Row{
		{UserText: "a", NeedsHumanReview: true, ReviewReason: "low_confidence", HumanLabel: "A1", AnnotatorNotes: "stale"},
		{UserText: "b"},
		{UserText: "c", NeedsHumanReview: true, ReviewReason: "A3_sample"},
	}

	queue := BuildQueue(rows)
	require.Len(t, queue, 2)
	assert.Equal(t, "a", queue[0].UserText)
	assert.Equal(t, "", queue[0].HumanLabel)
	assert.Equal(t, "", queue[0].AnnotatorNotes)
	assert.Equal(t, "c", queue[1].UserText)
}
