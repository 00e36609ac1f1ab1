// Package split partitions a frozen dataset into train/dev/test with
// per-label stratification.
package split

import (
	"math/rand"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/crisislab/triage-cli/internal/model"
)

// Config holds the split fractions. Test gets the remainder after train
// and dev, so the three parts always sum to the input.
type Config struct {
	TrainFrac float64
	DevFrac   float64
	Seed      int64
}

// Splits holds the three disjoint partitions of the input.
type Splits struct {
	Train []model.Row
	Dev   []model.Row
	Test  []model.Row
}

// Apply shuffles within each final_label stratum and cuts it at the
// configured fractions, so every label's proportion carries into each
// part. Deterministic for a given seed and input order.
func Apply(rows []model.Row, cfg Config) (*Splits, error) {
	if cfg.TrainFrac <= 0 || cfg.DevFrac < 0 || cfg.TrainFrac+cfg.DevFrac >= 1 {
		return nil, eris.Errorf("split: invalid fractions train=%.2f dev=%.2f", cfg.TrainFrac, cfg.DevFrac)
	}

	strata := map[string][]int{}
	for i, row := range rows {
		if !model.Label(row.FinalLabel).Valid() {
			return nil, eris.Errorf("split: row %d has no valid final label (%q); freeze the dataset first", i, row.FinalLabel)
		}
		strata[row.FinalLabel] = append(strata[row.FinalLabel], i)
	}

	// Iterate labels in a fixed order so the rng stream is stable.
	labels := make([]string, 0, len(strata))
	for l := range strata {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	rng := rand.New(rand.NewSource(cfg.Seed))
	out := &Splits{}
	for _, label := range labels {
		idx := strata[label]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTrain := int(float64(len(idx)) * cfg.TrainFrac)
		nDev := int(float64(len(idx)) * cfg.DevFrac)

		for _, i := range idx[:nTrain] {
			out.Train = append(out.Train, rows[i])
		}
		for _, i := range idx[nTrain : nTrain+nDev] {
			out.Dev = append(out.Dev, rows[i])
		}
		for _, i := range idx[nTrain+nDev:] {
			out.Test = append(out.Test, rows[i])
		}
	}
	return out, nil
}

// Distribution counts final labels in one part.
func Distribution(rows []model.Row) map[string]int {
	dist := map[string]int{}
	for _, r := range rows {
		dist[r.FinalLabel]++
	}
	return dist
}
