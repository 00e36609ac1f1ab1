package annotator

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/crisislab/triage-cli/internal/model"
)

// Checkpoint records which input rows have fully resolved. Together
// with the partial-results file it forms a write-ahead log of completed
// work: a row's index is only added after its annotation (real or
// sentinel) exists, so resuming is idempotent at row granularity.
type Checkpoint struct {
	CompletedIndices []int   `json:"completed_indices"`
	Timestamp        float64 `json:"timestamp"`
	TotalCompleted   int     `json:"total_completed"`
}

// SaveCheckpoint persists the completed-index set to path.
func SaveCheckpoint(path string, completed map[int]bool) error {
	indices := make([]int, 0, len(completed))
	for idx := range completed {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	cp := Checkpoint{
		CompletedIndices: indices,
		Timestamp:        float64(time.Now().UnixNano()) / 1e9,
		TotalCompleted:   len(indices),
	}

	data, err := json.Marshal(cp)
	if err != nil {
		return eris.Wrap(err, "annotator: marshal checkpoint")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "annotator: write checkpoint %s", path)
	}
	return nil
}

// LoadCheckpoint reads a previous checkpoint. A missing file means a
// fresh start and returns an empty set.
func LoadCheckpoint(path string) (map[int]bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[int]bool{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "annotator: read checkpoint %s", path)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, eris.Wrapf(err, "annotator: parse checkpoint %s", path)
	}

	completed := make(map[int]bool, len(cp.CompletedIndices))
	for _, idx := range cp.CompletedIndices {
		completed[idx] = true
	}
	return completed, nil
}

var progressHeader = []string{"original_index", "label", "confidence", "rationale"}

// SaveProgress persists accumulated partial results alongside the
// checkpoint file.
func SaveProgress(path string, results []model.Annotation) error {
	if len(results) == 0 {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "annotator: create progress %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(progressHeader); err != nil {
		return eris.Wrap(err, "annotator: write progress header")
	}
	for _, a := range results {
		record := []string{
			strconv.Itoa(a.OriginalIndex),
			string(a.Label),
			strconv.FormatFloat(a.Confidence, 'f', -1, 64),
			a.Rationale,
		}
		if err := w.Write(record); err != nil {
			return eris.Wrap(err, "annotator: write progress row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "annotator: flush progress")
}

// LoadProgress reads partial results from an interrupted run. A missing
// file returns no results.
func LoadProgress(path string) ([]model.Annotation, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "annotator: open progress %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "annotator: read progress %s", path)
	}
	if len(records) < 2 {
		return nil, nil
	}

	var results []model.Annotation
	for _, rec := range records[1:] {
		if len(rec) < 4 {
			continue
		}
		idx, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		conf, _ := strconv.ParseFloat(rec[2], 64)
		results = append(results, model.Annotation{
			OriginalIndex: idx,
			Label:         model.Label(rec[1]),
			Confidence:    conf,
			Rationale:     rec[3],
		})
	}
	return results, nil
}

// ClearCheckpoint removes both side files after a completed run,
// signaling that no resume is needed.
func ClearCheckpoint(checkpointPath, progressPath string) {
	for _, p := range []string{checkpointPath, progressPath} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			// Leftover files only cost a redundant load next run.
			continue
		}
	}
}
