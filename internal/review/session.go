package review

import (
	"os"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/crisislab/triage-cli/internal/dataset"
	"github.com/crisislab/triage-cli/internal/model"
)

// Session owns the reviewed-output store for one serving process. It is
// an explicit object handed to the HTTP handlers rather than ambient
// state; the mutex serializes overlapping requests from a single
// reviewer's browser. Multiple concurrent reviewers against the same
// file remain unsupported.
type Session struct {
	mu   sync.Mutex
	path string
	rows []model.Row
}

// OpenSession loads the reviewed-output file, initializing it from the
// review queue on first use.
func OpenSession(queuePath, outputPath string) (*Session, error) {
	if _, err := os.Stat(outputPath); err == nil {
		rows, err := dataset.ReadJSON(outputPath)
		if err != nil {
			return nil, err
		}
		return &Session{path: outputPath, rows: rows}, nil
	}

	queue, err := dataset.ReadJSON(queuePath)
	if err != nil {
		return nil, eris.Wrap(err, "review: load queue")
	}
	for i := range queue {
		queue[i].HumanLabel = ""
		queue[i].AnnotatorNotes = ""
	}

	s := &Session{path: outputPath, rows: queue}
	if err := s.persist(); err != nil {
		return nil, err
	}
	return s, nil
}

// persist rewrites the whole store. Callers hold the lock.
func (s *Session) persist() error {
	return dataset.WriteJSON(s.path, s.rows)
}

// Progress returns total and completed counts.
func (s *Session) Progress() (total, completed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.Reviewed() {
			completed++
		}
	}
	return len(s.rows), completed
}

// Next returns the first unreviewed item, or ok=false when every row
// has a human label.
func (s *Session) Next() (int, model.Row, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.rows {
		if !r.Reviewed() {
			return i, r, true
		}
	}
	return 0, model.Row{}, false
}

// Item returns the row at idx.
func (s *Session) Item(idx int) (model.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.rows) {
		return model.Row{}, eris.Errorf("review: index %d out of range (queue has %d items)", idx, len(s.rows))
	}
	return s.rows[idx], nil
}

// Save records a human judgment for the row at idx and persists the
// whole store. An empty label un-reviews the row.
func (s *Session) Save(idx int, humanLabel, notes string) error {
	if humanLabel != "" && !model.Label(humanLabel).Valid() {
		return eris.Errorf("review: invalid human label %q", humanLabel)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.rows) {
		return eris.Errorf("review: index %d out of range (queue has %d items)", idx, len(s.rows))
	}

	s.rows[idx].HumanLabel = humanLabel
	s.rows[idx].AnnotatorNotes = notes
	return s.persist()
}

// Reset clears every human label and note. Destructive and
// irreversible; the caller is responsible for confirming.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.rows {
		s.rows[i].HumanLabel = ""
		s.rows[i].AnnotatorNotes = ""
	}
	return s.persist()
}

// IndexedRow pairs a queue row with its stable position.
type IndexedRow struct {
	Index int       `json:"index"`
	Row   model.Row `json:"row"`
}

// Filter narrows the browse listing. Zero values match everything.
type Filter struct {
	Status     string  // "", "annotated", "pending"
	Reason     string  // exact review_reason match
	MinConf    float64 // inclusive
	MaxConf    float64 // inclusive; 0 means no upper bound
	ModelLabel string
	HumanLabel string
}

// Items returns the rows matching the filter, in queue order.
func (s *Session) Items(f Filter) []IndexedRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []IndexedRow
	for i, r := range s.rows {
		switch f.Status {
		case "annotated":
			if !r.Reviewed() {
				continue
			}
		case "pending":
			if r.Reviewed() {
				continue
			}
		}
		if f.Reason != "" && r.ReviewReason != f.Reason {
			continue
		}
		if r.Confidence < f.MinConf {
			continue
		}
		if f.MaxConf > 0 && r.Confidence > f.MaxConf {
			continue
		}
		if f.ModelLabel != "" && r.Label != f.ModelLabel {
			continue
		}
		if f.HumanLabel != "" && r.HumanLabel != f.HumanLabel {
			continue
		}
		out = append(out, IndexedRow{Index: i, Row: r})
	}
	return out
}
