// Package dataset reads and writes the pipeline's tabular files: CSV
// datasets, wholesale JSON review queues, and XLSX imports. Columns are
// mapped by header name, so stages tolerate extra or reordered columns.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/crisislab/triage-cli/internal/model"
)

// Canonical column sets written by each stage.
var (
	InputColumns     = []string{"title", "usertext"}
	AnnotatedColumns = []string{"title", "usertext", "label", "confidence", "rationale"}
	FlaggedColumns   = append(AnnotatedColumns[:len(AnnotatedColumns):len(AnnotatedColumns)],
		"needs_human_review", "review_reason")
	QueueColumns = append(FlaggedColumns[:len(FlaggedColumns):len(FlaggedColumns)],
		"human_label", "annotator_notes")
	FrozenColumns = append(QueueColumns[:len(QueueColumns):len(QueueColumns)],
		"final_label")
)

// Table is a dataset loaded into memory together with its header.
type Table struct {
	Columns []string
	Rows    []model.Row
}

// HasColumn reports whether the source file carried the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// RequireColumns returns an error naming the first missing column.
// Commands treat this as fatal per the pipeline's structural-error rule.
func (t *Table) RequireColumns(names ...string) error {
	for _, n := range names {
		if !t.HasColumn(n) {
			return eris.Errorf("dataset: required column %q not found (have: %s)",
				n, strings.Join(t.Columns, ", "))
		}
	}
	return nil
}

// ReadCSV loads a headered CSV file into a Table.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	t, err := readCSV(f)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}
	return t, nil
}

func readCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow ragged rows

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("dataset: empty file")
	}
	if err != nil {
		return nil, eris.Wrap(err, "read header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := &Table{Columns: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "read row")
		}
		t.Rows = append(t.Rows, rowFromRecord(header, record))
	}
	return t, nil
}

// rowFromRecord maps one raw record onto a Row by header position.
// Unparseable numerics coerce to zero rather than failing the load.
func rowFromRecord(header, record []string) model.Row {
	var row model.Row
	for i, col := range header {
		if i >= len(record) {
			break
		}
		val := record[i]
		switch col {
		case "title":
			row.Title = val
		case "usertext":
			row.UserText = val
		case "label":
			row.Label = val
		case "confidence":
			row.Confidence, _ = strconv.ParseFloat(strings.TrimSpace(val), 64)
		case "rationale":
			row.Rationale = val
		case "needs_human_review":
			row.NeedsHumanReview = parseBool(val)
		case "review_reason":
			row.ReviewReason = val
		case "human_label":
			row.HumanLabel = val
		case "annotator_notes":
			row.AnnotatorNotes = val
		case "final_label":
			row.FinalLabel = val
		}
	}
	return row
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func recordFromRow(columns []string, row model.Row) []string {
	record := make([]string, len(columns))
	for i, col := range columns {
		switch col {
		case "title":
			record[i] = row.Title
		case "usertext":
			record[i] = row.UserText
		case "label":
			record[i] = row.Label
		case "confidence":
			record[i] = strconv.FormatFloat(row.Confidence, 'f', -1, 64)
		case "rationale":
			record[i] = row.Rationale
		case "needs_human_review":
			record[i] = strconv.FormatBool(row.NeedsHumanReview)
		case "review_reason":
			record[i] = row.ReviewReason
		case "human_label":
			record[i] = row.HumanLabel
		case "annotator_notes":
			record[i] = row.AnnotatorNotes
		case "final_label":
			record[i] = row.FinalLabel
		}
	}
	return record
}

// WriteCSV writes rows under the given header. The file is written to a
// temp sibling and renamed so readers never observe a partial file.
func WriteCSV(path string, columns []string, rows []model.Row) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return eris.Wrapf(err, "dataset: create %s", tmp)
	}

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		f.Close()
		return eris.Wrap(err, "dataset: write header")
	}
	for _, row := range rows {
		if err := w.Write(recordFromRow(columns, row)); err != nil {
			f.Close()
			return eris.Wrap(err, "dataset: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return eris.Wrap(err, "dataset: flush")
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "dataset: close %s", tmp)
	}

	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "dataset: rename %s", path)
	}
	return nil
}
