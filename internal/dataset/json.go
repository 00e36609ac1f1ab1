package dataset

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"

	"github.com/crisislab/triage-cli/internal/model"
)

// ReadJSON loads a review-queue or reviewed-output file: a single JSON
// array of row objects, read wholesale.
func ReadJSON(path string) ([]model.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}

	var rows []model.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, eris.Wrapf(err, "dataset: parse %s", path)
	}
	return rows, nil
}

// WriteJSON writes rows as an indented JSON array, whole-file, via a
// temp sibling and rename so a crashed save never truncates the store.
func WriteJSON(path string, rows []model.Row) error {
	if rows == nil {
		rows = []model.Row{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return eris.Wrap(err, "dataset: marshal rows")
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "dataset: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "dataset: rename %s", path)
	}
	return nil
}
