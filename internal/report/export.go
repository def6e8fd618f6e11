package report

import (
	"encoding/json"
	"fmt"

	"github.com/mwiater/nutrieval/internal/evaluation"
	"github.com/mwiater/nutrieval/internal/util"
)

// WriteJSON exports the full report as indented JSON.
func WriteJSON(path string, r evaluation.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return util.WriteFile(path, append(data, '\n'))
}
