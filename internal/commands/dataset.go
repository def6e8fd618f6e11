package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/mwiater/nutrieval/internal/appconfig"
	"github.com/mwiater/nutrieval/internal/logging"
	"github.com/mwiater/nutrieval/internal/nutrition"
	"github.com/mwiater/nutrieval/internal/prompts"
)

// buildPrompts loads the dataset and renders the prompt set with the
// configured selection policy. The defaults policy needs no dataset.
func buildPrompts(out io.Writer, cfg *appconfig.Config) ([]prompts.PromptSpec, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is not loaded")
	}
	policy, ok := prompts.PolicyByName(cfg.Selection)
	if !ok {
		return nil, fmt.Errorf("unknown selection policy %q (want keyword, first or defaults)", cfg.Selection)
	}
	if strings.EqualFold(strings.TrimSpace(cfg.Selection), "defaults") {
		return prompts.Build(nil, policy), nil
	}

	path := cfg.DatasetPath()
	ds, err := nutrition.LoadFile(path)
	if err != nil {
		return nil, err
	}
	logging.LogEvent("loaded %d food records from %s", len(ds.Records), path)
	for _, rowErr := range ds.Skipped {
		logging.Warn(out, "skipped dataset row: %v", rowErr)
		logging.LogEvent("dataset %s: skipped %v", path, rowErr)
	}
	return prompts.Build(ds.Records, policy), nil
}
