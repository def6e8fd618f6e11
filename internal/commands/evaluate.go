package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/mwiater/nutrieval/internal/appconfig"
	"github.com/mwiater/nutrieval/internal/evaluation"
	"github.com/mwiater/nutrieval/internal/logging"
	"github.com/mwiater/nutrieval/internal/report"
	"github.com/mwiater/nutrieval/internal/store"
	"github.com/mwiater/nutrieval/internal/tui"
)

// Hooks replaced in tests.
var (
	newAsker    = func() tui.Asker { return tui.NewTerminalAsker() }
	newProvider evaluation.ProviderFunc
)

// evaluateCmd runs the prompt set against every configured model.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate configured models on the nutrition prompts",
	Long: `Builds the four nutrition prompts from the dataset, sends them to every
configured host/model pair one after another, scores each response and writes
a markdown report per model.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEvaluate(cmd.Context(), cmd.OutOrStdout(), GetConfig())
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(ctx context.Context, out io.Writer, cfg *appconfig.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	specs, err := buildPrompts(out, cfg)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}
	logging.Dump(out, "prompts", specs)

	if err := tui.FillMissing(cfg, newAsker()); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	reports, runErr := evaluation.RunAll(ctx, cfg, specs, out, newProvider)
	if len(reports) == 0 {
		return runErr
	}

	var history *store.Store
	if cfg.Store.Driver != appconfig.StoreDriverNone {
		history, err = store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			logging.Warn(out, "run history disabled: %v", err)
		} else {
			defer history.Close()
		}
	}

	models := len(evaluation.Targets(cfg))
	var errs *multierror.Error
	if runErr != nil {
		errs = multierror.Append(errs, runErr)
	}
	for _, r := range reports {
		path := report.PathFor(cfg.ReportPath(), r.Model, models)
		if err := report.WriteMarkdown(path, r); err != nil {
			errs = multierror.Append(errs, err)
		} else {
			logging.Success(out, "Report saved to %s", path)
		}
		if cfg.ExportJSON != "" {
			jsonPath := report.PathFor(cfg.ExportJSON, r.Model, models)
			if err := report.WriteJSON(jsonPath, r); err != nil {
				errs = multierror.Append(errs, err)
			} else {
				logging.Success(out, "JSON export saved to %s", jsonPath)
			}
		}
		if history != nil {
			if err := history.SaveReport(ctx, r); err != nil {
				logging.Warn(out, "saving run %s: %v", r.RunID, err)
			}
		}
		report.PrintSummary(out, r)
	}
	report.PrintComparison(out, reports)

	return errs.ErrorOrNil()
}
