package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mwiater/nutrieval/internal/appconfig"
	"github.com/mwiater/nutrieval/internal/logging"
	"github.com/mwiater/nutrieval/internal/store"
)

var (
	historyModel string
	historyLimit int
	historyRun   string
)

// historyCmd lists stored evaluation runs.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past evaluation runs from the run history store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("config is not loaded")
		}
		return runHistory(cmd.Context(), cmd.OutOrStdout(), cfg.Store)
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyModel, "model", "", "only list runs of this model")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "show the prompt results of one run")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(ctx context.Context, out io.Writer, sc appconfig.StoreConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := store.Open(ctx, sc.Driver, sc.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if historyRun != "" {
		rows, err := db.RunResults(ctx, historyRun)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("run %s not found", historyRun)
		}
		logging.Heading(out, "Run %s", historyRun)
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Prompt", "Category", "Score", "Percent", "Time (ms)", "Failure"})
		for _, r := range rows {
			table.Append([]string{
				r.PromptID,
				r.Category,
				fmt.Sprintf("%.2f/%.0f", r.Earned, r.MaxPoints),
				fmt.Sprintf("%.1f%%", r.Percentage),
				fmt.Sprintf("%d", r.DurationMs),
				r.Failure,
			})
		}
		table.Render()
		return nil
	}

	runs, err := db.ListRuns(ctx, historyModel, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		logging.Warn(out, "No runs recorded yet.")
		return nil
	}
	logging.Heading(out, "Recent runs")
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Run", "Started", "Model", "Host", "Mean", "Max", "Min", "Failures"})
	for _, r := range runs {
		table.Append([]string{
			r.RunID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Model,
			r.Host,
			fmt.Sprintf("%.1f%%", r.Mean),
			fmt.Sprintf("%.1f%%", r.Max),
			fmt.Sprintf("%.1f%%", r.Min),
			fmt.Sprintf("%d", r.Failures),
		})
	}
	table.Render()
	return nil
}
