package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/mwiater/nutrieval/internal/evaluation"
	"github.com/mwiater/nutrieval/internal/logging"
)

// PrintSummary writes a per-prompt table and the summary line for r.
func PrintSummary(w io.Writer, r evaluation.Report) {
	logging.Heading(w, "\n%s on %s", r.Model, r.Host)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Prompt", "Category", "Score", "Percent", "Time (ms)", "Status"})
	for _, res := range r.Results {
		status := string(res.Score.Parse)
		if res.FailureKind != "" {
			status = res.FailureKind
		}
		table.Append([]string{
			res.PromptID,
			res.Category.String(),
			fmt.Sprintf("%.2f/%.0f", res.Score.Earned, res.Score.Max),
			fmt.Sprintf("%.1f%%", res.Score.Percentage),
			fmt.Sprintf("%d", res.DurationMs),
			status,
		})
	}
	table.Render()

	line := fmt.Sprintf("mean %.1f%%  max %.1f%%  min %.1f%%", r.Summary.Mean, r.Summary.Max, r.Summary.Min)
	switch {
	case r.Summary.Failures > 0:
		logging.Warn(w, "%s  (%d failed requests)", line, r.Summary.Failures)
	default:
		logging.Success(w, "%s", line)
	}
}

// PrintComparison writes one row per report, for runs covering several models.
func PrintComparison(w io.Writer, reports []evaluation.Report) {
	if len(reports) < 2 {
		return
	}
	logging.Heading(w, "\nModel comparison")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Model", "Host", "Mean", "Max", "Min", "Failures"})
	for _, r := range reports {
		table.Append([]string{
			r.Model,
			r.Host,
			fmt.Sprintf("%.1f%%", r.Summary.Mean),
			fmt.Sprintf("%.1f%%", r.Summary.Max),
			fmt.Sprintf("%.1f%%", r.Summary.Min),
			fmt.Sprintf("%d", r.Summary.Failures),
		})
	}
	table.Render()
}
