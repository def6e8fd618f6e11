package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mwiater/nutrieval/internal/logging"
	"github.com/mwiater/nutrieval/internal/prompts"
	"github.com/mwiater/nutrieval/internal/scoring"
)

var scoreJSON bool

// scoreCmd scores a saved model response offline.
var scoreCmd = &cobra.Command{
	Use:   "score <category> <response-file|->",
	Short: "Score a saved response against the expected answer for a category",
	Long: `Builds the prompt set from the dataset, then scores the response in the given
file (or stdin for "-") against the expected answer of the named category.
The category may be a prompt id (2A), a label or a short alias (math).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := scoring.ParseCategory(args[0])
		if err != nil {
			return err
		}
		raw, err := readResponse(cmd.InOrStdin(), args[1])
		if err != nil {
			return err
		}
		specs, err := buildPrompts(cmd.OutOrStdout(), GetConfig())
		if err != nil {
			return err
		}
		return runScore(cmd.OutOrStdout(), specs, category, raw)
	},
}

func init() {
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "print the score result as JSON")
	rootCmd.AddCommand(scoreCmd)
}

func readResponse(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(data), nil
}

func runScore(out io.Writer, specs []prompts.PromptSpec, category scoring.Category, raw string) error {
	var spec *prompts.PromptSpec
	for i := range specs {
		if specs[i].Category == category {
			spec = &specs[i]
			break
		}
	}
	if spec == nil {
		return fmt.Errorf("no prompt for category %s", category)
	}

	res := scoring.Score(category, raw, spec.Expected)
	if scoreJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	logging.Heading(out, "%s: %s", res.PromptID, category)
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Field", "Expected", "Actual", "Result"})
	for _, d := range res.Discrepancies {
		result := "ok"
		if !d.Matched {
			result = d.Reason
		}
		table.Append([]string{d.Field, d.Expected, d.Actual, result})
	}
	table.Render()
	for _, note := range res.SchemaNotes {
		logging.Warn(out, "schema: %s", note)
	}

	line := fmt.Sprintf("Score %.2f/%.0f (%.1f%%), response %s", res.Earned, res.Max, res.Percentage, res.Parse)
	if res.Earned == res.Max {
		logging.Success(out, "%s", line)
	} else {
		logging.Warn(out, "%s", line)
	}
	return nil
}
