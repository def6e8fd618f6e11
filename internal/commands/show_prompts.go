package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/nutrieval/internal/logging"
)

// showPromptsCmd prints the four prompts and their expected answers.
var showPromptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "Show the generated prompts and expected answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		specs, err := buildPrompts(cmd.OutOrStdout(), cfg)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, spec := range specs {
			logging.Heading(out, "%s: %s (%s, max %.0f points)", spec.ID, spec.Category, spec.Difficulty, spec.Category.MaxPoints())
			fmt.Fprintf(out, "Source: %s\n\n", spec.Food.DisplayName())
			fmt.Fprintln(out, spec.Text)
			fmt.Fprintln(out, "\nExpected:")
			fmt.Fprintln(out, spec.ExpectedJSON())
			fmt.Fprintln(out)
			if cfg.Debug {
				logging.Dump(out, spec.ID+" spec", spec)
			}
		}
		return nil
	},
}

func init() {
	showCmd.AddCommand(showPromptsCmd)
}
