package commands

import "github.com/spf13/cobra"

// showCmd groups read-only inspection commands.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show configuration and generated prompts",
}

func init() {
	rootCmd.AddCommand(showCmd)
}
