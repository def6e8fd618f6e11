package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/nutrieval/internal/appconfig"
	"github.com/mwiater/nutrieval/internal/logging"
)

// showConfigCmd implements the 'show config' command, which displays the current configuration settings.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings ensuring that the JSON configs are loaded properly and overriden by flags accordingly.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := GetConfig()
		appconfig.ShowConfig(cmd.OutOrStdout(), viper.ConfigFileUsed(), cfg)
		if cfg != nil && cfg.Debug {
			redacted := *cfg
			redacted.Hosts = nil
			logging.Dump(cmd.OutOrStdout(), "config (hosts omitted)", redacted)
		}
	},
}

func init() {
	showCmd.AddCommand(showConfigCmd)
}
