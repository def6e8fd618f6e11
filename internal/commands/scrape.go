package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mwiater/nutrieval/internal/appconfig"
	"github.com/mwiater/nutrieval/internal/logging"
	"github.com/mwiater/nutrieval/internal/scraper"
)

var (
	scrapeMaxItems int
	scrapeOutput   string
)

// scrapeCmd collects the food dataset from the nutrition API.
var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Collect food records from the nutrition API into the dataset CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("config is not loaded")
		}
		sc := cfg.Scraper
		if scrapeMaxItems > 0 {
			sc.MaxItems = scrapeMaxItems
		}
		if scrapeOutput != "" {
			sc.Output = scrapeOutput
		}
		return runScrape(cmd.Context(), cmd.OutOrStdout(), sc)
	},
}

func init() {
	scrapeCmd.Flags().IntVar(&scrapeMaxItems, "maxItems", 0, "maximum number of foods to collect (0 = config)")
	scrapeCmd.Flags().StringVarP(&scrapeOutput, "output", "o", "", "dataset CSV to write (default from config)")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(ctx context.Context, out io.Writer, sc appconfig.ScraperConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sc = sc.WithDefaults()
	if sc.Token == "" {
		return fmt.Errorf("no nutrition API token: set scraper.token or %s", appconfig.ScraperTokenEnv)
	}

	res, err := scraper.New(scraper.NewClient(sc), sc, out).Run(ctx)
	if err != nil {
		return err
	}
	logging.Success(out, "Data saved to %s", res.Output)
	if res.Failures != nil {
		logging.LogEvent("[SCRAPER] skipped foods: %v", res.Failures)
	}
	return nil
}
