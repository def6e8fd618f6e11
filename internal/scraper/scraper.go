// internal/scraper/scraper.go
package scraper

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/mwiater/nutrieval/internal/appconfig"
	"github.com/mwiater/nutrieval/internal/logging"
	"github.com/mwiater/nutrieval/internal/nutrition"
)

// Result summarises a collection run.
type Result struct {
	Records []nutrition.FoodRecord
	Target  int
	Output  string
	Backups []string
	// Failures holds the per-food errors that were skipped.
	Failures *multierror.Error
}

// FailureCount returns the number of skipped foods.
func (r Result) FailureCount() int {
	if r.Failures == nil {
		return 0
	}
	return len(r.Failures.Errors)
}

// Scraper pages through the food listing and fetches every food's details.
type Scraper struct {
	client *Client
	cfg    appconfig.ScraperConfig
	out    io.Writer
}

// New returns a scraper writing progress to out.
func New(client *Client, cfg appconfig.ScraperConfig, out io.Writer) *Scraper {
	if out == nil {
		out = io.Discard
	}
	return &Scraper{client: client, cfg: cfg.WithDefaults(), out: out}
}

// Run collects up to maxItems foods. A failing detail request skips that
// food. A failing listing request is fatal: whatever was collected is
// written to the error output and the error is returned.
func (s *Scraper) Run(ctx context.Context) (Result, error) {
	res := Result{}
	logging.Heading(s.out, "Starting data collection from %s", s.cfg.BaseURL)

	first, err := s.client.ListFoods(ctx, 0, s.cfg.PageSize)
	if err != nil {
		err = s.fail(&res, fmt.Errorf("listing foods: %w", err))
		return res, err
	}
	res.Target = min(s.cfg.MaxItems, first.Metadata.Total)

	page := first
	for offset := 0; offset < res.Target && len(res.Records) < res.Target; offset += s.cfg.PageSize {
		if offset > 0 {
			page, err = s.client.ListFoods(ctx, offset, s.cfg.PageSize)
			if err != nil {
				err = s.fail(&res, fmt.Errorf("listing foods at offset %d: %w", offset, err))
				return res, err
			}
		}
		logging.Progress(s.out, "Fetching foods %d to %d of %d...", offset+1, min(offset+s.cfg.PageSize, res.Target), res.Target)
		if len(page.Foods) == 0 {
			break
		}

		for _, summary := range page.Foods {
			if len(res.Records) >= res.Target {
				break
			}
			if err := ctx.Err(); err != nil {
				err = s.fail(&res, err)
				return res, err
			}
			detail, err := s.client.FoodDetails(ctx, summary.RevisionID)
			if err != nil {
				logging.Failure(s.out, "Error processing food %s: %v", summary.Name, err)
				logging.LogEvent("[SCRAPER] food %s (%s) skipped: %v", summary.Name, summary.RevisionID, err)
				res.Failures = multierror.Append(res.Failures, fmt.Errorf("food %q: %w", summary.Name, err))
				continue
			}
			rec := Normalize(detail)
			if rec.Name == "" {
				rec.Name = summary.Name
			}
			res.Records = append(res.Records, rec)
			logging.Success(s.out, "Processed %s", rec.Name)

			if len(res.Records)%s.cfg.BackupEvery == 0 {
				s.backup(&res)
			}
		}
	}

	if err := nutrition.WriteFile(s.cfg.Output, res.Records); err != nil {
		return res, fmt.Errorf("writing %s: %w", s.cfg.Output, err)
	}
	res.Output = s.cfg.Output
	logging.Success(s.out, "Data collection completed! Total foods processed: %d", len(res.Records))
	if n := res.FailureCount(); n > 0 {
		logging.Warn(s.out, "%d foods skipped", n)
	}
	return res, nil
}

// BackupPath returns backupDir/<output base>_partial_<count>.csv.
func BackupPath(cfg appconfig.ScraperConfig, count int) string {
	cfg = cfg.WithDefaults()
	base := strings.TrimSuffix(filepath.Base(cfg.Output), filepath.Ext(cfg.Output))
	return filepath.Join(cfg.BackupDir, fmt.Sprintf("%s_partial_%d.csv", base, count))
}

func (s *Scraper) backup(res *Result) {
	path := BackupPath(s.cfg, len(res.Records))
	if err := nutrition.WriteFile(path, res.Records); err != nil {
		logging.Warn(s.out, "Backup to %s failed: %v", path, err)
		return
	}
	res.Backups = append(res.Backups, path)
	logging.Progress(s.out, "Backup saved to %s", path)
}

func (s *Scraper) fail(res *Result, cause error) error {
	logging.Failure(s.out, "An error occurred: %v", cause)
	if len(res.Records) == 0 {
		return cause
	}
	if err := nutrition.WriteFile(s.cfg.ErrorOutput, res.Records); err != nil {
		return multierror.Append(cause, fmt.Errorf("writing partial data: %w", err))
	}
	res.Output = s.cfg.ErrorOutput
	logging.Warn(s.out, "Partial data saved to %s", s.cfg.ErrorOutput)
	return cause
}
