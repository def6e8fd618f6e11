// internal/evaluation/batch.go
package evaluation

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/mwiater/nutrieval/internal/appconfig"
	"github.com/mwiater/nutrieval/internal/logging"
	"github.com/mwiater/nutrieval/internal/prompts"
	"github.com/mwiater/nutrieval/internal/providerfactory"
	"github.com/mwiater/nutrieval/internal/providers"
)

// ProviderFunc builds the provider for one host.
type ProviderFunc func(cfg *appconfig.Config, host appconfig.Host) (providers.ChatProvider, error)

// Target is one host/model pair to evaluate.
type Target struct {
	Host  appconfig.Host
	Model string
}

// Targets expands every configured host into one target per model.
func Targets(cfg *appconfig.Config) []Target {
	var targets []Target
	for _, host := range cfg.Hosts {
		for _, model := range host.Models {
			targets = append(targets, Target{Host: host, Model: model})
		}
	}
	return targets
}

// RunAll evaluates every configured host/model pair, one after another.
// A pair whose provider cannot be built is skipped and reported in the
// returned error alongside the reports that did complete.
func RunAll(ctx context.Context, cfg *appconfig.Config, specs []prompts.PromptSpec, out io.Writer, newProvider ProviderFunc) ([]Report, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if newProvider == nil {
		newProvider = providerfactory.NewChatProvider
	}
	if out == nil {
		out = io.Discard
	}

	targets := Targets(cfg)
	if len(targets) == 0 {
		return nil, fmt.Errorf("evaluation requires at least one host with a model in the configuration")
	}

	var (
		reports []Report
		errs    *multierror.Error
	)
	for _, target := range targets {
		logging.Heading(out, "Evaluating %s on %s", target.Model, target.Host.Identifier())

		provider, err := newProvider(cfg, target.Host)
		if err != nil {
			logging.Failure(out, "cannot create provider for host %s: %v", target.Host.Identifier(), err)
			errs = multierror.Append(errs, fmt.Errorf("host %s model %s: %w", target.Host.Identifier(), target.Model, err))
			continue
		}

		runner := NewRunner(provider, Options{
			Host:         target.Host,
			Model:        target.Model,
			SystemPrompt: cfg.SystemPromptText(),
			JSONMode:     cfg.JSONMode,
			Timeout:      cfg.RequestTimeout(),
			Pause:        cfg.Pause(),
			ResultsDir:   cfg.ResultsPath(),
			Out:          out,
		})
		report, err := runner.Run(ctx, specs)
		_ = provider.Close()
		if err != nil {
			errs = multierror.Append(errs, err)
			return reports, errs.ErrorOrNil()
		}
		reports = append(reports, report)
	}
	return reports, errs.ErrorOrNil()
}
