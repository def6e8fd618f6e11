// internal/evaluation/runner.go

// Package evaluation runs the prompt set against one or more models and
// scores every response. Runs are strictly sequential: one prompt in flight
// at a time, with a pause between requests.
package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mwiater/nutrieval/internal/appconfig"
	"github.com/mwiater/nutrieval/internal/logging"
	"github.com/mwiater/nutrieval/internal/prompts"
	"github.com/mwiater/nutrieval/internal/providers"
	"github.com/mwiater/nutrieval/internal/scoring"
	"github.com/mwiater/nutrieval/internal/util"
)

// Options configures a Runner. The zero value sends no system prompt, does
// not pause and writes no JSONL results.
type Options struct {
	Host         appconfig.Host
	Model        string
	SystemPrompt string
	JSONMode     bool
	Timeout      time.Duration
	Pause        time.Duration
	// ResultsDir receives <model>.jsonl with one line per prompt.
	ResultsDir string
	// Out receives progress lines; nil discards them.
	Out io.Writer
}

// Runner evaluates one model.
type Runner struct {
	provider providers.ChatProvider
	opts     Options
	limiter  *rate.Limiter
	now      func() time.Time
	newID    func() string
}

// NewRunner returns a runner sending prompts through provider.
func NewRunner(provider providers.ChatProvider, opts Options) *Runner {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	limit := rate.Inf
	if opts.Pause > 0 {
		limit = rate.Every(opts.Pause)
	}
	return &Runner{
		provider: provider,
		opts:     opts,
		limiter:  rate.NewLimiter(limit, 1),
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Run sends every prompt in order and returns the scored report. A failed
// request is recorded as a zero-score result and the run continues; only a
// cancelled context stops it early.
func (r *Runner) Run(ctx context.Context, specs []prompts.PromptSpec) (Report, error) {
	report := Report{
		RunID:     r.newID(),
		Host:      r.opts.Host.Identifier(),
		Model:     r.opts.Model,
		StartedAt: r.now(),
	}
	logging.LogEvent("run %s started: host=%s model=%s prompts=%d", report.RunID, report.Host, report.Model, len(specs))

	total := len(specs)
	for i, spec := range specs {
		if err := r.limiter.Wait(ctx); err != nil {
			return report, fmt.Errorf("run %s interrupted: %w", report.RunID, err)
		}

		logging.Progress(r.opts.Out, "[%d/%d] %s / %s - %s (%s)", i+1, total, report.Host, report.Model, spec.ID, spec.Category)
		result := r.evaluate(ctx, report.RunID, spec)
		if result.Failure != "" {
			logging.Failure(r.opts.Out, "[%d/%d] %s failed: %s", i+1, total, spec.ID, result.Failure)
		} else {
			logging.Success(r.opts.Out, "[%d/%d] %s scored %.1f%% (%.2f/%.0f) in %dms", i+1, total, spec.ID,
				result.Score.Percentage, result.Score.Earned, result.Score.Max, result.DurationMs)
		}
		report.Results = append(report.Results, result)

		if r.opts.ResultsDir != "" {
			path := filepath.Join(r.opts.ResultsDir, util.Slugify(r.opts.Model)+".jsonl")
			if err := util.AppendJSONL(path, result); err != nil {
				logging.LogEvent("error writing result for model %s: %v", r.opts.Model, err)
			}
		}

		if errors.Is(ctx.Err(), context.Canceled) {
			return report, fmt.Errorf("run %s interrupted: %w", report.RunID, ctx.Err())
		}
	}

	report.FinishedAt = r.now()
	report.Summary = Summarize(report.Results)
	logging.LogEvent("run %s finished: mean=%.1f%% failures=%d", report.RunID, report.Summary.Mean, report.Summary.Failures)
	return report, nil
}

func (r *Runner) evaluate(ctx context.Context, runID string, spec prompts.PromptSpec) PromptResult {
	result := PromptResult{
		RunID:      runID,
		Host:       r.opts.Host.Identifier(),
		Model:      r.opts.Model,
		PromptID:   spec.ID,
		Category:   spec.Category,
		Difficulty: spec.Difficulty,
		Prompt:     spec.Text,
		Expected:   json.RawMessage(spec.ExpectedJSON()),
	}

	reqCtx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	req := providers.CompletionRequest{
		Host:         r.opts.Host,
		Model:        r.opts.Model,
		SystemPrompt: r.opts.SystemPrompt,
		Prompt:       spec.Text,
		Parameters:   r.opts.Host.Parameters,
		JSONMode:     r.opts.JSONMode,
		Tag:          spec.ID,
	}

	start := r.now()
	completion, err := r.provider.Complete(reqCtx, req)
	elapsed := r.now().Sub(start)
	result.Timestamp = start.Format(time.RFC3339)
	result.DurationMs = elapsed.Milliseconds()

	if err != nil {
		result.Failure = providers.Describe(err)
		result.FailureKind = string(providers.Classify(err))
		result.Score = scoring.Failed(spec.Category, result.Failure)
		logging.LogEvent("prompt %s failed for model %s: %s", spec.ID, r.opts.Model, result.Failure)
		return result
	}

	result.Response = completion.Content
	result.PromptTokens = completion.PromptTokens
	result.CompletionTokens = completion.CompletionTokens
	result.Score = scoring.Score(spec.Category, completion.Content, spec.Expected)
	logging.LogDebug("prompt %s scored %.2f/%.0f (%s)", spec.ID, result.Score.Earned, result.Score.Max, result.Score.Parse)
	return result
}
