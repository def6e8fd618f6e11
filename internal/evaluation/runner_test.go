package evaluation

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/nutrieval/internal/appconfig"
	"github.com/mwiater/nutrieval/internal/prompts"
	"github.com/mwiater/nutrieval/internal/providers"
	"github.com/mwiater/nutrieval/internal/scoring"
)

type fakeProvider struct {
	responses map[string]string
	failures  map[string]error
	requests  []providers.CompletionRequest
	closed    bool
}

func (f *fakeProvider) Complete(_ context.Context, req providers.CompletionRequest) (providers.Completion, error) {
	f.requests = append(f.requests, req)
	if err, ok := f.failures[req.Tag]; ok {
		return providers.Completion{}, err
	}
	return providers.Completion{Content: f.responses[req.Tag], Model: req.Model, PromptTokens: 10, CompletionTokens: 5}, nil
}

func (f *fakeProvider) Close() error {
	f.closed = true
	return nil
}

// perfectResponses answers every prompt with its own expected answer.
func perfectResponses(specs []prompts.PromptSpec) map[string]string {
	out := make(map[string]string, len(specs))
	for _, s := range specs {
		out[s.ID] = s.ExpectedJSON()
	}
	return out
}

func TestRunScoresEveryPromptInOrder(t *testing.T) {
	specs := prompts.Build(nil, prompts.DefaultsPolicy)
	fake := &fakeProvider{responses: perfectResponses(specs)}
	dir := t.TempDir()

	var out bytes.Buffer
	runner := NewRunner(fake, Options{
		Host:         appconfig.Host{Name: "local"},
		Model:        "qwen2.5:7b",
		SystemPrompt: "be precise",
		JSONMode:     true,
		ResultsDir:   dir,
		Out:          &out,
	})
	report, err := runner.Run(context.Background(), specs)
	require.NoError(t, err)

	require.Len(t, report.Results, len(specs))
	require.Len(t, fake.requests, len(specs))
	for i, res := range report.Results {
		assert.Equal(t, specs[i].ID, res.PromptID)
		assert.Equal(t, specs[i].ID, fake.requests[i].Tag)
		assert.Equal(t, "be precise", fake.requests[i].SystemPrompt)
		assert.True(t, fake.requests[i].JSONMode)
		assert.Equal(t, report.RunID, res.RunID)
		assert.Equal(t, 100.0, res.Score.Percentage, "prompt %s", res.PromptID)
		assert.Empty(t, res.Failure)
	}
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "local", report.Host)
	assert.Equal(t, 100.0, report.Summary.Mean)
	assert.Contains(t, out.String(), "[4/4]")

	file, err := os.Open(filepath.Join(dir, "qwen2-5_7b.jsonl"))
	require.NoError(t, err)
	defer file.Close()
	lines := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec PromptResult
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		assert.Equal(t, "qwen2.5:7b", rec.Model)
		lines++
	}
	assert.Equal(t, len(specs), lines)
}

func TestRunRecordsFailuresAndContinues(t *testing.T) {
	specs := prompts.Build(nil, prompts.DefaultsPolicy)
	responses := perfectResponses(specs)
	fake := &fakeProvider{
		responses: responses,
		failures: map[string]error{
			specs[1].ID: fmt.Errorf("wrapped: %w", providers.ErrRateLimited),
		},
	}

	report, err := NewRunner(fake, Options{Model: "m"}).Run(context.Background(), specs)
	require.NoError(t, err)
	require.Len(t, report.Results, 4)

	failed := report.Results[1]
	assert.Equal(t, string(providers.FailureRateLimit), failed.FailureKind)
	assert.Equal(t, 0.0, failed.Score.Earned)
	assert.Equal(t, scoring.MathematicalComputation.MaxPoints(), failed.Score.Max)
	require.Len(t, failed.Score.Discrepancies, 1)
	assert.Equal(t, scoring.ReasonCompletionFailed, failed.Score.Discrepancies[0].Reason)
	assert.Contains(t, failed.Score.Discrepancies[0].Actual, "rate_limit")

	assert.Equal(t, 100.0, report.Results[2].Score.Percentage)
	assert.Equal(t, 1, report.Summary.Failures)
	assert.Equal(t, 0.0, report.Summary.Min)
	assert.Equal(t, 75.0, report.Summary.Mean)
}

func TestRunInvalidResponseScoresZero(t *testing.T) {
	specs := prompts.Build(nil, prompts.DefaultsPolicy)[:1]
	fake := &fakeProvider{responses: map[string]string{specs[0].ID: "I think the fat is low."}}

	report, err := NewRunner(fake, Options{}).Run(context.Background(), specs)
	require.NoError(t, err)
	res := report.Results[0].Score
	assert.Equal(t, scoring.ParseInvalid, res.Parse)
	assert.Equal(t, 0.0, res.Percentage)
	assert.Empty(t, report.Results[0].Failure)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	specs := prompts.Build(nil, prompts.DefaultsPolicy)
	fake := &fakeProvider{responses: perfectResponses(specs)}
	runner := NewRunner(fake, Options{Pause: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runner.Run(ctx, specs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, fake.requests)
}

func TestSummarize(t *testing.T) {
	results := []PromptResult{
		{Category: scoring.FactualAccuracy, Score: scoring.Result{Percentage: 100, Earned: 3, Max: 3}},
		{Category: scoring.FactualAccuracy, Score: scoring.Result{Percentage: 50, Earned: 1.5, Max: 3}},
		{Category: scoring.ErrorDetection, Score: scoring.Result{Percentage: 0, Max: 3}, Failure: "network: down"},
	}
	s := Summarize(results)
	assert.Equal(t, 50.0, s.Mean)
	assert.Equal(t, 100.0, s.Max)
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 4.5, s.Earned)
	assert.Equal(t, 9.0, s.Possible)
	assert.Equal(t, 1, s.Failures)
	require.Len(t, s.PerCategory, 2)
	assert.Equal(t, scoring.FactualAccuracy, s.PerCategory[0].Category)
	assert.Equal(t, 75.0, s.PerCategory[0].Mean)
	assert.Equal(t, scoring.ErrorDetection, s.PerCategory[1].Category)

	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestRunAllSequentialAcrossModels(t *testing.T) {
	specs := prompts.Build(nil, prompts.DefaultsPolicy)
	cfg := &appconfig.Config{
		PauseMs:    -1,
		ResultsDir: t.TempDir(),
		Hosts: []appconfig.Host{
			{Name: "a", Type: appconfig.HostTypeOpenAICompatible, URL: "http://a", Models: []string{"m1", "m2"}},
			{Name: "broken", Type: appconfig.HostTypeOpenAICompatible, URL: "http://b", Models: []string{"m3"}},
		},
	}

	var built []*fakeProvider
	factory := func(_ *appconfig.Config, host appconfig.Host) (providers.ChatProvider, error) {
		if host.Name == "broken" {
			return nil, errors.New("no route")
		}
		p := &fakeProvider{responses: perfectResponses(specs)}
		built = append(built, p)
		return p, nil
	}

	reports, err := RunAll(context.Background(), cfg, specs, nil, factory)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no route")
	require.Len(t, reports, 2)
	assert.Equal(t, "m1", reports[0].Model)
	assert.Equal(t, "m2", reports[1].Model)
	assert.NotEqual(t, reports[0].RunID, reports[1].RunID)
	for _, p := range built {
		assert.True(t, p.closed)
	}
}

func TestRunAllRequiresTargets(t *testing.T) {
	_, err := RunAll(context.Background(), &appconfig.Config{}, nil, nil, nil)
	require.Error(t, err)
}
