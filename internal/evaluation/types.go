// internal/evaluation/types.go
package evaluation

import (
	"encoding/json"
	"time"

	"github.com/mwiater/nutrieval/internal/scoring"
)

// PromptResult records one prompt, the model's response and its score.
type PromptResult struct {
	Timestamp        string           `json:"timestamp"`
	RunID            string           `json:"runId"`
	Host             string           `json:"host"`
	Model            string           `json:"model"`
	PromptID         string           `json:"promptId"`
	Category         scoring.Category `json:"category"`
	Difficulty       string           `json:"difficulty"`
	Prompt           string           `json:"prompt"`
	Expected         json.RawMessage  `json:"expected"`
	Response         string           `json:"response"`
	Score            scoring.Result   `json:"score"`
	Failure          string           `json:"failure,omitempty"`
	FailureKind      string           `json:"failureKind,omitempty"`
	DurationMs       int64            `json:"durationMs"`
	PromptTokens     int              `json:"promptTokens,omitempty"`
	CompletionTokens int              `json:"completionTokens,omitempty"`
}

// CategorySummary is the mean percentage for one category.
type CategorySummary struct {
	Category scoring.Category `json:"category"`
	Mean     float64          `json:"mean"`
	Prompts  int              `json:"prompts"`
}

// Summary aggregates percentages across a run.
type Summary struct {
	Mean        float64           `json:"mean"`
	Max         float64           `json:"max"`
	Min         float64           `json:"min"`
	Earned      float64           `json:"earned"`
	Possible    float64           `json:"possible"`
	Failures    int               `json:"failures"`
	PerCategory []CategorySummary `json:"perCategory"`
}

// Report is the immutable outcome of one model's run.
type Report struct {
	RunID      string         `json:"runId"`
	Host       string         `json:"host"`
	Model      string         `json:"model"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Results    []PromptResult `json:"results"`
	Summary    Summary        `json:"summary"`
}
