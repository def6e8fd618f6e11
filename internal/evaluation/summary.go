package evaluation

import (
	"math"

	"github.com/mwiater/nutrieval/internal/scoring"
)

// Summarize computes mean, max and min percentage plus per-category means.
// An empty result set summarizes to zeros.
func Summarize(results []PromptResult) Summary {
	var s Summary
	if len(results) == 0 {
		return s
	}

	s.Max = math.Inf(-1)
	s.Min = math.Inf(1)
	total := 0.0
	byCategory := make(map[scoring.Category][]float64)
	for _, r := range results {
		pct := r.Score.Percentage
		total += pct
		s.Max = math.Max(s.Max, pct)
		s.Min = math.Min(s.Min, pct)
		s.Earned += r.Score.Earned
		s.Possible += r.Score.Max
		if r.Failure != "" {
			s.Failures++
		}
		byCategory[r.Category] = append(byCategory[r.Category], pct)
	}
	s.Mean = round1(total / float64(len(results)))

	for _, c := range scoring.Categories {
		pcts, ok := byCategory[c]
		if !ok {
			continue
		}
		sum := 0.0
		for _, p := range pcts {
			sum += p
		}
		s.PerCategory = append(s.PerCategory, CategorySummary{
			Category: c,
			Mean:     round1(sum / float64(len(pcts))),
			Prompts:  len(pcts),
		})
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
