// internal/scoring/expected.go
package scoring

import (
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mwiater/nutrieval/internal/nutrition"
)

// ExpectedAnswer is the ground truth for one category. The concrete types
// below are the only implementations.
type ExpectedAnswer interface {
	Category() Category
	expected()
}

// CarbCalculation is the bundled net carbs + fiber = total breakdown.
type CarbCalculation struct {
	NetCarbs nutrition.Value `json:"net_carbs"`
	Fiber    nutrition.Value `json:"fiber"`
	Total    nutrition.Value `json:"total"`
}

// FactualExpected is the expected answer for prompt 1A.
type FactualExpected struct {
	TotalFatG           nutrition.Value `json:"total_fat_g"`
	TotalCarbohydratesG nutrition.Value `json:"total_carbohydrates_g"`
	CarbCalculation     CarbCalculation `json:"carb_calculation"`
}

func (FactualExpected) Category() Category { return FactualAccuracy }
func (FactualExpected) expected()          {}

// MathExpected is the expected answer for prompt 2A: per-macro calories
// under the 4-4-9-7 rule plus their sum.
type MathExpected struct {
	CarbsCalories   nutrition.Value `json:"carbs_calories"`
	ProteinCalories nutrition.Value `json:"protein_calories"`
	FatCalories     nutrition.Value `json:"fat_calories"`
	AlcoholCalories nutrition.Value `json:"alcohol_calories"`
	TotalCalories   nutrition.Value `json:"total_calories"`
}

func (MathExpected) Category() Category { return MathematicalComputation }
func (MathExpected) expected()          {}

// Verdict is a categorical suitability label. The empty Verdict means the
// condition could not be evaluated.
type Verdict string

const (
	VerdictGood     Verdict = "good"
	VerdictModerate Verdict = "moderate"
	VerdictPoor     Verdict = "poor"
)

// NormalizeVerdict lower-cases and trims a label. Synonyms are not resolved.
func NormalizeVerdict(label string) Verdict {
	return Verdict(strings.ToLower(strings.TrimSpace(label)))
}

// MarshalJSON encodes the empty verdict as null.
func (v Verdict) MarshalJSON() ([]byte, error) {
	if v == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(v))
}

// HealthExpected is the expected answer for prompt 3A.
type HealthExpected struct {
	Diabetes        Verdict `json:"diabetes"`
	Hypertension    Verdict `json:"hypertension"`
	HighCholesterol Verdict `json:"high_cholesterol"`
}

func (HealthExpected) Category() Category { return HealthRecommendations }
func (HealthExpected) expected()          {}

// Error descriptions produced by the impossibility checks.
const (
	DescSatFatExceedsFat   = "saturated fat exceeds total fat"
	DescTransFatExceedsFat = "trans fat exceeds total fat"
	DescSugarExceedsCarbs  = "sugar exceeds total carbohydrates"
	DescNegativeValue      = "negative nutrient value"
)

var knownErrorKeywords = map[string][]string{
	DescSatFatExceedsFat:   {"saturated", "satfat", "sat fat", "sat_fat", "sat. fat"},
	DescTransFatExceedsFat: {"trans fat", "transfat", "trans_fat", "trans-fat"},
	DescSugarExceedsCarbs:  {"sugar"},
	DescNegativeValue:      {"negative", "below zero", "less than zero", "< 0"},
}

var descriptionStopwords = map[string]struct{}{
	"the": {}, "and": {}, "than": {}, "with": {}, "value": {}, "total": {}, "exceeds": {},
}

// ExpectedError is one error the model is expected to report. A reported
// error matches when it contains the description or any keyword starting at
// a word boundary, so "saturated" does not match "unsaturated".
type ExpectedError struct {
	Description string
	Keywords    []string
}

// NewExpectedError attaches the keyword set for a known description, or the
// first significant word of an unknown one.
func NewExpectedError(description string) ExpectedError {
	if kws, ok := knownErrorKeywords[description]; ok {
		return ExpectedError{Description: description, Keywords: append([]string(nil), kws...)}
	}
	for _, word := range strings.Fields(strings.ToLower(description)) {
		if len(word) < 4 {
			continue
		}
		if _, stop := descriptionStopwords[word]; stop {
			continue
		}
		return ExpectedError{Description: description, Keywords: []string{word}}
	}
	return ExpectedError{Description: description}
}

// Matches reports whether a reported error mentions this expected error.
func (e ExpectedError) Matches(reported string) bool {
	text := normalizeText(reported)
	if text == "" {
		return false
	}
	if containsWord(text, normalizeText(e.Description)) {
		return true
	}
	for _, kw := range e.Keywords {
		if containsWord(text, normalizeText(kw)) {
			return true
		}
	}
	return false
}

// containsWord reports whether word occurs in text without a letter or digit
// directly before it. Suffixes are allowed ("sugars" matches "sugar").
func containsWord(text, word string) bool {
	if word == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(word)
	needsBoundary := unicode.IsLetter(first) || unicode.IsDigit(first)
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], word)
		if i < 0 {
			return false
		}
		at := offset + i
		if !needsBoundary || at == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(text[:at])
		if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
			return true
		}
		offset = at + 1
	}
	return false
}

// ErrorExpected is the expected answer for prompt 4A.
type ErrorExpected struct {
	Errors []ExpectedError
}

// NewErrorExpected builds an expected answer from error descriptions.
func NewErrorExpected(descriptions ...string) ErrorExpected {
	out := ErrorExpected{Errors: make([]ExpectedError, 0, len(descriptions))}
	for _, d := range descriptions {
		out.Errors = append(out.Errors, NewExpectedError(d))
	}
	return out
}

func (ErrorExpected) Category() Category { return ErrorDetection }
func (ErrorExpected) expected()          {}

// ErrorCount is the number of expected errors.
func (e ErrorExpected) ErrorCount() int { return len(e.Errors) }

// Descriptions returns the expected error descriptions in order.
func (e ErrorExpected) Descriptions() []string {
	out := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		out = append(out, err.Description)
	}
	return out
}

// MarshalJSON emits {"error_count":N,"errors":[...]}.
func (e ErrorExpected) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ErrorCount int      `json:"error_count"`
		Errors     []string `json:"errors"`
	}{ErrorCount: e.ErrorCount(), Errors: e.Descriptions()})
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
