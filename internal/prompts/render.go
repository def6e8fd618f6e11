// internal/prompts/render.go
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mwiater/nutrieval/internal/nutrition"
	"github.com/mwiater/nutrieval/internal/scoring"
)

// PromptSpec is one rendered evaluation prompt with its ground truth.
type PromptSpec struct {
	ID         string                 `json:"id"`
	Category   scoring.Category       `json:"category"`
	Difficulty string                 `json:"difficulty"`
	Text       string                 `json:"text"`
	Expected   scoring.ExpectedAnswer `json:"expected"`
	Food       nutrition.FoodRecord   `json:"-"`
}

// ExpectedJSON pretty-prints the expected answer.
func (p PromptSpec) ExpectedJSON() string {
	out, err := json.MarshalIndent(p.Expected, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", p.Expected)
	}
	return string(out)
}

// Build renders the four prompts in category order.
func Build(records []nutrition.FoodRecord, policy SelectionPolicy) []PromptSpec {
	if policy == nil {
		policy = KeywordPolicy
	}
	sel := policy(records)
	sources := map[scoring.Category]nutrition.FoodRecord{
		scoring.FactualAccuracy:         sel.Factual,
		scoring.MathematicalComputation: sel.Math,
		scoring.HealthRecommendations:   sel.Health,
		scoring.ErrorDetection:          ErrorRecord(sel.ErrorDetection),
	}

	specs := make([]PromptSpec, 0, len(scoring.Categories))
	for _, c := range scoring.Categories {
		specs = append(specs, BuildOne(c, sources[c]))
	}
	return specs
}

// BuildOne renders the prompt for category from rec as given. The error
// detection prompt does not corrupt rec here; see ErrorRecord.
func BuildOne(category scoring.Category, rec nutrition.FoodRecord) PromptSpec {
	return PromptSpec{
		ID:         category.PromptID(),
		Category:   category,
		Difficulty: category.Difficulty(),
		Text:       renderText(category, rec),
		Expected:   Derive(category, rec),
		Food:       rec,
	}
}

type foodView struct {
	Name           string             `json:"name,omitempty"`
	Brand          string             `json:"brand,omitempty"`
	Classification string             `json:"classification,omitempty"`
	Nutrients      map[string]float64 `json:"nutrients"`
}

func foodJSON(rec nutrition.FoodRecord, withName bool) string {
	view := foodView{Nutrients: rec.NutrientMap()}
	if withName {
		view.Name = rec.Name
		view.Brand = rec.Brand
		view.Classification = rec.Classification
	}
	out, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(out)
}

const answerFormat = "Respond with a single JSON object only, using exactly the keys shown in this example (the numbers are illustrative and belong to a different food):"

// Example answers use invented values so they never reveal the ground truth.
const (
	factualExample = `{
  "total_fat_g": 3.4,
  "total_carbohydrates_g": 12.6,
  "carb_calculation": {"net_carbs": 10.1, "fiber": 2.5, "total": 12.6}
}`
	mathExample = `{
  "carbs_calories": 50.4,
  "protein_calories": 12.8,
  "fat_calories": 30.6,
  "alcohol_calories": 0,
  "total_calories": 93.8
}`
	healthExample = `{
  "diabetes": "moderate",
  "hypertension": "good",
  "high_cholesterol": "poor"
}`
	errorExample = `{
  "error_count": 1,
  "errors": ["trans fat exceeds total fat"]
}`
)

func renderText(category scoring.Category, rec nutrition.FoodRecord) string {
	var b strings.Builder
	switch category {
	case scoring.FactualAccuracy:
		fmt.Fprintf(&b, "Given the following nutrition data:\n\n%s\n\n", foodJSON(rec, true))
		b.WriteString("Question: What is the total fat content and total carbohydrate content of this food item?\n")
		b.WriteString("Show your calculation for carbohydrates (total carbohydrates = netCarbs + fiber).\n\n")
		fmt.Fprintf(&b, "%s\n%s", answerFormat, factualExample)
	case scoring.MathematicalComputation:
		fmt.Fprintf(&b, "Food Item:\n%s\n\n", foodJSON(rec, true))
		b.WriteString("Calculate total calories using the 4-4-9-7 rule:\n")
		b.WriteString("- Carbohydrates (netCarbs + fiber): 4 calories per gram\n")
		b.WriteString("- Protein: 4 calories per gram\n")
		b.WriteString("- Fat: 9 calories per gram\n")
		b.WriteString("- Alcohol: 7 calories per gram\n\n")
		b.WriteString("Report the calories contributed by each macronutrient and their sum.\n\n")
		fmt.Fprintf(&b, "%s\n%s", answerFormat, mathExample)
	case scoring.HealthRecommendations:
		fmt.Fprintf(&b, "Food Item:\n%s\n\n", foodJSON(rec, true))
		b.WriteString("Evaluate this food's suitability for someone with:\n")
		b.WriteString("1) Type 2 diabetes\n2) High blood pressure\n3) High cholesterol\n\n")
		b.WriteString("Grade each condition as \"good\", \"moderate\" or \"poor\" based on the nutritional values.\n\n")
		fmt.Fprintf(&b, "%s\n%s", answerFormat, healthExample)
	case scoring.ErrorDetection:
		fmt.Fprintf(&b, "Identify errors in this nutrition data:\n\n%s\n\n", foodJSON(rec, false))
		b.WriteString("List every nutritionally impossible value and count them.\n\n")
		fmt.Fprintf(&b, "%s\n%s", answerFormat, errorExample)
	}
	return b.String()
}
