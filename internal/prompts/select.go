// internal/prompts/select.go

// Package prompts builds the four evaluation prompts and their expected
// answers from a loaded dataset. Everything here is pure: the same records
// always produce the same prompts.
package prompts

import (
	"strings"

	"github.com/mwiater/nutrieval/internal/nutrition"
)

// Selection holds the record each prompt is built from.
type Selection struct {
	Factual        nutrition.FoodRecord
	Math           nutrition.FoodRecord
	Health         nutrition.FoodRecord
	ErrorDetection nutrition.FoodRecord
}

// SelectionPolicy picks the prompt records from the full dataset.
type SelectionPolicy func(records []nutrition.FoodRecord) Selection

// Nutrients each prompt needs before a record is considered usable.
var (
	factualNeeds = []nutrition.Nutrient{nutrition.Fat, nutrition.NetCarbs, nutrition.Fiber}
	mathNeeds    = []nutrition.Nutrient{nutrition.Fat, nutrition.NetCarbs, nutrition.Fiber, nutrition.Protein}
	healthNeeds  = []nutrition.Nutrient{nutrition.Sugar, nutrition.Sodium, nutrition.SatFat}
	errorNeeds   = []nutrition.Nutrient{nutrition.Fat}
)

// KeywordPolicy prefers records whose name mentions a keyword (banana for the
// factual and math prompts, ice cream for health, steak for error detection)
// and falls back to the first record carrying the needed nutrients, then to
// built-in sample records.
func KeywordPolicy(records []nutrition.FoodRecord) Selection {
	return Selection{
		Factual:        pick(records, "banana", factualNeeds, DefaultFactualRecord()),
		Math:           pick(records, "banana", mathNeeds, DefaultFactualRecord()),
		Health:         pick(records, "ice cream", healthNeeds, DefaultHealthRecord()),
		ErrorDetection: pick(records, "steak", errorNeeds, DefaultErrorRecord()),
	}
}

// FirstCompletePolicy ignores names and takes the first usable record for
// each prompt.
func FirstCompletePolicy(records []nutrition.FoodRecord) Selection {
	return Selection{
		Factual:        pick(records, "", factualNeeds, DefaultFactualRecord()),
		Math:           pick(records, "", mathNeeds, DefaultFactualRecord()),
		Health:         pick(records, "", healthNeeds, DefaultHealthRecord()),
		ErrorDetection: pick(records, "", errorNeeds, DefaultErrorRecord()),
	}
}

// DefaultsPolicy always returns the built-in sample records.
func DefaultsPolicy([]nutrition.FoodRecord) Selection {
	return Selection{
		Factual:        DefaultFactualRecord(),
		Math:           DefaultFactualRecord(),
		Health:         DefaultHealthRecord(),
		ErrorDetection: DefaultErrorRecord(),
	}
}

// PolicyByName resolves a policy name used on the command line.
func PolicyByName(name string) (SelectionPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "keyword":
		return KeywordPolicy, true
	case "first":
		return FirstCompletePolicy, true
	case "defaults":
		return DefaultsPolicy, true
	}
	return nil, false
}

func pick(records []nutrition.FoodRecord, keyword string, needs []nutrition.Nutrient, fallback nutrition.FoodRecord) nutrition.FoodRecord {
	if keyword != "" {
		for _, rec := range records {
			if strings.Contains(strings.ToLower(rec.Name), keyword) && rec.Has(needs...) {
				return rec
			}
		}
	}
	for _, rec := range records {
		if rec.Has(needs...) {
			return rec
		}
	}
	return fallback
}

// DefaultFactualRecord is a medium apple.
func DefaultFactualRecord() nutrition.FoodRecord {
	return nutrition.NewFoodRecord("Apple", "", "Fruit", map[nutrition.Nutrient]float64{
		nutrition.Energy:      378,
		nutrition.Fat:         0.1,
		nutrition.NetCarbs:    19.8,
		nutrition.Protein:     1.7,
		nutrition.Sugar:       16.9,
		nutrition.Fiber:       2.7,
		nutrition.Calcium:     5,
		nutrition.Sodium:      1,
		nutrition.SatFat:      0,
		nutrition.TransFat:    0,
		nutrition.Cholesterol: 0,
		nutrition.Potassium:   342,
		nutrition.Iron:        0.5,
		nutrition.VitaminC:    12,
	})
}

// DefaultHealthRecord is a rich frozen dessert.
func DefaultHealthRecord() nutrition.FoodRecord {
	return nutrition.NewFoodRecord("Ice Cream Sandwich", "", "Frozen Desserts", map[nutrition.Nutrient]float64{
		nutrition.Energy:      285,
		nutrition.Fat:         12,
		nutrition.SatFat:      8,
		nutrition.TransFat:    0.5,
		nutrition.Cholesterol: 45,
		nutrition.Sodium:      650,
		nutrition.Sugar:       18,
		nutrition.Protein:     6,
	})
}

// DefaultErrorRecord already contains impossible values.
func DefaultErrorRecord() nutrition.FoodRecord {
	return nutrition.NewFoodRecord("Sample Entry", "", "", map[nutrition.Nutrient]float64{
		nutrition.Energy:   400,
		nutrition.Fat:      45,
		nutrition.SatFat:   50,
		nutrition.Protein:  0,
		nutrition.Sodium:   -5,
		nutrition.VitaminC: 150,
	})
}
