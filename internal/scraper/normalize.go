package scraper

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/mwiater/nutrieval/internal/nutrition"
)

// Normalize converts an API food into a record. Nutrients outside the
// dataset column set are dropped; missing or non-numeric ones stay absent.
func Normalize(food FoodDetail) nutrition.FoodRecord {
	values := make(map[nutrition.Nutrient]float64)
	for key, raw := range food.Nutrients {
		if !nutrition.IsNutrient(key) {
			continue
		}
		if v, ok := number(raw); ok {
			values[nutrition.Nutrient(key)] = v
		}
	}
	return nutrition.NewFoodRecord(
		strings.TrimSpace(food.Name),
		strings.TrimSpace(food.Brand.Name),
		classification(food.Classification),
		values,
	)
}

// number accepts a JSON number, a numeric string, or an object with a
// numeric "value" field.
func number(raw json.RawMessage) (float64, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	case map[string]any:
		if inner, ok := t["value"].(float64); ok {
			return inner, true
		}
	}
	return 0, false
}

func classification(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Name)
	}
	return ""
}
