// internal/scoring/schema.go
package scoring

import (
	"github.com/xeipuuv/gojsonschema"
)

func numberProp() map[string]any { return map[string]any{"type": "number"} }

func verdictProp() map[string]any {
	return map[string]any{
		"oneOf": []any{
			map[string]any{"type": "string"},
			map[string]any{
				"type":       "object",
				"properties": map[string]any{"verdict": map[string]any{"type": "string"}},
				"required":   []string{"verdict"},
			},
		},
	}
}

// responseSchemas describe the shape each prompt asks for. They are advisory:
// the scorer reads fields directly and schema failures never cost points.
var responseSchemas = map[Category]map[string]any{
	FactualAccuracy: {
		"type": "object",
		"properties": map[string]any{
			"total_fat_g":           numberProp(),
			"total_carbohydrates_g": numberProp(),
			"carb_calculation": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"net_carbs": numberProp(),
					"fiber":     numberProp(),
					"total":     numberProp(),
				},
				"required": []string{"net_carbs", "fiber", "total"},
			},
		},
		"required": []string{"total_fat_g", "total_carbohydrates_g", "carb_calculation"},
	},
	MathematicalComputation: {
		"type": "object",
		"properties": map[string]any{
			"carbs_calories":   numberProp(),
			"protein_calories": numberProp(),
			"fat_calories":     numberProp(),
			"alcohol_calories": numberProp(),
			"total_calories":   numberProp(),
		},
		"required": []string{"total_calories"},
	},
	HealthRecommendations: {
		"type": "object",
		"properties": map[string]any{
			"diabetes":         verdictProp(),
			"hypertension":     verdictProp(),
			"high_cholesterol": verdictProp(),
		},
		"required": []string{"diabetes", "hypertension", "high_cholesterol"},
	},
	ErrorDetection: {
		"type": "object",
		"properties": map[string]any{
			"error_count": map[string]any{"type": "integer", "minimum": 0},
			"errors":      map[string]any{"type": "array"},
		},
		"required": []string{"error_count", "errors"},
	},
}

// SchemaNotes validates an extracted object against the category's response
// schema and returns one note per violation.
func SchemaNotes(category Category, object string) []string {
	schema, ok := responseSchemas[category]
	if !ok {
		return nil
	}
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewStringLoader(object))
	if err != nil {
		return []string{"schema validation error: " + err.Error()}
	}
	if result.Valid() {
		return nil
	}
	var notes []string
	for _, desc := range result.Errors() {
		notes = append(notes, desc.String())
	}
	return notes
}
