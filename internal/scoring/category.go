// internal/scoring/category.go
package scoring

import (
	"fmt"
	"strings"
)

// Category is one of the four fixed evaluation types.
type Category int

const (
	FactualAccuracy Category = iota + 1
	MathematicalComputation
	HealthRecommendations
	ErrorDetection
)

// Categories lists every category in run order.
var Categories = []Category{FactualAccuracy, MathematicalComputation, HealthRecommendations, ErrorDetection}

type categoryInfo struct {
	id         string
	label      string
	difficulty string
	maxPoints  float64
	aliases    []string
}

var categoryTable = [...]categoryInfo{
	FactualAccuracy:         {id: "1A", label: "Factual Accuracy", difficulty: "Basic", maxPoints: 3, aliases: []string{"factual", "facts"}},
	MathematicalComputation: {id: "2A", label: "Mathematical Computation", difficulty: "Intermediate", maxPoints: 4, aliases: []string{"math", "mathematical", "calories"}},
	HealthRecommendations:   {id: "3A", label: "Health Recommendations", difficulty: "Advanced", maxPoints: 3, aliases: []string{"health"}},
	ErrorDetection:          {id: "4A", label: "Error Detection", difficulty: "Expert", maxPoints: 3, aliases: []string{"error", "errors"}},
}

// Valid reports whether c is one of the four defined categories.
func (c Category) Valid() bool {
	return c >= FactualAccuracy && c <= ErrorDetection
}

func (c Category) info() categoryInfo {
	if !c.Valid() {
		return categoryInfo{}
	}
	return categoryTable[c]
}

// String returns the human-readable label, e.g. "Factual Accuracy".
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return c.info().label
}

// PromptID returns the fixed prompt identifier, e.g. "1A".
func (c Category) PromptID() string { return c.info().id }

// Difficulty returns the difficulty label attached to the category's prompt.
func (c Category) Difficulty() string { return c.info().difficulty }

// MaxPoints returns the fixed maximum score. Undefined categories score out of 0.
func (c Category) MaxPoints() float64 { return c.info().maxPoints }

// MarshalText encodes the category by its label.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText accepts anything ParseCategory accepts.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory resolves a prompt id ("2A"), a label ("Health Recommendations")
// or a short alias ("math") to a Category.
func ParseCategory(s string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		info := c.info()
		if key == strings.ToLower(info.id) || key == strings.ToLower(info.label) {
			return c, nil
		}
		for _, alias := range info.aliases {
			if key == alias {
				return c, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}
