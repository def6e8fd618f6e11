// internal/nutrition/food.go

// Package nutrition models food records loaded from the nutrition dataset.
// A nutrient that the source did not report is kept as an explicit absent
// value; it is never coerced to zero.
package nutrition

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Nutrient names a numeric column in the dataset.
type Nutrient string

const (
	Energy       Nutrient = "energy"
	Fat          Nutrient = "fat"
	NetCarbs     Nutrient = "netCarbs"
	Protein      Nutrient = "protein"
	Sugar        Nutrient = "sugar"
	Fiber        Nutrient = "fiber"
	Calcium      Nutrient = "calcium"
	Sodium       Nutrient = "sodium"
	SatFat       Nutrient = "satFat"
	TransFat     Nutrient = "transFat"
	PolyUnsatFat Nutrient = "polyUnsatFat"
	MonoUnsatFat Nutrient = "monoUnsatFat"
	Omega3Fat    Nutrient = "omega3Fat"
	Cholesterol  Nutrient = "cholesterol"
	Alcohol      Nutrient = "alcohol"
	Potassium    Nutrient = "potassium"
	Iron         Nutrient = "iron"
	VitaminC     Nutrient = "vitaminC"
)

// Nutrients lists every nutrient column in dataset order.
var Nutrients = []Nutrient{
	Energy, Fat, NetCarbs, Protein, Sugar, Fiber, Calcium, Sodium, SatFat, TransFat,
	PolyUnsatFat, MonoUnsatFat, Omega3Fat, Cholesterol, Alcohol, Potassium, Iron, VitaminC,
}

// IsNutrient reports whether name is a known nutrient column.
func IsNutrient(name string) bool {
	for _, n := range Nutrients {
		if string(n) == name {
			return true
		}
	}
	return false
}

// Value is a nutrient amount that may be absent.
// The zero Value is absent.
type Value struct {
	amount  float64
	present bool
}

// Present wraps a reported amount.
func Present(v float64) Value { return Value{amount: v, present: true} }

// Absent returns the marker for an unreported amount.
func Absent() Value { return Value{} }

// Get returns the amount and whether it is present.
func (v Value) Get() (float64, bool) { return v.amount, v.present }

// IsAbsent reports whether no amount was recorded.
func (v Value) IsAbsent() bool { return !v.present }

// Or returns the amount, or fallback when absent.
func (v Value) Or(fallback float64) float64 {
	if !v.present {
		return fallback
	}
	return v.amount
}

// String renders the amount without trailing zeros, or "" when absent.
func (v Value) String() string {
	if !v.present {
		return ""
	}
	return strconv.FormatFloat(v.amount, 'f', -1, 64)
}

// MarshalJSON encodes an absent value as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.present {
		return []byte("null"), nil
	}
	return json.Marshal(v.amount)
}

// UnmarshalJSON decodes null as absent.
func (v *Value) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*v = Absent()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Present(f)
	return nil
}

// Round2 rounds to two decimals. Absent stays absent.
func (v Value) Round2() Value {
	if !v.present {
		return v
	}
	return Present(math.Round(v.amount*100) / 100)
}

// FoodRecord is one row of the dataset. Records are read-only once built;
// WithNutrient returns a modified copy.
type FoodRecord struct {
	Name           string
	Brand          string
	Classification string
	nutrients      map[Nutrient]float64
}

// NewFoodRecord builds a record from the reported nutrient amounts. Nutrients
// missing from values are absent.
func NewFoodRecord(name, brand, classification string, values map[Nutrient]float64) FoodRecord {
	copied := make(map[Nutrient]float64, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return FoodRecord{
		Name:           name,
		Brand:          brand,
		Classification: classification,
		nutrients:      copied,
	}
}

// Value returns the amount reported for n.
func (f FoodRecord) Value(n Nutrient) Value {
	v, ok := f.nutrients[n]
	if !ok {
		return Absent()
	}
	return Present(v)
}

// Has reports whether every listed nutrient is present.
func (f FoodRecord) Has(ns ...Nutrient) bool {
	for _, n := range ns {
		if _, ok := f.nutrients[n]; !ok {
			return false
		}
	}
	return true
}

// WithNutrient returns a copy of f with n set to v.
func (f FoodRecord) WithNutrient(n Nutrient, v float64) FoodRecord {
	values := make(map[Nutrient]float64, len(f.nutrients)+1)
	for k, existing := range f.nutrients {
		values[k] = existing
	}
	values[n] = v
	return NewFoodRecord(f.Name, f.Brand, f.Classification, values)
}

// PresentNutrients returns the nutrients that carry a value, in dataset order.
func (f FoodRecord) PresentNutrients() []Nutrient {
	out := make([]Nutrient, 0, len(f.nutrients))
	for _, n := range Nutrients {
		if _, ok := f.nutrients[n]; ok {
			out = append(out, n)
		}
	}
	// Nutrients outside the known column set keep a stable order.
	var extra []Nutrient
	for n := range f.nutrients {
		if !IsNutrient(string(n)) {
			extra = append(extra, n)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// NutrientMap returns the present nutrients keyed by column name.
func (f FoodRecord) NutrientMap() map[string]float64 {
	out := make(map[string]float64, len(f.nutrients))
	for k, v := range f.nutrients {
		out[string(k)] = v
	}
	return out
}

// DisplayName joins the brand and name when a brand exists.
func (f FoodRecord) DisplayName() string {
	name := strings.TrimSpace(f.Name)
	brand := strings.TrimSpace(f.Brand)
	if brand == "" {
		return name
	}
	if name == "" {
		return brand
	}
	return brand + " " + name
}
