// internal/prompts/derive.go
package prompts

import (
	"github.com/mwiater/nutrieval/internal/nutrition"
	"github.com/mwiater/nutrieval/internal/scoring"
)

// Atwater factors in kcal per gram.
const (
	CarbKcalPerGram    = 4
	ProteinKcalPerGram = 4
	FatKcalPerGram     = 9
	AlcoholKcalPerGram = 7
)

// Health thresholds per serving.
const (
	SugarPoorG        = 15.0
	SugarModerateG    = 5.0
	SodiumPoorMg      = 400.0
	SodiumModerateMg  = 140.0
	SatFatPoorG       = 5.0
	SatFatModerateG   = 1.5
	CholesterolPoorMg = 60.0
	CholesterolModMg  = 20.0
)

// ErrorSatFatOffset and ErrorSodiumValue corrupt a clean record for the
// error detection prompt.
const (
	ErrorSatFatOffset = 5.0
	ErrorSodiumValue  = -5.0
)

func sum(vs ...nutrition.Value) nutrition.Value {
	total := 0.0
	for _, v := range vs {
		amount, ok := v.Get()
		if !ok {
			return nutrition.Absent()
		}
		total += amount
	}
	return nutrition.Present(total)
}

func scale(v nutrition.Value, factor float64) nutrition.Value {
	amount, ok := v.Get()
	if !ok {
		return v
	}
	return nutrition.Present(amount * factor)
}

// TotalCarbs is net carbs plus fiber, absent when either is.
func TotalCarbs(rec nutrition.FoodRecord) nutrition.Value {
	return sum(rec.Value(nutrition.NetCarbs), rec.Value(nutrition.Fiber))
}

// DeriveFactual computes the 1A expected answer.
func DeriveFactual(rec nutrition.FoodRecord) scoring.FactualExpected {
	total := TotalCarbs(rec).Round2()
	return scoring.FactualExpected{
		TotalFatG:           rec.Value(nutrition.Fat).Round2(),
		TotalCarbohydratesG: total,
		CarbCalculation: scoring.CarbCalculation{
			NetCarbs: rec.Value(nutrition.NetCarbs).Round2(),
			Fiber:    rec.Value(nutrition.Fiber).Round2(),
			Total:    total,
		},
	}
}

// DeriveMath computes the 2A expected answer with the 4-4-9-7 rule. The total
// needs carbs, protein and fat; alcohol is added only when reported.
func DeriveMath(rec nutrition.FoodRecord) scoring.MathExpected {
	carbs := scale(TotalCarbs(rec), CarbKcalPerGram)
	protein := scale(rec.Value(nutrition.Protein), ProteinKcalPerGram)
	fat := scale(rec.Value(nutrition.Fat), FatKcalPerGram)
	alcohol := scale(rec.Value(nutrition.Alcohol), AlcoholKcalPerGram)

	total := sum(carbs, protein, fat)
	if !alcohol.IsAbsent() {
		total = sum(total, alcohol)
	}
	return scoring.MathExpected{
		CarbsCalories:   carbs.Round2(),
		ProteinCalories: protein.Round2(),
		FatCalories:     fat.Round2(),
		AlcoholCalories: alcohol.Round2(),
		TotalCalories:   total.Round2(),
	}
}

// DeriveHealth grades the record for three conditions. A condition whose
// inputs are all absent has no verdict.
func DeriveHealth(rec nutrition.FoodRecord) scoring.HealthExpected {
	return scoring.HealthExpected{
		Diabetes:        diabetesVerdict(rec),
		Hypertension:    hypertensionVerdict(rec),
		HighCholesterol: cholesterolVerdict(rec),
	}
}

func diabetesVerdict(rec nutrition.FoodRecord) scoring.Verdict {
	sugar, ok := rec.Value(nutrition.Sugar).Get()
	switch {
	case !ok:
		return ""
	case sugar > SugarPoorG:
		return scoring.VerdictPoor
	case sugar > SugarModerateG:
		return scoring.VerdictModerate
	}
	return scoring.VerdictGood
}

func hypertensionVerdict(rec nutrition.FoodRecord) scoring.Verdict {
	sodium, ok := rec.Value(nutrition.Sodium).Get()
	switch {
	case !ok:
		return ""
	case sodium > SodiumPoorMg:
		return scoring.VerdictPoor
	case sodium > SodiumModerateMg:
		return scoring.VerdictModerate
	}
	return scoring.VerdictGood
}

func cholesterolVerdict(rec nutrition.FoodRecord) scoring.Verdict {
	sat, hasSat := rec.Value(nutrition.SatFat).Get()
	trans, hasTrans := rec.Value(nutrition.TransFat).Get()
	chol, hasChol := rec.Value(nutrition.Cholesterol).Get()
	if !hasSat && !hasTrans && !hasChol {
		return ""
	}
	if (hasSat && sat >= SatFatPoorG) || (hasTrans && trans > 0) || (hasChol && chol > CholesterolPoorMg) {
		return scoring.VerdictPoor
	}
	if (hasSat && sat > SatFatModerateG) || (hasChol && chol > CholesterolModMg) {
		return scoring.VerdictModerate
	}
	return scoring.VerdictGood
}

// DetectErrors lists the nutritional impossibilities in rec, in a fixed
// order. Comparisons involving an absent value are skipped.
func DetectErrors(rec nutrition.FoodRecord) []string {
	var found []string
	fat := rec.Value(nutrition.Fat)
	if exceeds(rec.Value(nutrition.SatFat), fat) {
		found = append(found, scoring.DescSatFatExceedsFat)
	}
	if exceeds(rec.Value(nutrition.TransFat), fat) {
		found = append(found, scoring.DescTransFatExceedsFat)
	}
	if exceeds(rec.Value(nutrition.Sugar), TotalCarbs(rec)) {
		found = append(found, scoring.DescSugarExceedsCarbs)
	}
	for _, n := range rec.PresentNutrients() {
		if v, _ := rec.Value(n).Get(); v < 0 {
			found = append(found, scoring.DescNegativeValue)
			break
		}
	}
	return found
}

func exceeds(part, whole nutrition.Value) bool {
	p, okPart := part.Get()
	w, okWhole := whole.Get()
	return okPart && okWhole && p > w
}

// ErrorRecord returns rec unchanged when it already holds impossible values,
// otherwise a copy with saturated fat above total fat and a negative sodium.
func ErrorRecord(rec nutrition.FoodRecord) nutrition.FoodRecord {
	if len(DetectErrors(rec)) > 0 {
		return rec
	}
	fat := rec.Value(nutrition.Fat).Or(0)
	corrupted := rec.WithNutrient(nutrition.Fat, fat)
	corrupted = corrupted.WithNutrient(nutrition.SatFat, fat+ErrorSatFatOffset)
	return corrupted.WithNutrient(nutrition.Sodium, ErrorSodiumValue)
}

// DeriveErrors computes the 4A expected answer for the record as presented.
func DeriveErrors(rec nutrition.FoodRecord) scoring.ErrorExpected {
	return scoring.NewErrorExpected(DetectErrors(rec)...)
}

// Derive computes the expected answer for category from rec.
func Derive(category scoring.Category, rec nutrition.FoodRecord) scoring.ExpectedAnswer {
	switch category {
	case scoring.FactualAccuracy:
		return DeriveFactual(rec)
	case scoring.MathematicalComputation:
		return DeriveMath(rec)
	case scoring.HealthRecommendations:
		return DeriveHealth(rec)
	case scoring.ErrorDetection:
		return DeriveErrors(rec)
	}
	return nil
}
