// internal/scoring/scorer.go

// Package scoring converts a model's free-text response into points for one
// of the four evaluation categories. Scoring never fails: malformed input
// resolves to zero points with the reason recorded as a discrepancy.
package scoring

import (
	"fmt"
	"math"
	"strconv"

	"github.com/mwiater/nutrieval/internal/nutrition"
	"github.com/tidwall/gjson"
)

// Tolerance is the absolute difference under which two numbers are equal.
const Tolerance = 0.01

// toleranceSlack keeps the boundary inclusive despite binary float error
// (0.11 - 0.1 evaluates slightly above 0.01).
const toleranceSlack = 1e-9

// Discrepancy reasons.
const (
	ReasonInvalidJSON      = "invalid JSON"
	ReasonEmptyResponse    = "invalid JSON: empty response"
	ReasonMissing          = "field missing"
	ReasonTypeMismatch     = "type mismatch"
	ReasonOutOfTolerance   = "outside tolerance"
	ReasonMismatch         = "value mismatch"
	ReasonNotEvaluated     = "not evaluated: expected value absent"
	ReasonBundleIncomplete = "bundle incomplete"
	ReasonWrongExpected    = "expected answer does not match category"
	ReasonUnknownCategory  = "unknown category"
	ReasonCompletionFailed = "completion failed"
)

// Discrepancy is the audit record for one compared field.
type Discrepancy struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Matched  bool   `json:"matched"`
	Reason   string `json:"reason,omitempty"`
}

// Result is the scored outcome of one prompt.
type Result struct {
	PromptID      string        `json:"promptId"`
	Category      Category      `json:"category"`
	Earned        float64       `json:"earned"`
	Max           float64       `json:"max"`
	Percentage    float64       `json:"percentage"`
	Parse         ParseOutcome  `json:"parse"`
	Discrepancies []Discrepancy `json:"discrepancies"`
	SchemaNotes   []string      `json:"schemaNotes,omitempty"`
}

// WithinTolerance reports whether |expected-actual| <= Tolerance.
func WithinTolerance(expected, actual float64) bool {
	return math.Abs(expected-actual) <= Tolerance+toleranceSlack
}

type comparator func(doc gjson.Result, expected ExpectedAnswer, s *sheet)

var comparators = [...]comparator{
	FactualAccuracy:         compareFactual,
	MathematicalComputation: compareMath,
	HealthRecommendations:   compareHealth,
	ErrorDetection:          compareErrors,
}

// Score parses raw and compares it against expected under the rubric for
// category.
func Score(category Category, raw string, expected ExpectedAnswer) Result {
	res := Result{
		PromptID: category.PromptID(),
		Category: category,
		Max:      category.MaxPoints(),
	}

	if !category.Valid() {
		res.Parse = ParseInvalid
		res.Discrepancies = []Discrepancy{{Field: "category", Actual: strconv.Itoa(int(category)), Reason: ReasonUnknownCategory}}
		return res
	}
	if expected == nil || expected.Category() != category {
		res.Parse = ParseInvalid
		res.Discrepancies = []Discrepancy{{Field: "expected", Expected: category.String(), Reason: ReasonWrongExpected}}
		return res
	}

	object, outcome := ExtractJSONObject(raw)
	res.Parse = outcome
	if outcome != ParseValid {
		reason := ReasonInvalidJSON
		if outcome == ParseEmpty {
			reason = ReasonEmptyResponse
		}
		res.Discrepancies = []Discrepancy{{Field: "response", Actual: raw, Reason: reason}}
		return res
	}

	doc := gjson.Parse(object)
	s := &sheet{}
	comparators[category](doc, expected, s)

	res.Earned = s.scaled(res.Max)
	res.Percentage = Percentage(res.Earned, res.Max)
	res.Discrepancies = s.notes
	res.SchemaNotes = SchemaNotes(category, object)
	return res
}

// Failed is the zero-point result for a prompt whose completion call failed.
func Failed(category Category, reason string) Result {
	return Result{
		PromptID: category.PromptID(),
		Category: category,
		Max:      category.MaxPoints(),
		Parse:    ParseEmpty,
		Discrepancies: []Discrepancy{{
			Field:  "completion",
			Actual: reason,
			Reason: ReasonCompletionFailed,
		}},
	}
}

// Percentage is 100*earned/max rounded to one decimal, or 0 when max is 0.
func Percentage(earned, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return math.Round(1000*earned/max) / 10
}

// sheet accumulates weighted slots. Slots whose expected value is absent are
// recorded but carry no weight.
type sheet struct {
	earned    float64
	available float64
	notes     []Discrepancy
}

// slot adds a slot of weight with credit in [0,1].
func (s *sheet) slot(weight, credit float64) {
	credit = math.Max(0, math.Min(1, credit))
	s.available += weight
	s.earned += weight * credit
}

func (s *sheet) note(d Discrepancy) { s.notes = append(s.notes, d) }

// scaled maps the earned share of evaluated weight onto max.
func (s *sheet) scaled(max float64) float64 {
	if s.available <= 0 {
		return 0
	}
	earned := max * s.earned / s.available
	return math.Max(0, math.Min(max, earned))
}

type numberLookup struct {
	value  float64
	actual string
	reason string
}

// lookupNumber resolves the first existing path. Non-numeric values are type
// mismatches.
func lookupNumber(doc gjson.Result, paths ...string) numberLookup {
	for _, path := range paths {
		r := doc.Get(path)
		if !r.Exists() {
			continue
		}
		if r.Type != gjson.Number {
			return numberLookup{actual: r.Raw, reason: ReasonTypeMismatch}
		}
		return numberLookup{value: r.Num, actual: r.Raw}
	}
	return numberLookup{reason: ReasonMissing}
}

// compareNumber scores one numeric field as a single-weight slot.
func compareNumber(doc gjson.Result, field string, expected nutrition.Value, s *sheet, paths ...string) {
	d, ok := numberDiscrepancy(doc, field, expected, paths...)
	s.note(d)
	if !ok {
		return
	}
	if d.Matched {
		s.slot(1, 1)
	} else {
		s.slot(1, 0)
	}
}

// numberDiscrepancy compares one field. ok is false when the expected value
// is absent and the field is not evaluated.
func numberDiscrepancy(doc gjson.Result, field string, expected nutrition.Value, paths ...string) (Discrepancy, bool) {
	if len(paths) == 0 {
		paths = []string{field}
	}
	want, present := expected.Get()
	if !present {
		return Discrepancy{Field: field, Reason: ReasonNotEvaluated}, false
	}
	d := Discrepancy{Field: field, Expected: formatNumber(want)}
	got := lookupNumber(doc, paths...)
	d.Actual = got.actual
	if got.reason != "" {
		d.Reason = got.reason
		return d, true
	}
	if WithinTolerance(want, got.value) {
		d.Matched = true
		return d, true
	}
	d.Reason = ReasonOutOfTolerance
	return d, true
}

func compareFactual(doc gjson.Result, expected ExpectedAnswer, s *sheet) {
	exp := expected.(FactualExpected)
	compareNumber(doc, "total_fat_g", exp.TotalFatG, s)
	compareNumber(doc, "total_carbohydrates_g", exp.TotalCarbohydratesG, s)

	bundle := doc.Get("carb_calculation")
	if bundle.Exists() && !bundle.IsObject() {
		s.note(Discrepancy{Field: "carb_calculation", Actual: bundle.Raw, Reason: ReasonTypeMismatch})
		s.slot(1, 0)
		return
	}

	parts := []struct {
		key   string
		value nutrition.Value
	}{
		{"net_carbs", exp.CarbCalculation.NetCarbs},
		{"fiber", exp.CarbCalculation.Fiber},
		{"total", exp.CarbCalculation.Total},
	}
	evaluated := 0
	allMatched := true
	for _, part := range parts {
		d, ok := numberDiscrepancy(doc, "carb_calculation."+part.key, part.value)
		s.note(d)
		if !ok {
			continue
		}
		evaluated++
		if !d.Matched {
			allMatched = false
		}
	}
	if evaluated == 0 {
		return
	}
	if allMatched {
		s.slot(1, 1)
		return
	}
	s.note(Discrepancy{Field: "carb_calculation", Reason: ReasonBundleIncomplete})
	s.slot(1, 0)
}

// compareMath scores each macro calorie value and the total as equal slots,
// so a breakdown-only or total-only answer earns its share of the points.
func compareMath(doc gjson.Result, expected ExpectedAnswer, s *sheet) {
	exp := expected.(MathExpected)
	macros := []struct {
		key   string
		value nutrition.Value
	}{
		{"carbs_calories", exp.CarbsCalories},
		{"protein_calories", exp.ProteinCalories},
		{"fat_calories", exp.FatCalories},
		{"alcohol_calories", exp.AlcoholCalories},
	}

	for _, m := range macros {
		compareNumber(doc, m.key, m.value, s, mathPaths(m.key)...)
	}
	compareNumber(doc, "total_calories", exp.TotalCalories, s, mathPaths("total_calories")...)
}

// mathPaths accepts the breakdown at the top level or nested one level deep.
func mathPaths(key string) []string {
	return []string{key, "calorie_breakdown." + key, "breakdown." + key}
}

func compareHealth(doc gjson.Result, expected ExpectedAnswer, s *sheet) {
	exp := expected.(HealthExpected)
	conditions := []struct {
		key  string
		want Verdict
	}{
		{"diabetes", exp.Diabetes},
		{"hypertension", exp.Hypertension},
		{"high_cholesterol", exp.HighCholesterol},
	}
	for _, c := range conditions {
		if c.want == "" {
			s.note(Discrepancy{Field: c.key, Reason: ReasonNotEvaluated})
			continue
		}
		d := Discrepancy{Field: c.key, Expected: string(c.want)}
		label, actual, reason := lookupVerdict(doc.Get(c.key))
		d.Actual = actual
		switch {
		case reason != "":
			d.Reason = reason
		case NormalizeVerdict(label) == c.want:
			d.Matched = true
		default:
			d.Reason = ReasonMismatch
		}
		s.note(d)
		if d.Matched {
			s.slot(1, 1)
		} else {
			s.slot(1, 0)
		}
	}
}

// lookupVerdict accepts "poor" or {"verdict":"poor", ...}.
func lookupVerdict(r gjson.Result) (label, actual, reason string) {
	if !r.Exists() {
		return "", "", ReasonMissing
	}
	if r.Type == gjson.String {
		return r.Str, r.Str, ""
	}
	if r.IsObject() {
		v := r.Get("verdict")
		if !v.Exists() {
			return "", r.Raw, ReasonMissing
		}
		if v.Type == gjson.String {
			return v.Str, v.Str, ""
		}
		return "", v.Raw, ReasonTypeMismatch
	}
	return "", r.Raw, ReasonTypeMismatch
}

func compareErrors(doc gjson.Result, expected ExpectedAnswer, s *sheet) {
	exp := expected.(ErrorExpected)
	want := exp.ErrorCount()

	countNote := Discrepancy{Field: "error_count", Expected: strconv.Itoa(want)}
	got := lookupNumber(doc, "error_count")
	countNote.Actual = got.actual
	switch {
	case got.reason != "":
		countNote.Reason = got.reason
	case got.value == float64(want):
		countNote.Matched = true
	default:
		countNote.Reason = ReasonMismatch
	}
	s.note(countNote)
	if countNote.Matched {
		s.slot(1, 1)
	} else {
		s.slot(1, 0)
	}

	list := doc.Get("errors")
	if !list.Exists() || !list.IsArray() {
		reason := ReasonMissing
		if list.Exists() {
			reason = ReasonTypeMismatch
		}
		s.note(Discrepancy{Field: "errors", Expected: fmt.Sprintf("%d descriptions", want), Actual: list.Raw, Reason: reason})
		s.slot(2, 0)
		return
	}

	reported := reportedErrors(list)
	if want == 0 {
		d := Discrepancy{Field: "errors", Expected: "no errors", Actual: fmt.Sprintf("%d reported", len(reported))}
		d.Matched = len(reported) == 0
		if !d.Matched {
			d.Reason = ReasonMismatch
		}
		s.note(d)
		if d.Matched {
			s.slot(2, 1)
		} else {
			s.slot(2, 0)
		}
		return
	}

	matched := 0
	for i, e := range exp.Errors {
		d := Discrepancy{Field: fmt.Sprintf("errors[%d]", i), Expected: e.Description}
		for _, r := range reported {
			if e.Matches(r) {
				d.Matched = true
				d.Actual = r
				break
			}
		}
		if d.Matched {
			matched++
		} else {
			d.Reason = ReasonMissing
		}
		s.note(d)
	}
	s.slot(2, float64(matched)/float64(want))
}

// reportedErrors collects string entries and objects carrying a string
// description; other entries are ignored.
func reportedErrors(list gjson.Result) []string {
	var out []string
	list.ForEach(func(_, value gjson.Result) bool {
		switch {
		case value.Type == gjson.String:
			out = append(out, value.Str)
		case value.IsObject():
			for _, key := range []string{"description", "error", "issue"} {
				if v := value.Get(key); v.Type == gjson.String {
					out = append(out, v.Str)
					break
				}
			}
		}
		return true
	})
	return out
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
