package nutrition

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

const sampleCSV = `name,brand_name,classification,energy,fat,netCarbs,protein,sugar,fiber,calcium,sodium,satFat,transFat,polyUnsatFat,monoUnsatFat,omega3Fat,cholesterol,alcohol,potassium,iron,vitaminC
"Banana, raw",,Fruit,378,0.1,19.8,1.7,16.9,2.7,5,1,0,0,,,,0,,342,0.5,12
Sirloin Steak,Butcher Co,Meat,800,12,0,30,0,0,,60,5,0.2,,,,80,,,,
`

func TestReadParsesRowsAndAbsentValues(t *testing.T) {
	ds, err := Read(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if len(ds.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(ds.Records))
	}
	if len(ds.Skipped) != 0 {
		t.Fatalf("expected no skipped rows, got %v", ds.Skipped)
	}

	banana := ds.Records[0]
	if banana.Name != "Banana, raw" {
		t.Fatalf("quoted name not preserved: %q", banana.Name)
	}
	if got, ok := banana.Value(NetCarbs).Get(); !ok || got != 19.8 {
		t.Fatalf("netCarbs: got %v present=%v", got, ok)
	}
	if !banana.Value(Alcohol).IsAbsent() {
		t.Fatalf("empty alcohol cell should be absent")
	}
	if banana.Value(SatFat).IsAbsent() {
		t.Fatalf("zero satFat should be present")
	}

	steak := ds.Records[1]
	if steak.Brand != "Butcher Co" || steak.Classification != "Meat" {
		t.Fatalf("unexpected strings: %+v", steak)
	}
	if !steak.Value(Calcium).IsAbsent() {
		t.Fatalf("calcium should be absent for steak")
	}
}

func TestReadSkipsMalformedRows(t *testing.T) {
	input := "name,fat,sodium\nGood,1,2\nBad,abc,2\n,,\nAlso Good,,3\n"
	ds, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if len(ds.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(ds.Records))
	}
	if len(ds.Skipped) != 2 {
		t.Fatalf("expected 2 skipped rows, got %d", len(ds.Skipped))
	}
	if ds.Skipped[0].Line != 3 || ds.Skipped[0].Column != "fat" {
		t.Fatalf("unexpected first row error: %+v", ds.Skipped[0])
	}
}

func TestReadRejectsNonFiniteNumbers(t *testing.T) {
	input := "name,fat,netCarbs,fiber\nBanana,NaN,20,2\nApple,0.1,19.8,Inf\nPear,-inf,1,1\nOat Bar,4,20,3\n"
	ds, err := Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if len(ds.Records) != 1 || ds.Records[0].Name != "Oat Bar" {
		t.Fatalf("expected only Oat Bar to load, got %+v", ds.Records)
	}
	wantColumns := []string{"fat", "fiber", "fat"}
	if len(ds.Skipped) != len(wantColumns) {
		t.Fatalf("expected %d skipped rows, got %v", len(wantColumns), ds.Skipped)
	}
	for i, col := range wantColumns {
		if ds.Skipped[i].Column != col || ds.Skipped[i].Line != i+2 {
			t.Fatalf("row error %d: got %+v, want column %s on line %d", i, ds.Skipped[i], col, i+2)
		}
	}
}

func TestReadRequiresNameColumn(t *testing.T) {
	_, err := Read(strings.NewReader("fat,sodium\n1,2\n"))
	if !errors.Is(err, ErrMissingHeader) {
		t.Fatalf("expected ErrMissingHeader, got %v", err)
	}
	_, err = Read(strings.NewReader(""))
	if !errors.Is(err, ErrMissingHeader) {
		t.Fatalf("expected ErrMissingHeader for empty input, got %v", err)
	}
}

func TestWriteRoundTripKeepsAbsence(t *testing.T) {
	rec := NewFoodRecord("Apple", "", "Fruit", map[Nutrient]float64{Fat: 0.1, Sugar: 0})

	var buf bytes.Buffer
	if err := Write(&buf, []FoodRecord{rec}); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != strings.Join(Header(), ",") {
		t.Fatalf("unexpected header: %s", lines[0])
	}

	ds, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	got := ds.Records[0]
	if got.Value(Sugar).IsAbsent() || got.Value(Sugar).Or(-1) != 0 {
		t.Fatalf("zero sugar lost")
	}
	if !got.Value(Fiber).IsAbsent() {
		t.Fatalf("absent fiber became present")
	}
}

func TestWriteFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	rec := NewFoodRecord("Apple", "", "", map[Nutrient]float64{Fat: 1})
	if err := WriteFile(path, []FoodRecord{rec}); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	ds, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if len(ds.Records) != 1 {
		t.Fatalf("expected one record, got %d", len(ds.Records))
	}
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A Value `json:"a"`
		B Value `json:"b"`
	}{A: Present(1.5), B: Absent()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"a":1.5,"b":null}` {
		t.Fatalf("unexpected json: %s", data)
	}

	var v Value
	if err := json.Unmarshal([]byte("null"), &v); err != nil || !v.IsAbsent() {
		t.Fatalf("null should decode as absent: %v %v", v, err)
	}
	if err := json.Unmarshal([]byte("2.25"), &v); err != nil || v.Or(0) != 2.25 {
		t.Fatalf("number should decode as present: %v %v", v, err)
	}
}

func TestWithNutrientDoesNotMutate(t *testing.T) {
	rec := NewFoodRecord("Apple", "", "", map[Nutrient]float64{Fat: 1})
	changed := rec.WithNutrient(Fat, 5)
	if rec.Value(Fat).Or(0) != 1 {
		t.Fatalf("original record mutated")
	}
	if changed.Value(Fat).Or(0) != 5 {
		t.Fatalf("copy not updated")
	}
}

func TestDisplayName(t *testing.T) {
	if got := NewFoodRecord("Cola", "Fizz", "", nil).DisplayName(); got != "Fizz Cola" {
		t.Fatalf("got %q", got)
	}
	if got := NewFoodRecord("Cola", "", "", nil).DisplayName(); got != "Cola" {
		t.Fatalf("got %q", got)
	}
}
