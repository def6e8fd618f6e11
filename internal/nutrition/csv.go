// internal/nutrition/csv.go
package nutrition

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	ColumnName           = "name"
	ColumnBrand          = "brand_name"
	ColumnClassification = "classification"
)

// ErrMissingHeader is returned when the dataset lacks the name column.
var ErrMissingHeader = errors.New("dataset header is missing the name column")

// Header returns the dataset column set in file order.
func Header() []string {
	header := []string{ColumnName, ColumnBrand, ColumnClassification}
	for _, n := range Nutrients {
		header = append(header, string(n))
	}
	return header
}

// RowError describes a dataset row that was skipped.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d, column %s: %v", e.Line, e.Column, e.Err)
}

// Dataset is the result of reading a dataset file.
type Dataset struct {
	Records []FoodRecord
	Skipped []RowError
}

// LoadFile reads the dataset at path.
func LoadFile(path string) (Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer file.Close()

	ds, err := Read(file)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return ds, nil
}

// Read parses a comma-delimited dataset. Columns are matched by header name
// and unknown columns are ignored. Rows with unparseable numbers are skipped
// and reported in Dataset.Skipped, including NaN and infinities; empty
// numeric cells are absent values.
func Read(r io.Reader) (Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Dataset{}, ErrMissingHeader
		}
		return Dataset{}, err
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		col = strings.TrimSpace(strings.TrimPrefix(col, "\ufeff"))
		index[col] = i
	}
	if _, ok := index[ColumnName]; !ok {
		return Dataset{}, ErrMissingHeader
	}

	var ds Dataset
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				ds.Skipped = append(ds.Skipped, RowError{Line: parseErr.Line, Err: parseErr.Err})
				continue
			}
			return Dataset{}, err
		}

		record, rowErr := parseRow(row, index)
		if rowErr != nil {
			rowErr.Line, _ = reader.FieldPos(0)
			ds.Skipped = append(ds.Skipped, *rowErr)
			continue
		}
		ds.Records = append(ds.Records, record)
	}
	return ds, nil
}

func parseRow(row []string, index map[string]int) (FoodRecord, *RowError) {
	cell := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	values := make(map[Nutrient]float64)
	for _, n := range Nutrients {
		raw := cell(string(n))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return FoodRecord{}, &RowError{Column: string(n), Err: fmt.Errorf("invalid number %q", raw)}
		}
		values[n] = v
	}

	name := cell(ColumnName)
	if name == "" && len(values) == 0 {
		return FoodRecord{}, &RowError{Err: errors.New("empty row")}
	}
	return NewFoodRecord(name, cell(ColumnBrand), cell(ColumnClassification), values), nil
}

// Write emits records with the standard header. Absent values are empty cells.
func Write(w io.Writer, records []FoodRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header()); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{rec.Name, rec.Brand, rec.Classification}
		for _, n := range Nutrients {
			row = append(row, rec.Value(n).String())
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile writes records to path, creating parent directories.
func WriteFile(path string, records []FoodRecord) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dataset directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset %s: %w", path, err)
	}
	if err := Write(file, records); err != nil {
		_ = file.Close()
		return fmt.Errorf("write dataset %s: %w", path, err)
	}
	return file.Close()
}
