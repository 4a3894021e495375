package models

import (
	"encoding/json"
	"fmt"
)

// FeatureRow is a classifier-ready row. Values[i] belongs to Columns[i] and is
// either a string code or a float64.
type FeatureRow struct {
	Columns []string
	Values  []any
}

// splitRow mirrors the pandas "split" orientation so column order survives JSON.
type splitRow struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

func (r FeatureRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(splitRow{Columns: r.Columns, Data: [][]any{r.Values}})
}

func (r *FeatureRow) UnmarshalJSON(b []byte) error {
	var s splitRow
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if len(s.Data) != 1 {
		return fmt.Errorf("feature row: expected exactly one data row, got %d", len(s.Data))
	}
	if len(s.Data[0]) != len(s.Columns) {
		return fmt.Errorf("feature row: %d values for %d columns", len(s.Data[0]), len(s.Columns))
	}
	r.Columns = s.Columns
	r.Values = s.Data[0]
	return nil
}

// Len returns the number of columns.
func (r FeatureRow) Len() int { return len(r.Columns) }

// Value returns the value stored under column.
func (r FeatureRow) Value(column string) (any, bool) {
	for i, c := range r.Columns {
		if c == column {
			return r.Values[i], true
		}
	}
	return nil, false
}
