package differential

import (
	"fmt"
	"math"
)

// Table is a parsed numeric input table. Any header has already been
// separated out by whoever read the data.
type Table struct {
	Header []string
	Rows   []Row
}

// Row is one data row with its original 0-based position.
type Row struct {
	Index  int
	Values []float64
}

// Pair is the A and B measurement for one entity.
type Pair struct {
	Row int
	A   float64
	B   float64
}

// PValue is a single p-value for the correction-only path.
type PValue struct {
	Row int
	P   float64
}

// LoadPairs checks that every row holds exactly two finite, non-negative
// measurements and returns them as pairs, with zeros replaced by
// cfg.ZeroSubstitute.
func LoadPairs(t Table, cfg Config) ([]Pair, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	out := make([]Pair, 0, len(t.Rows))
	for _, row := range t.Rows {
		if len(row.Values) != 2 {
			return nil, &InputShapeError{Row: row.Index, Reason: fmt.Sprintf("expected 2 columns, got %d", len(row.Values))}
		}

		p := Pair{Row: row.Index, A: row.Values[0], B: row.Values[1]}
		if err := checkMeasurement(p); err != nil {
			return nil, err
		}

		out = append(out, substituteZeros(p, cfg.ZeroSubstitute))
	}

	if err := checkUniqueRows(out); err != nil {
		return nil, err
	}

	return out, nil
}

// LoadPValues checks that every row holds exactly one number. Values outside
// [0, 1] are passed through unchanged.
func LoadPValues(t Table) ([]PValue, error) {
	out := make([]PValue, 0, len(t.Rows))
	for _, row := range t.Rows {
		if len(row.Values) != 1 {
			return nil, &InputShapeError{Row: row.Index, Reason: fmt.Sprintf("expected a single column, got %d", len(row.Values))}
		}
		if math.IsNaN(row.Values[0]) {
			return nil, &InputShapeError{Row: row.Index, Reason: "p-value is not a number"}
		}

		out = append(out, PValue{Row: row.Index, P: row.Values[0]})
	}

	return out, nil
}

func checkMeasurement(p Pair) error {
	for _, v := range []float64{p.A, p.B} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InputShapeError{Row: p.Row, Reason: fmt.Sprintf("measurement %v is not a finite number", v)}
		}
		if v < 0 {
			return &InputShapeError{Row: p.Row, Reason: fmt.Sprintf("measurement %v is negative", v)}
		}
	}

	return nil
}

func checkUniqueRows(pairs []Pair) error {
	seen := make(map[int]struct{}, len(pairs))
	for _, p := range pairs {
		if _, exists := seen[p.Row]; exists {
			return &InputShapeError{Row: p.Row, Reason: "row index appears more than once"}
		}
		seen[p.Row] = struct{}{}
	}

	return nil
}

func substituteZeros(p Pair, zero float64) Pair {
	if p.A == 0 {
		p.A = zero
	}
	if p.B == 0 {
		p.B = zero
	}

	return p
}
