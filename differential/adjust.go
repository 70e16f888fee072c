package differential

import (
	"fmt"
	"sort"

	"github.com/pwilmart/zscore/bh"
)

// Adjusted is one row of the correction-only output.
type Adjusted struct {
	Row      int
	P        float64
	Adjusted float64
}

// AdjustPValues applies the Benjamini-Hochberg correction to ps and returns
// one entry per input, ordered by row index. An empty input gives an empty
// output.
func AdjustPValues(ps []PValue) []Adjusted {
	sorted := make([]PValue, len(ps))
	copy(sorted, ps)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Row < sorted[j].Row })

	raw := make([]float64, len(sorted))
	for i, p := range sorted {
		raw[i] = p.P
	}
	q := bh.Adjust(raw)

	out := make([]Adjusted, len(sorted))
	for i, p := range sorted {
		out[i] = Adjusted{Row: p.Row, P: p.P, Adjusted: q[i]}
	}

	return out
}

// RunBH loads a one-column table of p-values and corrects them.
func RunBH(t Table) ([]Adjusted, error) {
	ps, err := LoadPValues(t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", Loaded, err)
	}

	return AdjustPValues(ps), nil
}
