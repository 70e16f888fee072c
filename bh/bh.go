// Package bh implements the Benjamini-Hochberg false discovery rate
// adjustment of a list of p-values.
package bh

import (
	"fmt"
	"math"
	"sort"
)

type ranked struct {
	index int
	p     float64
}

// Adjust returns the Benjamini-Hochberg adjusted value (q-value) for each
// p-value, in the same order as the input. The input is not modified.
//
// P-values outside [0, 1] are not rejected; they are adjusted like any other
// value, and the result is still clamped to at most 1. NaN entries are treated
// as missing: they do not count toward the number of tests and come back as
// NaN.
func Adjust(pValues []float64) []float64 {
	out := make([]float64, len(pValues))
	AdjustInto(out, pValues)
	return out
}

// AdjustInto writes the adjusted values for pValues into dst, which must have
// the same length.
func AdjustInto(dst, pValues []float64) {
	adjustInto(dst, pValues, -1)
}

// AdjustIntoTests is AdjustInto with the number of tests given explicitly.
// Missing (NaN) entries then still count as tests, which is how a run with
// some unscorable rows is corrected. tests must be at least the number of
// non-NaN p-values.
func AdjustIntoTests(dst, pValues []float64, tests int) {
	adjustInto(dst, pValues, tests)
}

func adjustInto(dst, pValues []float64, tests int) {
	if len(dst) != len(pValues) {
		panic(fmt.Sprintf("bh: destination has length %d but there are %d p-values", len(dst), len(pValues)))
	}

	sorted := make([]ranked, 0, len(pValues))
	for i, p := range pValues {
		if math.IsNaN(p) {
			dst[i] = math.NaN()
			continue
		}
		sorted = append(sorted, ranked{index: i, p: p})
	}

	if tests < 0 {
		tests = len(sorted)
	} else if tests < len(sorted) {
		panic(fmt.Sprintf("bh: %d tests is fewer than the %d p-values present", tests, len(sorted)))
	}

	// Ties keep their original order, so the output is deterministic.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].p < sorted[j].p
	})

	n := float64(tests)
	prev := 0.0
	for i, v := range sorted {
		adjusted := v.p * n / float64(i+1)
		if i > 0 && prev > adjusted {
			adjusted = prev
		}
		prev = adjusted

		// Monotonicity is tracked on the unclamped value.
		dst[v.index] = math.Min(adjusted, 1.0)
	}
}
