// Package slidingz computes Z-scores against a trimmed mean and standard
// deviation taken from a fixed-width window that slides along an ordered
// sequence. Callers choose the order; for abundance-bias correction the
// sequence is sorted by average abundance so that each value is compared
// with its neighbors of similar intensity.
package slidingz

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowTooLargeError is returned when the sequence is shorter than the
// window, in which case no Z-scores are computed at all.
type WindowTooLargeError struct {
	Len   int
	Width int
}

func (e *WindowTooLargeError) Error() string {
	return fmt.Sprintf("sequence of %d values is shorter than the sliding window width of %d", e.Len, e.Width)
}

// ParamError reports an unusable window width or trim fraction.
type ParamError struct {
	Width int
	Trim  float64
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("window width must be odd and positive and trim fraction in [0, 0.5), got width %d and trim %g", e.Width, e.Trim)
}

// Window returns the half-open range [lo, hi) of the window used for the
// value at index i of a sequence of length n. Near either end the window is
// pinned to the first or last width values rather than being narrowed, so
// every window holds exactly width values.
func Window(n, width, i int) (lo, hi int) {
	half := width / 2

	switch {
	case i < half:
		return 0, width
	case i >= n-half:
		// At i == n-half the centered window would overrun the end by one.
		return n - width, n
	default:
		return i - half, i + half + 1
	}
}

// TrimCount is the number of values dropped from each tail of a window.
func TrimCount(width int, trim float64) int {
	return int(math.Floor(float64(width) * trim))
}

// Score returns the trimmed sliding-window Z-score of every value. Windows
// whose trimmed values have no spread produce NaN at that index rather than an
// error.
func Score(values []float64, width int, trim float64) ([]float64, error) {
	if width < 1 || width%2 == 0 || trim < 0 || trim >= 0.5 || math.IsNaN(trim) {
		return nil, &ParamError{Width: width, Trim: trim}
	}

	if len(values) < width {
		return nil, &WindowTooLargeError{Len: len(values), Width: width}
	}

	discardN := TrimCount(width, trim)

	out := make([]float64, len(values))
	for i, v := range values {
		lo, hi := Window(len(values), width, i)

		mean, sd := trimmedMeanStdDev(values[lo:hi], discardN)
		if sd == 0 || math.IsNaN(sd) {
			out[i] = math.NaN()
			continue
		}

		out[i] = (v - mean) / sd
	}

	return out, nil
}

// trimmedMeanStdDev sorts a copy of the window from largest to smallest,
// discards discardN values from each end and summarizes the remainder. The
// window itself is left untouched.
func trimmedMeanStdDev(window []float64, discardN int) (mean, sd float64) {
	sorted := make([]float64, len(window))
	copy(sorted, window)
	sort.Stable(sort.Reverse(sort.Float64Slice(sorted)))

	kept := sorted[discardN : len(sorted)-discardN]
	if len(kept) < 2 {
		return math.NaN(), math.NaN()
	}

	return stat.MeanStdDev(kept, nil)
}
