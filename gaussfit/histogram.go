package gaussfit

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// RangeMin and RangeMax bound the histogram of Z-scores.
	RangeMin = -3.1
	RangeMax = 3.1

	// Bins is the number of equal-width (0.1) bins between RangeMin and
	// RangeMax.
	Bins = 62

	// CenterOffset is added to each bin's left edge to give the x value used
	// in the fit.
	CenterOffset = 0.05
)

// Histogram holds binned counts of Z-scores. Edges has one more entry than
// Counts and Centers.
type Histogram struct {
	Edges   []float64
	Centers []float64
	Counts  []float64
}

// Total is the number of values that fell inside the histogram range.
func (h Histogram) Total() float64 {
	return floats.Sum(h.Counts)
}

// NewHistogram bins z into Bins equal-width bins over [RangeMin, RangeMax].
// NaN and out-of-range values are ignored. As with the usual convention for
// fixed bins, the last bin is closed on the right, so a value of exactly
// RangeMax is counted.
func NewHistogram(z []float64) Histogram {
	h := Histogram{
		Edges:   floats.Span(make([]float64, Bins+1), RangeMin, RangeMax),
		Centers: make([]float64, Bins),
	}
	h.Edges[0], h.Edges[Bins] = RangeMin, RangeMax

	for i := range h.Centers {
		h.Centers[i] = h.Edges[i] + CenterOffset
	}

	inRange := make([]float64, 0, len(z))
	onUpperEdge := 0.0
	for _, v := range z {
		switch {
		case math.IsNaN(v), v < RangeMin, v > RangeMax:
			continue
		case v == RangeMax:
			onUpperEdge++
		default:
			inRange = append(inRange, v)
		}
	}
	sort.Float64s(inRange)

	h.Counts = stat.Histogram(nil, h.Edges, inRange, nil)
	h.Counts[Bins-1] += onUpperEdge

	return h
}
