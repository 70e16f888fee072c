package differential

import (
	"math"

	"github.com/carbocation/runningvariance"
	"github.com/montanaflynn/stats"
)

// Summary describes a finished run.
type Summary struct {
	Rows int

	// Degenerate counts rows whose window had no spread, leaving their Z-score,
	// p-value and FDR missing.
	Degenerate int

	Tiers map[Tier]int

	Log2RatioMean float64
	Log2RatioSD   float64

	// Quartiles of the Z-scores that exist. NaN when there are none.
	ZQ1     float64
	ZMedian float64
	ZQ3     float64
}

func summarize(records []Record) Summary {
	s := Summary{
		Rows:    len(records),
		Tiers:   make(map[Tier]int, len(Tiers)+1),
		ZQ1:     math.NaN(),
		ZMedian: math.NaN(),
		ZQ3:     math.NaN(),
	}

	ratios := runningvariance.NewRunningStat()
	z := make(stats.Float64Data, 0, len(records))

	for _, r := range records {
		s.Tiers[r.Tier]++
		ratios.Push(r.Log2Ratio)

		if !r.ZScore.Valid {
			s.Degenerate++
			continue
		}
		z = append(z, r.ZScore.Float64)
	}

	s.Log2RatioMean = ratios.Mean()
	s.Log2RatioSD = ratios.StandardDeviation()

	if median, err := stats.Median(z); err == nil {
		s.ZMedian = median
	}
	if q, err := stats.Quartile(z); err == nil {
		s.ZQ1 = q.Q1
		s.ZQ3 = q.Q3
	}

	return s
}
