package differential

import (
	"math"

	"gopkg.in/guregu/null.v3"
)

// Record is a Pair plus everything the pipeline derives from it. ZScore,
// PValue and FDR are invalid (missing) when the row's window had no spread.
type Record struct {
	Pair

	AveAB      float64
	Log2Ratio  float64
	FoldChange float64

	ZScore null.Float
	PValue null.Float
	FDR    null.Float
	Tier   Tier
}

// AveAB is the mean of the two measurements.
func AveAB(a, b float64) float64 {
	return (a + b) / 2
}

// Log2Ratio is log2(B/A).
func Log2Ratio(a, b float64) float64 {
	return math.Log2(b / a)
}

// FoldChange is B/A when B is at least A, and -A/B otherwise, so that a
// two-fold change reads as 2 or -2 depending on direction. Equal values give
// 1.
func FoldChange(a, b float64) float64 {
	if b >= a {
		return b / a
	}

	return -a / b
}

func derive(p Pair) Record {
	return Record{
		Pair:       p,
		AveAB:      AveAB(p.A, p.B),
		Log2Ratio:  Log2Ratio(p.A, p.B),
		FoldChange: FoldChange(p.A, p.B),
	}
}
