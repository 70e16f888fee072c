package differential

import (
	"gopkg.in/guregu/null.v3"
)

// Tier labels how strongly an FDR value supports a real difference.
type Tier string

const (
	TierMissing Tier = ""
	TierNone    Tier = "none"
	TierLow     Tier = "low"
	TierMed     Tier = "med"
	TierHigh    Tier = "high"
)

// Tiers lists the labels from weakest to strongest.
var Tiers = []Tier{TierNone, TierLow, TierMed, TierHigh}

func (t Tier) String() string {
	return string(t)
}

// Label assigns the tier for an FDR value. A missing FDR gets TierMissing.
func (t Thresholds) Label(fdr null.Float) Tier {
	if !fdr.Valid {
		return TierMissing
	}

	switch v := fdr.Float64; {
	case v >= t.Low:
		return TierNone
	case v >= t.Med:
		return TierLow
	case v >= t.High:
		return TierMed
	case v < t.High:
		return TierHigh
	}

	// NaN compares false against everything.
	return TierMissing
}
