// Package differential flags entities whose paired measurements (A, B) differ
// more than expected for their abundance. Log2 ratios are converted to Z-scores
// against a trimmed sliding window over abundance-sorted rows, a Gaussian is
// fitted to the Z-score histogram, and two-tailed p-values from that Gaussian
// are corrected with Benjamini-Hochberg and sorted into candidate tiers.
//
// Every run is independent: the caller passes a table and a Config and gets a
// new Result back.
package differential

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/pwilmart/zscore/bh"
	"github.com/pwilmart/zscore/gaussfit"
	"github.com/pwilmart/zscore/slidingz"
	"github.com/tokenme/probab/dst"
	"gopkg.in/guregu/null.v3"
)

// Stage is a step of the pipeline. Errors returned by Compute are prefixed
// with the stage that failed.
type Stage int

const (
	Loaded Stage = iota
	Derived
	WindowScored
	Fitted
	PValued
	FDRCorrected
	Labeled
)

var stageNames = [...]string{"loaded", "derived", "window-scored", "fitted", "p-valued", "fdr-corrected", "labeled"}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Result is the output of a complete run.
type Result struct {
	// Records are in original row order.
	Records []Record

	Config    Config
	Fit       gaussfit.Params
	Histogram gaussfit.Histogram

	// FitFallback is true when the Gaussian fit failed and the standard
	// normal was used instead.
	FitFallback bool
	FitErr      error

	Stage   Stage
	Summary Summary
}

// Run loads a two-column table and computes the full result.
func Run(t Table, cfg Config) (*Result, error) {
	pairs, err := LoadPairs(t, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", Loaded, err)
	}

	return Compute(pairs, cfg)
}

// Compute runs every stage on pairs. Either a complete result is returned or
// an error identifying the stage that failed; partial results are never
// returned. pairs is not modified.
func Compute(pairs []Pair, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", Loaded, err)
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("%s: %w", Loaded, &InsufficientDataError{})
	}

	for _, p := range pairs {
		if err := checkMeasurement(p); err != nil {
			return nil, fmt.Errorf("%s: %w", Loaded, err)
		}
	}
	if err := checkUniqueRows(pairs); err != nil {
		return nil, fmt.Errorf("%s: %w", Loaded, err)
	}

	res := &Result{Config: cfg, Stage: Loaded}

	// Derived
	records := make([]Record, len(pairs))
	for i, p := range pairs {
		records[i] = derive(substituteZeros(p, cfg.ZeroSubstitute))
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Row < records[j].Row })
	res.Stage = Derived

	// WindowScored
	if err := scoreByAbundance(records, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", WindowScored, err)
	}
	res.Stage = WindowScored

	// Fitted
	z := make([]float64, 0, len(records))
	for _, r := range records {
		if r.ZScore.Valid {
			z = append(z, r.ZScore.Float64)
		}
	}

	params, hist, err := gaussfit.Fit(z)
	res.Histogram = hist
	if err != nil {
		if !cfg.FitFallback {
			return nil, fmt.Errorf("%s: %w", Fitted, &FitConvergenceError{Err: err})
		}
		params = gaussfit.Unit
		res.FitFallback = true
		res.FitErr = err
	}
	res.Fit = params
	res.Stage = Fitted

	// PValued
	if err := assignPValues(records, params); err != nil {
		return nil, fmt.Errorf("%s: %w", PValued, err)
	}
	res.Stage = PValued

	// FDRCorrected
	assignFDR(records)
	res.Stage = FDRCorrected

	// Labeled
	for i := range records {
		records[i].Tier = cfg.Thresholds.Label(records[i].FDR)
	}
	res.Stage = Labeled

	res.Records = records
	res.Summary = summarize(records)

	return res, nil
}

// scoreByAbundance orders the records from most to least abundant, scores the
// log2 ratios in that order and writes each Z-score back to its record.
func scoreByAbundance(records []Record, cfg Config) error {
	if len(records) < cfg.Window {
		return &InsufficientDataError{Rows: len(records), Window: cfg.Window}
	}

	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return records[order[i]].AveAB > records[order[j]].AveAB
	})

	ratios := make([]float64, len(order))
	for k, idx := range order {
		ratios[k] = records[idx].Log2Ratio
	}

	z, err := slidingz.Score(ratios, cfg.Window, cfg.TrimFraction)
	if err != nil {
		var tooLarge *slidingz.WindowTooLargeError
		if errors.As(err, &tooLarge) {
			return &InsufficientDataError{Rows: tooLarge.Len, Window: tooLarge.Width, Err: err}
		}
		return err
	}

	for k, idx := range order {
		if !math.IsNaN(z[k]) {
			records[idx].ZScore = null.FloatFrom(z[k])
		}
	}

	return nil
}

// assignPValues computes two-tailed p-values 2*(1 - CDF(|Z|)) under the fitted
// normal. When the fitted mean is not zero this can exceed 1; such values are
// kept as they are and only the FDR is clamped.
func assignPValues(records []Record, params gaussfit.Params) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("normal CDF with mean %v and sigma %v: %v", params.Mean, params.Sigma, r)
		}
	}()

	cdf := dst.NormalCDF(params.Mean, params.Sigma)
	for i := range records {
		if !records[i].ZScore.Valid {
			continue
		}

		p := 2 * (1 - cdf(math.Abs(records[i].ZScore.Float64)))
		records[i].PValue = null.FloatFrom(p)
	}

	return nil
}

// assignFDR adjusts the p-values that exist. Every record counts as a test,
// including those whose p-value is missing.
func assignFDR(records []Record) {
	p := make([]float64, len(records))
	for i, r := range records {
		p[i] = math.NaN()
		if r.PValue.Valid {
			p[i] = r.PValue.Float64
		}
	}

	q := make([]float64, len(records))
	bh.AdjustIntoTests(q, p, len(records))
	for i, r := range records {
		if r.PValue.Valid {
			records[i].FDR = null.FloatFrom(q[i])
		}
	}
}
