package differential

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pwilmart/zscore/gaussfit"
	"github.com/pwilmart/zscore/slidingz"
	"gopkg.in/guregu/null.v3"
)

// syntheticPairs builds n rows whose abundance falls steadily with the row
// index and whose log2 ratios are N(0, noise). AveAB equals the abundance
// level exactly, so row 0 is the most abundant. Rows listed in shifts get the
// given log2 ratio instead of noise.
func syntheticPairs(n int, noise float64, shifts map[int]float64, seed int64) []Pair {
	rng := rand.New(rand.NewSource(seed))

	out := make([]Pair, n)
	for i := range out {
		level := 10000 * math.Exp(-float64(i)/80)

		r := rng.NormFloat64() * noise
		if shift, exists := shifts[i]; exists {
			r = shift
		}

		a := 2 * level / (1 + math.Exp2(r))
		out[i] = Pair{Row: i, A: a, B: a * math.Exp2(r)}
	}

	return out
}

var extremeOutliers = map[int]float64{
	0:   3,
	1:   -3,
	2:   3,
	397: -3,
	398: 3,
	399: -3,
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Window = 101
	return cfg
}

func TestComputeFlagsExtremeOutliers(t *testing.T) {
	pairs := syntheticPairs(400, 0.3, extremeOutliers, 7)

	// With the default width every window of a 400 row run sits against
	// one of the clamped ends.
	for name, cfg := range map[string]Config{
		"window 101":     testConfig(),
		"default window": DefaultConfig(),
	} {
		res, err := Compute(pairs, cfg)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}

		if res.Stage != Labeled {
			t.Errorf("%s: finished at stage %s", name, res.Stage)
		}
		if len(res.Records) != len(pairs) {
			t.Fatalf("%s: got %d records for %d pairs", name, len(res.Records), len(pairs))
		}

		for row := range extremeOutliers {
			rec := res.Records[row]
			if rec.Row != row {
				t.Fatalf("%s: record %d carries row %d", name, row, rec.Row)
			}

			// The outliers sit far beyond 3 sigma of the fitted background.
			if z := math.Abs(rec.ZScore.Float64-res.Fit.Mean) / res.Fit.Sigma; !rec.ZScore.Valid || z < 3 {
				t.Errorf("%s: row %d: Z-score %v is not beyond 3 fitted sigma", name, row, rec.ZScore)
			}
			if rec.Tier != TierHigh && rec.Tier != TierMed {
				t.Errorf("%s: row %d: tier %q, FDR %v", name, row, rec.Tier, rec.FDR)
			}
		}

		background := 0
		for _, rec := range res.Records {
			if _, exists := extremeOutliers[rec.Row]; exists {
				continue
			}
			if rec.Tier == TierNone {
				background++
			}
		}
		if background < 350 {
			t.Errorf("%s: only %d of %d background rows were labeled none", name, background, len(pairs)-len(extremeOutliers))
		}

		if math.Abs(res.Fit.Mean) > 0.3 || res.Fit.Sigma < 0.7 || res.Fit.Sigma > 1.8 {
			t.Errorf("%s: implausible background fit: %+v", name, res.Fit)
		}
		if res.FitFallback {
			t.Errorf("%s: fit fell back to the unit normal", name)
		}
	}
}

func TestComputeDerivedColumns(t *testing.T) {
	pairs := syntheticPairs(150, 0.3, nil, 3)
	pairs[10].A, pairs[10].B = 0, 200

	cfg := testConfig()
	res, err := Compute(pairs, cfg)
	if err != nil {
		t.Fatal(err)
	}

	rec := res.Records[10]
	if rec.A != cfg.ZeroSubstitute || rec.B != 200 {
		t.Errorf("zero was not substituted: A=%f B=%f", rec.A, rec.B)
	}
	if rec.AveAB != 125 || rec.FoldChange != 4 || rec.Log2Ratio != 2 {
		t.Errorf("derived values AveAB=%f FC=%f log2=%f", rec.AveAB, rec.FoldChange, rec.Log2Ratio)
	}

	if pairs[10].A != 0 {
		t.Error("input pairs were modified")
	}

	for _, rec := range res.Records {
		if !rec.ZScore.Valid || !rec.PValue.Valid || !rec.FDR.Valid {
			t.Fatalf("row %d has missing values", rec.Row)
		}
		// Two-tailed p-values around a non-zero fitted mean may exceed 1;
		// only the FDR is clamped.
		if rec.PValue.Float64 < 0 || rec.PValue.Float64 > 2 {
			t.Errorf("row %d: p-value %f out of range", rec.Row, rec.PValue.Float64)
		}
		if rec.FDR.Float64 > 1 || rec.FDR.Float64 < math.Min(rec.PValue.Float64, 1) {
			t.Errorf("row %d: FDR %f inconsistent with p-value %f", rec.Row, rec.FDR.Float64, rec.PValue.Float64)
		}
		if rec.Tier != cfg.Thresholds.Label(rec.FDR) {
			t.Errorf("row %d: tier %q does not match FDR %f", rec.Row, rec.Tier, rec.FDR.Float64)
		}
	}
}

func TestComputeOrderIndependent(t *testing.T) {
	pairs := syntheticPairs(400, 0.3, extremeOutliers, 11)

	want, err := Compute(pairs, testConfig())
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(5))
	for trial := 0; trial < 3; trial++ {
		shuffled := append([]Pair(nil), pairs...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := Compute(shuffled, testConfig())
		if err != nil {
			t.Fatal(err)
		}

		if diff := cmp.Diff(want.Records, got.Records); diff != "" {
			t.Fatalf("trial %d: records differ (-want +got):\n%s", trial, diff)
		}
		if want.Fit != got.Fit {
			t.Fatalf("trial %d: fit differs: %+v vs %+v", trial, want.Fit, got.Fit)
		}
	}
}

func TestComputeConstantRatios(t *testing.T) {
	pairs := make([]Pair, 120)
	for i := range pairs {
		pairs[i] = Pair{Row: i, A: float64(1000 - i), B: float64(1000 - i)}
	}

	_, err := Compute(pairs, testConfig())
	var fitErr *FitConvergenceError
	if !errors.As(err, &fitErr) {
		t.Fatalf("expected FitConvergenceError, got %v", err)
	}
	var gErr *gaussfit.FitError
	if !errors.As(err, &gErr) {
		t.Errorf("expected the underlying gaussfit.FitError, got %v", err)
	}

	cfg := testConfig()
	cfg.FitFallback = true
	res, err := Compute(pairs, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !res.FitFallback || res.Fit != gaussfit.Unit || res.FitErr == nil {
		t.Errorf("expected a unit-normal fallback, got %+v (fallback %v)", res.Fit, res.FitFallback)
	}
	if res.Summary.Degenerate != len(pairs) {
		t.Errorf("%d degenerate rows, want %d", res.Summary.Degenerate, len(pairs))
	}
	for _, rec := range res.Records {
		if rec.ZScore.Valid || rec.PValue.Valid || rec.FDR.Valid || rec.Tier != TierMissing {
			t.Fatalf("row %d should be missing: %+v", rec.Row, rec)
		}
		if rec.FoldChange != 1 {
			t.Fatalf("row %d: fold change %f", rec.Row, rec.FoldChange)
		}
	}
}

func TestComputeErrors(t *testing.T) {
	_, err := Compute(nil, DefaultConfig())
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) || insufficient.Rows != 0 {
		t.Errorf("empty input: got %v", err)
	}

	_, err = Compute(syntheticPairs(50, 0.3, nil, 1), DefaultConfig())
	if !errors.As(err, &insufficient) || insufficient.Rows != 50 || insufficient.Window != DefaultWindow {
		t.Errorf("short input: got %v", err)
	}

	bad := DefaultConfig()
	bad.Window = 100
	_, err = Compute(syntheticPairs(400, 0.3, nil, 1), bad)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "window" {
		t.Errorf("even window: got %v", err)
	}

	negative := syntheticPairs(200, 0.3, nil, 1)
	negative[3].B = -1
	_, err = Compute(negative, testConfig())
	var shape *InputShapeError
	if !errors.As(err, &shape) || shape.Row != 3 {
		t.Errorf("negative measurement: got %v", err)
	}

	dup := syntheticPairs(200, 0.3, nil, 1)
	dup[5].Row = 4
	_, err = Compute(dup, testConfig())
	if !errors.As(err, &shape) || shape.Row != 4 {
		t.Errorf("duplicate row: got %v", err)
	}
}

func TestAssignPValues(t *testing.T) {
	records := []Record{
		{ZScore: null.FloatFrom(-1)},
		{ZScore: null.FloatFrom(1)},
		{ZScore: null.FloatFrom(0.1)},
		{},
	}

	if err := assignPValues(records, gaussfit.Params{Amplitude: 1, Mean: 0.3, Sigma: 1}); err != nil {
		t.Fatal(err)
	}

	// 2*(1 - Phi(0.7)) for both signs, and 2*(1 - Phi(-0.2)) above 1.
	for i, want := range []float64{0.4839273, 0.4839273, 1.1585194} {
		if got := records[i].PValue; !got.Valid || math.Abs(got.Float64-want) > 1e-6 {
			t.Errorf("record %d: p-value %v, want %f", i, got, want)
		}
	}
	if records[3].PValue.Valid {
		t.Error("a missing Z-score should leave the p-value missing")
	}
}

func TestAssignFDRCountsMissing(t *testing.T) {
	records := []Record{
		{PValue: null.FloatFrom(0.01)},
		{},
		{PValue: null.FloatFrom(0.04)},
	}

	assignFDR(records)

	if records[1].FDR.Valid {
		t.Errorf("missing p-value got FDR %v", records[1].FDR)
	}
	for i, want := range map[int]float64{0: 0.03, 2: 0.06} {
		if got := records[i].FDR; !got.Valid || math.Abs(got.Float64-want) > 1e-12 {
			t.Errorf("record %d: FDR %v, want %f", i, got, want)
		}
	}
}

func TestComputeDegenerateRowsCountAsTests(t *testing.T) {
	// The most abundant rows all have a log2 ratio of exactly 0, so their
	// windows have no spread and they get no Z-score.
	shifts := map[int]float64{397: -3, 398: 3, 399: -3}
	for i := 0; i < 150; i++ {
		shifts[i] = 0
	}
	pairs := syntheticPairs(400, 0.3, shifts, 13)

	cfg := testConfig()
	cfg.FitFallback = true
	res, err := Compute(pairs, cfg)
	if err != nil {
		t.Fatal(err)
	}

	if res.Summary.Degenerate < 100 {
		t.Fatalf("only %d degenerate rows", res.Summary.Degenerate)
	}

	var valid []Record
	for _, rec := range res.Records {
		if rec.PValue.Valid {
			valid = append(valid, rec)
		} else if rec.FDR.Valid {
			t.Fatalf("row %d has an FDR without a p-value", rec.Row)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].PValue.Float64 < valid[j].PValue.Float64 })

	n := float64(len(res.Records))
	prev := 0.0
	for i, rec := range valid {
		want := math.Max(prev, rec.PValue.Float64*n/float64(i+1))
		prev = want
		want = math.Min(want, 1)

		if math.Abs(rec.FDR.Float64-want) > 1e-12 {
			t.Fatalf("row %d: FDR %f, want %f with every row counted as a test", rec.Row, rec.FDR.Float64, want)
		}
	}
}

func TestScoreByAbundanceTooFewRows(t *testing.T) {
	records := make([]Record, 3)
	err := scoreByAbundance(records, Config{Window: 5, TrimFraction: 0})

	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if insufficient.Rows != 3 || insufficient.Window != 5 {
		t.Errorf("unexpected fields: %+v", insufficient)
	}

	// The precheck catches this before the scorer runs, so there is nothing
	// to unwrap here.
	var tooLarge *slidingz.WindowTooLargeError
	if errors.As(err, &tooLarge) {
		t.Errorf("did not expect a scorer error, got %v", tooLarge)
	}
}

func TestRun(t *testing.T) {
	pairs := syntheticPairs(150, 0.3, nil, 9)

	table := Table{Header: []string{"A", "B"}}
	for _, p := range pairs {
		table.Rows = append(table.Rows, Row{Index: p.Row, Values: []float64{p.A, p.B}})
	}

	res, err := Run(table, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if res.Summary.Rows != 150 {
		t.Errorf("summary has %d rows", res.Summary.Rows)
	}

	table.Rows[7].Values = []float64{1}
	_, err = Run(table, testConfig())
	var shape *InputShapeError
	if !errors.As(err, &shape) || shape.Row != 7 {
		t.Errorf("expected shape error on row 7, got %v", err)
	}
}

func TestStageString(t *testing.T) {
	for _, v := range []struct {
		Stage Stage
		Name  string
	}{
		{Loaded, "loaded"},
		{WindowScored, "window-scored"},
		{Labeled, "labeled"},
		{Stage(42), "stage(42)"},
	} {
		if v.Stage.String() != v.Name {
			t.Errorf("got %q, want %q", v.Stage.String(), v.Name)
		}
	}
}
