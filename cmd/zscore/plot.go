package main

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/carbocation/pfx"
	"github.com/pwilmart/zscore/differential"
	"github.com/pwilmart/zscore/gaussfit"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const terminalBuckets = 31

func printHistogram(w io.Writer, res *differential.Result) error {
	z := make([]float64, 0, len(res.Records))
	for _, rec := range res.Records {
		if rec.ZScore.Valid {
			z = append(z, rec.ZScore.Float64)
		}
	}
	if len(z) == 0 {
		fmt.Fprintln(w, "No Z-scores to plot")
		return nil
	}

	hist := histogram.Hist(terminalBuckets, z)
	if err := histogram.Fprint(w, hist, histogram.Linear(60)); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// plotFit draws the Z-score counts per bin and the fitted Gaussian evaluated
// at the same bin centers.
func plotFit(path string, res *differential.Result) error {
	h := res.Histogram
	if len(h.Centers) != gaussfit.Bins {
		return fmt.Errorf("no histogram to plot")
	}

	curve := res.Fit
	name := "Gaussian fit"
	if res.FitFallback {
		// Scale the unit normal to the number of binned Z-scores.
		width := (gaussfit.RangeMax - gaussfit.RangeMin) / gaussfit.Bins
		curve.Amplitude = h.Total() * width / math.Sqrt(2*math.Pi)
		name = "Standard normal (fit failed)"
	}

	fitted := make([]float64, len(h.Centers))
	for i, x := range h.Centers {
		fitted[i] = curve.Eval(x)
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		XAxis: chart.XAxis{
			Name:  "Z-score",
			Range: &chart.ContinuousRange{Min: gaussfit.RangeMin, Max: gaussfit.RangeMax},
		},
		YAxis: chart.YAxis{
			Name: "Count",
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Observed",
				XValues: h.Centers,
				YValues: h.Counts,
				Style: chart.Style{
					StrokeColor: drawing.ColorBlue,
					FillColor:   drawing.ColorBlue.WithAlpha(64),
				},
			},
			chart.ContinuousSeries{
				Name:    name,
				XValues: h.Centers,
				YValues: fitted,
				Style: chart.Style{
					StrokeColor: drawing.ColorRed,
					StrokeWidth: 2,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return pfx.Err(err)
	}

	outFile, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}
	if _, err := buffer.WriteTo(outFile); err != nil {
		outFile.Close()
		return pfx.Err(err)
	}
	if err := outFile.Close(); err != nil {
		return pfx.Err(err)
	}

	return nil
}
