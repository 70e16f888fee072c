// Package gaussfit histograms a population of Z-scores and fits a Gaussian
// curve to the histogram by nonlinear least squares. The fitted mean and sigma
// describe the background distribution that p-values are computed against.
package gaussfit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Params are the amplitude, mean and standard deviation of a Gaussian curve.
type Params struct {
	Amplitude float64
	Mean      float64
	Sigma     float64
}

// Unit is the standard normal shape, used when a fit is skipped.
var Unit = Params{Amplitude: 1, Mean: 0, Sigma: 1}

// Eval returns amp * exp(-(x-mean)^2 / (2*sigma^2)).
func (p Params) Eval(x float64) float64 {
	return gaussian(x, p.Amplitude, p.Mean, p.Sigma)
}

func gaussian(x, amp, mean, sigma float64) float64 {
	d := x - mean
	return amp * math.Exp(-d*d/(2*sigma*sigma))
}

// FitError is returned when the least-squares fit fails to produce usable
// parameters.
type FitError struct {
	Reason string
	Status optimize.Status
	Err    error
}

func (e *FitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gaussian fit failed: %s (status %v): %v", e.Reason, e.Status, e.Err)
	}
	return fmt.Sprintf("gaussian fit failed: %s (status %v)", e.Reason, e.Status)
}

func (e *FitError) Unwrap() error {
	return e.Err
}

// MaxIterations caps the optimizer's major iterations.
const MaxIterations = 20000

// Fit histograms z and fits a Gaussian to the (center, count) pairs. The
// starting point is amplitude 0.01*N/sqrt(2*pi), mean 0 and sigma 1. The
// histogram is returned even when the fit fails.
func Fit(z []float64) (Params, Histogram, error) {
	h := NewHistogram(z)

	total := h.Total()
	if total == 0 {
		return Params{}, h, &FitError{Reason: "no Z-scores fall within the histogram range", Status: optimize.NotTerminated}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			amp, mean, sigma := x[0], x[1], x[2]
			if sigma == 0 {
				return math.Inf(1)
			}

			ss := 0.0
			for i, center := range h.Centers {
				r := h.Counts[i] - gaussian(center, amp, mean, sigma)
				ss += r * r
			}
			return ss
		},
	}

	initial := []float64{0.01 * total / math.Sqrt(2*math.Pi), 0, 1}
	settings := &optimize.Settings{
		MajorIterations: MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-10,
			Relative:   1e-10,
			Iterations: 200,
		},
	}

	result, err := optimize.Minimize(problem, initial, settings, &optimize.NelderMead{})
	p, err := checkResult(result, err)
	if err != nil {
		return Params{}, h, err
	}

	return p, h, nil
}

// checkResult turns an optimizer result into parameters, rejecting runs that
// errored, stopped early or ended on an unusable curve.
func checkResult(result *optimize.Result, err error) (Params, error) {
	if err != nil {
		status := optimize.Failure
		if result != nil {
			status = result.Status
		}
		return Params{}, &FitError{Reason: "optimizer error", Status: status, Err: err}
	}

	switch result.Status {
	case optimize.Failure, optimize.NotTerminated, optimize.IterationLimit, optimize.RuntimeLimit, optimize.FunctionEvaluationLimit:
		return Params{}, &FitError{Reason: "optimizer did not converge", Status: result.Status}
	}

	p := Params{
		Amplitude: result.X[0],
		Mean:      result.X[1],
		Sigma:     math.Abs(result.X[2]),
	}

	for _, v := range []float64{p.Amplitude, p.Mean, p.Sigma, result.F} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Params{}, &FitError{Reason: "non-finite parameters", Status: result.Status}
		}
	}
	if p.Sigma == 0 {
		return Params{}, &FitError{Reason: "zero width", Status: result.Status}
	}

	return p, nil
}
