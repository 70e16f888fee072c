package differential

import (
	"errors"
	"io"
	"math"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWindow         = 301
	DefaultTrimFraction   = 0.05
	DefaultZeroSubstitute = 50.0
	DefaultLowFDR         = 0.10
	DefaultMedFDR         = 0.05
	DefaultHighFDR        = 0.01
)

// Thresholds are the FDR cutoffs separating the candidate tiers.
type Thresholds struct {
	Low  float64 `yaml:"low"`
	Med  float64 `yaml:"med"`
	High float64 `yaml:"high"`
}

// Config controls one pipeline run. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	// Window is the sliding window width. It must be odd.
	Window int `yaml:"window"`

	// TrimFraction is the fraction of each window dropped from each tail
	// before the mean and standard deviation are taken.
	TrimFraction float64 `yaml:"trim"`

	// ZeroSubstitute replaces measurements of exactly zero so that ratios and
	// logarithms stay finite. Spectral count data is often run with a value
	// near 0.15 instead of the intensity-scale default.
	ZeroSubstitute float64 `yaml:"zero_substitute"`

	Thresholds Thresholds `yaml:"thresholds"`

	// FitFallback uses a standard normal (mean 0, sigma 1) when the Gaussian
	// fit fails instead of aborting the run.
	FitFallback bool `yaml:"fit_fallback"`
}

func DefaultConfig() Config {
	return Config{
		Window:         DefaultWindow,
		TrimFraction:   DefaultTrimFraction,
		ZeroSubstitute: DefaultZeroSubstitute,
		Thresholds: Thresholds{
			Low:  DefaultLowFDR,
			Med:  DefaultMedFDR,
			High: DefaultHighFDR,
		},
	}
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if c.Window < 1 || c.Window%2 == 0 {
		return &ConfigError{Field: "window", Reason: "must be an odd positive integer"}
	}

	if math.IsNaN(c.TrimFraction) || c.TrimFraction < 0 || c.TrimFraction >= 0.5 {
		return &ConfigError{Field: "trim", Reason: "must be in [0, 0.5)"}
	}

	if math.IsNaN(c.ZeroSubstitute) || math.IsInf(c.ZeroSubstitute, 0) || c.ZeroSubstitute <= 0 {
		return &ConfigError{Field: "zero_substitute", Reason: "must be a positive number"}
	}

	t := c.Thresholds
	if !(t.High > 0 && t.High <= t.Med && t.Med <= t.Low && t.Low <= 1) {
		return &ConfigError{Field: "thresholds", Reason: "must satisfy 0 < high <= med <= low <= 1"}
	}

	return nil
}

// ReadConfig decodes a YAML document over DefaultConfig, so that any setting
// the document leaves out keeps its default. Unknown keys are rejected. An
// empty document yields the defaults.
func ReadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, err
	}

	return cfg, cfg.Validate()
}
