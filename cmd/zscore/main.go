package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/pwilmart/zscore"
	_ "github.com/pwilmart/zscore/compileinfoprint"
	"github.com/pwilmart/zscore/differential"
	"github.com/pwilmart/zscore/tableio"
)

func main() {
	var (
		inPath, outPath, configPath, plotPath string
		window                                int
		trim, zero, low, med, high            float64
		fallback, hist                        bool
	)

	defaults := differential.DefaultConfig()

	flag.StringVar(&inPath, "in", "", "Two-column table of A and B measurements, one entity per row. May be gzip/bzip2/xz/zip compressed and may be a gs:// path. Use - for stdin.")
	flag.StringVar(&outPath, "out", "", "(Optional) Where to write the tab-separated results. Defaults to stdout.")
	flag.StringVar(&configPath, "config", "", "(Optional) YAML file with window, trim, zero_substitute, thresholds and fit_fallback. Flags that are set explicitly override it.")
	flag.IntVar(&window, "window", defaults.Window, "Width of the sliding window over abundance-ordered rows. Must be odd.")
	flag.Float64Var(&trim, "trim", defaults.TrimFraction, "Fraction of each window trimmed from each tail before the mean and SD are taken.")
	flag.Float64Var(&zero, "zero", defaults.ZeroSubstitute, "Value that replaces zero measurements.")
	flag.Float64Var(&low, "low", defaults.Thresholds.Low, "FDR below which a row is a low candidate.")
	flag.Float64Var(&med, "med", defaults.Thresholds.Med, "FDR below which a row is a med candidate.")
	flag.Float64Var(&high, "high", defaults.Thresholds.High, "FDR below which a row is a high candidate.")
	flag.BoolVar(&fallback, "fallback", defaults.FitFallback, "If the Gaussian fit fails, use the standard normal instead of stopping.")
	flag.BoolVar(&hist, "hist", false, "Print a histogram of the Z-scores to stderr.")
	flag.StringVar(&plotPath, "plot", "", "(Optional) Write a PNG of the Z-score histogram and the fitted Gaussian to this path.")
	flag.Parse()

	if inPath == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide -in")
	}

	cfg := defaults
	if configPath != "" {
		var err error
		cfg, err = readConfig(configPath)
		if err != nil {
			log.Fatalln(err)
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "window":
			cfg.Window = window
		case "trim":
			cfg.TrimFraction = trim
		case "zero":
			cfg.ZeroSubstitute = zero
		case "low":
			cfg.Thresholds.Low = low
		case "med":
			cfg.Thresholds.Med = med
		case "high":
			cfg.Thresholds.High = high
		case "fallback":
			cfg.FitFallback = fallback
		}
	})

	if err := run(context.Background(), inPath, outPath, plotPath, hist, cfg); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, inPath, outPath, plotPath string, hist bool, cfg differential.Config) error {
	log.Printf("Window %d, trim %g, zero substitute %g, thresholds %g/%g/%g\n", cfg.Window, cfg.TrimFraction, cfg.ZeroSubstitute, cfg.Thresholds.Low, cfg.Thresholds.Med, cfg.Thresholds.High)

	table, err := readTable(ctx, inPath)
	if err != nil {
		return err
	}
	log.Printf("Read %d data rows from %s\n", len(table.Rows), inPath)

	res, err := differential.Run(table, cfg)
	if err != nil {
		return pfx.Err(err)
	}

	if res.FitFallback {
		log.Printf("Gaussian fit failed (%v). Using the standard normal instead.\n", res.FitErr)
	} else {
		log.Printf("Fitted Z-score distribution: amplitude %.4g, mean %.4g, sigma %.4g\n", res.Fit.Amplitude, res.Fit.Mean, res.Fit.Sigma)
	}
	logSummary(res.Summary)

	if hist {
		if err := printHistogram(os.Stderr, res); err != nil {
			return err
		}
	}

	if plotPath != "" {
		if err := plotFit(plotPath, res); err != nil {
			return err
		}
		log.Println("Wrote plot to", plotPath)
	}

	return writeResult(outPath, res)
}

func readConfig(path string) (differential.Config, error) {
	f, err := os.Open(zscore.ExpandHome(path))
	if err != nil {
		return differential.Config{}, pfx.Err(err)
	}
	defer f.Close()

	cfg, err := differential.ReadConfig(f)
	if err != nil {
		return cfg, pfx.Err(fmt.Errorf("%s: %w", path, err))
	}

	return cfg, nil
}

func readTable(ctx context.Context, path string) (differential.Table, error) {
	var client *storage.Client
	if strings.HasPrefix(path, "gs://") {
		var err error
		client, err = storage.NewClient(ctx)
		if err != nil {
			return differential.Table{}, pfx.Err(err)
		}
		defer client.Close()
	}

	rc, err := zscore.OpenInput(ctx, path, client)
	if err != nil {
		return differential.Table{}, pfx.Err(err)
	}
	defer rc.Close()

	parser, err := tableio.New("PAIRED")
	if err != nil {
		return differential.Table{}, pfx.Err(err)
	}

	return parser.Read(rc)
}

func writeResult(path string, res *differential.Result) error {
	err := zscore.WriteOutput(path, func(w io.Writer) error {
		return tableio.WriteResult(w, res)
	})
	if err != nil {
		return pfx.Err(err)
	}

	if path != "" {
		log.Println("Wrote results to", path)
	}

	return nil
}

func logSummary(s differential.Summary) {
	log.Printf("%d rows, %d without a Z-score. Log2 ratio mean %.4g, SD %.4g. Z-score quartiles %.4g / %.4g / %.4g\n",
		s.Rows, s.Degenerate, s.Log2RatioMean, s.Log2RatioSD, s.ZQ1, s.ZMedian, s.ZQ3)

	for _, tier := range differential.Tiers {
		log.Printf("Candidates %s: %d\n", tier, s.Tiers[tier])
	}
}
