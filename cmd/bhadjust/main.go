package main

import (
	"context"
	"flag"
	"io"
	"log"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/pwilmart/zscore"
	_ "github.com/pwilmart/zscore/compileinfoprint"
	"github.com/pwilmart/zscore/differential"
	"github.com/pwilmart/zscore/tableio"
)

func main() {
	var inPath, outPath string

	flag.StringVar(&inPath, "in", "", "Single column of p-values, optionally with a header. May be compressed and may be a gs:// path. Use - for stdin.")
	flag.StringVar(&outPath, "out", "", "(Optional) Where to write the row, p-value and Benjamini-Hochberg adjusted p-value. Defaults to stdout.")
	flag.Parse()

	if inPath == "" {
		flag.PrintDefaults()
		log.Fatalln("Please provide -in")
	}

	if err := run(context.Background(), inPath, outPath); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, inPath, outPath string) error {
	var client *storage.Client
	if strings.HasPrefix(inPath, "gs://") {
		var err error
		client, err = storage.NewClient(ctx)
		if err != nil {
			return pfx.Err(err)
		}
		defer client.Close()
	}

	rc, err := zscore.OpenInput(ctx, inPath, client)
	if err != nil {
		return pfx.Err(err)
	}
	defer rc.Close()

	parser, err := tableio.New("PVALUES")
	if err != nil {
		return pfx.Err(err)
	}

	table, err := parser.Read(rc)
	if err != nil {
		return pfx.Err(err)
	}

	adjusted, err := differential.RunBH(table)
	if err != nil {
		return pfx.Err(err)
	}
	log.Printf("Adjusted %d p-values\n", len(adjusted))

	err = zscore.WriteOutput(outPath, func(w io.Writer) error {
		return tableio.WriteAdjusted(w, adjusted)
	})
	if err != nil {
		return pfx.Err(err)
	}

	return nil
}
