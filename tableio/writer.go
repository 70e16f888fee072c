package tableio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/carbocation/pfx"
	"github.com/gocarina/gocsv"
	"github.com/pwilmart/zscore/differential"
	"gopkg.in/guregu/null.v3"
)

type resultRow struct {
	Row        string `csv:"row"`
	A          string `csv:"A"`
	B          string `csv:"B"`
	AveAB      string `csv:"ave_ab"`
	Log2Ratio  string `csv:"log2_ratio"`
	FoldChange string `csv:"fold_change"`
	ZScore     string `csv:"zscore"`
	PValue     string `csv:"pvalue"`
	FDR        string `csv:"fdr"`
	Candidate  string `csv:"candidate"`
}

type adjustedRow struct {
	Row      string `csv:"row"`
	P        string `csv:"pvalue"`
	Adjusted string `csv:"bh_adjusted"`
}

// WriteResult writes one tab-separated line per record, in row order, after a
// header line. Missing statistics are written as empty cells.
func WriteResult(w io.Writer, res *differential.Result) error {
	rows := make([]*resultRow, 0, len(res.Records))
	for _, rec := range res.Records {
		rows = append(rows, &resultRow{
			Row:        strconv.Itoa(rec.Row),
			A:          FloatFormatter(rec.A),
			B:          FloatFormatter(rec.B),
			AveAB:      FloatFormatter(rec.AveAB),
			Log2Ratio:  FloatFormatter(rec.Log2Ratio),
			FoldChange: FloatFormatter(rec.FoldChange),
			ZScore:     NullFloatFormatter(rec.ZScore),
			PValue:     NullFloatFormatter(rec.PValue),
			FDR:        NullFloatFormatter(rec.FDR),
			Candidate:  rec.Tier.String(),
		})
	}

	return marshalTSV(w, &rows)
}

// WriteAdjusted writes the correction-only output.
func WriteAdjusted(w io.Writer, adjusted []differential.Adjusted) error {
	rows := make([]*adjustedRow, 0, len(adjusted))
	for _, v := range adjusted {
		rows = append(rows, &adjustedRow{
			Row:      strconv.Itoa(v.Row),
			P:        FloatFormatter(v.P),
			Adjusted: FloatFormatter(v.Adjusted),
		})
	}

	return marshalTSV(w, &rows)
}

func marshalTSV(w io.Writer, rows interface{}) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'

	out := gocsv.NewSafeCSVWriter(cw)
	if err := gocsv.MarshalCSV(rows, out); err != nil {
		return pfx.Err(err)
	}
	out.Flush()
	if err := out.Error(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func FloatFormatter(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func NullFloatFormatter(n null.Float) string {
	if !n.Valid {
		return ""
	}

	return FloatFormatter(n.Float64)
}
