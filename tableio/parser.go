// Package tableio reads the numeric tables analyzed by the differential
// package and writes its results as tab-separated text.
package tableio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/pwilmart/zscore"
	"github.com/pwilmart/zscore/differential"
)

// Delimiters that detection may settle on. Anything else found by the
// detector, such as a decimal point in a single column of numbers, is ignored.
var detectable = map[rune]struct{}{
	'\t': {},
	',':  {},
	';':  {},
	'|':  {},
	' ':  {},
}

type Parser struct {
	Layout Layout
}

func New(layout string) (*Parser, error) {
	l, exists := Layouts[layout]
	if !exists {
		return nil, fmt.Errorf("Layout %s is not found. Valid layout names include: %s", layout, LayoutNames())
	}

	return NewWithLayout(l)
}

func NewWithLayout(layout Layout) (*Parser, error) {
	if layout.Columns < 1 {
		return nil, fmt.Errorf("layout must have at least one column, has %d", layout.Columns)
	}

	return &Parser{Layout: layout}, nil
}

// Read parses a whole table. A first record that does not parse as numbers is
// taken as the header. Blank lines are skipped and data rows are numbered from
// 0 in the order they appear.
func (p *Parser) Read(r io.Reader) (differential.Table, error) {
	var t differential.Table

	raw, err := io.ReadAll(r)
	if err != nil {
		return t, pfx.Err(err)
	}

	delim := p.Layout.Delimiter
	if delim == 0 {
		delim = detect(raw)
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.Comma = delim
	cr.Comment = p.Layout.Comment
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = delim != ' '

	first := true
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return t, pfx.Err(err)
		}

		record = trimTrailingEmpty(record)
		if len(record) == 0 {
			continue
		}

		index := len(t.Rows)
		values, err := parseValues(record)
		if err != nil {
			if first {
				t.Header = record
				first = false
				continue
			}
			return t, &differential.InputShapeError{Row: index, Reason: err.Error()}
		}
		first = false

		if len(values) != p.Layout.Columns {
			return t, &differential.InputShapeError{Row: index, Reason: fmt.Sprintf("expected %d columns, got %d", p.Layout.Columns, len(values))}
		}

		t.Rows = append(t.Rows, differential.Row{Index: index, Values: values})
	}

	return t, nil
}

func detect(raw []byte) rune {
	d := zscore.DetermineDelimiter(bytes.NewReader(raw))
	if _, ok := detectable[d]; ok {
		return d
	}

	return '\t'
}

// parseValues reads every field as a number. A comma inside a field can only
// be a thousands separator, so it is dropped.
func parseValues(record []string) ([]float64, error) {
	out := make([]float64, len(record))
	for i, field := range record {
		field = strings.ReplaceAll(strings.TrimSpace(field), ",", "")

		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %q is not a number", i+1, field)
		}
		out[i] = v
	}

	return out, nil
}

func trimTrailingEmpty(record []string) []string {
	for len(record) > 0 && strings.TrimSpace(record[len(record)-1]) == "" {
		record = record[:len(record)-1]
	}

	return record
}
