package zscore

import (
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader. Tab wins whenever it is one of the candidates, since
// spreadsheet exports use tabs and may also carry commas as thousands
// separators. With no candidates (for example a single column) it returns tab.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	for _, v := range delimiters {
		if v == "\t" {
			return '\t'
		}
	}

	if len(delimiters) > 0 && len(delimiters[0]) > 0 {
		return rune(delimiters[0][0])
	}

	return '\t'
}
