package tableio

import (
	"sort"
	"strings"
)

// Layout describes one kind of numeric input table. A zero Delimiter means the
// delimiter is detected from the data.
type Layout struct {
	Delimiter rune
	Comment   rune
	Columns   int
}

var Layouts = map[string]Layout{
	// Two measurement columns, A then B, as pasted from a spreadsheet.
	"PAIRED": {
		Comment: '#',
		Columns: 2,
	},
	// A single column of p-values.
	"PVALUES": {
		Delimiter: '\t',
		Comment:   '#',
		Columns:   1,
	},
}

func LayoutNames() string {
	names := make([]string, 0, len(Layouts))
	for m := range Layouts {
		names = append(names, m)
	}
	sort.Strings(names)

	return strings.Join(names, ", ")
}
