package surcharge

import (
	"regexp"
	"sort"
	"strings"
)

// headerScanRows is how many leading rows are searched for the header.
const headerScanRows = 20

// Column labels with special meaning.
const (
	LabelDescription = "Description"
	LabelCurrency    = "Curr."
	Label20STD       = "20STD"
	Label40STD       = "40STD"
	Label40HC        = "40HC"
)

var containerLabel = regexp.MustCompile(`^\d+[A-Z]+$`)

var spaces = regexp.MustCompile(`\s+`)

// Row is one table row as read from the rendered breakdown. Err is set when
// the reader failed on any cell of the row.
type Row struct {
	Cells []string
	Err   error
}

// Cell returns the whitespace-collapsed text of cell i, or "" when the row
// is shorter.
func (r Row) Cell(i int) string {
	if i < 0 || i >= len(r.Cells) {
		return ""
	}
	return collapse(r.Cells[i])
}

// Rows wraps a plain grid.
func Rows(grid [][]string) []Row {
	out := make([]Row, len(grid))
	for i, cells := range grid {
		out[i] = Row{Cells: cells}
	}
	return out
}

func collapse(s string) string {
	return spaces.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Column is one container-amount column of a table.
type Column struct {
	Index int
	Label string
}

// Header is the column schema discovered for one table.
type Header struct {
	// Row is the index of the header row, or -1 for the fallback layout.
	Row      int
	Labels   map[int]string
	Fallback bool
}

// fallbackHeader is assumed when no header row is found.
func fallbackHeader() Header {
	return Header{
		Row:      -1,
		Fallback: true,
		Labels: map[int]string{
			0: LabelDescription,
			1: LabelCurrency,
			2: Label40STD,
			3: Label40HC,
		},
	}
}

// DiscoverHeader returns the first row among the leading rows that has at
// least three cells and a currency column.
func DiscoverHeader(rows []Row) Header {
	for i := 0; i < len(rows) && i < headerScanRows; i++ {
		r := rows[i]
		if r.Err != nil || len(r.Cells) < 3 {
			continue
		}
		labels := make(map[int]string, len(r.Cells))
		found := false
		for j := range r.Cells {
			text := r.Cell(j)
			labels[j] = text
			if text == LabelCurrency || text == "Currency" {
				found = true
			}
		}
		if found {
			return Header{Row: i, Labels: labels}
		}
	}
	return fallbackHeader()
}

// ContainerColumns returns the amount columns ordered by index.
func (h Header) ContainerColumns() []Column {
	var cols []Column
	for idx, label := range h.Labels {
		if containerLabel.MatchString(label) {
			cols = append(cols, Column{Index: idx, Label: label})
		}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Index < cols[j].Index })
	return cols
}

// CurrencyColumn returns the index of the currency column, or -1.
func (h Header) CurrencyColumn() int {
	best := -1
	for idx, label := range h.Labels {
		if strings.Contains(label, "Curr") && (best < 0 || idx < best) {
			best = idx
		}
	}
	return best
}

// DescriptionColumn is always the first column.
func (h Header) DescriptionColumn() int { return 0 }

// Has20STD reports whether the table advertises a 20STD column at all.
func (h Header) Has20STD() bool {
	for _, c := range h.ContainerColumns() {
		if c.Label == Label20STD {
			return true
		}
	}
	return false
}

// labelsOf returns the container labels in column order.
func labelsOf(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Label
	}
	return out
}
