// Package rates joins inland and ocean rate sheets and ranks routes per lane.
package rates

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Inland sheet columns.
const (
	ColPOD           = "POD"
	ColContainerType = "Container Type & Size"
	ColRate          = "Rate"
	ColDestination   = "Destination"
	ColTransportMode = "Transport Mode"
	ColCurrency      = "Currency"
	ColRemarks       = "Remarks"
)

// Ocean sheet columns.
const (
	Col20FT = "20 FT"
	Col40FT = "40 FT"
)

// InlandRow is one inland-leg quote.
type InlandRow struct {
	POD           string
	ContainerType string
	Destination   string
	TransportMode string
	Currency      string
	Remarks       string
	Rate          *float64
}

// OceanRow is the ocean-leg quote for one port of discharge.
type OceanRow struct {
	POD    string
	Rate20 *float64
	Rate40 *float64
}

// columns maps header labels to their index.
type columns map[string]int

func headerColumns(header []string) columns {
	cols := make(columns, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, ok := cols[key]; !ok {
			cols[key] = i
		}
	}
	return cols
}

func (c columns) require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := c[strings.ToLower(n)]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("rates: missing columns %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c columns) get(row []string, name string) string {
	i, ok := c[strings.ToLower(name)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ParseNumber coerces spreadsheet text into a number. Thousands separators
// and currency-free whitespace are tolerated; anything else is missing.
func ParseNumber(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// ParseInland reads an inland sheet whose first row is the header. Rows
// without a POD are dropped.
func ParseInland(grid [][]string) ([]InlandRow, error) {
	if len(grid) == 0 {
		return nil, eris.New("rates: inland sheet is empty")
	}
	cols := headerColumns(grid[0])
	if err := cols.require(ColPOD, ColContainerType, ColRate, ColDestination); err != nil {
		return nil, eris.Wrap(err, "rates: parse inland")
	}

	out := make([]InlandRow, 0, len(grid)-1)
	for _, row := range grid[1:] {
		pod := cols.get(row, ColPOD)
		if pod == "" {
			continue
		}
		out = append(out, InlandRow{
			POD:           pod,
			ContainerType: cols.get(row, ColContainerType),
			Destination:   cols.get(row, ColDestination),
			TransportMode: cols.get(row, ColTransportMode),
			Currency:      cols.get(row, ColCurrency),
			Remarks:       cols.get(row, ColRemarks),
			Rate:          ParseNumber(cols.get(row, ColRate)),
		})
	}
	return out, nil
}

// ParseOcean reads an ocean sheet whose first row is the header. Rows
// without a POD are dropped.
func ParseOcean(grid [][]string) ([]OceanRow, error) {
	if len(grid) == 0 {
		return nil, eris.New("rates: ocean sheet is empty")
	}
	cols := headerColumns(grid[0])
	if err := cols.require(ColPOD, Col20FT, Col40FT); err != nil {
		return nil, eris.Wrap(err, "rates: parse ocean")
	}

	out := make([]OceanRow, 0, len(grid)-1)
	for _, row := range grid[1:] {
		pod := cols.get(row, ColPOD)
		if pod == "" {
			continue
		}
		out = append(out, OceanRow{
			POD:    pod,
			Rate20: ParseNumber(cols.get(row, Col20FT)),
			Rate40: ParseNumber(cols.get(row, Col40FT)),
		})
	}
	return out, nil
}
