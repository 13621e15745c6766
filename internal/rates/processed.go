package rates

import (
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/freight-cli/internal/model"
)

// Columns added to the inland layout by a combination run.
const (
	ColOceanRate   = "Ocean Rate"
	ColTotalRate   = "Total Rate"
	ColCostRank    = "Cost Rank"
	ColTotalRoutes = "Total Routes"
)

// ProcessedHeaders is the column layout of processed rate sheets.
var ProcessedHeaders = []string{
	ColPOD, ColContainerType, ColRate, ColDestination, ColTransportMode, ColCurrency, ColRemarks,
	ColOceanRate, ColTotalRate, ColCostRank, ColTotalRoutes,
}

func formatNumber(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// ProcessedRows renders ranked routes under ProcessedHeaders, header first.
// Unranked routes leave Cost Rank empty.
func ProcessedRows(routes []model.RankedRoute) [][]string {
	out := make([][]string, 0, len(routes)+1)
	out = append(out, ProcessedHeaders)
	for _, r := range routes {
		rank := ""
		if r.Ranked() {
			rank = strconv.Itoa(r.CostRank)
		}
		out = append(out, []string{
			r.POD, r.ContainerType, formatNumber(r.Rate), r.Destination, r.TransportMode, r.Currency, r.Remarks,
			formatNumber(r.OceanRate), formatNumber(r.TotalRate), rank, strconv.Itoa(r.TotalRoutes),
		})
	}
	return out
}

// ParseProcessed reads a processed rate sheet back into ranked routes. The
// stored ranks are kept as they are.
func ParseProcessed(grid [][]string) ([]model.RankedRoute, error) {
	if len(grid) == 0 {
		return nil, eris.New("rates: processed sheet is empty")
	}
	cols := headerColumns(grid[0])
	if err := cols.require(ColPOD, ColContainerType, ColDestination, ColTotalRate, ColCostRank, ColTotalRoutes); err != nil {
		return nil, eris.Wrap(err, "rates: parse processed")
	}

	out := make([]model.RankedRoute, 0, len(grid)-1)
	for _, row := range grid[1:] {
		pod := cols.get(row, ColPOD)
		if pod == "" {
			continue
		}
		r := model.RankedRoute{
			POD:           pod,
			ContainerType: cols.get(row, ColContainerType),
			Destination:   cols.get(row, ColDestination),
			TransportMode: cols.get(row, ColTransportMode),
			Currency:      cols.get(row, ColCurrency),
			Remarks:       cols.get(row, ColRemarks),
			Rate:          ParseNumber(cols.get(row, ColRate)),
			OceanRate:     ParseNumber(cols.get(row, ColOceanRate)),
			TotalRate:     ParseNumber(cols.get(row, ColTotalRate)),
		}
		r.Matched = r.OceanRate != nil
		if n := ParseNumber(cols.get(row, ColCostRank)); n != nil && r.TotalRate != nil {
			r.CostRank = int(*n)
		}
		if n := ParseNumber(cols.get(row, ColTotalRoutes)); n != nil {
			r.TotalRoutes = int(*n)
		}
		out = append(out, r)
	}
	return out, nil
}
