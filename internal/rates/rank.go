package rates

import (
	"sort"

	"github.com/sells-group/freight-cli/internal/model"
)

// Rank orders routes by lane and assigns a dense cost rank within each
// lane. Routes are ordered by total rate, then POD, then input order, so
// equal totals never share a rank. Routes without a total get rank 0 and
// sort last in their lane. Every route carries the lane's ranked count.
func Rank(routes []model.RankedRoute) []model.RankedRoute {
	out := make([]model.RankedRoute, len(routes))
	copy(out, routes)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Destination != b.Destination {
			return a.Destination < b.Destination
		}
		if a.ContainerType != b.ContainerType {
			return a.ContainerType < b.ContainerType
		}
		if (a.TotalRate == nil) != (b.TotalRate == nil) {
			return a.TotalRate != nil
		}
		if a.TotalRate != nil && *a.TotalRate != *b.TotalRate {
			return *a.TotalRate < *b.TotalRate
		}
		return a.POD < b.POD
	})

	for start := 0; start < len(out); {
		end := start
		lane := out[start].Lane()
		ranked := 0
		for end < len(out) && out[end].Lane() == lane {
			if out[end].TotalRate != nil {
				ranked++
				out[end].CostRank = ranked
			} else {
				out[end].CostRank = 0
			}
			end++
		}
		for i := start; i < end; i++ {
			out[i].TotalRoutes = ranked
		}
		start = end
	}
	return out
}

// DedupeByRank keeps one route per cost rank, the cheapest when a rank
// repeats, ordered by rank. Unranked routes are dropped.
func DedupeByRank(routes []model.RankedRoute) []model.RankedRoute {
	byRank := make(map[int]model.RankedRoute)
	for _, r := range routes {
		if !r.Ranked() {
			continue
		}
		cur, ok := byRank[r.CostRank]
		if !ok || *r.TotalRate < *cur.TotalRate {
			byRank[r.CostRank] = r
		}
	}
	out := make([]model.RankedRoute, 0, len(byRank))
	for _, r := range byRank {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CostRank < out[j].CostRank })
	return out
}
