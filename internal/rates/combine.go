package rates

import (
	"github.com/sells-group/freight-cli/internal/model"
)

// Result is the outcome of one combination run.
type Result struct {
	Routes  []model.RankedRoute
	Matched int
	Total   int
}

// oceanRate returns the ocean rate for a container type, keyed on its
// first two characters.
func oceanRate(o OceanRow, containerType string) *float64 {
	if len(containerType) < 2 {
		return nil
	}
	switch containerType[:2] {
	case "20":
		return o.Rate20
	case "40":
		return o.Rate40
	}
	return nil
}

// Combine joins inland rows with the ocean rate for their POD and container
// size and ranks the result. A POD listed twice in the ocean sheet uses its
// last row. Rows without an ocean rate are kept unmatched.
func Combine(inland []InlandRow, ocean []OceanRow) Result {
	byPOD := make(map[string]OceanRow, len(ocean))
	for _, o := range ocean {
		byPOD[o.POD] = o
	}

	res := Result{Routes: make([]model.RankedRoute, 0, len(inland)), Total: len(inland)}
	for _, in := range inland {
		r := model.RankedRoute{
			Destination:   in.Destination,
			ContainerType: in.ContainerType,
			POD:           in.POD,
			TransportMode: in.TransportMode,
			Currency:      in.Currency,
			Remarks:       in.Remarks,
			Rate:          in.Rate,
		}
		if o, ok := byPOD[in.POD]; ok {
			r.OceanRate = oceanRate(o, in.ContainerType)
		}
		if r.OceanRate != nil {
			r.Matched = true
			res.Matched++
		}
		if r.Rate != nil && r.OceanRate != nil {
			total := *r.Rate + *r.OceanRate
			r.TotalRate = &total
		}
		res.Routes = append(res.Routes, r)
	}

	res.Routes = Rank(res.Routes)
	return res
}
