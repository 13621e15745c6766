package api

import (
	"net/http"

	"github.com/sells-group/freight-cli/internal/model"
	"github.com/sells-group/freight-cli/internal/rates"
)

type routeEntry struct {
	Rank       int      `json:"rank"`
	POD        string   `json:"pod"`
	Mode       string   `json:"mode"`
	Remarks    string   `json:"remarks"`
	TotalRate  *float64 `json:"totalRate"`
	OceanRate  *float64 `json:"oceanRate"`
	InlandRate *float64 `json:"inlandRate"`
}

type routesResponse struct {
	Destination   string       `json:"destination"`
	ContainerType string       `json:"containerType"`
	Currency      string       `json:"currency"`
	Routes        []routeEntry `json:"routes"`
	TotalRoutes   int          `json:"totalRoutes"`
}

func newRoutesResponse(destination, containerType string, routes []model.RankedRoute) routesResponse {
	best := rates.DedupeByRank(routes)
	resp := routesResponse{
		Destination:   destination,
		ContainerType: containerType,
		Routes:        make([]routeEntry, 0, len(best)),
		TotalRoutes:   len(best),
	}
	if len(best) > 0 {
		resp.Currency = best[0].Currency
	}
	for _, r := range best {
		resp.Routes = append(resp.Routes, routeEntry{
			Rank:       r.CostRank,
			POD:        r.POD,
			Mode:       r.TransportMode,
			Remarks:    r.Remarks,
			TotalRate:  r.TotalRate,
			OceanRate:  r.OceanRate,
			InlandRate: r.Rate,
		})
	}
	return resp
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	destination := pathParam(r, "destination")
	containerType := pathParam(r, "containerType")

	routes, err := s.store.ListRoutes(r.Context(), destination, containerType)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	resp := newRoutesResponse(destination, containerType, routes)
	if resp.TotalRoutes == 0 {
		writeError(w, http.StatusNotFound, "no routes found for criteria")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
