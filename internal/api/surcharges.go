package api

import (
	"net/http"
	"strings"

	"github.com/sells-group/freight-cli/internal/model"
	"github.com/sells-group/freight-cli/internal/surcharge"
)

type chargeEntry struct {
	Description string           `json:"description"`
	Curr        string           `json:"curr"`
	Value20STD  string           `json:"value20STD"`
	Value40STD  string           `json:"value40STD"`
	Value40HC   string           `json:"value40HC"`
	SubOptions  []subOptionEntry `json:"subOptions,omitempty"`
}

type subOptionEntry struct {
	Description string `json:"description"`
	Curr        string `json:"curr"`
	Value20     string `json:"value20"`
	Value40     string `json:"value40"`
	Value40HC   string `json:"value40HC"`
}

type surchargeRoute struct {
	From                   string          `json:"from"`
	To                     string          `json:"to"`
	Via                    string          `json:"via"`
	OceanFreight           *chargeEntry    `json:"oceanFreight"`
	DestinationLandfreight *chargeEntry    `json:"destinationLandfreight"`
	OtherCharges           []chargeEntry   `json:"otherCharges"`
	AvailableContainers    map[string]bool `json:"availableContainers"`
}

type surchargeResponse struct {
	Destination string         `json:"destination"`
	Route       surchargeRoute `json:"route"`
}

// available tracks which container columns carry at least one real amount.
type available map[string]bool

func (a available) note(v20, v40, v40hc string) {
	for label, v := range map[string]string{
		surcharge.Label20STD: v20,
		surcharge.Label40STD: v40,
		surcharge.Label40HC:  v40hc,
	} {
		if v != "" && v != "-" {
			a[label] = true
		}
	}
}

func newSurchargeRoute(t *model.SurchargeTable) surchargeRoute {
	avail := available{surcharge.Label20STD: false, surcharge.Label40STD: false, surcharge.Label40HC: false}
	out := surchargeRoute{
		From:                t.Route.From,
		To:                  t.Route.To,
		Via:                 t.Route.Via,
		OtherCharges:        []chargeEntry{},
		AvailableContainers: avail,
	}

	leafEntry := func(c *model.LeafCharge) *chargeEntry {
		v20, v40, v40hc := surcharge.ExportAmounts(c.Amounts, t.Has20STD)
		avail.note(v20, v40, v40hc)
		return &chargeEntry{Description: c.Description, Curr: c.Currency, Value20STD: v20, Value40STD: v40, Value40HC: v40hc}
	}

	for _, c := range t.Charges {
		switch v := c.(type) {
		case *model.LeafCharge:
			switch v.Kind {
			case model.ChargeKindOceanFreight:
				out.OceanFreight = leafEntry(v)
			case model.ChargeKindLandFreight:
				out.DestinationLandfreight = leafEntry(v)
			default:
				out.OtherCharges = append(out.OtherCharges, *leafEntry(v))
			}
		case *model.ChargeGroup:
			g := &chargeEntry{Description: v.Description, Curr: v.DisplayCurrency()}
			for _, so := range v.SubOptions {
				v20, v40, v40hc := surcharge.ExportAmounts(so.Amounts, t.Has20STD)
				avail.note(v20, v40, v40hc)
				g.SubOptions = append(g.SubOptions, subOptionEntry{
					Description: so.Description,
					Curr:        so.Currency,
					Value20:     v20,
					Value40:     v40,
					Value40HC:   v40hc,
				})
			}
			out.DestinationLandfreight = g
		}
	}
	return out
}

func (s *Server) handleSurchargeDestinations(w http.ResponseWriter, r *http.Request) {
	dests, err := s.store.ListSurchargeDestinations(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if len(dests) == 0 {
		writeError(w, http.StatusNotFound, "no surcharge data loaded")
		return
	}
	writeJSON(w, http.StatusOK, dests)
}

func (s *Server) handleSurchargeRoute(w http.ResponseWriter, r *http.Request) {
	destination := strings.TrimSpace(pathParam(r, "*"))
	if destination == "" {
		writeError(w, http.StatusBadRequest, "destination is required")
		return
	}

	t, err := s.store.GetSurchargeTable(r.Context(), destination)
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, "no routes found for destination")
		return
	}
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, surchargeResponse{Destination: destination, Route: newSurchargeRoute(t)})
}
