// Package store persists ranked routes, surcharge tables and resolution
// audit events.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/freight-cli/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// ResolutionFilter narrows ListResolutions.
type ResolutionFilter struct {
	Kind        string `json:"kind,omitempty"`
	Destination string `json:"destination,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

const defaultListLimit = 100

func (f ResolutionFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Store defines persistence for the freight pipeline.
type Store interface {
	// Rates
	SaveRankedRoutes(ctx context.Context, runID string, routes []model.RankedRoute) error
	ListRoutes(ctx context.Context, destination, containerType string) ([]model.RankedRoute, error)
	ListDestinations(ctx context.Context) ([]string, error)
	ListContainerTypes(ctx context.Context) ([]string, error)
	CreateCombineRun(ctx context.Context, run *model.CombineRun) error

	// Surcharges
	SaveSurchargeTable(ctx context.Context, t *model.SurchargeTable) error
	GetSurchargeTable(ctx context.Context, destination string) (*model.SurchargeTable, error)
	ListSurchargeDestinations(ctx context.Context) ([]string, error)

	// Resolution audit
	RecordResolution(ctx context.Context, ev *model.ResolutionEvent) error
	ListResolutions(ctx context.Context, filter ResolutionFilter) ([]model.ResolutionEvent, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// routeColumns is the column order shared by both backends.
var routeColumns = []string{
	"run_id", "destination", "container_type", "pod", "transport_mode", "currency", "remarks",
	"rate", "ocean_rate", "total_rate", "matched", "cost_rank", "total_routes",
}

func routeValues(runID string, r model.RankedRoute) []any {
	return []any{
		runID, r.Destination, r.ContainerType, r.POD, r.TransportMode, r.Currency, r.Remarks,
		r.Rate, r.OceanRate, r.TotalRate, r.Matched, r.CostRank, r.TotalRoutes,
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRoute(row scannable) (model.RankedRoute, error) {
	var r model.RankedRoute
	err := row.Scan(&r.Destination, &r.ContainerType, &r.POD, &r.TransportMode, &r.Currency, &r.Remarks,
		&r.Rate, &r.OceanRate, &r.TotalRate, &r.Matched, &r.CostRank, &r.TotalRoutes)
	return r, err
}

func scanResolution(row scannable) (model.ResolutionEvent, error) {
	var ev model.ResolutionEvent
	err := row.Scan(&ev.ID, &ev.Destination, &ev.Kind, &ev.Prefix, &ev.Selected, &ev.Score, &ev.Detail, &ev.CreatedAt)
	return ev, err
}
