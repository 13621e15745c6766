package model

import "time"

// RankedRoute is one inland route joined with its ocean leg and ranked
// within its (destination, container type) lane.
type RankedRoute struct {
	Destination   string   `json:"destination"`
	ContainerType string   `json:"container_type"`
	POD           string   `json:"pod"`
	TransportMode string   `json:"transport_mode"`
	Currency      string   `json:"currency,omitempty"`
	Remarks       string   `json:"remarks,omitempty"`
	Rate          *float64 `json:"rate,omitempty"`
	OceanRate     *float64 `json:"ocean_rate,omitempty"`
	TotalRate     *float64 `json:"total_rate,omitempty"`
	Matched       bool     `json:"matched"`
	CostRank      int      `json:"cost_rank"`
	TotalRoutes   int      `json:"total_routes"`
}

// Lane identifies the group a route is ranked in.
type Lane struct {
	Destination   string
	ContainerType string
}

// Lane returns the route's ranking lane.
func (r RankedRoute) Lane() Lane {
	return Lane{Destination: r.Destination, ContainerType: r.ContainerType}
}

// Ranked reports whether the route took part in its lane's ranking.
func (r RankedRoute) Ranked() bool {
	return r.TotalRate != nil && r.CostRank > 0
}

// CombineRun records one offline rate combination.
type CombineRun struct {
	ID         string    `json:"id"`
	InlandFile string    `json:"inland_file"`
	OceanFile  string    `json:"ocean_file"`
	OutputFile string    `json:"output_file,omitempty"`
	Total      int       `json:"total"`
	Matched    int       `json:"matched"`
	CreatedAt  time.Time `json:"created_at"`
}
