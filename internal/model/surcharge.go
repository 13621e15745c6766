package model

import "time"

// SurchargeTable is the persisted result of one surcharge extraction.
type SurchargeTable struct {
	ID          string    `json:"id"`
	Route       RouteInfo `json:"route"`
	Columns     []string  `json:"columns"`
	Has20STD    bool      `json:"has_20std"`
	Charges     Charges   `json:"charges"`
	ExtractedAt time.Time `json:"extracted_at"`
}
