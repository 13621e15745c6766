package model

import "time"

// ResolutionEvent is an audit entry for a destination resolution that did
// not end in a clean selection.
type ResolutionEvent struct {
	ID          string    `json:"id"`
	Destination string    `json:"destination"`
	Kind        string    `json:"kind"`
	Prefix      string    `json:"prefix,omitempty"`
	Selected    string    `json:"selected,omitempty"`
	Score       int       `json:"score"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
