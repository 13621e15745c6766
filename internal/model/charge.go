package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// ChargeKind classifies a leaf charge line.
type ChargeKind string

const (
	ChargeKindSurcharge    ChargeKind = "surcharge"
	ChargeKindOceanFreight ChargeKind = "ocean_freight"
	ChargeKindLandFreight  ChargeKind = "landfreight"
)

// Amounts maps a container-type label as advertised by the table header
// (e.g. "20STD", "40HC") to the rendered amount.
type Amounts map[string]string

// Get returns the amount for label, or "" when absent.
func (a Amounts) Get(label string) string {
	if a == nil {
		return ""
	}
	return a[label]
}

// Charge is one normalized line of a surcharge breakdown. It is either a
// *LeafCharge or a *ChargeGroup.
type Charge interface {
	ChargeDescription() string
	isCharge()
}

// LeafCharge is a currency-bearing charge line.
type LeafCharge struct {
	Kind        ChargeKind `json:"kind"`
	Description string     `json:"description"`
	Currency    string     `json:"currency"`
	Amounts     Amounts    `json:"amounts"`
	Remarks     string     `json:"remarks,omitempty"`
}

// ChargeGroup is a destination landfreight line whose price depends on the
// sub-route. It carries no amounts of its own.
type ChargeGroup struct {
	Description string      `json:"description"`
	Remarks     string      `json:"remarks,omitempty"`
	SubOptions  []SubOption `json:"sub_options"`
}

// SubOption is one alternative sub-route nested under a ChargeGroup.
type SubOption struct {
	Description string  `json:"description"`
	Currency    string  `json:"currency"`
	Amounts     Amounts `json:"amounts"`
}

func (c *LeafCharge) ChargeDescription() string  { return c.Description }
func (c *ChargeGroup) ChargeDescription() string { return c.Description }

func (*LeafCharge) isCharge()  {}
func (*ChargeGroup) isCharge() {}

// DisplayCurrency is the currency of the last sub-option, which the group
// shows in place of its own empty currency cell.
func (g *ChargeGroup) DisplayCurrency() string {
	for i := len(g.SubOptions) - 1; i >= 0; i-- {
		if g.SubOptions[i].Currency != "" {
			return g.SubOptions[i].Currency
		}
	}
	return ""
}

// RouteInfo describes the route a surcharge table was extracted for.
type RouteInfo struct {
	From string `json:"from"`
	To   string `json:"to"`
	Via  string `json:"via,omitempty"`
}

// Charges is an ordered list of charges with a tagged JSON encoding.
type Charges []Charge

type chargeEnvelope struct {
	Type  string       `json:"type"`
	Leaf  *LeafCharge  `json:"leaf,omitempty"`
	Group *ChargeGroup `json:"group,omitempty"`
}

const (
	chargeTypeLeaf  = "leaf"
	chargeTypeGroup = "group"
)

// MarshalJSON encodes each charge with an explicit type tag.
func (cs Charges) MarshalJSON() ([]byte, error) {
	out := make([]chargeEnvelope, 0, len(cs))
	for _, c := range cs {
		switch v := c.(type) {
		case *LeafCharge:
			out = append(out, chargeEnvelope{Type: chargeTypeLeaf, Leaf: v})
		case *ChargeGroup:
			out = append(out, chargeEnvelope{Type: chargeTypeGroup, Group: v})
		default:
			return nil, eris.Errorf("model: unknown charge type %T", c)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the tagged encoding produced by MarshalJSON.
func (cs *Charges) UnmarshalJSON(data []byte) error {
	var envs []chargeEnvelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return eris.Wrap(err, "model: unmarshal charges")
	}
	out := make(Charges, 0, len(envs))
	for i, env := range envs {
		switch {
		case env.Type == chargeTypeLeaf && env.Leaf != nil:
			out = append(out, env.Leaf)
		case env.Type == chargeTypeGroup && env.Group != nil:
			out = append(out, env.Group)
		default:
			return eris.Errorf("model: charge %d has invalid type %q", i, env.Type)
		}
	}
	*cs = out
	return nil
}
