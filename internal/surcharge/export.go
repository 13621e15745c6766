package surcharge

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/freight-cli/internal/model"
)

// ExportHeaders is the fixed column layout of exported surcharge sheets.
var ExportHeaders = []string{"From", "To", "Via", LabelDescription, LabelCurrency, Label20STD, Label40STD, Label40HC, "Transport Remarks"}

const (
	colFrom = iota
	colTo
	colVia
	colDescription
	colCurrency
	col20STD
	col40STD
	col40HC
	colRemarks
)

// ExportAmounts maps amounts onto the fixed 20STD, 40STD and 40HC export
// columns. Tables without a 20STD column quote the 40STD amount for 20'
// containers.
func ExportAmounts(a model.Amounts, has20STD bool) (string, string, string) {
	v20 := a.Get(Label20STD)
	if !has20STD {
		v20 = a.Get(Label40STD)
	}
	return v20, a.Get(Label40STD), a.Get(Label40HC)
}

// ExportRows renders t in the fixed export layout. A charge group becomes a
// header row with an empty currency followed by one row per sub-option.
func ExportRows(t *model.SurchargeTable) [][]string {
	r := t.Route
	row := func(desc, curr string, a model.Amounts, remarks string) []string {
		v20, v40, v40hc := ExportAmounts(a, t.Has20STD)
		return []string{r.From, r.To, r.Via, desc, curr, v20, v40, v40hc, remarks}
	}

	var out [][]string
	for _, c := range t.Charges {
		switch v := c.(type) {
		case *model.LeafCharge:
			out = append(out, row(v.Description, v.Currency, v.Amounts, v.Remarks))
		case *model.ChargeGroup:
			out = append(out, []string{r.From, r.To, r.Via, v.Description, "", "", "", "", v.Remarks})
			for _, s := range v.SubOptions {
				out = append(out, row(s.Description, s.Currency, s.Amounts, ""))
			}
		}
	}
	return out
}

func exportRoute(r Row) model.RouteInfo {
	return model.RouteInfo{From: r.Cell(colFrom), To: r.Cell(colTo), Via: r.Cell(colVia)}
}

// ParseExport reads an exported sheet back into one table per route, in
// order of first appearance. Rows before the header row are skipped.
func ParseExport(grid [][]string) ([]*model.SurchargeTable, error) {
	start := -1
	for i, cells := range grid {
		r := Row{Cells: cells}
		if r.Cell(colDescription) == LabelDescription && r.Cell(colCurrency) == LabelCurrency {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, eris.New("surcharge: export header row not found")
	}

	cols := []Column{{col20STD, Label20STD}, {col40STD, Label40STD}, {col40HC, Label40HC}}
	p := parser{cols: cols, currency: colCurrency, desc: colDescription}

	var tables []*model.SurchargeTable
	byRoute := make(map[model.RouteInfo]*model.SurchargeTable)

	rows := grid[start:]
	for i := 0; i < len(rows); i++ {
		r := Row{Cells: rows[i]}
		route := exportRoute(r)
		l := p.read(r)
		l.remarks = r.Cell(colRemarks)
		if route.To == "" || isStructural(l.description) {
			continue
		}

		t, ok := byRoute[route]
		if !ok {
			t = &model.SurchargeTable{Route: route, Columns: labelsOf(cols), Has20STD: true}
			byRoute[route] = t
			tables = append(tables, t)
		}

		lower := strings.ToLower(l.description)
		switch {
		case strings.Contains(lower, "ocean freight"):
			t.Charges = append(t.Charges, leaf(model.ChargeKindOceanFreight, l))
		case isLandFreight(lower) && l.currency != "":
			t.Charges = append(t.Charges, leaf(model.ChargeKindLandFreight, l))
		case isLandFreight(lower):
			g := &model.ChargeGroup{Description: l.description, Remarks: l.remarks}
			for i+1 < len(rows) {
				nr := Row{Cells: rows[i+1]}
				if exportRoute(nr) != route {
					break
				}
				next := p.read(nr)
				if !isSubOption(next) {
					break
				}
				g.SubOptions = append(g.SubOptions, subOption(next))
				i++
			}
			if len(g.SubOptions) > 0 {
				t.Charges = append(t.Charges, g)
			} else {
				t.Charges = append(t.Charges, leaf(model.ChargeKindLandFreight, l))
			}
		case l.currency != "":
			t.Charges = append(t.Charges, leaf(model.ChargeKindSurcharge, l))
		}
	}

	if len(tables) == 0 {
		return nil, eris.Wrap(ErrNoRecords, "surcharge: parse export")
	}
	return tables, nil
}
