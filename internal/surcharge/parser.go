package surcharge

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/freight-cli/internal/model"
)

// ErrNoRecords is returned when a table yields no charge at all.
var ErrNoRecords = eris.New("surcharge: no records extracted")

// missingAmount is shown for sub-option amounts the table leaves blank.
const missingAmount = "-"

var structuralLabels = map[string]bool{
	"Import Surcharges": true,
	"Export Surcharges": true,
	LabelDescription:    true,
	LabelCurrency:       true,
	"Currency":          true,
}

var subOptionLeads = map[string]bool{
	"combined": true,
	"between":  true,
	"from":     true,
}

// Table is the result of parsing one surcharge breakdown.
type Table struct {
	Route    model.RouteInfo
	Header   Header
	Charges  model.Charges
	Warnings []string
}

// Columns returns the container labels the table advertises.
func (t *Table) Columns() []string {
	return labelsOf(t.Header.ContainerColumns())
}

// Model converts the table for persistence and export.
func (t *Table) Model() *model.SurchargeTable {
	return &model.SurchargeTable{
		Route:    t.Route,
		Columns:  t.Columns(),
		Has20STD: t.Header.Has20STD(),
		Charges:  t.Charges,
	}
}

func (t *Table) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	t.Warnings = append(t.Warnings, msg)
	zap.L().Warn("surcharge: "+msg, zap.String("to", t.Route.To))
}

// line is one data row split into its fields.
type line struct {
	description string
	remarks     string
	currency    string
	amounts     model.Amounts
}

// splitFirstCell returns the first non-empty line and the remaining lines
// joined with a space.
func splitFirstCell(text string) (string, string) {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if l = collapse(l); l != "" {
			lines = append(lines, l)
		}
	}
	switch len(lines) {
	case 0:
		return "", ""
	case 1:
		return lines[0], ""
	}
	return lines[0], strings.Join(lines[1:], " ")
}

// parser holds the column layout shared by every row of a table.
type parser struct {
	cols     []Column
	currency int
	desc     int
}

func newParser(h Header) parser {
	return parser{cols: h.ContainerColumns(), currency: h.CurrencyColumn(), desc: h.DescriptionColumn()}
}

func (p parser) read(r Row) line {
	var l line
	if p.desc < len(r.Cells) {
		l.description, l.remarks = splitFirstCell(r.Cells[p.desc])
	}
	l.currency = r.Cell(p.currency)
	l.amounts = make(model.Amounts, len(p.cols))
	for _, c := range p.cols {
		l.amounts[c.Label] = r.Cell(c.Index)
	}
	return l
}

func isStructural(desc string) bool {
	return desc == "" || structuralLabels[desc] || containerLabel.MatchString(desc)
}

// isSubOption reports whether l continues a landfreight group.
func isSubOption(l line) bool {
	if l.currency == "" {
		return false
	}
	d := l.description
	if strings.Contains(d, ";") || strings.HasPrefix(d, "<") || strings.HasPrefix(d, ">") {
		return true
	}
	fields := strings.Fields(d)
	return len(fields) > 0 && subOptionLeads[strings.ToLower(fields[0])]
}

func isLandFreight(lower string) bool {
	return strings.Contains(lower, "destination landfreight") || strings.Contains(lower, "landfreight")
}

func subOption(l line) model.SubOption {
	amounts := make(model.Amounts, len(l.amounts))
	for k, v := range l.amounts {
		if v == "" {
			v = missingAmount
		}
		amounts[k] = v
	}
	return model.SubOption{Description: l.description, Currency: l.currency, Amounts: amounts}
}

// Parse discovers the header of rows and extracts every charge. Unreadable
// rows are skipped with a warning. When nothing is extracted the partial
// table is returned with ErrNoRecords.
func Parse(rows []Row, route model.RouteInfo) (*Table, error) {
	h := DiscoverHeader(rows)
	t := &Table{Route: route, Header: h}
	if h.Fallback {
		t.warn("no header row found, assuming %s | %s | %s | %s", LabelDescription, LabelCurrency, Label40STD, Label40HC)
	}
	p := newParser(h)

	for i := 0; i < len(rows); i++ {
		if i == h.Row {
			continue
		}
		if rows[i].Err != nil {
			t.warn("row %d skipped: %v", i, rows[i].Err)
			continue
		}
		l := p.read(rows[i])
		if isStructural(l.description) {
			continue
		}
		lower := strings.ToLower(l.description)

		switch {
		case strings.Contains(lower, "ocean freight"):
			t.Charges = append(t.Charges, leaf(model.ChargeKindOceanFreight, l))

		case isLandFreight(lower) && l.currency != "":
			t.Charges = append(t.Charges, leaf(model.ChargeKindLandFreight, l))

		case isLandFreight(lower):
			g := &model.ChargeGroup{Description: l.description, Remarks: l.remarks}
			for i+1 < len(rows) && rows[i+1].Err == nil {
				next := p.read(rows[i+1])
				if !isSubOption(next) {
					break
				}
				g.SubOptions = append(g.SubOptions, subOption(next))
				i++
			}
			if len(g.SubOptions) == 0 {
				t.warn("landfreight %q has no sub-options, kept without currency", l.description)
				t.Charges = append(t.Charges, leaf(model.ChargeKindLandFreight, l))
				continue
			}
			t.Charges = append(t.Charges, g)

		case l.currency != "":
			t.Charges = append(t.Charges, leaf(model.ChargeKindSurcharge, l))

		default:
			zap.L().Debug("surcharge: dropped section header", zap.String("description", l.description))
		}
	}

	if len(t.Charges) == 0 {
		return t, eris.Wrapf(ErrNoRecords, "surcharge: table for %q", route.To)
	}
	return t, nil
}

func leaf(kind model.ChargeKind, l line) *model.LeafCharge {
	return &model.LeafCharge{
		Kind:        kind,
		Description: l.description,
		Currency:    l.currency,
		Amounts:     l.amounts,
		Remarks:     l.remarks,
	}
}
