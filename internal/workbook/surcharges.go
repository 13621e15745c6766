package workbook

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/freight-cli/internal/model"
	"github.com/sells-group/freight-cli/internal/surcharge"
)

// SurchargeSheet is the sheet name of surcharge workbooks.
const SurchargeSheet = "Import Surcharges"

// Layout of a new surcharge workbook: metadata in H1:I2, header on row 4.
const (
	metaLabelCol = 7
	metaValueCol = 8
	headerRow    = 3
)

// AppendSurcharges adds the export rows of tables to the workbook at path,
// creating it with metadata and header rows when it does not exist yet.
func AppendSurcharges(path, origin string, now time.Time, tables ...*model.SurchargeTable) error {
	var (
		f     *xlsx.File
		sheet *xlsx.Sheet
		err   error
	)

	if _, statErr := os.Stat(path); statErr == nil {
		f, err = xlsx.OpenFile(path)
		if err != nil {
			return eris.Wrapf(err, "workbook: open %s", path)
		}
		if len(f.Sheets) == 0 {
			return eris.Errorf("workbook: %s has no sheets", path)
		}
		sheet = f.Sheets[0]
	} else {
		f = xlsx.NewFile()
		sheet, err = f.AddSheet(SurchargeSheet)
		if err != nil {
			return eris.Wrap(err, "workbook: add surcharge sheet")
		}
		sheet.Cell(0, metaLabelCol).SetString("Generated:")
		sheet.Cell(0, metaValueCol).SetString(now.Format("2006-01-02 15:04:05"))
		sheet.Cell(1, metaLabelCol).SetString("Origin:")
		sheet.Cell(1, metaValueCol).SetString(origin)
		for i, h := range surcharge.ExportHeaders {
			sheet.Cell(headerRow, i).SetString(h)
		}
	}

	for _, t := range tables {
		for _, r := range surcharge.ExportRows(t) {
			addRow(sheet, r)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "workbook: save %s", path)
	}
	return nil
}
