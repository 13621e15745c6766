// Package fetcher reads rate sheets and rendered breakdown tables into
// row-major grids of cell text.
package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Options selects what part of a source file is read.
type Options struct {
	// Sheet names the XLSX sheet to read; the first sheet when empty.
	Sheet string
	// Selector picks the HTML table; the first table when empty.
	Selector string
}

// ReadGrid reads path into a grid, choosing the reader by file extension:
// .xlsx, .csv or .html/.htm.
func ReadGrid(ctx context.Context, path string, opts Options) ([][]string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		return ReadXLSX(path, XLSXOptions{SheetName: opts.Sheet})
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: open csv")
		}
		defer f.Close() //nolint:errcheck
		return ReadCSV(ctx, f, CSVOptions{TrimSpace: true})
	case ".html", ".htm":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: open html")
		}
		defer f.Close() //nolint:errcheck
		return ReadHTMLTable(f, opts.Selector)
	default:
		return nil, eris.Errorf("fetcher: unsupported file type %q", ext)
	}
}
