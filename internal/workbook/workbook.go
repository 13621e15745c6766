// Package workbook writes surcharge and rate sheets as XLSX files.
package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// ErrNoInlandFile is returned when the download directory holds no raw
// inland rate sheet.
var ErrNoInlandFile = eris.New("workbook: no inland rate file found")

const (
	inlandPrefix    = "ONE_Inland_Rate_"
	processedMarker = "Processed"
)

// DatedFilename picks the file a run writes to in dir. The base name is used
// when free; otherwise the first free of name_YYYYMMDD.ext, name_YYYYMMDD_2.ext
// and so on.
func DatedFilename(dir, base string, now time.Time) (string, error) {
	free := func(name string) (bool, error) {
		_, err := os.Stat(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}

	ok, err := free(base)
	if err != nil {
		return "", eris.Wrapf(err, "workbook: stat %s", base)
	}
	if ok {
		return base, nil
	}

	ext := filepath.Ext(base)
	if ext == "" {
		ext = ".xlsx"
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	day := now.Format("20060102")

	name := fmt.Sprintf("%s_%s%s", stem, day, ext)
	for n := 2; ; n++ {
		ok, err := free(name)
		if err != nil {
			return "", eris.Wrapf(err, "workbook: stat %s", name)
		}
		if ok {
			return name, nil
		}
		name = fmt.Sprintf("%s_%s_%d%s", stem, day, n, ext)
	}
}

// SessionFilename picks the workbook the runs of now's day append to: the
// newest of today's files in dir, or DatedFilename when none was written
// today. A base file counts as today's when it was modified on now's date.
func SessionFilename(dir, base string, now time.Time) (string, error) {
	day := now.Format("20060102")
	exists := func(name string) (os.FileInfo, bool, error) {
		info, err := os.Stat(filepath.Join(dir, name))
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, eris.Wrapf(err, "workbook: stat %s", name)
		}
		return info, true, nil
	}

	last := ""
	info, ok, err := exists(base)
	if err != nil {
		return "", err
	}
	if ok && info.ModTime().In(now.Location()).Format("20060102") == day {
		last = base
	}

	ext := filepath.Ext(base)
	if ext == "" {
		ext = ".xlsx"
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := fmt.Sprintf("%s_%s%s", stem, day, ext)
	for n := 2; ; n++ {
		_, ok, err := exists(name)
		if err != nil {
			return "", err
		}
		if !ok {
			break
		}
		last = name
		name = fmt.Sprintf("%s_%s_%d%s", stem, day, n, ext)
	}
	if last != "" {
		return last, nil
	}
	return DatedFilename(dir, base, now)
}

// ProcessedFilename names the output of one rate combination.
func ProcessedFilename(now time.Time) string {
	return inlandPrefix + processedMarker + "_" + now.Format("20060102_150405") + ".xlsx"
}

// LatestInlandFile returns the raw inland sheet in dir with the greatest
// name. Office lock files and processed outputs are ignored.
func LatestInlandFile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, inlandPrefix+"[0-9]*.xlsx"))
	if err != nil {
		return "", eris.Wrap(err, "workbook: glob inland files")
	}
	var names []string
	for _, m := range matches {
		base := filepath.Base(m)
		if strings.HasPrefix(base, "~$") || strings.Contains(base, processedMarker) {
			continue
		}
		names = append(names, m)
	}
	if len(names) == 0 {
		return "", eris.Wrapf(ErrNoInlandFile, "workbook: in %s", dir)
	}
	sort.Slice(names, func(i, j int) bool { return filepath.Base(names[i]) < filepath.Base(names[j]) })
	return names[len(names)-1], nil
}

// WriteSheet writes rows to a new single-sheet workbook at path.
func WriteSheet(path, sheetName string, rows [][]string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrapf(err, "workbook: add sheet %s", sheetName)
	}
	for _, r := range rows {
		addRow(sheet, r)
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "workbook: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}
