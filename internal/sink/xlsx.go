package sink

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// WriteXLSX writes leads to a single-sheet workbook with the canonical
// header as the first row.
func WriteXLSX(leads []model.Lead, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "sink: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range model.CanonicalColumns {
		header.AddCell().SetString(col)
	}
	for _, lead := range leads {
		row := sheet.AddRow()
		for _, v := range lead.Row() {
			row.AddCell().SetString(v)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "sink: create temp file")
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := f.Write(tmp); err != nil {
		return eris.Wrap(err, "sink: write workbook")
	}
	if err := tmp.Sync(); err != nil {
		return eris.Wrap(err, "sink: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "sink: close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "sink: rename to %s", path)
	}

	zap.L().Info("sink: xlsx written",
		zap.String("path", path),
		zap.Int("rows", len(leads)),
	)
	return nil
}
