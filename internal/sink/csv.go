// Package sink writes merged lead tables to disk. Every writer is atomic:
// output lands in a temp file in the destination directory and is renamed
// into place, so a crash never leaves a partially written artifact.
package sink

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// WriteCSV writes leads as a CSV file with the fixed canonical header. An
// empty lead slice produces a header-only file, which is valid output.
func WriteCSV(leads []model.Lead, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "sink: create temp file")
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := csv.NewWriter(tmp)
	if err := w.Write(model.CanonicalColumns); err != nil {
		return eris.Wrap(err, "sink: write header")
	}
	for _, lead := range leads {
		if err := w.Write(lead.Row()); err != nil {
			return eris.Wrap(err, "sink: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "sink: flush csv")
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

	zap.L().Info("sink: csv written",
		zap.String("path", path),
		zap.Int("rows", len(leads)),
	)
	return nil
}
