package connector

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/session"
)

// CSVExport serves a local CSV export (Apollo, LeadRocks, and similar tools
// hand these off as files) as fixed-size pages, so the session controller
// treats file imports and live APIs identically.
type CSVExport struct {
	cfg config.SourceConfig
}

// NewCSVExport builds a connector over one export file.
func NewCSVExport(cfg config.SourceConfig) *CSVExport {
	if cfg.PageSize <= 0 {
		cfg.PageSize = defaultPageSize
	}
	return &CSVExport{cfg: cfg}
}

// Name implements session.Connector.
func (c *CSVExport) Name() string { return c.cfg.Name }

// Open loads the export into memory. Export files top out at a few thousand
// rows, so buffering the whole file keeps paging trivial.
func (c *CSVExport) Open(_ context.Context, _ model.Query) (session.Session, error) {
	f, err := os.Open(c.cfg.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "connector: open export %s", c.cfg.Path)
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err == io.EOF {
		return &csvSession{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "connector: read header")
	}
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}

	var records []model.RawRecord
	for row := 1; ; row++ {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "connector: read row %d", row)
		}

		rec := model.RawRecord{
			Source: c.cfg.Name,
			Fields: make(map[string]string, len(header)),
		}
		for i, v := range fields {
			if i >= len(header) || header[i] == "" {
				continue
			}
			rec.Set(header[i], strings.TrimSpace(v))
		}
		if rec.Get("Profile URL") != "" {
			rec.Ref = rec.Get("Profile URL")
		} else {
			rec.Ref = fmt.Sprintf("%s:row%d", c.cfg.Name, row)
		}
		records = append(records, rec)
	}

	zap.L().Info("connector: export loaded",
		zap.String("source", c.cfg.Name),
		zap.String("path", c.cfg.Path),
		zap.Int("rows", len(records)),
	)

	byRef := make(map[string]model.RawRecord, len(records))
	for _, rec := range records {
		byRef[rec.Ref] = rec
	}
	return &csvSession{
		records:  records,
		byRef:    byRef,
		pageSize: c.cfg.PageSize,
	}, nil
}

type csvSession struct {
	records   []model.RawRecord
	byRef     map[string]model.RawRecord
	pageSize  int
	offset    int
	pageStart int
	advanced  bool
}

func (s *csvSession) NextPage(_ context.Context) ([]model.RawRecord, error) {
	if s.offset >= len(s.records) {
		s.advanced = false
		return nil, session.ErrEndOfResults
	}
	end := min(s.offset+s.pageSize, len(s.records))
	page := s.records[s.offset:end]
	s.pageStart = s.offset
	s.offset = end
	s.advanced = true
	return page, nil
}

func (s *csvSession) FetchDetail(_ context.Context, ref string) (model.RawRecord, error) {
	rec, ok := s.byRef[ref]
	if !ok {
		return model.RawRecord{}, eris.Errorf("connector: no such row %s", ref)
	}
	return rec, nil
}

// Refresh rewinds to the start of the page that was just served. The file is
// static, so a refresh re-yields the same rows.
func (s *csvSession) Refresh(_ context.Context) error {
	if s.advanced {
		s.offset = s.pageStart
		s.advanced = false
	}
	return nil
}

func (s *csvSession) Close() error { return nil }
