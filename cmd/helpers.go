package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/connector"
	"github.com/sells-group/leadgen-cli/internal/history"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/session"
	"github.com/sells-group/leadgen-cli/internal/sink"
)

// initStore opens the configured history store and applies migrations.
func initStore(ctx context.Context) (history.Store, error) {
	var (
		st  history.Store
		err error
	)
	switch cfg.History.Driver {
	case "postgres":
		st, err = history.NewPostgres(ctx, cfg.History.DatabaseURL)
	default:
		st, err = history.NewSQLite(cfg.History.Path)
	}
	if err != nil {
		return nil, eris.Wrap(err, "open history store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate history store")
	}
	return st, nil
}

// buildConnector maps one source config to its connector implementation.
func buildConnector(sc config.SourceConfig) (session.Connector, error) {
	switch sc.Kind {
	case "httpapi":
		timeout := time.Duration(cfg.Session.ConnectorTimeoutSecs) * time.Second
		return connector.NewHTTPAPI(sc, timeout), nil
	case "csvexport":
		return connector.NewCSVExport(sc), nil
	default:
		return nil, eris.Errorf("unknown source kind %q for source %q", sc.Kind, sc.Name)
	}
}

// selectSources returns all configured sources, or just the named one.
func selectSources(name string) ([]config.SourceConfig, error) {
	if name == "" {
		if len(cfg.Sources) == 0 {
			return nil, eris.New("no sources configured")
		}
		return cfg.Sources, nil
	}
	for _, sc := range cfg.Sources {
		if sc.Name == name {
			return []config.SourceConfig{sc}, nil
		}
	}
	return nil, eris.Errorf("source %q not configured", name)
}

// writeLeads writes a lead table in the format implied by the extension.
func writeLeads(leads []model.Lead, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return sink.WriteXLSX(leads, path)
	case ".json":
		return writeJSON(path, leads)
	default:
		return sink.WriteCSV(leads, path)
	}
}

// stdinPrompter asks on the terminal whether to resume an interrupted
// session. Anything other than an explicit "n" resumes.
type stdinPrompter struct{}

func (stdinPrompter) Resume(queryID string, lastPage int, lastScraped time.Time) bool {
	fmt.Fprintf(os.Stderr, "Session %s stopped at page %d (last progress %s).\n",
		queryID, lastPage, lastScraped.Format(time.RFC3339))
	fmt.Fprint(os.Stderr, "Resume from there? [Y/n] ")

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return true
	}
	return !strings.EqualFold(strings.TrimSpace(line), "n")
}
