package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/history"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/session"
)

var (
	acquireQuery  string
	acquireSource string
	acquireOut    string
)

var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Run checkpointed acquisition sessions and write raw records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		sources, err := selectSources(acquireSource)
		if err != nil {
			return err
		}

		results, err := acquireAll(ctx, st, sources, acquireQuery)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(acquireOut, 0o755); err != nil {
			return eris.Wrap(err, "create output dir")
		}
		for source, res := range results {
			path := filepath.Join(acquireOut, source+".raw.json")
			if err := writeJSON(path, res.Records); err != nil {
				return err
			}
			zap.L().Info("raw records written",
				zap.String("source", source),
				zap.String("state", string(res.State)),
				zap.String("path", path),
				zap.Int("records", len(res.Records)),
			)
		}
		return nil
	},
}

// acquireAll runs one session per source concurrently, staggering worker
// starts. A source whose session fails is dropped with a warning; the run
// fails only when every source failed.
func acquireAll(ctx context.Context, st history.Store, sources []config.SourceConfig, terms string) (map[string]*session.Result, error) {
	var (
		mu      sync.Mutex
		results = make(map[string]*session.Result, len(sources))
	)

	g, ctx := errgroup.WithContext(ctx)
	for i, sc := range sources {
		g.Go(func() error {
			if cfg.Session.WorkerStagger > 0 && i > 0 {
				stagger := time.Duration(i) * cfg.Session.WorkerStagger
				timer := time.NewTimer(stagger)
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-timer.C:
				}
			}

			conn, err := buildConnector(sc)
			if err != nil {
				return err
			}
			ctl := session.NewController(cfg.Session, conn, st, stdinPrompter{})

			res, err := ctl.Run(ctx, model.Query{Source: sc.Name, Terms: terms})
			if err != nil {
				zap.L().Warn("source failed, continuing with others",
					zap.String("source", sc.Name),
					zap.Error(err),
				)
				return nil
			}

			mu.Lock()
			results[sc.Name] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "acquire")
	}

	if len(results) == 0 {
		return nil, eris.New("all sources failed")
	}
	return results, nil
}

func writeJSON(path string, v any) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "create temp file")
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "encode json")
	}
	if err := tmp.Sync(); err != nil {
		return eris.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "close temp file")
	}
	return eris.Wrapf(os.Rename(tmp.Name(), path), "rename to %s", path)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "read %s", path)
	}
	return eris.Wrapf(json.Unmarshal(data, v), "decode %s", path)
}

func init() {
	acquireCmd.Flags().StringVar(&acquireQuery, "query", "", "search terms (required)")
	acquireCmd.Flags().StringVar(&acquireSource, "source", "", "limit to one configured source")
	acquireCmd.Flags().StringVar(&acquireOut, "out", ".", "output directory for raw record files")
	_ = acquireCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(acquireCmd)
}
