package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/merge"
	"github.com/sells-group/leadgen-cli/internal/sink"
)

var runQuery string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: acquire, normalize, merge, enrich, write",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		results, err := acquireAll(ctx, st, cfg.Sources, runQuery)
		if err != nil {
			return err
		}

		n, err := newNormalizer()
		if err != nil {
			return err
		}

		tables := make([]merge.SourceTable, 0, len(results))
		for source, res := range results {
			leads, stats := n.Table(ctx, res.Records)
			zap.L().Info("source normalized",
				zap.String("source", source),
				zap.Int("in", stats.In),
				zap.Int("out", stats.Out),
			)
			tables = append(tables, merge.SourceTable{Source: source, Leads: leads})
		}

		merger := merge.New(cfg.Merge.Priority)
		leads, err := merger.Merge(tables)
		if err != nil {
			return err
		}

		e := newEnricher()
		if _, err := e.Table(ctx, leads); err != nil {
			return eris.Wrap(err, "enrich")
		}

		if cfg.Output.Format == "xlsx" {
			return sink.WriteXLSX(leads, cfg.Output.Path)
		}
		return sink.WriteCSV(leads, cfg.Output.Path)
	},
}

func init() {
	runCmd.Flags().StringVar(&runQuery, "query", "", "search terms (required)")
	_ = runCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(runCmd)
}
