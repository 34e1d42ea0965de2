package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/merge"
)

var (
	mergeIn  []string
	mergeOut string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge normalized tables into one deduplicated output",
	RunE: func(cmd *cobra.Command, args []string) error {
		tables := make([]merge.SourceTable, 0, len(mergeIn))
		for _, path := range mergeIn {
			var table merge.SourceTable
			if err := readJSON(path, &table); err != nil {
				zap.L().Warn("skipping unreadable table", zap.String("path", path), zap.Error(err))
				continue
			}
			tables = append(tables, table)
		}

		merger := merge.New(cfg.Merge.Priority)
		leads, err := merger.Merge(tables)
		if err != nil {
			return err
		}

		return writeLeads(leads, mergeOut)
	},
}

func init() {
	mergeCmd.Flags().StringSliceVar(&mergeIn, "in", nil, "normalized table files (required)")
	mergeCmd.Flags().StringVar(&mergeOut, "out", "merged.csv", "output file (.csv or .xlsx)")
	_ = mergeCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(mergeCmd)
}
