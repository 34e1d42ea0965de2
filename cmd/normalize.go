package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/merge"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/normalize"
	anthropicpkg "github.com/sells-group/leadgen-cli/pkg/anthropic"
)

var (
	normalizeIn  string
	normalizeOut string
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize raw records into canonical leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var records []model.RawRecord
		if err := readJSON(normalizeIn, &records); err != nil {
			return err
		}

		n, err := newNormalizer()
		if err != nil {
			return err
		}

		leads, stats := n.Table(ctx, records)

		table := merge.SourceTable{
			Source: tableSource(normalizeIn, records),
			Leads:  leads,
		}
		if err := writeJSON(normalizeOut, table); err != nil {
			return err
		}

		zap.L().Info("normalized table written",
			zap.String("path", normalizeOut),
			zap.Int("in", stats.In),
			zap.Int("out", stats.Out),
		)
		return nil
	},
}

// newNormalizer wires the normalizer with the optional model-backed role
// fallback.
func newNormalizer() (*normalize.Normalizer, error) {
	var roles normalize.RoleExtractor
	if cfg.Normalize.LLMRoleFallback && cfg.Anthropic.Key != "" {
		roles = normalize.NewLLMRoleExtractor(
			anthropicpkg.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
	}
	return normalize.New(cfg.Normalize, roles)
}

// tableSource takes the source name from the records themselves, falling
// back to the input filename.
func tableSource(path string, records []model.RawRecord) string {
	for _, rec := range records {
		if rec.Source != "" {
			return rec.Source
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, ".raw.json")
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeIn, "in", "", "raw records file (required)")
	normalizeCmd.Flags().StringVar(&normalizeOut, "out", "leads.json", "output table file")
	_ = normalizeCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(normalizeCmd)
}
