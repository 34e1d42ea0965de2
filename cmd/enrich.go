package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/enrich"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/hunter"
	"github.com/sells-group/leadgen-cli/pkg/numverify"
	"github.com/sells-group/leadgen-cli/pkg/snov"
)

var (
	enrichIn  string
	enrichOut string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fill and verify contact fields on a merged table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var leads []model.Lead
		if err := readJSON(enrichIn, &leads); err != nil {
			return err
		}

		e := newEnricher()
		if _, err := e.Table(ctx, leads); err != nil {
			return err
		}

		return writeLeads(leads, enrichOut)
	},
}

// newEnricher wires provider clients from config. Providers without
// credentials stay nil and their step is skipped.
func newEnricher() *enrich.Enricher {
	var finder enrich.EmailFinder
	if cfg.Snov.ClientID != "" {
		finder = snov.NewClient(cfg.Snov.ClientID, cfg.Snov.ClientSecret,
			snov.WithBaseURL(cfg.Snov.BaseURL))
	}

	var verifier enrich.EmailVerifier
	if cfg.Hunter.Key != "" {
		verifier = &enrich.HunterVerifier{
			Client: hunter.NewClient(cfg.Hunter.Key, hunter.WithBaseURL(cfg.Hunter.BaseURL)),
		}
	}

	var phones enrich.PhoneValidator
	if cfg.Numverify.Key != "" {
		phones = &enrich.NumverifyValidator{
			Client: numverify.NewClient(cfg.Numverify.Key, numverify.WithBaseURL(cfg.Numverify.BaseURL)),
		}
	}

	return enrich.New(cfg.Enrich, finder, verifier, phones)
}

func init() {
	enrichCmd.Flags().StringVar(&enrichIn, "in", "", "merged table JSON file (required)")
	enrichCmd.Flags().StringVar(&enrichOut, "out", "enriched.csv", "output file (.csv, .xlsx, or .json)")
	_ = enrichCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(enrichCmd)
}
