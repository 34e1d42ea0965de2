package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var historyResetQuery string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and manage acquisition history",
}

var historyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List session checkpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		checkpoints, err := st.ListCheckpoints(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "QUERY\tLAST PAGE\tLAST PROGRESS")
		for _, cp := range checkpoints {
			progress := "-"
			if !cp.LastScraped.IsZero() {
				progress = cp.LastScraped.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\n", cp.QueryID, cp.LastPage, progress)
		}
		return w.Flush()
	},
}

var historyResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the checkpoint for one query",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.ResetCheckpoint(ctx, historyResetQuery); err != nil {
			return err
		}
		zap.L().Info("checkpoint reset", zap.String("query", historyResetQuery))
		return nil
	},
}

func init() {
	historyResetCmd.Flags().StringVar(&historyResetQuery, "query", "", "query id, e.g. \"sourcename::terms\" (required)")
	_ = historyResetCmd.MarkFlagRequired("query")
	historyCmd.AddCommand(historyStatusCmd, historyResetCmd)
	rootCmd.AddCommand(historyCmd)
}
