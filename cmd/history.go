package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/fraudcheck-cli/internal/model"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently scored transactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("history"); err != nil {
			return err
		}
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		checks, err := st.RecentChecks(ctx, historyLimit)
		if err != nil {
			return err
		}
		if checks == nil {
			checks = []model.Check{}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(checks)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "max checks to list")
	rootCmd.AddCommand(historyCmd)
}
