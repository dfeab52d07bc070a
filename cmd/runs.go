package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var runsFlags struct {
	limit int
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent enrichment runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return eris.Wrap(err, "runs: open store")
		}
		defer st.Close()

		records, err := st.ListRuns(cmd.Context(), runsFlags.limit)
		if err != nil {
			return eris.Wrap(err, "runs: list")
		}

		for _, rec := range records {
			status := "failed"
			enriched := 0
			if rec.Result != nil {
				enriched = len(rec.Result.FieldsEnriched)
				if rec.Success {
					status = rec.Result.StatusAfter.String()
				}
			}
			fmt.Printf("%s  %-12s %-10s %-10s fields_enriched=%d  %s\n",
				rec.CreatedAt.Format("2006-01-02 15:04:05"),
				rec.ProductID, rec.ProductType, status, enriched, rec.ID)
		}
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsFlags.limit, "limit", "n", 20, "maximum runs to list")
	rootCmd.AddCommand(runsCmd)
}
