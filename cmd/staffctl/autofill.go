package main

import (
	"github.com/spf13/cobra"

	"github.com/arnavshah/staffing-engine-go/pkg/models"
)

func newAutoFillCmd() *cobra.Command {
	var (
		start  string
		end    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "autofill",
		Short: "Assign eligible staff to open tickets in a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, svc, err := openService()
			if err != nil {
				return err
			}
			defer closeDB(db)

			var res models.AutoFillResult
			if dryRun {
				res, err = svc.PreviewAutoFill(cmd.Context(), start, end)
			} else {
				res, err = svc.AutoFill(cmd.Context(), start, end)
			}
			// a partial run is still worth printing
			if werr := writeJSON(cmd.OutOrStdout(), res); werr != nil && err == nil {
				err = werr
			}
			return err
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&end, "end", "", "Last date, YYYY-MM-DD (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print proposals without writing assignments")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
