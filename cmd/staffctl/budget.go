package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/arnavshah/staffing-engine-go/pkg/report"
	"github.com/arnavshah/staffing-engine-go/pkg/schedule"
	"github.com/arnavshah/staffing-engine-go/pkg/staffing"
)

func newBudgetCmd() *cobra.Command {
	var (
		start    string
		end      string
		xlsxPath string
	)

	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Project labor cost for a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, svc, err := openService()
			if err != nil {
				return err
			}
			defer closeDB(db)

			r := staffing.Range{Start: start, End: end}
			summary, err := svc.Budget(cmd.Context(), r, schedule.BudgetOptions{})
			if err != nil {
				return err
			}
			if xlsxPath == "" {
				return writeJSON(cmd.OutOrStdout(), summary)
			}

			cov, err := svc.Coverage(cmd.Context(), r)
			if err != nil {
				return err
			}
			f, err := os.Create(xlsxPath)
			if err != nil {
				return eris.Wrapf(err, "staffctl: create %s", xlsxPath)
			}
			defer f.Close()

			wb := report.StaffingWorkbook{Start: start, End: end, Budget: summary, Coverage: cov.Cells()}
			if err := wb.Write(f); err != nil {
				return err
			}
			if err := f.Close(); err != nil {
				return eris.Wrapf(err, "staffctl: close %s", xlsxPath)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", xlsxPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "First date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&end, "end", "", "Last date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Write an .xlsx report to this path instead of printing JSON")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
