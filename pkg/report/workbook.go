package report

import (
	"io"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/arnavshah/staffing-engine-go/pkg/models"
)

// Sheet names of the staffing workbook.
const (
	BudgetSheet   = "Budget"
	CoverageSheet = "Coverage"
)

// StaffingWorkbook is the data behind an exported staffing report
type StaffingWorkbook struct {
	Start    string
	End      string
	Budget   models.BudgetSummary
	Coverage []models.CoverageCell
}

// Write renders the workbook as .xlsx into w.
func (wb StaffingWorkbook) Write(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", BudgetSheet); err != nil {
		return eris.Wrap(err, "report: rename budget sheet")
	}
	if err := wb.writeBudget(f); err != nil {
		return err
	}
	if _, err := f.NewSheet(CoverageSheet); err != nil {
		return eris.Wrap(err, "report: add coverage sheet")
	}
	if err := wb.writeCoverage(f); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "report: write workbook")
	}
	return nil
}

func (wb StaffingWorkbook) writeBudget(f *excelize.File) error {
	names := make([]string, 0, len(wb.Budget.HoursByStaff))
	for name := range wb.Budget.HoursByStaff {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := [][]interface{}{
		{"Period", wb.Start + " to " + wb.End},
		{},
		{"Staff", "Hours", "Regular", "Overtime", "Rate", "Cost"},
	}
	for _, name := range names {
		p, rated := wb.Budget.Staff[name]
		if !rated {
			rows = append(rows, []interface{}{name, wb.Budget.HoursByStaff[name], "", "", "no rate", ""})
			continue
		}
		rows = append(rows, []interface{}{
			name, p.TotalHours, p.RegularHours, p.OvertimeHours,
			p.HourlyRate.InexactFloat64(), p.Cost.Round(2).InexactFloat64(),
		})
	}
	rows = append(rows,
		[]interface{}{},
		[]interface{}{"Total hours", wb.Budget.TotalHours},
		[]interface{}{"Overtime hours", wb.Budget.TotalOvertimeHours},
		[]interface{}{"Total cost", wb.Budget.TotalCost.Round(2).InexactFloat64()},
	)
	return writeRows(f, BudgetSheet, rows)
}

func (wb StaffingWorkbook) writeCoverage(f *excelize.File) error {
	rows := [][]interface{}{{"Date", "Client", "Site", "Position", "Assigned", "Required", "Gap"}}
	for _, c := range wb.Coverage {
		gap := ""
		if c.IsGap() {
			gap = "yes"
		}
		rows = append(rows, []interface{}{c.Date, c.Client, c.Site, c.Position, c.Assigned, c.Total, gap})
	}
	return writeRows(f, CoverageSheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return eris.Wrap(err, "report: cell name")
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return eris.Wrapf(err, "report: write %s row %d", sheet, i+1)
		}
	}
	return nil
}
