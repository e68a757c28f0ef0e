package workforce

import (
	"context"
	"fmt"
	"io"

	"github.com/pvzops/workforce-engine/engine"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// TIMESHEET EXPORT (XLSX)
// =============================================================================

const timesheetSheet = "Timesheet"

var timesheetHeadings = []string{
	"Date", "Employee", "Role", "PVZ", "Type", "Status", "Planned hours", "Actual hours",
}

// ExportTimesheet writes the month's timesheet as an XLSX workbook to w. The
// last row totals planned and actual hours.
func (s *Service) ExportTimesheet(ctx context.Context, month engine.Date, pvzID engine.PVZID, w io.Writer) error {
	rows, err := s.GetTimesheet(ctx, month, pvzID)
	if err != nil {
		return err
	}

	f, err := BuildTimesheetWorkbook(rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write timesheet workbook: %w", err)
	}
	return nil
}

// BuildTimesheetWorkbook renders rows into a single-sheet workbook.
func BuildTimesheetWorkbook(rows []engine.TimesheetRow) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", timesheetSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("create timesheet sheet: %w", err)
	}

	if err := setRow(f, 1, toAny(timesheetHeadings)); err != nil {
		f.Close()
		return nil, err
	}

	totalPlanned, totalActual := decimal.Zero, decimal.Zero
	for i, r := range rows {
		actual := ""
		if r.ActualHours != nil {
			actual = engine.FormatHours(*r.ActualHours)
			totalActual = totalActual.Add(*r.ActualHours)
		}
		totalPlanned = totalPlanned.Add(r.PlannedHours)

		values := []any{
			r.Date.String(), r.EmployeeName, r.EmployeeRole, r.PVZName,
			string(r.Type), string(r.Status), engine.FormatHours(r.PlannedHours), actual,
		}
		if err := setRow(f, i+2, values); err != nil {
			f.Close()
			return nil, err
		}
	}

	totals := []any{"Total", "", "", "", "", "", engine.FormatHours(totalPlanned), engine.FormatHours(totalActual)}
	if err := setRow(f, len(rows)+2, totals); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func setRow(f *excelize.File, rowNo int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNo)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(timesheetSheet, cell, &values); err != nil {
		return fmt.Errorf("write timesheet row %d: %w", rowNo, err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
