package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"coachdb/internal"
	"coachdb/internal/storage"
)

// SalaryExportRow is one line of the salary report: a coach and their
// resolved compensation for the year.
type SalaryExportRow struct {
	Coach      internal.CoachRow
	Salary     *internal.SalaryRow
	PlayCaller bool
}

// BuildSalaryReport collects every coach for the year alongside their
// resolved salary observation. Coaches with no salary on record are kept;
// the report is also how gaps get spotted.
func BuildSalaryReport(db *storage.DB, year int) ([]SalaryExportRow, error) {
	schools, err := db.Schools("")
	if err != nil {
		return nil, err
	}

	rows := []SalaryExportRow{}
	for _, school := range schools {
		coaches, err := db.CoachesBySchoolYear(school.ID, year)
		if err != nil {
			return nil, err
		}
		for _, coach := range coaches {
			salary, err := db.ResolvedSalary(coach.ID, year)
			if err != nil {
				return nil, err
			}
			rows = append(rows, SalaryExportRow{Coach: coach, Salary: salary, PlayCaller: coach.IsPlayCaller})
		}
	}
	return rows, nil
}

func ExportSalariesToXLSX(rows []SalaryExportRow, year int, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"coach", "school", "school_slug", "conference", "position", "is_head_coach",
		"is_play_caller", "year",
		"total_pay", "school_pay", "max_bonus", "bonuses_paid", "buyout",
		"salary_source", "source_date",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.Coach.Name)
		set(2, row.Coach.School)
		set(3, row.Coach.SchoolSlug)
		set(4, derefString(row.Coach.Conference))
		set(5, derefString(row.Coach.Position))
		set(6, row.Coach.IsHeadCoach)
		set(7, row.PlayCaller)
		set(8, year)

		if row.Salary != nil {
			set(9, derefInt64(row.Salary.Amounts.TotalPay))
			set(10, derefInt64(row.Salary.Amounts.SchoolPay))
			set(11, derefInt64(row.Salary.Amounts.MaxBonus))
			set(12, derefInt64(row.Salary.Amounts.BonusesPaid))
			set(13, derefInt64(row.Salary.Amounts.Buyout))
			set(14, string(row.Salary.Source))
			if row.Salary.SourceDate != nil {
				set(15, *row.Salary.SourceDate)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefInt64(v *int64) any {
	if v == nil {
		return ""
	}
	return *v
}