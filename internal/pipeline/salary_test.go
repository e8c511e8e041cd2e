package pipeline

import (
	"path/filepath"
	"testing"

	"coachdb/internal"
	"coachdb/internal/storage"
)

func testImporter(t *testing.T) (*SalaryImporter, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	norm := testNormalizer()
	matcher := NewMatcher(norm, SequenceScorer{}, 0.90)
	return NewSalaryImporter(db, matcher, norm), db
}

func TestImportSurveyCreatesSchoolsAndCoaches(t *testing.T) {
	importer, db := testImporter(t)

	rows := []HeadCoachSalaryRow{
		{Coach: "Jon Smith", School: "Texas", Amounts: internal.SalaryAmounts{TotalPay: int64p(10_500_000)}},
		{Coach: "Bob Davis", School: "Tulane", Amounts: internal.SalaryAmounts{TotalPay: int64p(3_100_000)}},
		{Coach: "", School: "Rice"},
	}

	counts, err := importer.ImportSurvey(rows, 2025, internal.SourceUSAToday, "2025-10-01")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if counts.Inserted != 2 || counts.Skipped != 1 {
		t.Fatalf("counts: %+v", counts)
	}

	school, err := db.SchoolBySlug("texas")
	if err != nil {
		t.Fatalf("school: %v", err)
	}
	if school == nil {
		t.Fatalf("expected the survey to create the school")
	}
	staff, err := db.CoachesBySchoolYear(school.ID, 2025)
	if err != nil {
		t.Fatalf("staff: %v", err)
	}
	if len(staff) != 1 || !staff[0].IsHeadCoach {
		t.Fatalf("expected one head-coach row, got %+v", staff)
	}

	salary, err := db.ResolvedSalary(staff[0].ID, 2025)
	if err != nil {
		t.Fatalf("resolved: %v", err)
	}
	if salary == nil || *salary.Amounts.TotalPay != 10_500_000 {
		t.Fatalf("unexpected salary: %+v", salary)
	}

	// A second run with revised figures updates in place.
	rows[0].Amounts.TotalPay = int64p(10_800_000)
	counts, err = importer.ImportSurvey(rows[:2], 2025, internal.SourceUSAToday, "2025-11-01")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if counts.Inserted != 0 || counts.Updated != 2 {
		t.Fatalf("second run counts: %+v", counts)
	}
	salary, err = db.ResolvedSalary(staff[0].ID, 2025)
	if err != nil {
		t.Fatalf("resolved: %v", err)
	}
	if *salary.Amounts.TotalPay != 10_800_000 {
		t.Fatalf("expected updated figure, got %d", *salary.Amounts.TotalPay)
	}
}

func TestImportStateCoordinatorFilter(t *testing.T) {
	importer, db := testImporter(t)
	school, err := db.EnsureSchool("Texas", "texas", nil)
	if err != nil {
		t.Fatalf("school: %v", err)
	}
	position := "Offensive Coordinator"
	year := 2025
	coachID, err := db.InsertCoach("Bob Davis", school.ID, &position, false, &year, nil)
	if err != nil {
		t.Fatalf("coach: %v", err)
	}

	matches := []internal.StateSalaryMatch{
		{Coach: "Bob Davis", School: "Texas", Position: "Offensive Coordinator", BaseSalary: int64p(1_800_000)},
		{Coach: "Jon Smith", School: "Texas", Position: "Head Coach", BaseSalary: int64p(10_000_000)},
		{Coach: "Ed Hall", School: "Texas", Position: "Defensive Coordinator", BaseSalary: int64p(900_000)},
	}

	counts, err := importer.ImportState(matches, 2025, SalaryImportPolicy{}, "2025-09-01")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if counts.Inserted != 1 {
		t.Fatalf("expected one insert, got %+v", counts)
	}
	if counts.Skipped != 1 {
		t.Fatalf("expected the non-coordinator skipped, got %+v", counts)
	}
	if counts.Unresolved != 1 {
		t.Fatalf("expected the unknown coordinator unresolved, got %+v", counts)
	}

	salary, err := db.ResolvedSalary(coachID, 2025)
	if err != nil {
		t.Fatalf("resolved: %v", err)
	}
	if salary == nil || salary.Source != internal.SourceStatePayroll {
		t.Fatalf("unexpected salary: %+v", salary)
	}
	if *salary.Amounts.TotalPay != 1_800_000 || *salary.Amounts.SchoolPay != 1_800_000 {
		t.Fatalf("base salary should fill both figures, got %+v", salary.Amounts)
	}
}

func TestImportStateLaterFiscalYearStillResolves(t *testing.T) {
	// State payroll runs a fiscal year ahead of the roster season. The
	// coach lives under the 2025 roster; the salary row carries 2026.
	importer, db := testImporter(t)
	school, err := db.EnsureSchool("Texas Tech", "texas-tech", nil)
	if err != nil {
		t.Fatalf("school: %v", err)
	}
	position := "Defensive Coordinator"
	year := 2025
	coachID, err := db.InsertCoach("Tim DeRuyter", school.ID, &position, false, &year, nil)
	if err != nil {
		t.Fatalf("coach: %v", err)
	}

	fiscal := 2026
	matches := []internal.StateSalaryMatch{
		{Coach: "Tim DeRuyter", School: "Texas Tech", Position: "Defensive Coordinator",
			BaseSalary: int64p(1_600_000), SalaryYear: &fiscal},
	}

	counts, err := importer.ImportState(matches, 2025, SalaryImportPolicy{}, "2025-09-01")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if counts.Inserted != 1 || counts.Unresolved != 0 {
		t.Fatalf("expected the 2025 roster row to resolve, got %+v", counts)
	}

	salary, err := db.ResolvedSalary(coachID, 2026)
	if err != nil {
		t.Fatalf("resolved: %v", err)
	}
	if salary == nil || salary.Year != 2026 {
		t.Fatalf("expected the salary filed under the fiscal year, got %+v", salary)
	}
	if *salary.Amounts.TotalPay != 1_600_000 {
		t.Fatalf("unexpected amount: %+v", salary.Amounts)
	}
}

func TestImportMediaPayrollWins(t *testing.T) {
	importer, db := testImporter(t)
	school, err := db.EnsureSchool("Texas", "texas", nil)
	if err != nil {
		t.Fatalf("school: %v", err)
	}
	position := "Offensive Coordinator"
	year := 2025
	coachID, err := db.InsertCoach("Bob Davis", school.ID, &position, false, &year, nil)
	if err != nil {
		t.Fatalf("coach: %v", err)
	}
	if _, err := db.UpsertSalary(coachID, 2025, internal.SourceStatePayroll,
		internal.SalaryAmounts{TotalPay: int64p(1_800_000)}, nil); err != nil {
		t.Fatalf("seed payroll: %v", err)
	}

	reports := []internal.MediaSalaryReport{
		{Coach: "Bob Davis", School: "Texas", Position: "Offensive Coordinator", Salary: 2_000_000, Source: "https://example.com"},
	}

	counts, err := importer.ImportMedia(reports, SalaryImportPolicy{MediaYear: 2025})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if counts.Skipped != 1 || counts.Inserted != 0 {
		t.Fatalf("payroll row should suppress the media write, got %+v", counts)
	}

	counts, err = importer.ImportMedia(reports, SalaryImportPolicy{MediaYear: 2025, KeepMediaWhenState: true})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if counts.Inserted != 1 {
		t.Fatalf("expected the override policy to write, got %+v", counts)
	}

	all, err := db.SalariesForCoach(coachID)
	if err != nil {
		t.Fatalf("salaries: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected payroll and media rows side by side, got %+v", all)
	}
}

func int64p(v int64) *int64 { return &v }
