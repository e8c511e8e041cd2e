package storage

import (
	"path/filepath"
	"testing"

	"coachdb/internal"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mustSchool(t *testing.T, db *DB, name, slug string) *internal.SchoolRow {
	t.Helper()
	school, err := db.EnsureSchool(name, slug, nil)
	if err != nil {
		t.Fatalf("ensure school %s: %v", slug, err)
	}
	return school
}

func mustCoach(t *testing.T, db *DB, name string, schoolID int, position string, head bool, year int) int {
	t.Helper()
	var pos *string
	if position != "" {
		pos = &position
	}
	id, err := db.InsertCoach(name, schoolID, pos, head, &year, nil)
	if err != nil {
		t.Fatalf("insert coach %s: %v", name, err)
	}
	return id
}

func strptr(s string) *string { return &s }
func i64ptr(v int64) *int64   { return &v }

func TestEnsureSchoolIdempotent(t *testing.T) {
	db := testDB(t)

	first := mustSchool(t, db, "Tulane", "tulane")
	second := mustSchool(t, db, "Tulane", "tulane")
	if first.ID != second.ID {
		t.Fatalf("expected the same row, got ids %d and %d", first.ID, second.ID)
	}

	got, err := db.SchoolBySlug("tulane")
	if err != nil {
		t.Fatalf("school by slug: %v", err)
	}
	if got == nil || got.Name != "Tulane" {
		t.Fatalf("unexpected school: %+v", got)
	}
}

func TestUpsertSalaryPerSource(t *testing.T) {
	db := testDB(t)
	school := mustSchool(t, db, "Tulane", "tulane")
	coachID := mustCoach(t, db, "Jon Smith", school.ID, "Head Coach", true, 2025)

	inserted, err := db.UpsertSalary(coachID, 2025, internal.SourceUSAToday,
		internal.SalaryAmounts{TotalPay: i64ptr(4_000_000)}, strptr("2025-10-01"))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !inserted {
		t.Fatalf("first write should insert")
	}

	// Same (coach, year, source) again: updates in place, no second row.
	inserted, err = db.UpsertSalary(coachID, 2025, internal.SourceUSAToday,
		internal.SalaryAmounts{TotalPay: i64ptr(4_200_000)}, strptr("2025-11-01"))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if inserted {
		t.Fatalf("repeat write should update, not insert")
	}

	// A different source keeps its own row.
	inserted, err = db.UpsertSalary(coachID, 2025, internal.SourceStatePayroll,
		internal.SalaryAmounts{TotalPay: i64ptr(4_100_000)}, strptr("2025-09-01"))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !inserted {
		t.Fatalf("new source should insert")
	}

	all, err := db.SalariesForCoach(coachID)
	if err != nil {
		t.Fatalf("salaries: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected two observations, got %d", len(all))
	}
}

func TestResolvedSalaryPicksFreshest(t *testing.T) {
	db := testDB(t)
	school := mustSchool(t, db, "Tulane", "tulane")
	coachID := mustCoach(t, db, "Jon Smith", school.ID, "Head Coach", true, 2025)

	if _, err := db.UpsertSalary(coachID, 2025, internal.SourceStatePayroll,
		internal.SalaryAmounts{TotalPay: i64ptr(3_900_000)}, strptr("2025-09-01")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := db.UpsertSalary(coachID, 2025, internal.SourceMediaReport,
		internal.SalaryAmounts{TotalPay: i64ptr(4_500_000)}, strptr("2025-12-01")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := db.ResolvedSalary(coachID, 2025)
	if err != nil {
		t.Fatalf("resolved: %v", err)
	}
	if got == nil {
		t.Fatalf("expected a resolved row")
	}
	if got.Source != internal.SourceMediaReport || *got.Amounts.TotalPay != 4_500_000 {
		t.Fatalf("expected the fresher media row, got %+v", got)
	}

	// No observation for another year.
	none, err := db.ResolvedSalary(coachID, 2024)
	if err != nil {
		t.Fatalf("resolved: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for an unobserved year, got %+v", none)
	}
}

func TestDuplicateCoachGroupsAndDelete(t *testing.T) {
	db := testDB(t)
	school := mustSchool(t, db, "Tulane", "tulane")
	first := mustCoach(t, db, "Jon Smith", school.ID, "Analyst", false, 2025)
	second := mustCoach(t, db, "Jon Smith", school.ID, "Analyst", false, 2025)
	mustCoach(t, db, "Bob Davis", school.ID, "Analyst", false, 2025)

	groups, err := db.DuplicateCoachGroups()
	if err != nil {
		t.Fatalf("duplicate groups: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected one duplicate group, got %+v", groups)
	}
	if len(groups[0].IDs) != 2 || groups[0].IDs[0] != first || groups[0].IDs[1] != second {
		t.Fatalf("expected sorted ids [%d %d], got %v", first, second, groups[0].IDs)
	}

	if err := db.DeleteCoaches(groups[0].IDs[1:]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	groups, err = db.DuplicateCoachGroups()
	if err != nil {
		t.Fatalf("duplicate groups: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expected no duplicates after delete, got %+v", groups)
	}
}

func TestMergeSchools(t *testing.T) {
	db := testDB(t)
	keep := mustSchool(t, db, "Pittsburgh", "pittsburgh")
	remove := mustSchool(t, db, "Pitt", "pitt")
	mustCoach(t, db, "Jon Smith", remove.ID, "Head Coach", true, 2025)

	moved, err := db.MergeSchools(keep.ID, remove.ID)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if moved != 1 {
		t.Fatalf("expected one coach moved, got %d", moved)
	}

	gone, err := db.SchoolBySlug("pitt")
	if err != nil {
		t.Fatalf("school by slug: %v", err)
	}
	if gone != nil {
		t.Fatalf("expected removed school row to be gone")
	}
	n, err := db.CountCoachesAtSchool(keep.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected the coach repointed to the kept school, got %d", n)
	}
}

func TestPrimaryCallerOverwriteAndChanges(t *testing.T) {
	db := testDB(t)
	school := mustSchool(t, db, "Tulane", "tulane")

	rec := internal.PlayCallerRecord{
		SchoolID:      school.ID,
		Season:        2025,
		PrimaryCaller: "Jon Smith",
		PrimaryTitle:  strptr("Offensive Coordinator"),
		Confidence:    0.9,
		Citations:     []string{"https://example.com/a"},
	}
	if err := db.SetPrimaryCaller(rec); err != nil {
		t.Fatalf("set primary: %v", err)
	}

	rec.PrimaryCaller = "Bob Davis"
	rec.Confidence = 0.95
	if err := db.SetPrimaryCaller(rec); err != nil {
		t.Fatalf("set primary again: %v", err)
	}

	got, err := db.PrimaryCaller(school.ID, 2025)
	if err != nil {
		t.Fatalf("primary: %v", err)
	}
	if got == nil || got.PrimaryCaller != "Bob Davis" {
		t.Fatalf("expected the sweep to overwrite, got %+v", got)
	}
	if len(got.Citations) != 1 || got.Citations[0] != "https://example.com/a" {
		t.Fatalf("citations did not round-trip: %+v", got.Citations)
	}

	change := internal.PlayCallerChange{
		SchoolID:   school.ID,
		Season:     2025,
		NewCaller:  "Carl Reed",
		Confidence: 0.9,
	}
	if err := db.AppendPlayCallerChange(change); err != nil {
		t.Fatalf("append change: %v", err)
	}

	has, err := db.HasPlayCallerChange(school.ID, 2025, "Carl Reed")
	if err != nil {
		t.Fatalf("has change: %v", err)
	}
	if !has {
		t.Fatalf("expected the recorded change to be found")
	}
	has, err = db.HasPlayCallerChange(school.ID, 2025, "Someone Else")
	if err != nil {
		t.Fatalf("has change: %v", err)
	}
	if has {
		t.Fatalf("expected no change for an unseen caller")
	}

	// Appends never touch the primary record.
	got, err = db.PrimaryCaller(school.ID, 2025)
	if err != nil {
		t.Fatalf("primary: %v", err)
	}
	if got.PrimaryCaller != "Bob Davis" {
		t.Fatalf("append must not overwrite primary, got %q", got.PrimaryCaller)
	}
}

func TestMarkCoachPlayCallerClearsOthers(t *testing.T) {
	db := testDB(t)
	school := mustSchool(t, db, "Tulane", "tulane")
	first := mustCoach(t, db, "Jon Smith", school.ID, "Offensive Coordinator", false, 2025)
	second := mustCoach(t, db, "Bob Davis", school.ID, "Quarterbacks Coach", false, 2025)

	if err := db.MarkCoachPlayCaller(school.ID, first, "https://example.com/a"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := db.MarkCoachPlayCaller(school.ID, second, "https://example.com/b"); err != nil {
		t.Fatalf("mark: %v", err)
	}

	coaches, err := db.CoachesBySchoolYear(school.ID, 2025)
	if err != nil {
		t.Fatalf("coaches: %v", err)
	}
	for _, c := range coaches {
		want := c.ID == second
		if c.IsPlayCaller != want {
			t.Fatalf("coach %s play-caller flag = %v, want %v", c.Name, c.IsPlayCaller, want)
		}
	}
}

func TestYears(t *testing.T) {
	db := testDB(t)
	school := mustSchool(t, db, "Tulane", "tulane")
	mustCoach(t, db, "Jon Smith", school.ID, "Head Coach", true, 2024)
	mustCoach(t, db, "Jon Smith", school.ID, "Head Coach", true, 2025)

	latest, err := db.LatestYear()
	if err != nil {
		t.Fatalf("latest year: %v", err)
	}
	if latest != 2025 {
		t.Fatalf("latest year = %d, want 2025", latest)
	}

	years, err := db.Years()
	if err != nil {
		t.Fatalf("years: %v", err)
	}
	if len(years) != 2 {
		t.Fatalf("years = %v", years)
	}
}
