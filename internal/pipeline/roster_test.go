package pipeline

import (
	"path/filepath"
	"testing"

	"coachdb/internal"
	"coachdb/internal/storage"
)

func testLoader(t *testing.T) (*RosterLoader, *storage.DB) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	norm := testNormalizer()
	matcher := NewMatcher(norm, SequenceScorer{}, 0.90)
	return NewRosterLoader(db, matcher, norm), db
}

func TestLoadRecordCreatesThenMatches(t *testing.T) {
	loader, db := testLoader(t)

	rec := internal.StaffRecord{
		Name:       "Jon Smith",
		School:     "Tulane",
		SchoolSlug: "tulane",
		Position:   "OC",
	}

	outcome, err := loader.LoadRecord(rec, 2025)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if outcome != internal.OutcomeCreated {
		t.Fatalf("outcome = %v, want created", outcome)
	}

	school, err := db.SchoolBySlug("tulane")
	if err != nil || school == nil {
		t.Fatalf("school: %v %+v", err, school)
	}
	staff, err := db.CoachesBySchoolYear(school.ID, 2025)
	if err != nil {
		t.Fatalf("staff: %v", err)
	}
	if len(staff) != 1 || *staff[0].Position != "Offensive Coordinator" {
		t.Fatalf("expected the abbreviation expanded, got %+v", staff)
	}

	// The identical record is a no-op.
	outcome, err = loader.LoadRecord(rec, 2025)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if outcome != internal.OutcomeSkipped {
		t.Fatalf("outcome = %v, want skipped", outcome)
	}

	// A promotion updates the existing row instead of adding one.
	rec.Position = "Head Coach"
	outcome, err = loader.LoadRecord(rec, 2025)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if outcome != internal.OutcomeMatched {
		t.Fatalf("outcome = %v, want matched", outcome)
	}
	staff, err = db.CoachesBySchoolYear(school.ID, 2025)
	if err != nil {
		t.Fatalf("staff: %v", err)
	}
	if len(staff) != 1 || !staff[0].IsHeadCoach {
		t.Fatalf("expected one head-coach row, got %+v", staff)
	}
}

func TestLoadRecordCanonicalizesSlug(t *testing.T) {
	loader, db := testLoader(t)

	rec := internal.StaffRecord{
		Name:       "Jon Smith",
		School:     "Ole Miss",
		SchoolSlug: "ole-miss",
		Position:   "Head Coach",
	}
	if _, err := loader.LoadRecord(rec, 2025); err != nil {
		t.Fatalf("load: %v", err)
	}

	school, err := db.SchoolBySlug("mississippi")
	if err != nil {
		t.Fatalf("school: %v", err)
	}
	if school == nil {
		t.Fatalf("expected the source slug mapped to the canonical one")
	}
	if other, _ := db.SchoolBySlug("ole-miss"); other != nil {
		t.Fatalf("source slug must not create its own school row")
	}
}

func TestLoadRecordRepairsMangledNames(t *testing.T) {
	loader, db := testLoader(t)

	rec := internal.StaffRecord{
		Name:       "Dottin-CarterDennis Dottin-Carter",
		School:     "Tulane",
		SchoolSlug: "tulane",
		Position:   "Defensive Line Coach",
	}
	if _, err := loader.LoadRecord(rec, 2025); err != nil {
		t.Fatalf("load: %v", err)
	}

	school, _ := db.SchoolBySlug("tulane")
	staff, err := db.CoachesBySchoolYear(school.ID, 2025)
	if err != nil {
		t.Fatalf("staff: %v", err)
	}
	if len(staff) != 1 || staff[0].Name != "Dennis Dottin-Carter" {
		t.Fatalf("expected the repaired name stored, got %+v", staff)
	}
}

func TestLoadAllCountsOutcomes(t *testing.T) {
	loader, _ := testLoader(t)

	records := []internal.StaffRecord{
		{Name: "Jon Smith", School: "Tulane", SchoolSlug: "tulane", Position: "Head Coach"},
		{Name: "Bob Davis", School: "Tulane", SchoolSlug: "tulane", Position: "OC"},
		{Name: "Jr.", School: "Tulane", SchoolSlug: "tulane", Position: "Analyst"},
	}

	counts := loader.LoadAll(records, 2025)
	if counts[internal.OutcomeCreated] != 2 {
		t.Fatalf("created = %d, want 2", counts[internal.OutcomeCreated])
	}
	if counts[internal.OutcomeSkipped] != 1 {
		t.Fatalf("skipped = %d, want 1", counts[internal.OutcomeSkipped])
	}
}
