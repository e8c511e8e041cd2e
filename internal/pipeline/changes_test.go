package pipeline

import (
	"testing"

	"coachdb/internal"
)

func entry(school, slug, name, position string, head bool) internal.RosterEntry {
	return internal.RosterEntry{School: school, SchoolSlug: slug, Name: name, Position: position, IsHeadCoach: head}
}

func TestDetectChangesHiresAndDepartures(t *testing.T) {
	from := []internal.RosterEntry{
		entry("Tulane", "tulane", "Jon Smith", "Head Coach", true),
		entry("Tulane", "tulane", "Bob Davis", "Linebackers Coach", false),
	}
	to := []internal.RosterEntry{
		entry("Tulane", "tulane", "Jon Smith", "Head Coach", true),
		entry("Tulane", "tulane", "Carl Reed", "Linebackers Coach", false),
	}

	cs := DetectChanges(from, to)
	if len(cs.NewHires) != 1 || cs.NewHires[0].Name != "Carl Reed" {
		t.Fatalf("unexpected hires: %+v", cs.NewHires)
	}
	if len(cs.Departures) != 1 || cs.Departures[0].Name != "Bob Davis" {
		t.Fatalf("unexpected departures: %+v", cs.Departures)
	}
	if len(cs.Promotions) != 0 || len(cs.Moves) != 0 {
		t.Fatalf("expected no promotions or moves, got %+v", cs)
	}
}

func TestDetectChangesPromotion(t *testing.T) {
	from := []internal.RosterEntry{
		entry("Tulane", "tulane", "Jon Smith", "Offensive Coordinator", false),
	}
	to := []internal.RosterEntry{
		entry("Tulane", "tulane", "Jon Smith", "Head Coach", true),
	}

	cs := DetectChanges(from, to)
	if len(cs.Promotions) != 1 {
		t.Fatalf("expected one promotion, got %+v", cs.Promotions)
	}
	p := cs.Promotions[0]
	if p.FromPosition != "Offensive Coordinator" || p.ToPosition != "Head Coach" {
		t.Fatalf("unexpected promotion positions: %+v", p)
	}
	if p.FromIsHeadCoach || !p.ToIsHeadCoach {
		t.Fatalf("expected head-coach flag change recorded: %+v", p)
	}
	if len(cs.NewHires) != 0 || len(cs.Departures) != 0 {
		t.Fatalf("promotion must not also count as hire/departure: %+v", cs)
	}
}

func TestDetectChangesCanonicalizesDuplicateRows(t *testing.T) {
	// Two source loads of the same person at the same school: the
	// head-coach row must win before diffing.
	from := []internal.RosterEntry{
		entry("Tulane", "tulane", "Jon Smith", "Offensive Coordinator", false),
		entry("Tulane", "tulane", "Jon Smith", "Head Coach", true),
	}
	to := []internal.RosterEntry{
		entry("Tulane", "tulane", "Jon Smith", "Head Coach", true),
	}

	cs := DetectChanges(from, to)
	if len(cs.Promotions) != 0 || len(cs.NewHires) != 0 || len(cs.Departures) != 0 {
		t.Fatalf("expected no changes after canonicalization, got %+v", cs)
	}
}

func TestDetectChangesFoldsCaseAndWhitespace(t *testing.T) {
	// Sources disagree on casing and spacing for the same person; the
	// diff must key on the folded form instead of reporting churn.
	from := []internal.RosterEntry{
		entry("Tulane", "tulane", "Jon Smith", "Head Coach", true),
	}
	to := []internal.RosterEntry{
		entry("Tulane", "tulane", "JON  SMITH", "Head Coach", true),
	}

	cs := DetectChanges(from, to)
	if len(cs.NewHires) != 0 || len(cs.Departures) != 0 {
		t.Fatalf("casing variant must not read as turnover: %+v", cs)
	}
	if len(cs.Promotions) != 0 || len(cs.Moves) != 0 {
		t.Fatalf("expected empty change set, got %+v", cs)
	}
}

func TestDetectChangesAbbreviatedPositionIsNotPromotion(t *testing.T) {
	from := []internal.RosterEntry{
		entry("Tulane", "tulane", "Jon Smith", "OC", false),
	}
	to := []internal.RosterEntry{
		entry("Tulane", "tulane", "Jon Smith", "Offensive Coordinator", false),
	}

	cs := DetectChanges(from, to)
	if len(cs.Promotions) != 0 {
		t.Fatalf("OC vs Offensive Coordinator is the same role, got %+v", cs.Promotions)
	}
}

func TestDetectChangesMove(t *testing.T) {
	from := []internal.RosterEntry{
		entry("Tulane", "tulane", "Jon Smith", "Offensive Coordinator", false),
	}
	to := []internal.RosterEntry{
		entry("Memphis", "memphis", "Jon Smith", "Offensive Coordinator", false),
	}

	cs := DetectChanges(from, to)
	if len(cs.Moves) != 1 {
		t.Fatalf("expected one move, got %+v", cs.Moves)
	}
	m := cs.Moves[0]
	if m.FromSchoolSlug != "tulane" || m.ToSchoolSlug != "memphis" {
		t.Fatalf("unexpected move: %+v", m)
	}
	// The move still appears in the hire/departure lists; the move record
	// is the cross-reference.
	if len(cs.NewHires) != 1 || len(cs.Departures) != 1 {
		t.Fatalf("expected hire and departure alongside the move, got %+v", cs)
	}
}

func TestDetectChangesAmbiguousNamesAreNotMoves(t *testing.T) {
	from := []internal.RosterEntry{
		entry("Tulane", "tulane", "Jon Smith", "Analyst", false),
		entry("Memphis", "memphis", "Jon Smith", "Analyst", false),
	}
	to := []internal.RosterEntry{
		entry("Rice", "rice", "Jon Smith", "Analyst", false),
	}

	cs := DetectChanges(from, to)
	if len(cs.Moves) != 0 {
		t.Fatalf("expected name collision to suppress moves, got %+v", cs.Moves)
	}
}

func TestDetectChangesSortedOutput(t *testing.T) {
	from := []internal.RosterEntry{}
	to := []internal.RosterEntry{
		entry("Tulane", "tulane", "Zed Young", "Analyst", false),
		entry("Memphis", "memphis", "Al Adams", "Analyst", false),
		entry("Memphis", "memphis", "Bo Banks", "Analyst", false),
	}

	cs := DetectChanges(from, to)
	if len(cs.NewHires) != 3 {
		t.Fatalf("expected three hires, got %d", len(cs.NewHires))
	}
	want := []string{"Al Adams", "Bo Banks", "Zed Young"}
	for i, name := range want {
		if cs.NewHires[i].Name != name {
			t.Fatalf("expected sorted hires %v, got %+v", want, cs.NewHires)
		}
	}
}
