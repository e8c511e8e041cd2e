package pipeline

import (
	"fmt"

	"coachdb/internal"
	"coachdb/internal/storage"
)

// RosterLoader resolves incoming staff records against the store: each
// record is matched to an existing coach row for its (school, year), updated
// in place when fields differ, or created when unmatched. Creation is this
// caller's declared policy for unresolved matches; nothing is silently
// dropped.
type RosterLoader struct {
	db      *storage.DB
	matcher *Matcher
	norm    *Normalizer
}

func NewRosterLoader(db *storage.DB, matcher *Matcher, norm *Normalizer) *RosterLoader {
	return &RosterLoader{db: db, matcher: matcher, norm: norm}
}

// LoadRecord ingests one staff record for the given season year.
func (l *RosterLoader) LoadRecord(rec internal.StaffRecord, year int) (internal.MatchOutcome, error) {
	name := RepairName(rec.Name)
	if l.norm.PersonKey(name) == "" {
		return internal.OutcomeSkipped, nil
	}

	slug := rec.SchoolSlug
	if slug != "" {
		slug = l.norm.CanonicalSlug(slug)
	} else {
		slug = l.norm.SchoolSlug(rec.School)
	}
	if slug == "" {
		return internal.OutcomeSkipped, nil
	}

	var confID *int
	if rec.Conference != "" {
		id, err := l.db.ConferenceID(rec.Conference)
		if err != nil {
			return internal.OutcomeError, err
		}
		confID = id
	}

	schoolName := rec.School
	if schoolName == "" {
		schoolName = slug
	}
	school, err := l.db.EnsureSchool(schoolName, slug, confID)
	if err != nil {
		return internal.OutcomeError, err
	}

	position := StandardizePosition(rec.Position)
	isHead := rec.IsHeadCoach || IsHeadCoachPosition(position)

	pool, err := l.db.CoachesBySchoolYear(school.ID, year)
	if err != nil {
		return internal.OutcomeError, err
	}

	if existing := l.matcher.MatchCoach(pool, name); existing != nil {
		currentPos := ""
		if existing.Position != nil {
			currentPos = *existing.Position
		}
		if currentPos == position && existing.IsHeadCoach == isHead {
			return internal.OutcomeSkipped, nil
		}
		if err := l.db.UpdateCoachPosition(existing.ID, position, isHead, rec.ScrapedAt); err != nil {
			return internal.OutcomeError, err
		}
		return internal.OutcomeMatched, nil
	}

	var posPtr *string
	if position != "" {
		posPtr = &position
	}
	if _, err := l.db.InsertCoach(name, school.ID, posPtr, isHead, &year, rec.ScrapedAt); err != nil {
		return internal.OutcomeError, err
	}
	return internal.OutcomeCreated, nil
}

// LoadAll ingests a batch and prints the aggregate summary. A single bad
// record never aborts the batch.
func (l *RosterLoader) LoadAll(records []internal.StaffRecord, year int) map[internal.MatchOutcome]int {
	counts := map[internal.MatchOutcome]int{}
	for _, rec := range records {
		outcome, err := l.LoadRecord(rec, year)
		if err != nil {
			fmt.Printf("  error: %s (%s): %v\n", rec.Name, rec.School, err)
			outcome = internal.OutcomeError
		}
		counts[outcome]++
	}
	return counts
}
