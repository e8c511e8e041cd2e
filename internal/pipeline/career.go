package pipeline

import (
	"sort"

	"coachdb/internal"
)

type stintKey struct {
	year        int
	schoolSlug  string
	school      string
	position    string
	isHeadCoach bool
}

// BuildCareer collapses a coach's per-year rows into contiguous stints.
// Rows without a year are skipped; duplicate rows (the same job loaded from
// multiple sources) are reduced to one; a gap year splits a stint even when
// school and position are unchanged, so a re-hire shows as two stints.
func BuildCareer(rows []internal.CoachRow) []internal.CareerStint {
	seen := map[stintKey]struct{}{}
	records := make([]internal.CoachRow, 0, len(rows))
	for _, r := range rows {
		if r.Year == nil {
			continue
		}
		key := stintKey{
			year:        *r.Year,
			schoolSlug:  r.SchoolSlug,
			school:      r.School,
			position:    deref(r.Position),
			isHeadCoach: r.IsHeadCoach,
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		records = append(records, r)
	}

	// Secondary keys keep the output deterministic when a year carries more
	// than one row for the same coach.
	sort.Slice(records, func(i, j int) bool {
		if *records[i].Year != *records[j].Year {
			return *records[i].Year < *records[j].Year
		}
		if records[i].School != records[j].School {
			return records[i].School < records[j].School
		}
		return deref(records[i].Position) < deref(records[j].Position)
	})

	var stints []internal.CareerStint
	var current *internal.CareerStint
	for _, rec := range records {
		year := *rec.Year
		school := rec.School
		if school == "" {
			school = "Unknown"
		}

		if current != nil {
			samePlace := deref(current.SchoolSlug) == rec.SchoolSlug &&
				current.School == school &&
				deref(current.Position) == deref(rec.Position)
			if samePlace && year == current.EndYear+1 {
				current.EndYear = year
				continue
			}
			stints = append(stints, *current)
		}

		current = &internal.CareerStint{
			School:    school,
			StartYear: year,
			EndYear:   year,
		}
		if rec.SchoolSlug != "" {
			slug := rec.SchoolSlug
			current.SchoolSlug = &slug
		}
		if rec.Position != nil {
			pos := *rec.Position
			current.Position = &pos
		}
	}
	if current != nil {
		stints = append(stints, *current)
	}

	// Most recent stint first.
	sort.Slice(stints, func(i, j int) bool {
		if stints[i].EndYear != stints[j].EndYear {
			return stints[i].EndYear > stints[j].EndYear
		}
		return stints[i].StartYear > stints[j].StartYear
	})

	return stints
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
