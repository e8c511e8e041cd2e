package pipeline

import (
	"sort"
	"strings"

	"coachdb/internal"
	"coachdb/internal/util"
)

// rosterKey identifies one (school, person) pair across snapshots. Both
// parts are case-folded and whitespace-collapsed so that "JON  SMITH" and
// "Jon Smith" diff as the same person; display strings stay on the stored
// record.
type rosterKey struct {
	schoolSlug string
	name       string
}

func keyOf(e internal.RosterEntry) rosterKey {
	return rosterKey{schoolSlug: foldKey(e.SchoolSlug), name: foldKey(e.Name)}
}

func foldKey(s string) string {
	return strings.ToLower(util.CollapseWhitespace(s))
}

// DetectChanges diffs two roster snapshots and classifies hires,
// departures, promotions, and unambiguous cross-school moves. Duplicate
// rows for the same (school, person) are reduced to one canonical row
// first, preferring head-coach status and then the more specific position,
// mirroring the coach matcher's tie-break. All output lists are sorted for
// diffable results.
func DetectChanges(from, to []internal.RosterEntry) internal.ChangeSet {
	fromMap := canonicalize(from)
	toMap := canonicalize(to)

	var out internal.ChangeSet

	for key, toRec := range toMap {
		fromRec, ok := fromMap[key]
		if !ok {
			out.NewHires = append(out.NewHires, toRec)
			continue
		}
		if StandardizePosition(fromRec.Position) != StandardizePosition(toRec.Position) ||
			fromRec.IsHeadCoach != toRec.IsHeadCoach {
			out.Promotions = append(out.Promotions, internal.Promotion{
				School:          toRec.School,
				SchoolSlug:      toRec.SchoolSlug,
				Name:            toRec.Name,
				FromPosition:    fromRec.Position,
				ToPosition:      toRec.Position,
				FromIsHeadCoach: fromRec.IsHeadCoach,
				ToIsHeadCoach:   toRec.IsHeadCoach,
			})
		}
	}

	for key, fromRec := range fromMap {
		if _, ok := toMap[key]; !ok {
			out.Departures = append(out.Departures, fromRec)
		}
	}

	out.Moves = detectMoves(fromMap, toMap)

	sort.Slice(out.NewHires, func(i, j int) bool { return lessEntry(out.NewHires[i], out.NewHires[j]) })
	sort.Slice(out.Departures, func(i, j int) bool { return lessEntry(out.Departures[i], out.Departures[j]) })
	sort.Slice(out.Promotions, func(i, j int) bool {
		if out.Promotions[i].School != out.Promotions[j].School {
			return out.Promotions[i].School < out.Promotions[j].School
		}
		return out.Promotions[i].Name < out.Promotions[j].Name
	})
	sort.Slice(out.Moves, func(i, j int) bool {
		a, b := out.Moves[i], out.Moves[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.FromSchoolSlug != b.FromSchoolSlug {
			return a.FromSchoolSlug < b.FromSchoolSlug
		}
		return a.ToSchoolSlug < b.ToSchoolSlug
	})

	return out
}

// canonicalize keeps one row per (school, person). With duplicate loads
// from multiple sources, the head-coach row wins, then the longer position
// string.
func canonicalize(entries []internal.RosterEntry) map[rosterKey]internal.RosterEntry {
	out := make(map[rosterKey]internal.RosterEntry, len(entries))
	for _, e := range entries {
		key := keyOf(e)
		current, ok := out[key]
		if !ok {
			out[key] = e
			continue
		}
		if betterEntry(e, current) {
			out[key] = e
		}
	}
	return out
}

func betterEntry(a, b internal.RosterEntry) bool {
	if a.IsHeadCoach != b.IsHeadCoach {
		return a.IsHeadCoach
	}
	return len(a.Position) > len(b.Position)
}

// detectMoves reports a person whose school changed between snapshots, but
// only when the person maps to exactly one school on each side. Many-to-
// many name collisions are suppressed rather than guessed.
func detectMoves(fromMap, toMap map[rosterKey]internal.RosterEntry) []internal.Move {
	fromByName := map[string]map[string]struct{}{}
	toByName := map[string]map[string]struct{}{}
	display := map[string]string{}
	for key, rec := range fromMap {
		addSchool(fromByName, key.name, key.schoolSlug)
		display[key.name] = rec.Name
	}
	for key, rec := range toMap {
		addSchool(toByName, key.name, key.schoolSlug)
		display[key.name] = rec.Name
	}

	var moves []internal.Move
	for name, fromSchools := range fromByName {
		toSchools, ok := toByName[name]
		if !ok {
			continue
		}
		if len(fromSchools) != 1 || len(toSchools) != 1 {
			continue
		}
		fromSlug := onlyKey(fromSchools)
		toSlug := onlyKey(toSchools)
		if fromSlug == toSlug {
			continue
		}
		moves = append(moves, internal.Move{Name: display[name], FromSchoolSlug: fromSlug, ToSchoolSlug: toSlug})
	}
	return moves
}

func addSchool(index map[string]map[string]struct{}, name, slug string) {
	set, ok := index[name]
	if !ok {
		set = map[string]struct{}{}
		index[name] = set
	}
	set[slug] = struct{}{}
}

func onlyKey(set map[string]struct{}) string {
	for k := range set {
		return k
	}
	return ""
}

func lessEntry(a, b internal.RosterEntry) bool {
	if a.School != b.School {
		return a.School < b.School
	}
	return a.Name < b.Name
}
