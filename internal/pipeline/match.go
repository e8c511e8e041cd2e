package pipeline

import (
	"coachdb/internal"
	"coachdb/internal/util"
)

// Scorer is the swappable string-similarity strategy used for coach
// matching. Implementations return a value in [0,1].
type Scorer interface {
	Score(a, b string) float64
}

// SequenceScorer is the default scorer: an edit-distance ratio.
type SequenceScorer struct{}

func (SequenceScorer) Score(a, b string) float64 { return util.SequenceRatio(a, b) }

// DiceScorer is a bigram-overlap alternative for token-heavy inputs.
type DiceScorer struct{}

func (DiceScorer) Score(a, b string) float64 { return util.DiceCoefficient(a, b) }

// SchoolDirectory is the slice of the record store the school matcher
// needs.
type SchoolDirectory interface {
	SchoolBySlug(slug string) (*internal.SchoolRow, error)
	SchoolByName(name string) (*internal.SchoolRow, error)
}

// Matcher resolves incoming records against existing entities. An
// unresolved match is a normal outcome, not an error: callers decide
// whether to create, report, or skip.
type Matcher struct {
	norm      *Normalizer
	scorer    Scorer
	threshold float64
}

func NewMatcher(norm *Normalizer, scorer Scorer, threshold float64) *Matcher {
	if scorer == nil {
		scorer = SequenceScorer{}
	}
	return &Matcher{norm: norm, scorer: scorer, threshold: threshold}
}

// MatchSchool resolves a school by exact slug, then by case-insensitive
// display name. Never fuzzy: ambiguous school names go unresolved.
func (m *Matcher) MatchSchool(dir SchoolDirectory, name string) (*internal.SchoolRow, error) {
	slug := m.norm.SchoolSlug(name)
	if slug != "" {
		school, err := dir.SchoolBySlug(slug)
		if err != nil {
			return nil, err
		}
		if school != nil {
			return school, nil
		}
	}
	return dir.SchoolByName(name)
}

// MatchCoach finds the candidate in pool that refers to the same person as
// rawName, or nil when no candidate clears the threshold or the top score
// is ambiguous. The pool is expected to be scoped to one (school, year).
func (m *Matcher) MatchCoach(pool []internal.CoachRow, rawName string) *internal.CoachRow {
	key := m.norm.PersonKey(rawName)
	if key == "" {
		return nil
	}

	// Exact key matches short-circuit scoring; among exact ties prefer the
	// head-coach row.
	var exact *internal.CoachRow
	for i := range pool {
		if m.norm.PersonKey(pool[i].Name) != key {
			continue
		}
		if exact == nil || (pool[i].IsHeadCoach && !exact.IsHeadCoach) {
			exact = &pool[i]
		}
	}
	if exact != nil {
		return exact
	}

	var best *internal.CoachRow
	bestScore := 0.0
	ambiguous := false
	for i := range pool {
		candidateKey := m.norm.PersonKey(pool[i].Name)
		if candidateKey == "" {
			continue
		}
		score := m.scorer.Score(key, candidateKey)
		switch {
		case score > bestScore:
			best = &pool[i]
			bestScore = score
			ambiguous = false
		case score == bestScore && best != nil:
			if preferCandidate(&pool[i], best) {
				best = &pool[i]
				ambiguous = false
			} else if !preferCandidate(best, &pool[i]) {
				ambiguous = true
			}
		}
	}

	if best == nil || bestScore < m.threshold || ambiguous {
		return nil
	}
	return best
}

// preferCandidate orders equal-scoring candidates: head-coach rows first,
// then the more specific (longer) position string.
func preferCandidate(a, b *internal.CoachRow) bool {
	if a.IsHeadCoach != b.IsHeadCoach {
		return a.IsHeadCoach
	}
	return positionLen(a) > positionLen(b)
}

func positionLen(c *internal.CoachRow) int {
	if c.Position == nil {
		return 0
	}
	return len(*c.Position)
}
