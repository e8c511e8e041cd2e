package research

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coachdb/internal"
	"coachdb/internal/config"
	"coachdb/internal/storage"
)

const researchSystemPrompt = "You are a college football research assistant. " +
	"Answer concisely with specific names and roles. Always cite sources."

// Finding is the parsed outcome of one team's play-caller research.
type Finding struct {
	School     internal.SchoolRow
	Season     int
	Caller     *internal.CoachRow
	HCCalls    bool
	Confidence float64
	Citations  []string
	RawAnswer  string
}

// Researcher identifies the offensive play caller for each team: an API
// lookup, pattern parsing against the known staff, and a confidence-gated
// write to the store.
type Researcher struct {
	client     *Client
	db         *storage.DB
	minConfirm float64
	delay      time.Duration
}

func NewResearcher(client *Client, db *storage.DB, cfg config.Config) *Researcher {
	return &Researcher{
		client:     client,
		db:         db,
		minConfirm: cfg.PlayCallerMinConfirm,
		delay:      time.Duration(cfg.ResearchDelayMs) * time.Millisecond,
	}
}

// candidates narrows the staff to the people who could plausibly call plays.
func candidates(staff []internal.CoachRow) []internal.CoachRow {
	out := []internal.CoachRow{}
	for _, coach := range staff {
		position := ""
		if coach.Position != nil {
			position = strings.ToLower(*coach.Position)
		}
		if coach.IsHeadCoach || strings.Contains(position, "coordinator") || strings.Contains(position, "play") {
			out = append(out, coach)
		}
	}
	return out
}

// ResearchTeam asks who calls plays for one school and parses the answer
// against that school's staff.
func (r *Researcher) ResearchTeam(ctx context.Context, school internal.SchoolRow, season int) (*Finding, error) {
	staff, err := r.db.CoachesBySchoolYear(school.ID, season)
	if err != nil {
		return nil, err
	}
	pool := candidates(staff)
	if len(pool) == 0 {
		return nil, fmt.Errorf("no coordinator or head coach on record for %s in %d", school.Name, season)
	}

	var staffList strings.Builder
	for _, coach := range pool {
		position := ""
		if coach.Position != nil {
			position = *coach.Position
		}
		fmt.Fprintf(&staffList, "- %s (%s)\n", coach.Name, position)
	}

	prompt := fmt.Sprintf(`Who is the offensive play caller for %s football in %d?

Here is their current coaching staff:
%s
Please answer specifically:
1. Who calls the offensive plays on game day?
2. Is it the OC, HC, or someone else?
3. If the HC calls plays, note that explicitly.

Be concise. Cite your sources.`, school.Name, season, staffList.String())

	answer, citations, err := r.client.Complete(ctx, researchSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	caller, hcCalls, confidence := parsePlayCaller(answer, pool)
	return &Finding{
		School:     school,
		Season:     season,
		Caller:     caller,
		HCCalls:    hcCalls,
		Confidence: confidence,
		Citations:  citations,
		RawAnswer:  answer,
	}, nil
}

// parsePlayCaller resolves the answer text to a staff member. An explicit
// "X calls plays" pattern earns high confidence; the no-pattern OC fallback
// is marked low so the write gate holds it for manual review.
func parsePlayCaller(answer string, staff []internal.CoachRow) (*internal.CoachRow, bool, float64) {
	lowered := strings.ToLower(answer)

	var head *internal.CoachRow
	for i := range staff {
		if staff[i].IsHeadCoach {
			head = &staff[i]
			break
		}
	}

	if head != nil {
		patterns := append(callerPatterns(lastName(head.Name)),
			"head coach calls", "head coach will call")
		for _, pattern := range patterns {
			if strings.Contains(lowered, pattern) {
				return head, true, 0.9
			}
		}
	}

	for i := range staff {
		last := lastName(staff[i].Name)
		if len(last) <= 2 {
			continue
		}
		for _, pattern := range callerPatterns(last) {
			if strings.Contains(lowered, pattern) {
				return &staff[i], staff[i].IsHeadCoach, 0.9
			}
		}
	}

	// No explicit statement: assume the sole non-co offensive coordinator,
	// at fallback confidence. Two full OCs means the answer is ambiguous
	// and nothing is assumed.
	var oc *internal.CoachRow
	for i := range staff {
		if staff[i].Position == nil {
			continue
		}
		position := strings.ToLower(*staff[i].Position)
		if strings.Contains(position, "offensive coordinator") && !strings.Contains(position, "co-") {
			if oc != nil {
				return nil, false, 0
			}
			oc = &staff[i]
		}
	}
	if oc != nil {
		return oc, false, 0.4
	}

	return nil, false, 0
}

func callerPatterns(last string) []string {
	return []string{
		last + " calls",
		last + " will call",
		last + " is the play caller",
		last + " is the primary play caller",
		last + " handles play-calling",
		last + " handles the play-calling",
	}
}

func lastName(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	return strings.ToLower(parts[len(parts)-1])
}

// Sweep researches every given school and, when applying, overwrites the
// primary play-caller record for the season. Findings under the confidence
// gate are reported and left for manual review.
func (r *Researcher) Sweep(ctx context.Context, schools []internal.SchoolRow, season int, apply bool) ([]Finding, error) {
	findings := []Finding{}
	for i, school := range schools {
		if i > 0 {
			time.Sleep(r.delay)
		}

		finding, err := r.ResearchTeam(ctx, school, season)
		if err != nil {
			fmt.Printf("  error: %s: %v\n", school.Name, err)
			continue
		}
		findings = append(findings, *finding)

		if finding.Caller == nil {
			fmt.Printf("  %s: no play caller identified\n", school.Name)
			continue
		}
		fmt.Printf("  %s: %s (confidence %.0f%%)\n", school.Name, finding.Caller.Name, finding.Confidence*100)

		if finding.Confidence < r.minConfirm {
			fmt.Printf("    skipped: confidence below %.0f%%, needs manual review\n", r.minConfirm*100)
			continue
		}
		if !apply {
			continue
		}

		if err := r.applyPrimary(*finding); err != nil {
			return findings, err
		}
	}
	return findings, nil
}

func (r *Researcher) applyPrimary(finding Finding) error {
	var title *string
	if finding.Caller.Position != nil {
		title = finding.Caller.Position
	}
	record := internal.PlayCallerRecord{
		SchoolID:      finding.School.ID,
		Season:        finding.Season,
		PrimaryCaller: finding.Caller.Name,
		PrimaryTitle:  title,
		IsHeadCoach:   finding.HCCalls || finding.Caller.IsHeadCoach,
		Confidence:    finding.Confidence,
		Citations:     finding.Citations,
	}
	if err := r.db.SetPrimaryCaller(record); err != nil {
		return err
	}
	source := "research"
	if len(finding.Citations) > 0 {
		source = finding.Citations[0]
	}
	return r.db.MarkCoachPlayCaller(finding.School.ID, finding.Caller.ID, source)
}

// Incremental re-researches each school and appends a change entry when the
// identified caller differs from the stored primary. The primary record is
// never overwritten here.
func (r *Researcher) Incremental(ctx context.Context, schools []internal.SchoolRow, season int, apply bool) ([]Finding, error) {
	findings := []Finding{}
	for i, school := range schools {
		if i > 0 {
			time.Sleep(r.delay)
		}

		finding, err := r.ResearchTeam(ctx, school, season)
		if err != nil {
			fmt.Printf("  error: %s: %v\n", school.Name, err)
			continue
		}
		findings = append(findings, *finding)

		if finding.Caller == nil || finding.Confidence < r.minConfirm {
			continue
		}

		primary, err := r.db.PrimaryCaller(school.ID, season)
		if err != nil {
			return findings, err
		}
		if primary == nil {
			fmt.Printf("  %s: no primary on record, run a sweep first\n", school.Name)
			continue
		}
		if strings.EqualFold(strings.TrimSpace(primary.PrimaryCaller), strings.TrimSpace(finding.Caller.Name)) {
			continue
		}

		fmt.Printf("  %s: change detected, %s -> %s\n", school.Name, primary.PrimaryCaller, finding.Caller.Name)
		if !apply {
			continue
		}

		recorded, err := r.db.HasPlayCallerChange(school.ID, season, finding.Caller.Name)
		if err != nil {
			return findings, err
		}
		if recorded {
			continue
		}

		change := internal.PlayCallerChange{
			SchoolID:    school.ID,
			Season:      season,
			NewCaller:   finding.Caller.Name,
			NewTitle:    finding.Caller.Position,
			IsHeadCoach: finding.HCCalls || finding.Caller.IsHeadCoach,
			Confidence:  finding.Confidence,
			Citations:   finding.Citations,
		}
		if err := r.db.AppendPlayCallerChange(change); err != nil {
			return findings, err
		}
	}
	return findings, nil
}
