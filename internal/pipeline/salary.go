package pipeline

import (
	"fmt"
	"strings"

	"coachdb/internal"
	"coachdb/internal/storage"
)

// SalaryImportPolicy drives the enrichment merge. State payroll
// observations are treated as authoritative: media-report rows are only
// written when no payroll row exists for the (coach, year), unless
// KeepMediaWhenState is set.
type SalaryImportPolicy struct {
	MediaYear           int
	IncludeAllPositions bool
	KeepMediaWhenState  bool
}

// ImportCounts is the per-run outcome summary every import prints.
type ImportCounts struct {
	Inserted   int
	Updated    int
	Skipped    int
	Unresolved int
}

func (c ImportCounts) Map() map[string]int {
	return map[string]int{
		"inserted":   c.Inserted,
		"updated":    c.Updated,
		"skipped":    c.Skipped,
		"unresolved": c.Unresolved,
	}
}

// SalaryImporter merges salary observations from multiple sources into the
// record store, one coach resolution at a time. An unresolved coach is
// counted and reported, never fatal.
type SalaryImporter struct {
	db      *storage.DB
	matcher *Matcher
	norm    *Normalizer
}

func NewSalaryImporter(db *storage.DB, matcher *Matcher, norm *Normalizer) *SalaryImporter {
	return &SalaryImporter{db: db, matcher: matcher, norm: norm}
}

// HeadCoachSalaryRow is one entry of a published head-coach salary survey.
type HeadCoachSalaryRow struct {
	Coach      string
	School     string
	Conference string
	Amounts    internal.SalaryAmounts
}

// ImportSurvey writes a head-coach salary survey for one season with the
// given source. Unlike the other import paths this one creates missing
// schools and head-coach rows: the survey is itself an authoritative roster
// of who held the job that year.
func (s *SalaryImporter) ImportSurvey(rows []HeadCoachSalaryRow, year int, source internal.SalarySource, sourceDate string) (ImportCounts, error) {
	var counts ImportCounts
	for _, row := range rows {
		if row.Coach == "" || row.School == "" {
			counts.Skipped++
			continue
		}

		slug := s.norm.SchoolSlug(row.School)
		if slug == "" {
			counts.Skipped++
			continue
		}
		var confID *int
		if row.Conference != "" {
			id, err := s.db.ConferenceID(row.Conference)
			if err != nil {
				return counts, err
			}
			confID = id
		}
		school, err := s.db.EnsureSchool(row.School, slug, confID)
		if err != nil {
			return counts, err
		}

		pool, err := s.db.CoachesBySchoolYear(school.ID, year)
		if err != nil {
			return counts, err
		}
		coachID := 0
		if coach := s.matcher.MatchCoach(pool, row.Coach); coach != nil {
			coachID = coach.ID
		} else {
			position := "Head Coach"
			coachID, err = s.db.InsertCoach(row.Coach, school.ID, &position, true, &year, nil)
			if err != nil {
				return counts, err
			}
		}

		date := sourceDate
		inserted, err := s.db.UpsertSalary(coachID, year, source, row.Amounts, &date)
		if err != nil {
			return counts, err
		}
		if inserted {
			counts.Inserted++
		} else {
			counts.Updated++
		}
	}
	return counts, nil
}

// ImportState writes state payroll matches with source "state_payroll".
func (s *SalaryImporter) ImportState(matches []internal.StateSalaryMatch, defaultYear int, policy SalaryImportPolicy, sourceDate string) (ImportCounts, error) {
	var counts ImportCounts
	for _, match := range matches {
		if !policy.IncludeAllPositions && !isCoordinatorPosition(match.Position) {
			counts.Skipped++
			continue
		}

		// The payroll fiscal year labels the salary row only. Rosters are
		// stored under the scrape season, so the coach is resolved against
		// defaultYear even when the state reports a later fiscal year.
		year := defaultYear
		if match.SalaryYear != nil {
			year = *match.SalaryYear
		}

		coachID, err := s.resolveCoach(match.Coach, match.School, defaultYear)
		if err != nil {
			return counts, err
		}
		if coachID == 0 {
			counts.Unresolved++
			fmt.Printf("  unresolved: %s (%s)\n", match.Coach, match.School)
			continue
		}

		total := match.TotalComp
		if total == nil {
			total = match.BaseSalary
		}
		amounts := internal.SalaryAmounts{TotalPay: total, SchoolPay: match.BaseSalary}
		date := sourceDate
		inserted, err := s.db.UpsertSalary(coachID, year, internal.SourceStatePayroll, amounts, &date)
		if err != nil {
			return counts, err
		}
		if inserted {
			counts.Inserted++
		} else {
			counts.Updated++
		}
	}
	return counts, nil
}

// ImportMedia writes media reports with source "media_report", honoring the
// payroll-wins conflict policy.
func (s *SalaryImporter) ImportMedia(reports []internal.MediaSalaryReport, policy SalaryImportPolicy) (ImportCounts, error) {
	var counts ImportCounts
	for _, report := range reports {
		if report.Coach == "" || report.School == "" {
			counts.Skipped++
			continue
		}
		if !policy.IncludeAllPositions && !isCoordinatorPosition(report.Position) {
			counts.Skipped++
			continue
		}

		coachID, err := s.resolveCoach(report.Coach, report.School, policy.MediaYear)
		if err != nil {
			return counts, err
		}
		if coachID == 0 {
			counts.Unresolved++
			fmt.Printf("  unresolved: %s (%s)\n", report.Coach, report.School)
			continue
		}

		if !policy.KeepMediaWhenState {
			hasPayroll, err := s.db.SalaryExists(coachID, policy.MediaYear, internal.SourceStatePayroll)
			if err != nil {
				return counts, err
			}
			if hasPayroll {
				counts.Skipped++
				continue
			}
		}

		salary := report.Salary
		amounts := internal.SalaryAmounts{TotalPay: &salary}
		var date *string
		if report.LastUpdated != "" {
			date = &report.LastUpdated
		}
		inserted, err := s.db.UpsertSalary(coachID, policy.MediaYear, internal.SourceMediaReport, amounts, date)
		if err != nil {
			return counts, err
		}
		if inserted {
			counts.Inserted++
		} else {
			counts.Updated++
		}
	}
	return counts, nil
}

// resolveCoach maps a (name, school, year) onto an existing coach row.
// Returns 0 when the school or coach cannot be resolved.
func (s *SalaryImporter) resolveCoach(name, school string, year int) (int, error) {
	schoolRow, err := s.matcher.MatchSchool(s.db, school)
	if err != nil {
		return 0, err
	}
	if schoolRow == nil {
		return 0, nil
	}

	pool, err := s.db.CoachesBySchoolYear(schoolRow.ID, year)
	if err != nil {
		return 0, err
	}
	coach := s.matcher.MatchCoach(pool, name)
	if coach == nil {
		return 0, nil
	}
	return coach.ID, nil
}

func isCoordinatorPosition(position string) bool {
	return strings.Contains(strings.ToLower(position), "coordinator")
}
