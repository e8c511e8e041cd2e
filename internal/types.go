package internal

// SalarySource identifies which ingestion path produced a salary row.
type SalarySource string

const (
	SourceUSAToday     SalarySource = "usa_today"
	SourceStatePayroll SalarySource = "state_payroll"
	SourceMediaReport  SalarySource = "media_report"
	SourceManual       SalarySource = "manual"
)

// MatchOutcome classifies the result of resolving one incoming record.
type MatchOutcome string

const (
	OutcomeMatched   MatchOutcome = "matched"
	OutcomeCreated   MatchOutcome = "created"
	OutcomeSkipped   MatchOutcome = "skipped"
	OutcomeUnmatched MatchOutcome = "unmatched"
	OutcomeError     MatchOutcome = "error"
)

// StaffRecord is the minimal shape every ingestion path produces:
// free-text identity fields that still need normalization and matching.
type StaffRecord struct {
	Name        string
	School      string
	SchoolSlug  string
	Conference  string
	Position    string
	IsHeadCoach bool
	Year        *int
	ScrapedAt   *string
}

// CoachRow is one staff member at one school in one season year.
type CoachRow struct {
	ID           int
	Name         string
	SchoolID     int
	School       string
	SchoolSlug   string
	Conference   *string
	Position     *string
	IsHeadCoach  bool
	Year         *int
	IsPlayCaller bool
	ScrapedAt    *string
}

type SchoolRow struct {
	ID           int
	Name         string
	Slug         string
	ConferenceID *int
	Conference   *string
}

// SalaryAmounts carries the figures a source reported. Sources report
// different subsets, so every field is nullable; nil means "not reported",
// never zero.
type SalaryAmounts struct {
	TotalPay    *int64
	SchoolPay   *int64
	MaxBonus    *int64
	BonusesPaid *int64
	Buyout      *int64
}

// SalaryRow is one compensation observation from one source.
type SalaryRow struct {
	ID         int
	CoachID    int
	Year       int
	Amounts    SalaryAmounts
	Source     SalarySource
	SourceDate *string
}

// CareerStint is a contiguous run of seasons at the same school and position.
type CareerStint struct {
	School     string  `json:"school"`
	SchoolSlug *string `json:"school_slug,omitempty"`
	Position   *string `json:"position,omitempty"`
	StartYear  int     `json:"start_year"`
	EndYear    int     `json:"end_year"`
}

// RosterEntry is one canonical (school, person) row inside a snapshot fed to
// the change detector.
type RosterEntry struct {
	School      string `json:"school"`
	SchoolSlug  string `json:"school_slug"`
	Name        string `json:"name"`
	Position    string `json:"position,omitempty"`
	IsHeadCoach bool   `json:"is_head_coach"`
}

// Promotion reports a position or head-coach-flag change at the same school.
type Promotion struct {
	School          string `json:"school"`
	SchoolSlug      string `json:"school_slug"`
	Name            string `json:"name"`
	FromPosition    string `json:"from_position,omitempty"`
	ToPosition      string `json:"to_position,omitempty"`
	FromIsHeadCoach bool   `json:"from_is_head_coach"`
	ToIsHeadCoach   bool   `json:"to_is_head_coach"`
}

// Move reports an unambiguous single-school-to-single-school change.
type Move struct {
	Name           string `json:"name"`
	FromSchoolSlug string `json:"from_school_slug"`
	ToSchoolSlug   string `json:"to_school_slug"`
}

// ChangeSet is the full diff between two roster snapshots.
type ChangeSet struct {
	NewHires   []RosterEntry `json:"new_hires"`
	Departures []RosterEntry `json:"departures"`
	Promotions []Promotion   `json:"promotions"`
	Moves      []Move        `json:"moves"`
}

// StateSalaryMatch is one roster coach matched to a state payroll record.
type StateSalaryMatch struct {
	Coach          string  `json:"coach"`
	School         string  `json:"school"`
	State          string  `json:"state"`
	Position       string  `json:"position,omitempty"`
	BaseSalary     *int64  `json:"baseSalary"`
	TotalComp      *int64  `json:"totalComp"`
	SalaryYear     *int    `json:"salaryYear,omitempty"`
	SalarySource   string  `json:"salarySource"`
	SalaryEmployer string  `json:"salaryEmployer,omitempty"`
	SalaryTitle    string  `json:"salaryTitle,omitempty"`
	MatchScore     float64 `json:"matchScore"`
}

// UnmatchedCoach is a roster coach no payroll record could be resolved for;
// surfaced for human review, never guessed.
type UnmatchedCoach struct {
	Coach  string `json:"coach"`
	School string `json:"school"`
	State  string `json:"state,omitempty"`
	Reason string `json:"reason"`
}

// MediaSalaryReport is one salary figure extracted from a media article.
type MediaSalaryReport struct {
	Coach       string `json:"coach"`
	School      string `json:"school"`
	Position    string `json:"position,omitempty"`
	Conference  string `json:"conference,omitempty"`
	Salary      int64  `json:"salary"`
	SalaryText  string `json:"salaryText,omitempty"`
	Source      string `json:"source"`
	SourceType  string `json:"sourceType,omitempty"`
	Query       string `json:"query,omitempty"`
	LastUpdated string `json:"lastUpdated,omitempty"`
}

// PlayCallerRecord is the primary play caller for a school and season.
type PlayCallerRecord struct {
	SchoolID      int
	Season        int
	PrimaryCaller string
	PrimaryTitle  *string
	IsHeadCoach   bool
	Confidence    float64
	Citations     []string
	Notes         *string
	UpdatedAt     *string
}

// PlayCallerChange is an appended mid-season change, never an overwrite of
// the primary record.
type PlayCallerChange struct {
	ID            int
	SchoolID      int
	Season        int
	NewCaller     string
	NewTitle      *string
	IsHeadCoach   bool
	EffectiveDate *string
	Reason        *string
	Confidence    float64
	Citations     []string
}
