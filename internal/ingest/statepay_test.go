package ingest

import (
	"strings"
	"testing"

	"coachdb/internal"
)

const texasCSV = `CLASS TITLE,FIRST NAME,LAST NAME,AGENCY NAME,ANNUAL,summed_annual_salary
HEAD FOOTBALL COACH,JON,SMITH,UNIVERSITY OF TEXAS AT AUSTIN,5000000,5500000
ACCOUNTANT,JANE,DOE,UNIVERSITY OF TEXAS AT AUSTIN,90000,90000
FOOTBALL COACH,BOB,DAVIS,DEPT OF TRANSPORTATION,100000,100000
`

func TestParseTexasTribune(t *testing.T) {
	records, err := ParseTexasTribune(strings.NewReader(texasCSV), false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %+v", records)
	}

	rec := records[0]
	if rec.Name != "Jon Smith" {
		t.Fatalf("expected title-cased name, got %q", rec.Name)
	}
	if rec.BaseSalary == nil || *rec.BaseSalary != 5_000_000 {
		t.Fatalf("base salary: %+v", rec.BaseSalary)
	}
	if rec.TotalComp == nil || *rec.TotalComp != 5_500_000 {
		t.Fatalf("total comp: %+v", rec.TotalComp)
	}
	if rec.State != "TX" || rec.FiscalYear == nil || *rec.FiscalYear != 2026 {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestParseTexasTribuneKeepAll(t *testing.T) {
	records, err := ParseTexasTribune(strings.NewReader(texasCSV), true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// keepAll skips the title filter but not the employer filter.
	if len(records) != 2 {
		t.Fatalf("expected two records, got %+v", records)
	}
}

const floridaCSV = `Class Title,First Name,Last Name,Agency Name,Salary
HEAD COACH FOOTBALL,JON,SMITH,UNIVERSITY OF FLORIDA,4200000
CLERK,JANE,DOE,UNIVERSITY OF FLORIDA,50000
`

func TestParseFlorida(t *testing.T) {
	records, err := ParseFlorida(strings.NewReader(floridaCSV), false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %+v", records)
	}
	rec := records[0]
	if rec.Name != "Jon Smith" || rec.State != "FL" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.TotalComp == nil || *rec.TotalComp != 4_200_000 {
		t.Fatalf("total comp should default to base salary: %+v", rec.TotalComp)
	}
}

const manualCSV = `name,employer,title,base_salary,total_comp
Jon Smith,Ohio State University,Head Football Coach,9500000,10000000
Bob Davis,Ohio State University,Linebackers Coach,800000,
,Ohio State University,Analyst,50000,
`

func TestParseManualCSV(t *testing.T) {
	records, err := ParseManualCSV(strings.NewReader(manualCSV), "OH")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected nameless rows dropped, got %+v", records)
	}
	if records[0].TotalComp == nil || *records[0].TotalComp != 10_000_000 {
		t.Fatalf("total comp: %+v", records[0].TotalComp)
	}
	if records[1].TotalComp == nil || *records[1].TotalComp != 800_000 {
		t.Fatalf("missing total comp should fall back to base: %+v", records[1].TotalComp)
	}
	if records[0].State != "OH" {
		t.Fatalf("state: %q", records[0].State)
	}
}

func TestMatchStateSalaries(t *testing.T) {
	base := int64(5_000_000)
	roster := []internal.RosterEntry{
		{School: "Texas", Name: "Jon Smith", Position: "Head Coach", IsHeadCoach: true},
		{School: "Oregon", Name: "Bob Davis"},
		{School: "Texas", Name: "Zz Qq"},
	}
	records := map[string][]StateRecord{
		"TX": {
			{Name: "Jon Smith", Employer: "TEXAS DEPT OF TRANSPORTATION", BaseSalary: &base},
			{Name: "Jon Smith", Employer: "UNIVERSITY OF TEXAS AT AUSTIN", BaseSalary: &base, Title: "HEAD FOOTBALL COACH"},
		},
	}

	matches, unmatched := MatchStateSalaries(roster, records, 0.88)
	if len(matches) != 1 {
		t.Fatalf("expected one match, got %+v", matches)
	}
	m := matches[0]
	if m.Coach != "Jon Smith" || m.State != "TX" {
		t.Fatalf("unexpected match: %+v", m)
	}
	// Employer filtering must pick the university row over the agency
	// sharing the same name.
	if m.SalaryEmployer != "UNIVERSITY OF TEXAS AT AUSTIN" {
		t.Fatalf("expected employer-filtered candidate, got %q", m.SalaryEmployer)
	}
	if m.MatchScore != 1 {
		t.Fatalf("expected exact-name score 1, got %v", m.MatchScore)
	}

	if len(unmatched) != 2 {
		t.Fatalf("expected two unmatched, got %+v", unmatched)
	}
	reasons := map[string]string{}
	for _, u := range unmatched {
		reasons[u.Coach] = u.Reason
	}
	if reasons["Bob Davis"] != "state not loaded" {
		t.Fatalf("unexpected reasons: %+v", reasons)
	}
	if reasons["Zz Qq"] != "no match" {
		t.Fatalf("unexpected reasons: %+v", reasons)
	}
}

func TestMatchStateSalariesThreshold(t *testing.T) {
	base := int64(1_000_000)
	roster := []internal.RosterEntry{
		{School: "Texas", Name: "Jonathan Smith"},
	}
	records := map[string][]StateRecord{
		"TX": {{Name: "Jon Smith", Employer: "UNIVERSITY OF TEXAS AT AUSTIN", BaseSalary: &base}},
	}

	matches, unmatched := MatchStateSalaries(roster, records, 0.88)
	if len(matches) != 0 {
		t.Fatalf("expected a sub-threshold name to go unmatched, got %+v", matches)
	}
	if len(unmatched) != 1 || unmatched[0].Reason != "no match" {
		t.Fatalf("unexpected unmatched: %+v", unmatched)
	}
}

func TestPayrollNameKey(t *testing.T) {
	if got := payrollNameKey("SMITH, John Jr."); got != "smith john" {
		t.Fatalf("got %q", got)
	}
	if got := payrollNameKey("D'Angelo O'Brien III"); got != "d angelo o brien" {
		t.Fatalf("got %q", got)
	}
}

func TestResolveSchoolState(t *testing.T) {
	if got := resolveSchoolState("Pitt"); got != "PA" {
		t.Fatalf("alias lookup failed, got %q", got)
	}
	if got := resolveSchoolState("Oregon"); got != "" {
		t.Fatalf("unknown school should be empty, got %q", got)
	}
}
