package ingest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"coachdb/internal"
	"coachdb/internal/util"
)

// StateSource describes one public payroll dataset. Sources marked Manual
// cannot be fetched automatically (Cloudflare, login walls) and are imported
// from a locally downloaded CSV instead.
type StateSource struct {
	Name        string
	DownloadURL string
	FiscalYear  int
	Parser      string
	Manual      bool
}

var StateSources = map[string]StateSource{
	"TX": {
		Name:        "Texas Tribune - State of Texas Salaries",
		DownloadURL: "https://s3.amazonaws.com/raw.texastribune.org/state_of_texas/salaries/02_non_duplicated_employees/2026-01-01.csv",
		FiscalYear:  2026,
		Parser:      "texas_tribune",
	},
	"FL": {
		Name:        "Florida Has a Right to Know - State Employee Salaries",
		DownloadURL: "https://salaries.myflorida.com/?action=index&controller=salaries&format=csv",
		FiscalYear:  2025,
		Parser:      "florida",
	},
	// Cloudflare blocks automated downloads for CA; keep the URL for manual fetch.
	"CA": {
		Name:        "California State Controller - Government Compensation in CA",
		DownloadURL: "https://gcc.sco.ca.gov/RawExport/2024_CaliforniaStateUniversity.zip",
		FiscalYear:  2024,
		Parser:      "manual",
		Manual:      true,
	},
	"OH": {Name: "Ohio state employee salary data", Parser: "manual", Manual: true},
	"MI": {Name: "Michigan state employee salary data", Parser: "manual", Manual: true},
	"PA": {Name: "Pennsylvania state employee salary data", Parser: "manual", Manual: true},
}

// schoolState maps roster school names to the state whose payroll covers them.
var schoolState = map[string]string{
	"Texas": "TX", "Texas A&M": "TX", "Texas Tech": "TX", "Houston": "TX", "UTSA": "TX",
	"Florida": "FL", "Florida State": "FL", "UCF": "FL", "USF": "FL",
	"FAU": "FL", "FIU": "FL", "Miami": "FL",
	"Ohio State": "OH", "Cincinnati": "OH", "Ohio": "OH", "Toledo": "OH",
	"Akron": "OH", "Miami (OH)": "OH",
	"USC": "CA", "UCLA": "CA", "California": "CA", "Cal": "CA",
	"San Diego State": "CA", "Fresno State": "CA", "San Jose State": "CA",
	"Michigan": "MI", "Michigan State": "MI", "Central Michigan": "MI",
	"Eastern Michigan": "MI", "Western Michigan": "MI",
	"Penn State": "PA", "Pittsburgh": "PA", "Pitt": "PA", "Temple": "PA",
}

var schoolAliases = map[string]string{
	"Cal":  "California",
	"Pitt": "Pittsburgh",
}

// schoolEmployerKeywords narrows payroll candidates to the school's own
// agency before name matching. Keywords are matched against the uppercased
// employer field.
var schoolEmployerKeywords = map[string][]string{
	"Texas":            {"UNIVERSITY OF TEXAS", "UT AUSTIN"},
	"Texas A&M":        {"TEXAS A&M"},
	"Texas Tech":       {"TEXAS TECH"},
	"Houston":          {"UNIVERSITY OF HOUSTON"},
	"UTSA":             {"UT SAN ANTONIO", "UNIVERSITY OF TEXAS AT SAN ANTONIO"},
	"Florida":          {"UNIVERSITY OF FLORIDA"},
	"Florida State":    {"FLORIDA STATE"},
	"UCF":              {"CENTRAL FLORIDA", "UCF"},
	"USF":              {"SOUTH FLORIDA", "USF"},
	"FAU":              {"FLORIDA ATLANTIC"},
	"FIU":              {"FLORIDA INTERNATIONAL", "FIU"},
	"Miami":            {"MIAMI"},
	"Ohio State":       {"OHIO STATE"},
	"Cincinnati":       {"CINCINNATI"},
	"Ohio":             {"OHIO UNIVERSITY"},
	"Toledo":           {"TOLEDO"},
	"Akron":            {"AKRON"},
	"Miami (OH)":       {"MIAMI UNIVERSITY"},
	"UCLA":             {"UCLA", "CALIFORNIA, LOS ANGELES"},
	"California":       {"BERKELEY", "CALIFORNIA"},
	"San Diego State":  {"SAN DIEGO STATE"},
	"Fresno State":     {"FRESNO STATE"},
	"San Jose State":   {"SAN JOSE STATE"},
	"USC":              {"SOUTHERN CALIFORNIA"},
	"Michigan":         {"UNIVERSITY OF MICHIGAN"},
	"Michigan State":   {"MICHIGAN STATE"},
	"Central Michigan": {"CENTRAL MICHIGAN"},
	"Eastern Michigan": {"EASTERN MICHIGAN"},
	"Western Michigan": {"WESTERN MICHIGAN"},
	"Penn State":       {"PENN STATE"},
	"Pittsburgh":       {"PITTSBURGH"},
	"Temple":           {"TEMPLE"},
}

var titleKeywords = []string{"coach", "football", "athletic", "athletics"}

// StateRecord is one payroll row after source-specific parsing.
type StateRecord struct {
	Name       string `json:"name"`
	Employer   string `json:"employer"`
	Title      string `json:"title,omitempty"`
	BaseSalary *int64 `json:"baseSalary"`
	TotalComp  *int64 `json:"totalComp"`
	State      string `json:"state"`
	Source     string `json:"source"`
	FiscalYear *int   `json:"fiscalYear,omitempty"`
}

// StateFile is the on-disk shape of a downloaded/imported state dataset.
type StateFile struct {
	Metadata struct {
		State        string `json:"state"`
		Source       string `json:"source"`
		DownloadedAt string `json:"downloadedAt"`
		TotalRecords int    `json:"totalRecords"`
	} `json:"metadata"`
	Records []StateRecord `json:"records"`
}

func hasTitleKeyword(title string) bool {
	lowered := strings.ToLower(title)
	for _, keyword := range titleKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

func employerMatches(employer string, keywords []string) bool {
	upper := strings.ToUpper(employer)
	for _, keyword := range keywords {
		if strings.Contains(upper, keyword) {
			return true
		}
	}
	return false
}

// csvRows reads a CSV with a header row into column-keyed maps.
func csvRows(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := map[string]string{}
		for i, value := range record {
			if i < len(header) {
				row[header[i]] = value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseTexasTribune reads the Texas Tribune non-duplicated-employees export.
// Non-university agencies are dropped up front; the dataset covers every
// state employee.
func ParseTexasTribune(r io.Reader, keepAll bool) ([]StateRecord, error) {
	source := StateSources["TX"]
	rows, err := csvRows(r)
	if err != nil {
		return nil, err
	}

	var keywords []string
	for school, kws := range schoolEmployerKeywords {
		if schoolState[school] == "TX" {
			keywords = append(keywords, kws...)
		}
	}

	records := []StateRecord{}
	for _, row := range rows {
		title := strings.TrimSpace(row["CLASS TITLE"])
		if !keepAll && !hasTitleKeyword(title) {
			continue
		}
		employer := strings.TrimSpace(row["AGENCY NAME"])
		if !employerMatches(employer, keywords) {
			continue
		}

		name := strings.TrimSpace(titleCase(row["FIRST NAME"]) + " " + titleCase(row["LAST NAME"]))
		base := util.ParseMoney(row["ANNUAL"])
		total := util.ParseMoney(row["summed_annual_salary"])
		if total == nil {
			total = base
		}
		year := source.FiscalYear
		records = append(records, StateRecord{
			Name:       name,
			Employer:   employer,
			Title:      title,
			BaseSalary: base,
			TotalComp:  total,
			State:      "TX",
			Source:     source.Name,
			FiscalYear: &year,
		})
	}
	return records, nil
}

// ParseFlorida reads the Florida Has a Right to Know CSV export.
func ParseFlorida(r io.Reader, keepAll bool) ([]StateRecord, error) {
	source := StateSources["FL"]
	rows, err := csvRows(r)
	if err != nil {
		return nil, err
	}

	records := []StateRecord{}
	for _, row := range rows {
		title := strings.TrimSpace(row["Class Title"])
		if !keepAll && !hasTitleKeyword(title) {
			continue
		}
		name := strings.TrimSpace(titleCase(row["First Name"]) + " " + titleCase(row["Last Name"]))
		base := util.ParseMoney(row["Salary"])
		year := source.FiscalYear
		records = append(records, StateRecord{
			Name:       name,
			Employer:   strings.TrimSpace(row["Agency Name"]),
			Title:      title,
			BaseSalary: base,
			TotalComp:  base,
			State:      "FL",
			Source:     source.Name,
			FiscalYear: &year,
		})
	}
	return records, nil
}

// ParseManualCSV reads a hand-downloaded dataset with generic column names
// (name, employer, title, base_salary, total_comp).
func ParseManualCSV(r io.Reader, state string) ([]StateRecord, error) {
	rows, err := csvRows(r)
	if err != nil {
		return nil, err
	}

	pick := func(row map[string]string, keys ...string) string {
		for _, key := range keys {
			if v := strings.TrimSpace(row[key]); v != "" {
				return v
			}
		}
		return ""
	}

	records := []StateRecord{}
	for _, row := range rows {
		name := pick(row, "name", "Name")
		if name == "" {
			continue
		}
		base := util.ParseMoney(pick(row, "base_salary", "Base Salary", "Salary"))
		total := util.ParseMoney(pick(row, "total_comp", "Total Comp"))
		if total == nil {
			total = base
		}
		records = append(records, StateRecord{
			Name:       name,
			Employer:   pick(row, "employer", "Employer"),
			Title:      pick(row, "title", "Title"),
			BaseSalary: base,
			TotalComp:  total,
			State:      state,
			Source:     fmt.Sprintf("Manual import (%s)", state),
		})
	}
	return records, nil
}

// DownloadState fetches and parses one state's payroll dataset, writing the
// normalized records to dataDir. Existing files are kept unless force is set.
func DownloadState(ctx context.Context, fetcher *Fetcher, state, dataDir string, keepAll, force bool) (string, error) {
	state = strings.ToUpper(state)
	source, ok := StateSources[state]
	if !ok {
		return "", fmt.Errorf("unknown state: %s", state)
	}
	if source.Manual {
		return "", fmt.Errorf("%s source requires manual download, see %s", state, source.DownloadURL)
	}

	path := stateFilePath(dataDir, state)
	if _, err := os.Stat(path); err == nil && !force {
		return path, nil
	}

	body, err := fetcher.Get(ctx, source.DownloadURL)
	if err != nil {
		return "", err
	}

	var records []StateRecord
	switch source.Parser {
	case "texas_tribune":
		records, err = ParseTexasTribune(strings.NewReader(string(body)), keepAll)
	case "florida":
		records, err = ParseFlorida(strings.NewReader(string(body)), keepAll)
	default:
		return "", fmt.Errorf("unsupported parser: %s", source.Parser)
	}
	if err != nil {
		return "", err
	}

	return path, SaveStateRecords(path, state, source.Name, records)
}

// ImportManualState parses a locally downloaded CSV and writes it in the
// same normalized shape DownloadState produces.
func ImportManualState(state, csvPath, dataDir string) (string, error) {
	state = strings.ToUpper(state)
	f, err := os.Open(csvPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	records, err := ParseManualCSV(f, state)
	if err != nil {
		return "", err
	}
	path := stateFilePath(dataDir, state)
	return path, SaveStateRecords(path, state, fmt.Sprintf("Manual import (%s)", state), records)
}

func stateFilePath(dataDir, state string) string {
	return filepath.Join(dataDir, fmt.Sprintf("%s_state_salaries.json", strings.ToLower(state)))
}

func SaveStateRecords(path, state, sourceName string, records []StateRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var file StateFile
	file.Metadata.State = state
	file.Metadata.Source = sourceName
	file.Metadata.DownloadedAt = time.Now().UTC().Format("2006-01-02")
	file.Metadata.TotalRecords = len(records)
	file.Records = records

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func LoadStateRecords(dataDir, state string) ([]StateRecord, error) {
	data, err := os.ReadFile(stateFilePath(dataDir, strings.ToUpper(state)))
	if err != nil {
		return nil, err
	}
	var file StateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return file.Records, nil
}

// MatchStateSalaries resolves each roster coach against the loaded payroll
// records for their school's state. A coach whose state is not loaded, or
// whose best candidate scores under minScore, lands in unmatched for human
// review.
func MatchStateSalaries(roster []internal.RosterEntry, stateRecords map[string][]StateRecord, minScore float64) ([]internal.StateSalaryMatch, []internal.UnmatchedCoach) {
	matches := []internal.StateSalaryMatch{}
	unmatched := []internal.UnmatchedCoach{}

	for _, coach := range roster {
		state := resolveSchoolState(coach.School)
		records, loaded := stateRecords[state]
		if state == "" || !loaded {
			unmatched = append(unmatched, internal.UnmatchedCoach{
				Coach:  coach.Name,
				School: coach.School,
				Reason: "state not loaded",
			})
			continue
		}

		candidates := records
		if keywords := schoolEmployerKeywords[coach.School]; len(keywords) > 0 {
			filtered := []StateRecord{}
			for _, record := range candidates {
				if employerMatches(record.Employer, keywords) {
					filtered = append(filtered, record)
				}
			}
			if len(filtered) > 0 {
				candidates = filtered
			}
		}

		coachKey := payrollNameKey(coach.Name)
		var best *StateRecord
		bestScore := 0.0
		for i := range candidates {
			recordKey := payrollNameKey(candidates[i].Name)
			if recordKey == "" {
				continue
			}
			score := util.SequenceRatio(coachKey, recordKey)
			if score > bestScore {
				bestScore = score
				best = &candidates[i]
			}
		}

		if best == nil || bestScore < minScore {
			unmatched = append(unmatched, internal.UnmatchedCoach{
				Coach:  coach.Name,
				School: coach.School,
				State:  state,
				Reason: "no match",
			})
			continue
		}

		matches = append(matches, internal.StateSalaryMatch{
			Coach:          coach.Name,
			School:         coach.School,
			State:          state,
			Position:       coach.Position,
			BaseSalary:     best.BaseSalary,
			TotalComp:      best.TotalComp,
			SalaryYear:     best.FiscalYear,
			SalarySource:   best.Source,
			SalaryEmployer: best.Employer,
			SalaryTitle:    best.Title,
			MatchScore:     bestScore,
		})
	}

	return matches, unmatched
}

func resolveSchoolState(school string) string {
	if state, ok := schoolState[school]; ok {
		return state
	}
	if canonical, ok := schoolAliases[school]; ok {
		return schoolState[canonical]
	}
	return ""
}

// payrollNameKey lowercases, strips punctuation, and drops generational
// suffixes while keeping word boundaries for sequence scoring.
func payrollNameKey(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(' ')
		}
	}
	tokens := strings.Fields(b.String())
	kept := tokens[:0]
	for _, token := range tokens {
		switch token {
		case "jr", "sr", "ii", "iii", "iv":
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}
