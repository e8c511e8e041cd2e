package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"coachdb/internal"
)

// StaffFile is the interchange format for scraped rosters: scrape writes it,
// import reads it back, so a scrape can be reviewed before loading.
type StaffFile struct {
	Metadata struct {
		Source    string `json:"source"`
		ScrapedAt string `json:"scrapedAt"`
		Total     int    `json:"total"`
	} `json:"metadata"`
	Coaches []staffFileEntry `json:"coaches"`
}

type staffFileEntry struct {
	Name        string `json:"name"`
	School      string `json:"school"`
	SchoolSlug  string `json:"school_slug,omitempty"`
	Conference  string `json:"conference,omitempty"`
	Position    string `json:"position,omitempty"`
	IsHeadCoach bool   `json:"is_head_coach"`
}

func SaveStaffFile(path, source string, records []internal.StaffRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var file StaffFile
	file.Metadata.Source = source
	file.Metadata.ScrapedAt = time.Now().UTC().Format(time.RFC3339)
	file.Metadata.Total = len(records)
	for _, rec := range records {
		file.Coaches = append(file.Coaches, staffFileEntry{
			Name:        rec.Name,
			School:      rec.School,
			SchoolSlug:  rec.SchoolSlug,
			Conference:  rec.Conference,
			Position:    rec.Position,
			IsHeadCoach: rec.IsHeadCoach,
		})
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func LoadStaffFile(path string) ([]internal.StaffRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file StaffFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	records := make([]internal.StaffRecord, 0, len(file.Coaches))
	for _, entry := range file.Coaches {
		records = append(records, internal.StaffRecord{
			Name:        entry.Name,
			School:      entry.School,
			SchoolSlug:  entry.SchoolSlug,
			Conference:  entry.Conference,
			Position:    entry.Position,
			IsHeadCoach: entry.IsHeadCoach,
		})
	}
	return records, nil
}

// MatchFile holds a state-payroll matching run: resolved matches plus the
// coaches that need human review.
type MatchFile struct {
	Metadata struct {
		GeneratedAt string   `json:"generatedAt"`
		States      []string `json:"states"`
		RosterCount int      `json:"rosterCount"`
		Matched     int      `json:"matched"`
		Unmatched   int      `json:"unmatched"`
	} `json:"metadata"`
	Matches   []internal.StateSalaryMatch `json:"matches"`
	Unmatched []internal.UnmatchedCoach   `json:"unmatched"`
}

func SaveMatchFile(path string, states []string, rosterCount int, matches []internal.StateSalaryMatch, unmatched []internal.UnmatchedCoach) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var file MatchFile
	file.Metadata.GeneratedAt = time.Now().UTC().Format("2006-01-02")
	file.Metadata.States = states
	file.Metadata.RosterCount = rosterCount
	file.Metadata.Matched = len(matches)
	file.Metadata.Unmatched = len(unmatched)
	file.Matches = matches
	file.Unmatched = unmatched

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func LoadMatchFile(path string) (*MatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file MatchFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return &file, nil
}
