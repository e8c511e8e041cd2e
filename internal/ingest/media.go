package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"coachdb/internal"
	"coachdb/internal/config"
	"coachdb/internal/util"
)

// DefaultAllowedDomains is the trust list for media salary figures. Local
// blogs and aggregators are excluded unless added explicitly.
var DefaultAllowedDomains = []string{
	"espn.com",
	"theathletic.com",
}

type SearchResult struct {
	Title   string
	URL     string
	Snippet string
	Domain  string
}

// BraveClient queries the Brave web search API.
type BraveClient struct {
	baseURL string
	apiKey  string
	fetcher *Fetcher
}

func NewBraveClient(cfg config.Config) (*BraveClient, error) {
	if err := cfg.Require("BRAVE_API_KEY", cfg.BraveAPIKey); err != nil {
		return nil, err
	}
	return &BraveClient{
		baseURL: strings.TrimRight(cfg.BraveAPIBaseURL, "/"),
		apiKey:  cfg.BraveAPIKey,
		fetcher: NewFetcher(cfg.SearchTimeoutMs, 1000/maxInt(cfg.SearchRateRPS, 1), ""),
	}, nil
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

func (b *BraveClient) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(maxResults))

	endpoint := b.baseURL + "/web/search?" + q.Encode()
	body, err := b.fetcher.GetWithHeaders(ctx, endpoint, map[string]string{
		"Accept":               "application/json",
		"X-Subscription-Token": b.apiKey,
	})
	if err != nil {
		return nil, err
	}

	var resp braveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(resp.Web.Results))
	for _, item := range resp.Web.Results {
		parsed, err := url.Parse(item.URL)
		if err != nil {
			continue
		}
		results = append(results, SearchResult{
			Title:   item.Title,
			URL:     item.URL,
			Snippet: item.Description,
			Domain:  strings.ToLower(parsed.Hostname()),
		})
		if len(results) >= maxResults {
			break
		}
	}
	return results, nil
}

// MediaEnricher searches media coverage for assistant-coach salary figures
// and extracts the reported amount from result titles and snippets.
type MediaEnricher struct {
	search         *BraveClient
	allowedDomains []string
	allowEdu       bool
	maxResults     int
	minPlausible   int64
	maxPlausible   int64
}

func NewMediaEnricher(search *BraveClient, cfg config.Config, allowedDomains []string, allowEdu bool, maxResults int) *MediaEnricher {
	if len(allowedDomains) == 0 {
		allowedDomains = DefaultAllowedDomains
	}
	if maxResults <= 0 {
		maxResults = 8
	}
	return &MediaEnricher{
		search:         search,
		allowedDomains: allowedDomains,
		allowEdu:       allowEdu,
		maxResults:     maxResults,
		minPlausible:   cfg.SalaryMinPlausible,
		maxPlausible:   cfg.SalaryMaxPlausible,
	}
}

// EnrichCoach runs "<name> contract" then "<name> salary" queries and returns
// the first plausible figure found on an allowed domain, or nil.
func (m *MediaEnricher) EnrichCoach(ctx context.Context, coach internal.RosterEntry) (*internal.MediaSalaryReport, error) {
	queries := []string{coach.Name + " contract", coach.Name + " salary"}
	for _, query := range queries {
		results, err := m.search.Search(ctx, query, m.maxResults)
		if err != nil {
			return nil, err
		}
		for _, result := range results {
			if !m.domainAllowed(result.Domain) {
				continue
			}
			mention := util.ExtractSalary(result.Title+" "+result.Snippet, m.minPlausible, m.maxPlausible)
			if mention == nil {
				continue
			}
			return &internal.MediaSalaryReport{
				Coach:       coach.Name,
				School:      coach.School,
				Position:    coach.Position,
				Salary:      mention.Amount,
				SalaryText:  mention.Text,
				Source:      result.URL,
				SourceType:  sourceType(result.Domain),
				Query:       query,
				LastUpdated: time.Now().Format("2006-01-02"),
			}, nil
		}
	}
	return nil, nil
}

// EnrichAll walks the roster in deterministic (school, name) order, skipping
// coaches already present in prior when resuming, and stops after maxCoaches
// searches. A failed search is reported and skipped; only a cancelled context
// ends the run early.
func (m *MediaEnricher) EnrichAll(ctx context.Context, roster []internal.RosterEntry, prior []internal.MediaSalaryReport, maxCoaches int) ([]internal.MediaSalaryReport, error) {
	existing := map[string]struct{}{}
	reports := append([]internal.MediaSalaryReport{}, prior...)
	for _, r := range prior {
		existing[r.Coach+"|"+r.School] = struct{}{}
	}

	ordered := append([]internal.RosterEntry{}, roster...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].School != ordered[j].School {
			return ordered[i].School < ordered[j].School
		}
		return ordered[i].Name < ordered[j].Name
	})

	searched, failed := 0, 0
	for _, coach := range ordered {
		if maxCoaches > 0 && searched >= maxCoaches {
			break
		}
		if _, ok := existing[coach.Name+"|"+coach.School]; ok {
			continue
		}

		report, err := m.EnrichCoach(ctx, coach)
		if err != nil {
			if ctx.Err() != nil {
				return reports, ctx.Err()
			}
			searched++
			failed++
			fmt.Printf("  failed %s (%s): %v\n", coach.Name, coach.School, err)
			continue
		}
		searched++
		if report != nil {
			reports = append(reports, *report)
			fmt.Printf("  matched %s (%s) - $%d\n", report.Coach, report.School, report.Salary)
		} else {
			fmt.Printf("  no match for %s (%s)\n", coach.Name, coach.School)
		}
	}
	if failed > 0 {
		fmt.Printf("  %d searches failed\n", failed)
	}
	return reports, nil
}

func (m *MediaEnricher) domainAllowed(domain string) bool {
	if m.allowEdu && strings.HasSuffix(domain, ".edu") {
		return true
	}
	for _, allowed := range m.allowedDomains {
		if domain == allowed || strings.HasSuffix(domain, "."+allowed) {
			return true
		}
	}
	return false
}

func sourceType(domain string) string {
	switch {
	case strings.HasSuffix(domain, "espn.com"):
		return "espn"
	case strings.HasSuffix(domain, "theathletic.com"):
		return "the_athletic"
	case strings.HasSuffix(domain, ".edu"):
		return "press_release"
	default:
		return "local_media"
	}
}

// MediaReportFile is the checkpointed output of an enrichment run; resume
// reads it back to skip coaches already searched.
type MediaReportFile struct {
	Metadata struct {
		Source       string   `json:"source"`
		LastUpdated  string   `json:"lastUpdated"`
		TotalReports int      `json:"totalReports"`
		Domains      []string `json:"allowedDomains"`
	} `json:"metadata"`
	Reports []internal.MediaSalaryReport `json:"reports"`
}

func SaveMediaReports(path string, domains []string, reports []internal.MediaSalaryReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var file MediaReportFile
	file.Metadata.Source = "Media reports"
	file.Metadata.LastUpdated = time.Now().Format("2006-01-02")
	file.Metadata.TotalReports = len(reports)
	file.Metadata.Domains = domains
	file.Reports = reports

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadMediaReports returns the prior run's reports, or nothing when the file
// does not exist yet.
func LoadMediaReports(path string) ([]internal.MediaSalaryReport, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var file MediaReportFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return file.Reports, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
