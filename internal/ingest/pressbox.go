package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"coachdb/internal"
	"coachdb/internal/config"
)

var (
	teamSlugPattern  = regexp.MustCompile(`/teams/([a-z0-9-]+)/`)
	headCoachPattern = regexp.MustCompile(`(?is)Head Coach\s*</strong>\s*<div>([^<]+)</div>`)
	trailingWord     = regexp.MustCompile(`\s+\w+$`)
)

// ErrPaywalled is returned when the staff page is blurred behind the
// subscription wall, usually meaning the cookie expired.
var ErrPaywalled = errors.New("staff page is paywalled")

// PressboxScraper pulls coaching staff pages from collegepressbox and turns
// them into staff records. Site slugs are passed through raw; the loader
// canonicalizes them against the alias table.
type PressboxScraper struct {
	baseURL string
	fetcher *Fetcher
}

func NewPressboxScraper(cfg config.Config) (*PressboxScraper, error) {
	cookie, err := loadCookie(cfg.PressboxCookiePath)
	if err != nil {
		return nil, err
	}
	return &PressboxScraper{
		baseURL: strings.TrimRight(cfg.PressboxBaseURL, "/"),
		fetcher: NewFetcher(cfg.ScrapeTimeoutMs, cfg.ScrapeDelayMs, cookie),
	}, nil
}

func loadCookie(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("subscription cookie not found at %s: %w", path, err)
	}
	cookie := strings.TrimSpace(string(data))
	if cookie == "" {
		return "", fmt.Errorf("subscription cookie at %s is empty", path)
	}
	return cookie, nil
}

// TeamSlugs discovers every team slug linked from the homepage.
func (p *PressboxScraper) TeamSlugs(ctx context.Context) ([]string, error) {
	body, err := p.fetcher.Get(ctx, p.baseURL+"/")
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, m := range teamSlugPattern.FindAllStringSubmatch(string(body), -1) {
		seen[m[1]] = struct{}{}
	}

	slugs := make([]string, 0, len(seen))
	for slug := range seen {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs, nil
}

// ScrapeTeam fetches one team's staff page and parses every coach on it.
func (p *PressboxScraper) ScrapeTeam(ctx context.Context, slug string) ([]internal.StaffRecord, error) {
	url := fmt.Sprintf("%s/teams/%s/team-staff/", p.baseURL, slug)
	body, err := p.fetcher.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	html := string(body)
	if strings.Contains(html, "YOU'RE MISSING OUT") || strings.Contains(html, "staff-blur") {
		return nil, ErrPaywalled
	}

	return parseStaffPage(body, slug)
}

func parseStaffPage(body []byte, slug string) ([]internal.StaffRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	teamName := teamNameFromTitle(doc, slug)
	scrapedAt := time.Now().UTC().Format(time.RFC3339)

	records := []internal.StaffRecord{}
	addRecord := func(name, position string, isHead bool) {
		records = append(records, internal.StaffRecord{
			Name:        name,
			School:      teamName,
			SchoolSlug:  slug,
			Position:    position,
			IsHeadCoach: isHead,
			ScrapedAt:   &scrapedAt,
		})
	}
	hasHeadCoach := func() bool {
		for _, r := range records {
			if r.IsHeadCoach {
				return true
			}
		}
		return false
	}

	// The head coach sits in a callout block above the staff table.
	if m := headCoachPattern.FindSubmatch(body); m != nil {
		if name := strings.TrimSpace(string(m[1])); name != "" {
			addRecord(name, "Head Coach", true)
		}
	}

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		nameCell := cells.Eq(0)
		// Drop the hidden sort-key span so only the display name remains.
		nameCell.Find("span.display-none").Remove()
		name := strings.TrimSpace(nameCell.Text())
		position := strings.TrimSpace(cells.Eq(1).Text())

		if name == "" || position == "" {
			return
		}
		if strings.EqualFold(name, "name") || strings.EqualFold(position, "position") {
			return
		}

		if strings.EqualFold(position, "head coach") {
			if !hasHeadCoach() {
				addRecord(name, position, true)
			}
			return
		}
		addRecord(name, position, false)
	})

	return records, nil
}

// teamNameFromTitle extracts the school name from the page heading, e.g.
// "App State Mountaineers Coaching Staff" -> "App State".
func teamNameFromTitle(doc *goquery.Document, slug string) string {
	fallback := titleCase(strings.ReplaceAll(slug, "-", " "))

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if !strings.Contains(title, "Coaching Staff") {
		return fallback
	}
	name := strings.TrimSpace(strings.ReplaceAll(title, "Coaching Staff", ""))
	if stripped := strings.TrimSpace(trailingWord.ReplaceAllString(name, "")); stripped != "" {
		name = stripped
	}
	if name == "" {
		return fallback
	}
	return name
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
