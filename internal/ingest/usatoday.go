package ingest

import (
	"bytes"
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"coachdb/internal"
	"coachdb/internal/config"
)

// USATodayRow is one row of the head-coach salary table: every pay column is
// nullable because the table renders "-" for undisclosed figures.
type USATodayRow struct {
	Rank        int
	Coach       string
	School      string
	Conference  string
	TotalPay    *int64
	SchoolPay   *int64
	MaxBonus    *int64
	BonusesPaid *int64
	Buyout      *int64
}

func (r USATodayRow) Amounts() internal.SalaryAmounts {
	return internal.SalaryAmounts{
		TotalPay:    r.TotalPay,
		SchoolPay:   r.SchoolPay,
		MaxBonus:    r.MaxBonus,
		BonusesPaid: r.BonusesPaid,
		Buyout:      r.Buyout,
	}
}

type USATodayScraper struct {
	url     string
	fetcher *Fetcher
}

func NewUSATodayScraper(cfg config.Config) *USATodayScraper {
	return &USATodayScraper{
		url:     cfg.USATodayURL,
		fetcher: NewFetcher(cfg.ScrapeTimeoutMs, cfg.ScrapeDelayMs, ""),
	}
}

func (u *USATodayScraper) Scrape(ctx context.Context) ([]USATodayRow, error) {
	body, err := u.fetcher.Get(ctx, u.url)
	if err != nil {
		return nil, err
	}
	return ParseUSATodayTable(body)
}

// ParseUSATodayTable reads the nine-column salary table:
// rank, coach, school, total pay, conference, school pay, max bonus,
// bonuses paid, buyout.
func ParseUSATodayTable(body []byte) ([]USATodayRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	rows := []USATodayRow{}
	doc.Find("table tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 9 {
			return
		}
		text := func(i int) string { return strings.TrimSpace(cells.Eq(i).Text()) }

		coach := text(1)
		school := text(2)
		if coach == "" || school == "" {
			return
		}

		rank, _ := strconv.Atoi(text(0))
		rows = append(rows, USATodayRow{
			Rank:        rank,
			Coach:       coach,
			School:      school,
			Conference:  text(4),
			TotalPay:    parseCurrency(text(3)),
			SchoolPay:   parseCurrency(text(5)),
			MaxBonus:    parseCurrency(text(6)),
			BonusesPaid: parseCurrency(text(7)),
			Buyout:      parseCurrency(text(8)),
		})
	})

	return rows, nil
}

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// parseCurrency turns "$10,500,000" into 10500000. "-" and empty cells mean
// the figure was not disclosed, so nil, never zero.
func parseCurrency(text string) *int64 {
	if text == "" || text == "-" {
		return nil
	}
	cleaned := nonNumeric.ReplaceAllString(text, "")
	if cleaned == "" {
		return nil
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	v := int64(f)
	return &v
}
