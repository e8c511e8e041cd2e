package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"coachdb/internal"
	"coachdb/internal/config"
	"coachdb/internal/ingest"
	"coachdb/internal/pipeline"
	"coachdb/internal/research"
	"coachdb/internal/storage"
)

// conferenceSeed mirrors the FBS landscape the scrapers report against.
var conferenceSeed = []struct {
	abbrev, name, division string
}{
	{"SEC", "Southeastern Conference", "FBS"},
	{"Big 10", "Big Ten Conference", "FBS"},
	{"Big 12", "Big 12 Conference", "FBS"},
	{"ACC", "Atlantic Coast Conference", "FBS"},
	{"Pac-12", "Pac-12 Conference", "FBS"},
	{"AAC", "American Athletic Conference", "FBS"},
	{"MWC", "Mountain West Conference", "FBS"},
	{"SBC", "Sun Belt Conference", "FBS"},
	{"MAC", "Mid-American Conference", "FBS"},
	{"CUSA", "Conference USA", "FBS"},
	{"IND", "FBS Independents", "FBS"},
}

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	aliases, err := config.LoadAliases(cfg.AliasPath)
	must(err)
	norm := pipeline.NewNormalizer(aliases)
	matcher := pipeline.NewMatcher(norm, pipeline.SequenceScorer{}, cfg.MatchThreshold)

	ctx := context.Background()
	traceID := uuid.NewString()
	cmd := os.Args[1]

	switch cmd {
	case "db:seed":
		for _, conf := range conferenceSeed {
			_, err := db.UpsertConference(conf.abbrev, conf.name, conf.division)
			must(err)
		}
		fmt.Printf("seeded %d conferences\n", len(conferenceSeed))

	case "staff:scrape":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		team := fs.String("team", "", "single team slug")
		year := fs.Int("year", time.Now().Year(), "season year")
		output := fs.String("output", "", "also save scraped staff to a JSON file")
		_ = fs.Parse(os.Args[2:])

		scraper, err := ingest.NewPressboxScraper(cfg)
		must(err)

		slugs := []string{*team}
		if *team == "" {
			slugs, err = scraper.TeamSlugs(ctx)
			must(err)
			fmt.Printf("found %d teams\n", len(slugs))
		}

		loader := pipeline.NewRosterLoader(db, matcher, norm)
		all := []internal.StaffRecord{}
		counts := map[internal.MatchOutcome]int{}
		for _, slug := range slugs {
			records, err := scraper.ScrapeTeam(ctx, slug)
			if err != nil {
				fmt.Printf("  %s: %v\n", slug, err)
				counts[internal.OutcomeError]++
				continue
			}
			fmt.Printf("  %s: %d coaches\n", slug, len(records))
			all = append(all, records...)
			for outcome, n := range loader.LoadAll(records, *year) {
				counts[outcome] += n
			}
		}
		if *output != "" {
			must(ingest.SaveStaffFile(*output, "collegepressbox", all))
		}
		recordRun(db, traceID, cmd, outcomeCounts(counts))
		printOutcomes(counts)

	case "staff:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "staff JSON file")
		year := fs.Int("year", time.Now().Year(), "season year")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}

		records, err := ingest.LoadStaffFile(*input)
		must(err)
		loader := pipeline.NewRosterLoader(db, matcher, norm)
		counts := loader.LoadAll(records, *year)
		recordRun(db, traceID, cmd, outcomeCounts(counts))
		printOutcomes(counts)

	case "salary:usatoday":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		year := fs.Int("year", time.Now().Year(), "season year to write rows for")
		_ = fs.Parse(os.Args[2:])

		scraper := ingest.NewUSATodayScraper(cfg)
		table, err := scraper.Scrape(ctx)
		must(err)
		fmt.Printf("scraped %d salary rows\n", len(table))

		rows := make([]pipeline.HeadCoachSalaryRow, 0, len(table))
		for _, row := range table {
			rows = append(rows, pipeline.HeadCoachSalaryRow{
				Coach:      row.Coach,
				School:     row.School,
				Conference: row.Conference,
				Amounts:    row.Amounts(),
			})
		}
		importer := pipeline.NewSalaryImporter(db, matcher, norm)
		counts, err := importer.ImportSurvey(rows, *year, internal.SourceUSAToday, today())
		must(err)
		recordRun(db, traceID, cmd, counts.Map())
		fmt.Printf("usa today import year=%d inserted=%d updated=%d skipped=%d\n",
			*year, counts.Inserted, counts.Updated, counts.Skipped)

	case "salary:state":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		action := fs.String("action", "match", "download|import|match")
		state := fs.String("state", "", "state abbreviation, e.g. TX")
		states := fs.String("states", "TX,FL,OH,CA,MI,PA", "states to match against")
		csvPath := fs.String("csv", "", "manually downloaded CSV (action=import)")
		year := fs.Int("year", time.Now().Year(), "roster season year")
		output := fs.String("output", "", "match output file")
		keepAll := fs.Bool("keep-all", false, "keep non-coach titles when downloading")
		force := fs.Bool("force", false, "overwrite existing downloads")
		_ = fs.Parse(os.Args[2:])

		stateDir := filepath.Join(cfg.DataDir, "state_salaries")
		switch *action {
		case "download":
			if *state == "" {
				must(fmt.Errorf("--state is required"))
			}
			fetcher := ingest.NewFetcher(cfg.ScrapeTimeoutMs, cfg.ScrapeDelayMs, "")
			path, err := ingest.DownloadState(ctx, fetcher, *state, stateDir, *keepAll, *force)
			must(err)
			fmt.Printf("saved %s salaries to %s\n", strings.ToUpper(*state), path)
		case "import":
			if *state == "" || *csvPath == "" {
				must(fmt.Errorf("--state and --csv are required"))
			}
			path, err := ingest.ImportManualState(*state, *csvPath, stateDir)
			must(err)
			fmt.Printf("imported %s salaries to %s\n", strings.ToUpper(*state), path)
		case "match":
			roster, err := db.Roster(*year)
			must(err)
			loaded := map[string][]ingest.StateRecord{}
			names := []string{}
			for _, st := range strings.Split(*states, ",") {
				st = strings.ToUpper(strings.TrimSpace(st))
				if st == "" {
					continue
				}
				records, err := ingest.LoadStateRecords(stateDir, st)
				if err != nil {
					fmt.Printf("  %s: not loaded (%v)\n", st, err)
					continue
				}
				loaded[st] = records
				names = append(names, st)
			}
			matches, unmatched := ingest.MatchStateSalaries(roster, loaded, cfg.StateMatchThreshold)
			out := *output
			if out == "" {
				out = filepath.Join(cfg.DataDir, "state_salary_matches.json")
			}
			must(ingest.SaveMatchFile(out, names, len(roster), matches, unmatched))
			recordRun(db, traceID, cmd, map[string]int{"matched": len(matches), "unmatched": len(unmatched)})
			fmt.Printf("matched %d coaches (%d unmatched), output: %s\n", len(matches), len(unmatched), out)
		default:
			must(fmt.Errorf("unsupported action: %s", *action))
		}

	case "salary:import":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		matchesPath := fs.String("matches", "", "state salary matches JSON")
		mediaPath := fs.String("media", "", "media reports JSON")
		year := fs.Int("year", time.Now().Year(), "default salary year")
		allPositions := fs.Bool("all-positions", false, "import beyond coordinators")
		keepMedia := fs.Bool("keep-media", false, "write media rows even when payroll rows exist")
		_ = fs.Parse(os.Args[2:])
		if *matchesPath == "" && *mediaPath == "" {
			must(fmt.Errorf("--matches or --media is required"))
		}

		importer := pipeline.NewSalaryImporter(db, matcher, norm)
		policy := pipeline.SalaryImportPolicy{
			MediaYear:           *year,
			IncludeAllPositions: *allPositions,
			KeepMediaWhenState:  *keepMedia,
		}

		if *matchesPath != "" {
			file, err := ingest.LoadMatchFile(*matchesPath)
			must(err)
			counts, err := importer.ImportState(file.Matches, *year, policy, today())
			must(err)
			recordRun(db, traceID, cmd+":state", counts.Map())
			fmt.Printf("state import inserted=%d updated=%d skipped=%d unresolved=%d\n",
				counts.Inserted, counts.Updated, counts.Skipped, counts.Unresolved)
		}
		if *mediaPath != "" {
			reports, err := ingest.LoadMediaReports(*mediaPath)
			must(err)
			counts, err := importer.ImportMedia(reports, policy)
			must(err)
			recordRun(db, traceID, cmd+":media", counts.Map())
			fmt.Printf("media import inserted=%d updated=%d skipped=%d unresolved=%d\n",
				counts.Inserted, counts.Updated, counts.Skipped, counts.Unresolved)
		}

	case "media:enrich":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		year := fs.Int("year", time.Now().Year(), "roster season year")
		output := fs.String("output", "", "media reports output file")
		maxCoaches := fs.Int("max-coaches", 200, "maximum coaches to search")
		maxResults := fs.Int("max-results", 8, "search results per query")
		domains := fs.String("domains", "", "comma-separated allowed domains")
		allowEdu := fs.Bool("allow-edu", false, "allow .edu press releases")
		allPositions := fs.Bool("all-positions", false, "search beyond coordinators")
		resume := fs.Bool("resume", false, "skip coaches already in the output file")
		_ = fs.Parse(os.Args[2:])

		search, err := ingest.NewBraveClient(cfg)
		must(err)

		roster, err := db.Roster(*year)
		must(err)
		if !*allPositions {
			filtered := roster[:0]
			for _, entry := range roster {
				if strings.Contains(strings.ToLower(entry.Position), "coordinator") {
					filtered = append(filtered, entry)
				}
			}
			roster = filtered
		}

		var allowedDomains []string
		if *domains != "" {
			for _, d := range strings.Split(*domains, ",") {
				if d = strings.TrimSpace(d); d != "" {
					allowedDomains = append(allowedDomains, d)
				}
			}
		}

		out := *output
		if out == "" {
			out = filepath.Join(cfg.DataDir, "media_reports.json")
		}
		var prior []internal.MediaSalaryReport
		if *resume {
			prior, err = ingest.LoadMediaReports(out)
			must(err)
		}

		enricher := ingest.NewMediaEnricher(search, cfg, allowedDomains, *allowEdu, *maxResults)
		reports, err := enricher.EnrichAll(ctx, roster, prior, *maxCoaches)
		if err != nil {
			fmt.Printf("  enrichment stopped early: %v\n", err)
		}
		must(ingest.SaveMediaReports(out, allowedDomains, reports))
		recordRun(db, traceID, cmd, map[string]int{"reports": len(reports)})
		fmt.Printf("saved %d reports to %s\n", len(reports), out)

	case "changes:diff":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		from := fs.Int("from", 0, "base season year")
		to := fs.Int("to", 0, "target season year")
		_ = fs.Parse(os.Args[2:])
		if *from == 0 || *to == 0 {
			must(fmt.Errorf("--from and --to are required"))
		}

		fromRoster, err := db.Roster(*from)
		must(err)
		toRoster, err := db.Roster(*to)
		must(err)
		changes := pipeline.DetectChanges(fromRoster, toRoster)
		printJSON(changes)
		fmt.Printf("\nhires=%d departures=%d promotions=%d moves=%d\n",
			len(changes.NewHires), len(changes.Departures), len(changes.Promotions), len(changes.Moves))

	case "career":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		coachID := fs.Int("coach-id", 0, "coach row id")
		name := fs.String("name", "", "coach name")
		_ = fs.Parse(os.Args[2:])

		var rows []internal.CoachRow
		switch {
		case *coachID != 0:
			rows, err = db.CareerRows(*coachID)
			must(err)
			if rows == nil {
				must(fmt.Errorf("coach %d not found", *coachID))
			}
		case *name != "":
			rows, err = db.CoachRowsByName(*name)
			must(err)
		default:
			must(fmt.Errorf("--coach-id or --name is required"))
		}
		printJSON(pipeline.BuildCareer(rows))

	case "dedup:fix":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		apply := fs.Bool("apply", false, "write changes (default is dry run)")
		_ = fs.Parse(os.Args[2:])

		if !*apply {
			fmt.Println("dry run (use --apply to write changes)")
		}
		deduper := pipeline.NewDeduper(db, aliases)
		report, err := deduper.Run(*apply)
		must(err)
		recordRun(db, traceID, cmd, map[string]int{
			"schools_merged": report.SchoolsMerged,
			"coaches_moved":  report.CoachesMoved,
			"names_repaired": report.NamesRepaired,
			"rows_removed":   report.RowsRemoved,
		})
		fmt.Printf("schools merged=%d coaches moved=%d names repaired=%d duplicate rows removed=%d\n",
			report.SchoolsMerged, report.CoachesMoved, report.NamesRepaired, report.RowsRemoved)

	case "playcaller:sweep", "playcaller:update":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		year := fs.Int("year", time.Now().Year(), "season year")
		conference := fs.String("conference", "", "limit to one conference abbrev")
		team := fs.String("team", "", "limit to one school slug")
		apply := fs.Bool("apply", false, "write results (default is dry run)")
		_ = fs.Parse(os.Args[2:])

		client, err := research.NewClient(cfg)
		must(err)
		researcher := research.NewResearcher(client, db, cfg)

		var schools []internal.SchoolRow
		if *team != "" {
			school, err := db.SchoolBySlug(*team)
			must(err)
			if school == nil {
				must(fmt.Errorf("school %q not found", *team))
			}
			schools = []internal.SchoolRow{*school}
		} else {
			schools, err = db.Schools(*conference)
			must(err)
		}
		fmt.Printf("researching %d teams for %d\n", len(schools), *year)
		if !*apply {
			fmt.Println("dry run (use --apply to write results)")
		}

		var findings []research.Finding
		if cmd == "playcaller:sweep" {
			findings, err = researcher.Sweep(ctx, schools, *year, *apply)
		} else {
			findings, err = researcher.Incremental(ctx, schools, *year, *apply)
		}
		must(err)
		recordRun(db, traceID, cmd, map[string]int{"teams": len(schools), "findings": len(findings)})

	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		year := fs.Int("year", time.Now().Year(), "season year")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])

		path := *out
		if path == "" {
			path = filepath.Join(cfg.OutputDir, fmt.Sprintf("salaries_%d.xlsx", *year))
		}
		rows, err := pipeline.BuildSalaryReport(db, *year)
		must(err)
		if len(rows) == 0 {
			must(fmt.Errorf("no coaches on record for %d", *year))
		}
		must(pipeline.ExportSalariesToXLSX(rows, *year, path))
		fmt.Printf("exported %d rows to %s\n", len(rows), path)

	default:
		usage()
		os.Exit(1)
	}
}

func outcomeCounts(counts map[internal.MatchOutcome]int) map[string]int {
	out := make(map[string]int, len(counts))
	for outcome, n := range counts {
		out[string(outcome)] = n
	}
	return out
}

func recordRun(db *storage.DB, traceID, command string, counts map[string]int) {
	if err := db.RecordRun(traceID, command, counts); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to record run: %v\n", err)
	}
}

func printOutcomes(counts map[internal.MatchOutcome]int) {
	fmt.Printf("matched=%d created=%d skipped=%d errors=%d\n",
		counts[internal.OutcomeMatched], counts[internal.OutcomeCreated],
		counts[internal.OutcomeSkipped], counts[internal.OutcomeError])
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	must(err)
	fmt.Println(string(data))
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func usage() {
	fmt.Println("usage: coachdb <command>")
	fmt.Println("commands:")
	fmt.Println("  db:seed")
	fmt.Println("  staff:scrape [--team=slug] [--year=2026] [--output=data/staff.json]")
	fmt.Println("  staff:import --input=data/staff.json [--year=2026]")
	fmt.Println("  salary:usatoday [--year=2026]")
	fmt.Println("  salary:state --action=download|import|match [--state=TX] [--csv=...] [--states=TX,FL] [--year=2026]")
	fmt.Println("  salary:import [--matches=...json] [--media=...json] [--year=2026] [--all-positions] [--keep-media]")
	fmt.Println("  media:enrich [--year=2026] [--max-coaches=200] [--resume] [--allow-edu]")
	fmt.Println("  changes:diff --from=2025 --to=2026")
	fmt.Println("  career --coach-id=123 | --name=\"Jon Smith\"")
	fmt.Println("  dedup:fix [--apply]")
	fmt.Println("  playcaller:sweep [--year=2026] [--conference=SEC] [--team=slug] [--apply]")
	fmt.Println("  playcaller:update [--year=2026] [--conference=SEC] [--team=slug] [--apply]")
	fmt.Println("  export:xlsx [--year=2026] [--out=out/salaries.xlsx]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
