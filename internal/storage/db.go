package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"coachdb/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := conn.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS conferences (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  abbrev TEXT NOT NULL UNIQUE,
  name TEXT,
  division TEXT
);

CREATE TABLE IF NOT EXISTS schools (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  conference_id INTEGER,
  FOREIGN KEY(conference_id) REFERENCES conferences(id)
);
CREATE INDEX IF NOT EXISTS idx_schools_slug ON schools(slug);

CREATE TABLE IF NOT EXISTS coaches (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  school_id INTEGER NOT NULL,
  position TEXT,
  is_head_coach INTEGER NOT NULL DEFAULT 0,
  year INTEGER,
  is_play_caller INTEGER NOT NULL DEFAULT 0,
  play_caller_source TEXT,
  scraped_at TEXT,
  FOREIGN KEY(school_id) REFERENCES schools(id)
);
CREATE INDEX IF NOT EXISTS idx_coaches_school_year ON coaches(school_id, year);
CREATE INDEX IF NOT EXISTS idx_coaches_name ON coaches(name);

CREATE TABLE IF NOT EXISTS salaries (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  coach_id INTEGER NOT NULL,
  year INTEGER NOT NULL,
  total_pay INTEGER,
  school_pay INTEGER,
  max_bonus INTEGER,
  bonuses_paid INTEGER,
  buyout INTEGER,
  source TEXT NOT NULL,
  source_date TEXT,
  UNIQUE(coach_id, year, source),
  FOREIGN KEY(coach_id) REFERENCES coaches(id)
);
CREATE INDEX IF NOT EXISTS idx_salaries_coach_year ON salaries(coach_id, year);

CREATE TABLE IF NOT EXISTS play_callers (
  school_id INTEGER NOT NULL,
  season INTEGER NOT NULL,
  primary_caller TEXT NOT NULL,
  primary_title TEXT,
  is_head_coach INTEGER NOT NULL DEFAULT 0,
  confidence REAL NOT NULL DEFAULT 0,
  citations TEXT,
  notes TEXT,
  updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY(school_id, season),
  FOREIGN KEY(school_id) REFERENCES schools(id)
);

CREATE TABLE IF NOT EXISTS play_caller_changes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  school_id INTEGER NOT NULL,
  season INTEGER NOT NULL,
  new_caller TEXT NOT NULL,
  new_title TEXT,
  is_head_coach INTEGER NOT NULL DEFAULT 0,
  effective_date TEXT,
  reason TEXT,
  confidence REAL NOT NULL DEFAULT 0,
  citations TEXT,
  FOREIGN KEY(school_id) REFERENCES schools(id)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  trace_id TEXT NOT NULL,
  command TEXT NOT NULL,
  counts_json TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertConference(abbrev, name, division string) (int, error) {
	_, err := d.conn.Exec(`
INSERT INTO conferences (abbrev, name, division) VALUES (?, ?, ?)
ON CONFLICT(abbrev) DO UPDATE SET name=excluded.name, division=excluded.division
`, abbrev, name, division)
	if err != nil {
		return 0, err
	}
	var id int
	err = d.conn.QueryRow(`SELECT id FROM conferences WHERE abbrev = ?`, abbrev).Scan(&id)
	return id, err
}

func (d *DB) ConferenceID(abbrev string) (*int, error) {
	var id int
	err := d.conn.QueryRow(`SELECT id FROM conferences WHERE abbrev = ?`, abbrev).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (d *DB) SchoolBySlug(slug string) (*internal.SchoolRow, error) {
	return d.schoolQuery(`WHERE s.slug = ?`, slug)
}

func (d *DB) SchoolByName(name string) (*internal.SchoolRow, error) {
	return d.schoolQuery(`WHERE lower(s.name) = lower(?)`, name)
}

func (d *DB) schoolQuery(where string, arg any) (*internal.SchoolRow, error) {
	row := d.conn.QueryRow(`
SELECT s.id, s.name, s.slug, s.conference_id, c.abbrev
FROM schools s
LEFT JOIN conferences c ON s.conference_id = c.id
`+where+` LIMIT 1`, arg)

	var school internal.SchoolRow
	var confID sql.NullInt64
	var confAbbrev sql.NullString
	err := row.Scan(&school.ID, &school.Name, &school.Slug, &confID, &confAbbrev)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if confID.Valid {
		v := int(confID.Int64)
		school.ConferenceID = &v
	}
	if confAbbrev.Valid {
		school.Conference = &confAbbrev.String
	}
	return &school, nil
}

// Schools lists every school, optionally restricted to one conference
// abbreviation.
func (d *DB) Schools(conference string) ([]internal.SchoolRow, error) {
	query := `
SELECT s.id, s.name, s.slug, s.conference_id, c.abbrev
FROM schools s
LEFT JOIN conferences c ON s.conference_id = c.id`
	args := []any{}
	if conference != "" {
		query += ` WHERE c.abbrev = ?`
		args = append(args, conference)
	}
	query += ` ORDER BY s.name ASC`

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schools := []internal.SchoolRow{}
	for rows.Next() {
		var school internal.SchoolRow
		var confID sql.NullInt64
		var confAbbrev sql.NullString
		if err := rows.Scan(&school.ID, &school.Name, &school.Slug, &confID, &confAbbrev); err != nil {
			return nil, err
		}
		if confID.Valid {
			v := int(confID.Int64)
			school.ConferenceID = &v
		}
		if confAbbrev.Valid {
			school.Conference = &confAbbrev.String
		}
		schools = append(schools, school)
	}
	return schools, rows.Err()
}

// EnsureSchool returns the school with the given slug, creating it when
// first observed.
func (d *DB) EnsureSchool(name, slug string, conferenceID *int) (*internal.SchoolRow, error) {
	if strings.TrimSpace(slug) == "" {
		return nil, fmt.Errorf("empty school slug for %q", name)
	}
	if _, err := d.conn.Exec(`INSERT OR IGNORE INTO schools (name, slug, conference_id) VALUES (?, ?, ?)`,
		name, slug, nullableInt(conferenceID)); err != nil {
		return nil, err
	}
	return d.SchoolBySlug(slug)
}

func (d *DB) CoachesBySchoolYear(schoolID, year int) ([]internal.CoachRow, error) {
	rows, err := d.conn.Query(`
SELECT c.id, c.name, c.school_id, s.name, s.slug, conf.abbrev,
       c.position, c.is_head_coach, c.year, c.is_play_caller, c.scraped_at
FROM coaches c
JOIN schools s ON c.school_id = s.id
LEFT JOIN conferences conf ON s.conference_id = conf.id
WHERE c.school_id = ? AND c.year = ?
ORDER BY c.is_head_coach DESC, c.id ASC`, schoolID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCoaches(rows)
}

func (d *DB) CoachByID(id int) (*internal.CoachRow, error) {
	rows, err := d.conn.Query(`
SELECT c.id, c.name, c.school_id, s.name, s.slug, conf.abbrev,
       c.position, c.is_head_coach, c.year, c.is_play_caller, c.scraped_at
FROM coaches c
LEFT JOIN schools s ON c.school_id = s.id
LEFT JOIN conferences conf ON s.conference_id = conf.id
WHERE c.id = ? LIMIT 1`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out, err := scanCoaches(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return &out[0], nil
}

// CoachRowsByName returns every season row sharing a display name, the raw
// material for career timelines. Cross-year identity is inferred from the
// name, never stored.
func (d *DB) CoachRowsByName(name string) ([]internal.CoachRow, error) {
	rows, err := d.conn.Query(`
SELECT c.id, c.name, c.school_id, s.name, s.slug, conf.abbrev,
       c.position, c.is_head_coach, c.year, c.is_play_caller, c.scraped_at
FROM coaches c
LEFT JOIN schools s ON c.school_id = s.id
LEFT JOIN conferences conf ON s.conference_id = conf.id
WHERE c.name = ?
ORDER BY c.year ASC, COALESCE(s.name, '') ASC, COALESCE(c.position, '') ASC`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCoaches(rows)
}

func (d *DB) InsertCoach(name string, schoolID int, position *string, isHeadCoach bool, year *int, scrapedAt *string) (int, error) {
	res, err := d.conn.Exec(`
INSERT INTO coaches (name, school_id, position, is_head_coach, year, scraped_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		name, schoolID, nullableString(position), boolToInt(isHeadCoach), nullableInt(year), nullableString(scrapedAt))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func (d *DB) UpdateCoachPosition(id int, position string, isHeadCoach bool, scrapedAt *string) error {
	_, err := d.conn.Exec(`
UPDATE coaches SET position = ?, is_head_coach = ?, scraped_at = COALESCE(?, scraped_at)
WHERE id = ?`, position, boolToInt(isHeadCoach), nullableString(scrapedAt), id)
	return err
}

// Roster loads every (school, person) row for a season, for change
// detection.
func (d *DB) Roster(year int) ([]internal.RosterEntry, error) {
	rows, err := d.conn.Query(`
SELECT s.slug, s.name, c.name, COALESCE(c.position, ''), c.is_head_coach
FROM coaches c
JOIN schools s ON c.school_id = s.id
WHERE c.year = ?`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RosterEntry
	for rows.Next() {
		var e internal.RosterEntry
		var hc int
		if err := rows.Scan(&e.SchoolSlug, &e.School, &e.Name, &e.Position, &hc); err != nil {
			return nil, err
		}
		e.IsHeadCoach = hc != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func (d *DB) RecordRun(traceID, command string, counts map[string]int) error {
	blob, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (trace_id, command, counts_json) VALUES (?, ?, ?)`,
		traceID, command, string(blob))
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=CURRENT_TIMESTAMP`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (d *DB) LatestYear() (int, error) {
	var year sql.NullInt64
	err := d.conn.QueryRow(`SELECT MAX(year) FROM coaches WHERE year IS NOT NULL`).Scan(&year)
	if err != nil {
		return 0, err
	}
	if !year.Valid {
		return 0, fmt.Errorf("no season years loaded")
	}
	return int(year.Int64), nil
}

func (d *DB) Years() ([]int, error) {
	rows, err := d.conn.Query(`SELECT DISTINCT year FROM coaches WHERE year IS NOT NULL ORDER BY year DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

func scanCoaches(rows *sql.Rows) ([]internal.CoachRow, error) {
	var out []internal.CoachRow
	for rows.Next() {
		var c internal.CoachRow
		var schoolName, schoolSlug, conf, position, scrapedAt sql.NullString
		var year sql.NullInt64
		var hc, pc int
		if err := rows.Scan(&c.ID, &c.Name, &c.SchoolID, &schoolName, &schoolSlug, &conf,
			&position, &hc, &year, &pc, &scrapedAt); err != nil {
			return nil, err
		}
		c.School = schoolName.String
		c.SchoolSlug = schoolSlug.String
		if conf.Valid {
			c.Conference = &conf.String
		}
		if position.Valid {
			c.Position = &position.String
		}
		if year.Valid {
			v := int(year.Int64)
			c.Year = &v
		}
		if scrapedAt.Valid {
			c.ScrapedAt = &scrapedAt.String
		}
		c.IsHeadCoach = hc != 0
		c.IsPlayCaller = pc != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
