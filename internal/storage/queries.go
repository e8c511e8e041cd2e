package storage

import (
	"database/sql"

	"coachdb/internal"
)

// resolvedSalaryJoin picks the single salary row that wins for a coach's own
// season: freshest source_date first, then highest id.
const resolvedSalaryJoin = `
LEFT JOIN salaries sal ON sal.id = (
    SELECT id
    FROM salaries s2
    WHERE s2.coach_id = c.id
      AND s2.year = c.year
    ORDER BY s2.year DESC, COALESCE(s2.source_date, '') DESC, s2.id DESC
    LIMIT 1
)`

// CoachView is a coach row with the resolved salary summary attached, the
// shape every read endpoint serves.
type CoachView struct {
	ID               int     `json:"id"`
	Name             string  `json:"name"`
	School           *string `json:"school"`
	SchoolSlug       *string `json:"school_slug"`
	Position         *string `json:"position"`
	IsHeadCoach      bool    `json:"is_head_coach"`
	Year             *int    `json:"year"`
	Conference       *string `json:"conference"`
	TotalPay         *int64  `json:"total_pay"`
	SalaryYear       *int    `json:"salary_year"`
	SalarySchoolPay  *int64  `json:"salary_school_pay"`
	SalarySource     *string `json:"salary_source"`
	SalarySourceDate *string `json:"salary_source_date"`
}

const coachViewSelect = `
SELECT c.id, c.name, s.name, s.slug, c.position, c.is_head_coach, c.year, conf.abbrev,
       sal.total_pay, sal.year, sal.school_pay, sal.source, sal.source_date
FROM coaches c
LEFT JOIN schools s ON c.school_id = s.id
LEFT JOIN conferences conf ON s.conference_id = conf.id` + resolvedSalaryJoin

// CoachFilter narrows ListCoaches. Year is required; zero filters are
// ignored.
type CoachFilter struct {
	Year     int
	School   string
	Position string
	HeadOnly bool
	Limit    int
}

func (d *DB) ListCoaches(filter CoachFilter) ([]CoachView, error) {
	query := coachViewSelect + ` WHERE c.year = ?`
	args := []any{filter.Year}

	if filter.School != "" {
		query += ` AND s.slug = ?`
		args = append(args, filter.School)
	}
	if filter.Position != "" {
		query += ` AND c.position LIKE ?`
		args = append(args, "%"+filter.Position+"%")
	}
	if filter.HeadOnly {
		query += ` AND c.is_head_coach = 1`
	}

	limit := filter.Limit
	if limit <= 0 || limit > 3000 {
		limit = 2500
	}
	query += ` ORDER BY c.is_head_coach DESC, COALESCE(sal.total_pay, 0) DESC, s.name ASC, c.name ASC LIMIT ?`
	args = append(args, limit)

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCoachViews(rows)
}

func (d *DB) CoachView(id int) (*CoachView, error) {
	rows, err := d.conn.Query(coachViewSelect+` WHERE c.id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views, err := scanCoachViews(rows)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, nil
	}
	return &views[0], nil
}

// CoachHistory returns every season row recorded under the coach's name,
// newest season first.
func (d *DB) CoachHistory(name string) ([]CoachView, error) {
	rows, err := d.conn.Query(coachViewSelect+`
WHERE c.name = ?
ORDER BY c.year DESC, c.is_head_coach DESC, COALESCE(s.name, '') ASC, c.name ASC`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCoachViews(rows)
}

// SchoolStaff lists one school's staff for a season with salaries attached.
func (d *DB) SchoolStaff(slug string, year int) ([]CoachView, error) {
	query := `
SELECT c.id, c.name, s.name, s.slug, c.position, c.is_head_coach, c.year, conf.abbrev,
       sal.total_pay, sal.year, sal.school_pay, sal.source, sal.source_date
FROM coaches c
JOIN schools s ON c.school_id = s.id
LEFT JOIN conferences conf ON s.conference_id = conf.id` + resolvedSalaryJoin + `
WHERE s.slug = ? AND c.year = ?
ORDER BY c.is_head_coach DESC, COALESCE(c.position, '') ASC, c.name ASC`

	rows, err := d.conn.Query(query, slug, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCoachViews(rows)
}

// SchoolSummary is the school list view: current head coach plus staff size.
type SchoolSummary struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Slug       string  `json:"slug"`
	Conference *string `json:"conference"`
	HeadCoach  *string `json:"head_coach"`
	StaffCount int     `json:"staff_count"`
}

func (d *DB) SchoolSummaries(year int, conference string, limit int) ([]SchoolSummary, error) {
	query := `
SELECT s.id, s.name, s.slug, conf.abbrev,
       (SELECT name FROM coaches WHERE school_id = s.id AND is_head_coach = 1 AND year = ? LIMIT 1),
       (SELECT COUNT(*) FROM coaches WHERE school_id = s.id AND year = ?)
FROM schools s
LEFT JOIN conferences conf ON s.conference_id = conf.id`
	args := []any{year, year}

	if conference != "" {
		query += ` WHERE conf.abbrev = ?`
		args = append(args, conference)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += ` ORDER BY s.name LIMIT ?`
	args = append(args, limit)

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []SchoolSummary{}
	for rows.Next() {
		var s SchoolSummary
		var conf, head sql.NullString
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug, &conf, &head, &s.StaffCount); err != nil {
			return nil, err
		}
		if conf.Valid {
			s.Conference = &conf.String
		}
		if head.Valid {
			s.HeadCoach = &head.String
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// SalaryView is the head-coach salary list entry.
type SalaryView struct {
	CoachName string `json:"coach_name"`
	School    string `json:"school"`
	TotalPay  *int64 `json:"total_pay"`
	SchoolPay *int64 `json:"school_pay"`
	MaxBonus  *int64 `json:"max_bonus"`
	Buyout    *int64 `json:"buyout"`
}

func (d *DB) HeadCoachSalaries(year int, minPay int64, conference string, limit int) ([]SalaryView, error) {
	query := `
SELECT c.name, s.name, sal.total_pay, sal.school_pay, sal.max_bonus, sal.buyout
FROM salaries sal
JOIN coaches c ON sal.coach_id = c.id
JOIN schools s ON c.school_id = s.id
LEFT JOIN conferences conf ON s.conference_id = conf.id
WHERE sal.year = ? AND c.year = ? AND c.is_head_coach = 1`
	args := []any{year, year}

	if minPay > 0 {
		query += ` AND sal.total_pay >= ?`
		args = append(args, minPay)
	}
	if conference != "" {
		query += ` AND conf.abbrev = ?`
		args = append(args, conference)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query += ` ORDER BY sal.total_pay DESC LIMIT ?`
	args = append(args, limit)

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := []SalaryView{}
	for rows.Next() {
		var v SalaryView
		var total, school, bonus, buyout sql.NullInt64
		if err := rows.Scan(&v.CoachName, &v.School, &total, &school, &bonus, &buyout); err != nil {
			return nil, err
		}
		v.TotalPay = nullInt64Ptr(total)
		v.SchoolPay = nullInt64Ptr(school)
		v.MaxBonus = nullInt64Ptr(bonus)
		v.Buyout = nullInt64Ptr(buyout)
		views = append(views, v)
	}
	return views, rows.Err()
}

// SearchHit is a coach name search result.
type SearchHit struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	School      *string `json:"school"`
	Position    *string `json:"position"`
	IsHeadCoach bool    `json:"is_head_coach"`
}

func (d *DB) SearchCoaches(q string, year, limit int) ([]SearchHit, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := d.conn.Query(`
SELECT c.id, c.name, s.name, c.position, c.is_head_coach
FROM coaches c
LEFT JOIN schools s ON c.school_id = s.id
WHERE c.name LIKE ? AND c.year = ?
ORDER BY c.is_head_coach DESC, c.name
LIMIT ?`, "%"+q+"%", year, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hits := []SearchHit{}
	for rows.Next() {
		var h SearchHit
		var school, position sql.NullString
		var hc int
		if err := rows.Scan(&h.ID, &h.Name, &school, &position, &hc); err != nil {
			return nil, err
		}
		h.IsHeadCoach = hc != 0
		if school.Valid {
			h.School = &school.String
		}
		if position.Valid {
			h.Position = &position.String
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Stats counts the season's rows.
type Stats struct {
	Year        int `json:"year"`
	Schools     int `json:"schools"`
	HeadCoaches int `json:"head_coaches"`
	Assistants  int `json:"assistants"`
	Salaries    int `json:"salaries"`
}

func (d *DB) SeasonStats(year int) (Stats, error) {
	stats := Stats{Year: year}
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM schools`, &stats.Schools},
		{`SELECT COUNT(*) FROM coaches WHERE is_head_coach = 1 AND year = ?`, &stats.HeadCoaches},
		{`SELECT COUNT(*) FROM coaches WHERE is_head_coach = 0 AND year = ?`, &stats.Assistants},
		{`SELECT COUNT(*) FROM salaries WHERE year = ?`, &stats.Salaries},
	}
	for i, c := range counts {
		var err error
		if i == 0 {
			err = d.conn.QueryRow(c.query).Scan(c.dest)
		} else {
			err = d.conn.QueryRow(c.query, year).Scan(c.dest)
		}
		if err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// CareerRows returns the deduped season rows behind a coach's timeline,
// oldest first.
func (d *DB) CareerRows(coachID int) ([]internal.CoachRow, error) {
	coach, err := d.CoachByID(coachID)
	if err != nil {
		return nil, err
	}
	if coach == nil {
		return nil, nil
	}
	return d.CoachRowsByName(coach.Name)
}

func scanCoachViews(rows *sql.Rows) ([]CoachView, error) {
	views := []CoachView{}
	for rows.Next() {
		var v CoachView
		var school, slug, position, conf, source, sourceDate sql.NullString
		var year, salaryYear sql.NullInt64
		var totalPay, schoolPay sql.NullInt64
		var hc int
		if err := rows.Scan(&v.ID, &v.Name, &school, &slug, &position, &hc, &year, &conf,
			&totalPay, &salaryYear, &schoolPay, &source, &sourceDate); err != nil {
			return nil, err
		}
		v.IsHeadCoach = hc != 0
		if school.Valid {
			v.School = &school.String
		}
		if slug.Valid {
			v.SchoolSlug = &slug.String
		}
		if position.Valid {
			v.Position = &position.String
		}
		if conf.Valid {
			v.Conference = &conf.String
		}
		if year.Valid {
			y := int(year.Int64)
			v.Year = &y
		}
		if salaryYear.Valid {
			y := int(salaryYear.Int64)
			v.SalaryYear = &y
		}
		v.TotalPay = nullInt64Ptr(totalPay)
		v.SalarySchoolPay = nullInt64Ptr(schoolPay)
		if source.Valid {
			v.SalarySource = &source.String
		}
		if sourceDate.Valid {
			v.SalarySourceDate = &sourceDate.String
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}
