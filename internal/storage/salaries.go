package storage

import (
	"database/sql"

	"coachdb/internal"
)

// UpsertSalary inserts one compensation observation, or updates the
// existing row when the identical source already reported for this
// (coach, year). Rows from other sources are never touched: the table is
// append-only per source, and the authoritative value is derived at read
// time.
func (d *DB) UpsertSalary(coachID, year int, source internal.SalarySource, amounts internal.SalaryAmounts, sourceDate *string) (inserted bool, err error) {
	var existingID int
	err = d.conn.QueryRow(`
SELECT id FROM salaries WHERE coach_id = ? AND year = ? AND source = ? LIMIT 1`,
		coachID, year, string(source)).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return false, err
	}

	if err == sql.ErrNoRows {
		_, err = d.conn.Exec(`
INSERT INTO salaries (coach_id, year, total_pay, school_pay, max_bonus, bonuses_paid, buyout, source, source_date)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			coachID, year,
			nullableInt64(amounts.TotalPay), nullableInt64(amounts.SchoolPay),
			nullableInt64(amounts.MaxBonus), nullableInt64(amounts.BonusesPaid),
			nullableInt64(amounts.Buyout), string(source), nullableString(sourceDate))
		return true, err
	}

	_, err = d.conn.Exec(`
UPDATE salaries
SET total_pay = ?, school_pay = ?, max_bonus = ?, bonuses_paid = ?, buyout = ?, source_date = ?
WHERE id = ?`,
		nullableInt64(amounts.TotalPay), nullableInt64(amounts.SchoolPay),
		nullableInt64(amounts.MaxBonus), nullableInt64(amounts.BonusesPaid),
		nullableInt64(amounts.Buyout), nullableString(sourceDate), existingID)
	return false, err
}

func (d *DB) SalaryExists(coachID, year int, source internal.SalarySource) (bool, error) {
	var one int
	err := d.conn.QueryRow(`
SELECT 1 FROM salaries WHERE coach_id = ? AND year = ? AND source = ? LIMIT 1`,
		coachID, year, string(source)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ResolvedSalary picks the authoritative row for a (coach, year): the most
// recent observation wins, insertion order as final tie-break. Source type
// does not hard-rank; a fresher media report can surface ahead of a stale
// payroll record.
func (d *DB) ResolvedSalary(coachID, year int) (*internal.SalaryRow, error) {
	row := d.conn.QueryRow(`
SELECT id, coach_id, year, total_pay, school_pay, max_bonus, bonuses_paid, buyout, source, source_date
FROM salaries
WHERE coach_id = ? AND year = ?
ORDER BY year DESC, COALESCE(source_date, '') DESC, id DESC
LIMIT 1`, coachID, year)
	return scanSalary(row)
}

func (d *DB) SalariesForCoach(coachID int) ([]internal.SalaryRow, error) {
	rows, err := d.conn.Query(`
SELECT id, coach_id, year, total_pay, school_pay, max_bonus, bonuses_paid, buyout, source, source_date
FROM salaries
WHERE coach_id = ?
ORDER BY year DESC, COALESCE(source_date, '') DESC, id DESC`, coachID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.SalaryRow
	for rows.Next() {
		s, err := scanSalaryRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSalary(row *sql.Row) (*internal.SalaryRow, error) {
	s, err := scanSalaryFrom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func scanSalaryRows(rows *sql.Rows) (*internal.SalaryRow, error) {
	return scanSalaryFrom(rows)
}

func scanSalaryFrom(sc rowScanner) (*internal.SalaryRow, error) {
	var s internal.SalaryRow
	var total, school, maxBonus, paid, buyout sql.NullInt64
	var source string
	var sourceDate sql.NullString
	if err := sc.Scan(&s.ID, &s.CoachID, &s.Year, &total, &school, &maxBonus, &paid, &buyout, &source, &sourceDate); err != nil {
		return nil, err
	}
	s.Source = internal.SalarySource(source)
	if total.Valid {
		s.Amounts.TotalPay = &total.Int64
	}
	if school.Valid {
		s.Amounts.SchoolPay = &school.Int64
	}
	if maxBonus.Valid {
		s.Amounts.MaxBonus = &maxBonus.Int64
	}
	if paid.Valid {
		s.Amounts.BonusesPaid = &paid.Int64
	}
	if buyout.Valid {
		s.Amounts.Buyout = &buyout.Int64
	}
	if sourceDate.Valid {
		s.SourceDate = &sourceDate.String
	}
	return &s, nil
}
