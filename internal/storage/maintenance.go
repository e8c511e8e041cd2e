package storage

import (
	"fmt"
	"sort"
	"strings"
)

// MergeSchools repoints every coach at the removed school to the kept one
// and deletes the duplicate row, inside one transaction so a failure cannot
// leave two schools partially merged. Returns the number of coaches moved.
func (d *DB) MergeSchools(keepID, removeID int) (int, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`UPDATE coaches SET school_id = ? WHERE school_id = ?`, keepID, removeID)
	if err != nil {
		return 0, err
	}
	moved, _ := res.RowsAffected()

	if _, err := tx.Exec(`DELETE FROM schools WHERE id = ?`, removeID); err != nil {
		return 0, err
	}

	return int(moved), tx.Commit()
}

func (d *DB) CountCoachesAtSchool(schoolID int) (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM coaches WHERE school_id = ?`, schoolID).Scan(&n)
	return n, err
}

// CoachNameRow is the minimal projection the dedup pass works over.
type CoachNameRow struct {
	ID   int
	Name string
}

func (d *DB) ListCoachNames() ([]CoachNameRow, error) {
	rows, err := d.conn.Query(`SELECT id, name FROM coaches ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CoachNameRow
	for rows.Next() {
		var r CoachNameRow
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) RenameCoach(id int, name string) error {
	_, err := d.conn.Exec(`UPDATE coaches SET name = ? WHERE id = ?`, name, id)
	return err
}

// DuplicateGroup is a set of coach rows sharing (name, school, position,
// year). IDs come back in creation order so callers can keep the lowest id,
// the documented deterministic tie-break.
type DuplicateGroup struct {
	Name     string
	SchoolID int
	Position string
	IDs      []int
}

func (d *DB) DuplicateCoachGroups() ([]DuplicateGroup, error) {
	rows, err := d.conn.Query(`
SELECT name, school_id, COALESCE(position, ''), COALESCE(year, -1), GROUP_CONCAT(id)
FROM coaches
GROUP BY name, school_id, COALESCE(position, ''), COALESCE(year, -1)
HAVING COUNT(*) > 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DuplicateGroup
	for rows.Next() {
		var g DuplicateGroup
		var year int
		var ids string
		if err := rows.Scan(&g.Name, &g.SchoolID, &g.Position, &year, &ids); err != nil {
			return nil, err
		}
		for _, part := range strings.Split(ids, ",") {
			var id int
			if _, err := fmt.Sscanf(part, "%d", &id); err != nil {
				return nil, fmt.Errorf("bad id list %q: %w", ids, err)
			}
			g.IDs = append(g.IDs, id)
		}
		sort.Ints(g.IDs)
		out = append(out, g)
	}
	return out, rows.Err()
}

// DeleteCoaches removes the given rows and their salary observations in one
// transaction.
func (d *DB) DeleteCoaches(ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range ids {
		if _, err := tx.Exec(`DELETE FROM salaries WHERE coach_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM coaches WHERE id = ?`, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}
