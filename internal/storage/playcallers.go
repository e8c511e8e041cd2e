package storage

import (
	"database/sql"
	"encoding/json"

	"coachdb/internal"
)

// SetPrimaryCaller overwrites the primary play-caller record for a
// (school, season). Used by the annual sweep only; incremental updates go
// through AppendPlayCallerChange instead.
func (d *DB) SetPrimaryCaller(rec internal.PlayCallerRecord) error {
	citations, _ := json.Marshal(rec.Citations)
	_, err := d.conn.Exec(`
INSERT INTO play_callers (school_id, season, primary_caller, primary_title, is_head_coach, confidence, citations, notes, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(school_id, season) DO UPDATE SET
  primary_caller=excluded.primary_caller,
  primary_title=excluded.primary_title,
  is_head_coach=excluded.is_head_coach,
  confidence=excluded.confidence,
  citations=excluded.citations,
  notes=excluded.notes,
  updated_at=CURRENT_TIMESTAMP`,
		rec.SchoolID, rec.Season, rec.PrimaryCaller, nullableString(rec.PrimaryTitle),
		boolToInt(rec.IsHeadCoach), rec.Confidence, string(citations), nullableString(rec.Notes))
	return err
}

func (d *DB) PrimaryCaller(schoolID, season int) (*internal.PlayCallerRecord, error) {
	row := d.conn.QueryRow(`
SELECT school_id, season, primary_caller, primary_title, is_head_coach, confidence, citations, notes, updated_at
FROM play_callers WHERE school_id = ? AND season = ?`, schoolID, season)

	var rec internal.PlayCallerRecord
	var title, citations, notes, updatedAt sql.NullString
	var hc int
	err := row.Scan(&rec.SchoolID, &rec.Season, &rec.PrimaryCaller, &title, &hc, &rec.Confidence, &citations, &notes, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.IsHeadCoach = hc != 0
	if title.Valid {
		rec.PrimaryTitle = &title.String
	}
	if notes.Valid {
		rec.Notes = &notes.String
	}
	if updatedAt.Valid {
		rec.UpdatedAt = &updatedAt.String
	}
	if citations.Valid && citations.String != "" {
		_ = json.Unmarshal([]byte(citations.String), &rec.Citations)
	}
	return &rec, nil
}

// AppendPlayCallerChange records a mid-season play-calling change without
// touching the primary record.
func (d *DB) AppendPlayCallerChange(change internal.PlayCallerChange) error {
	citations, _ := json.Marshal(change.Citations)
	_, err := d.conn.Exec(`
INSERT INTO play_caller_changes (school_id, season, new_caller, new_title, is_head_coach, effective_date, reason, confidence, citations)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		change.SchoolID, change.Season, change.NewCaller, nullableString(change.NewTitle),
		boolToInt(change.IsHeadCoach), nullableString(change.EffectiveDate),
		nullableString(change.Reason), change.Confidence, string(citations))
	return err
}

// HasPlayCallerChange reports whether the same caller change was already
// recorded for the season, so incremental runs stay idempotent.
func (d *DB) HasPlayCallerChange(schoolID, season int, newCaller string) (bool, error) {
	var id int
	err := d.conn.QueryRow(`
SELECT id FROM play_caller_changes
WHERE school_id = ? AND season = ? AND new_caller = ? LIMIT 1`,
		schoolID, season, newCaller).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkCoachPlayCaller flags one coach as the school's play caller and
// clears the flag on every other coach at the school.
func (d *DB) MarkCoachPlayCaller(schoolID, coachID int, source string) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`UPDATE coaches SET is_play_caller = 1, play_caller_source = ? WHERE id = ?`, source, coachID); err != nil {
		return err
	}
	if _, err := tx.Exec(`UPDATE coaches SET is_play_caller = 0 WHERE school_id = ? AND id != ? AND is_play_caller = 1`, schoolID, coachID); err != nil {
		return err
	}
	return tx.Commit()
}
