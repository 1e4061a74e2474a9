package database

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/leaderboard"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/logger"
)

// ReadScores returns every stored score for a mode. Rows with an
// unparseable uuid are skipped.
func (d *Database) ReadScores(mode string) (map[uuid.UUID]leaderboard.Score, error) {
	rows, err := d.db.Query(d.dialect.Rebind(`
		SELECT uuid, name, time, difficulty, score
		FROM scores WHERE mode = ?
	`), strings.ToLower(mode))
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	scores := make(map[uuid.UUID]leaderboard.Score)
	for rows.Next() {
		var raw string
		var s leaderboard.Score
		if err := rows.Scan(&raw, &s.Name, &s.Time, &s.Difficulty, &s.Score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			logger.Warning("Skipping score with invalid uuid", "mode", mode, "uuid", raw)
			continue
		}
		scores[id] = s
	}

	return scores, rows.Err()
}

// WriteScores replaces every stored score of a mode.
func (d *Database) WriteScores(mode string, scores map[uuid.UUID]leaderboard.Score) error {
	mode = strings.ToLower(mode)

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(d.dialect.Rebind(`DELETE FROM scores WHERE mode = ?`), mode); err != nil {
		return fmt.Errorf("failed to clear scores: %w", err)
	}

	stmt, err := tx.Prepare(d.dialect.Rebind(`
		INSERT INTO scores (mode, uuid, name, time, difficulty, score)
		VALUES (?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for id, s := range scores {
		if _, err := stmt.Exec(mode, id.String(), s.Name, s.Time, s.Difficulty, s.Score); err != nil {
			return fmt.Errorf("failed to insert score for %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// SaveScore upserts a single score without touching the rest of the mode.
func (d *Database) SaveScore(mode string, id uuid.UUID, s leaderboard.Score) error {
	query := d.dialect.Upsert("scores",
		[]string{"mode", "uuid"},
		[]string{"name", "time", "difficulty", "score"},
	)
	_, err := d.db.Exec(query, strings.ToLower(mode), id.String(), s.Name, s.Time, s.Difficulty, s.Score)
	if err != nil {
		return fmt.Errorf("failed to save score: %w", err)
	}
	return nil
}
