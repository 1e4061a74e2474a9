package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/player"
)

// ErrPlayerNotFound is returned when no settings row exists for a player.
var ErrPlayerNotFound = errors.New("player not found")

var playerColumns = []string{
	"name", "style", "block_lead", "particles", "sound",
	"use_score_difficulty", "use_schematic", "use_special_blocks", "schematic_difficulty",
	"show_fall_message", "show_scoreboard", "selected_time", "collected_rewards", "locale",
}

// ReadPlayer loads a player's settings.
func (d *Database) ReadPlayer(id uuid.UUID) (*player.Settings, error) {
	s := &player.Settings{ID: id}
	var collected string

	err := d.db.QueryRow(d.dialect.Rebind(`
		SELECT `+strings.Join(playerColumns, ", ")+`
		FROM players WHERE uuid = ?
	`), id.String()).Scan(
		&s.Name, &s.Style, &s.BlockLead, &s.Particles, &s.Sound,
		&s.UseScoreDifficulty, &s.UseSchematic, &s.UseSpecialBlocks, &s.SchematicDifficulty,
		&s.ShowFallMessage, &s.ShowScoreboard, &s.SelectedTime, &collected, &s.Locale,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query player: %w", err)
	}

	if collected != "" {
		s.CollectedRewards = strings.Split(collected, ",")
	}
	return s, nil
}

// WritePlayer inserts or updates a player's settings.
func (d *Database) WritePlayer(s *player.Settings) error {
	query := d.dialect.Upsert("players", []string{"uuid"}, playerColumns)
	_, err := d.db.Exec(query,
		s.ID.String(),
		s.Name, s.Style, s.BlockLead, s.Particles, s.Sound,
		s.UseScoreDifficulty, s.UseSchematic, s.UseSpecialBlocks, s.SchematicDifficulty,
		s.ShowFallMessage, s.ShowScoreboard, s.SelectedTime,
		strings.Join(s.CollectedRewards, ","), s.Locale,
	)
	if err != nil {
		return fmt.Errorf("failed to save player: %w", err)
	}
	return nil
}

// DeletePlayer removes a player's settings row.
func (d *Database) DeletePlayer(id uuid.UUID) error {
	_, err := d.db.Exec(d.dialect.Rebind(`DELETE FROM players WHERE uuid = ?`), id.String())
	return err
}
