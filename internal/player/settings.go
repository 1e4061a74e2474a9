// Package player holds the per-player parkour settings that are persisted
// between runs.
package player

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/generator"
)

// Block lead bounds.
const (
	MinBlockLead     = 1
	MaxBlockLead     = 10
	DefaultBlockLead = 4
)

// Schematic difficulty presets offered to players.
const (
	SchematicEasy   = 0.2
	SchematicMedium = 0.5
	SchematicHard   = 0.7
	SchematicExpert = 0.8
)

// Settings are one player's preferences. The JSON names match the player
// files written by earlier versions.
type Settings struct {
	ID   uuid.UUID `json:"uuid"`
	Name string    `json:"name"`

	Style     string `json:"style"`
	BlockLead int    `json:"blockLead"`
	Particles bool   `json:"particles"`
	Sound     bool   `json:"sound"`

	UseScoreDifficulty  bool    `json:"useScoreDifficulty"`
	UseSchematic        bool    `json:"useSchematic"`
	UseSpecialBlocks    bool    `json:"useSpecialBlocks"`
	SchematicDifficulty float64 `json:"schematicDifficulty"`

	ShowFallMessage bool `json:"showFallMessage"`
	ShowScoreboard  bool `json:"showScoreboard"`

	// SelectedTime is the in-game time of day shown to the player, in ticks.
	SelectedTime int `json:"selectedTime"`

	// CollectedRewards lists the one-time reward scores already paid out.
	CollectedRewards []string `json:"collectedRewards"`

	Locale string `json:"_locale"`
}

// Default returns the settings given to a player with no saved file.
func Default(id uuid.UUID, name string) *Settings {
	return &Settings{
		ID:                  id,
		Name:                name,
		BlockLead:           DefaultBlockLead,
		Particles:           true,
		Sound:               true,
		UseScoreDifficulty:  false,
		UseSchematic:        true,
		UseSpecialBlocks:    true,
		SchematicDifficulty: SchematicEasy,
		ShowFallMessage:     true,
		ShowScoreboard:      true,
		SelectedTime:        6000,
		Locale:              "en",
	}
}

// Normalize clamps out-of-range values loaded from storage.
func (s *Settings) Normalize(defaultStyle string) {
	s.BlockLead = min(max(s.BlockLead, MinBlockLead), MaxBlockLead)
	if s.SchematicDifficulty <= 0 || s.SchematicDifficulty > 1 {
		s.SchematicDifficulty = SchematicEasy
	}
	if strings.TrimSpace(s.Style) == "" {
		s.Style = defaultStyle
	}
	if s.Locale == "" {
		s.Locale = "en"
	}
	if s.SelectedTime < 0 || s.SelectedTime >= 24000 {
		s.SelectedTime = 6000
	}
}

// Options maps the settings to generator options.
func (s *Settings) Options() generator.Options {
	return generator.Options{
		Adaptive:            s.UseScoreDifficulty,
		DisableSchematics:   !s.UseSchematic,
		DisableSpecial:      !s.UseSpecialBlocks,
		SchematicDifficulty: s.SchematicDifficulty,
		Style:               s.Style,
	}
}

// HasCollected reports whether a one-time reward was already paid.
func (s *Settings) HasCollected(key string) bool {
	return slices.Contains(s.CollectedRewards, key)
}

// Collect records a one-time reward. It returns false if it was already
// collected.
func (s *Settings) Collect(key string) bool {
	if s.HasCollected(key) {
		return false
	}
	s.CollectedRewards = append(s.CollectedRewards, key)
	return true
}
