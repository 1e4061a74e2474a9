// Package storage persists leaderboards and player settings, either as JSON
// files in the data folder or in a SQL database.
package storage

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/config"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/database"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/leaderboard"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/player"
)

// ErrNotFound is returned by ReadPlayer when no settings are stored.
var ErrNotFound = database.ErrPlayerNotFound

// Storage is implemented by the disk and database backends.
type Storage interface {
	leaderboard.Store

	ReadPlayer(id uuid.UUID) (*player.Settings, error)
	WritePlayer(s *player.Settings) error
	Close() error
}

// Open selects the backend named by cfg.Driver. dataDir is the root of the
// disk backend.
func Open(cfg config.StorageConfig, dataDir string) (Storage, error) {
	switch cfg.Driver {
	case "", "disk":
		return NewDisk(dataDir)
	case "sqlite", "postgres":
		db, err := database.OpenWithConfig(database.FromStorage(cfg))
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// LoadPlayer reads a player's settings, falling back to defaults for new
// players. The result is normalized.
func LoadPlayer(s Storage, id uuid.UUID, name, defaultStyle string) (*player.Settings, error) {
	settings, err := s.ReadPlayer(id)
	if errors.Is(err, ErrNotFound) {
		settings = player.Default(id, name)
	} else if err != nil {
		return nil, err
	}

	if name != "" {
		settings.Name = name
	}
	settings.Normalize(defaultStyle)
	return settings, nil
}
