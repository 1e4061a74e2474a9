package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/leaderboard"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/logger"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/player"
)

// leaderboardFile is the on-disk layout of leaderboards/<mode>.json.
type leaderboardFile struct {
	Serialized map[string]string `json:"serialized"`
}

// Disk stores everything as JSON under a data folder:
//
//	leaderboards/<mode>.json
//	players/<uuid>.json
type Disk struct {
	dir string
	mu  sync.Mutex
}

// NewDisk creates the folder layout under dir.
func NewDisk(dir string) (*Disk, error) {
	for _, sub := range []string{"leaderboards", "players"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s folder: %w", sub, err)
		}
	}
	return &Disk{dir: dir}, nil
}

func (d *Disk) leaderboardPath(mode string) string {
	return filepath.Join(d.dir, "leaderboards", strings.ToLower(mode)+".json")
}

func (d *Disk) playerPath(id uuid.UUID) string {
	return filepath.Join(d.dir, "players", id.String()+".json")
}

// ReadScores loads a mode's leaderboard. A missing file is an empty
// leaderboard; malformed entries are logged and skipped.
func (d *Disk) ReadScores(mode string) (map[uuid.UUID]leaderboard.Score, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	scores := make(map[uuid.UUID]leaderboard.Score)

	data, err := os.ReadFile(d.leaderboardPath(mode))
	if os.IsNotExist(err) {
		return scores, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard file: %w", err)
	}

	var file leaderboardFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse leaderboard file: %w", err)
	}

	for raw, serialized := range file.Serialized {
		id, err := uuid.Parse(raw)
		if err != nil {
			logger.Warning("Skipping leaderboard entry with invalid uuid", "mode", mode, "uuid", raw)
			continue
		}
		s, err := leaderboard.ParseScore(serialized)
		if err != nil {
			logger.Warning("Skipping malformed leaderboard entry", "mode", mode, "uuid", raw, "error", err)
			continue
		}
		scores[id] = s
	}

	return scores, nil
}

// WriteScores replaces a mode's leaderboard file.
func (d *Disk) WriteScores(mode string, scores map[uuid.UUID]leaderboard.Score) error {
	file := leaderboardFile{Serialized: make(map[string]string, len(scores))}
	for id, s := range scores {
		file.Serialized[id.String()] = s.String()
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return writeFile(d.leaderboardPath(mode), data)
}

// ReadPlayer loads a player's settings file.
func (d *Disk) ReadPlayer(id uuid.UUID) (*player.Settings, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := os.ReadFile(d.playerPath(id))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read player file: %w", err)
	}

	// Fields absent from older files keep their defaults.
	s := player.Default(id, "")
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse player file: %w", err)
	}
	s.ID = id
	return s, nil
}

// WritePlayer saves a player's settings file.
func (d *Disk) WritePlayer(s *player.Settings) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return writeFile(d.playerPath(s.ID), data)
}

// Modes lists the modes that have a leaderboard file.
func (d *Disk) Modes() ([]string, error) {
	names, err := d.list("leaderboards")
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

// Players lists the players that have a settings file. Files not named
// after a uuid are skipped.
func (d *Disk) Players() ([]uuid.UUID, error) {
	names, err := d.list("players")
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		if id, err := uuid.Parse(name); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// list returns the base names of the JSON files in a sub folder.
func (d *Disk) list(sub string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(d.dir, sub))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", sub, err)
	}
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".json"); ok && !e.IsDir() {
			names = append(names, name)
		}
	}
	return names, nil
}

// Close is a no-op for the disk backend.
func (d *Disk) Close() error {
	return nil
}

// writeFile writes through a temp file so readers never see a partial file.
func writeFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
