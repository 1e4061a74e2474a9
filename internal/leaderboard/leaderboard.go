package leaderboard

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/logger"
)

// Store persists leaderboards. Implementations live in the storage and
// database packages.
type Store interface {
	ReadScores(mode string) (map[uuid.UUID]Score, error)
	WriteScores(mode string, scores map[uuid.UUID]Score) error
}

// Entry is a ranked leaderboard row.
type Entry struct {
	Rank  int
	ID    uuid.UUID
	Score Score
}

// Leaderboard holds the best score per player for one mode.
type Leaderboard struct {
	mode   string
	store  Store
	scores map[uuid.UUID]Score
	mu     sync.RWMutex
}

// New creates an empty leaderboard. Call Load to fill it from the store.
func New(mode string, store Store) *Leaderboard {
	return &Leaderboard{
		mode:   strings.ToLower(mode),
		store:  store,
		scores: make(map[uuid.UUID]Score),
	}
}

// Mode returns the leaderboard's mode name.
func (l *Leaderboard) Mode() string {
	return l.mode
}

// Load replaces the in-memory scores with the stored ones.
func (l *Leaderboard) Load() error {
	scores, err := l.store.ReadScores(l.mode)
	if err != nil {
		return fmt.Errorf("failed to read leaderboard %s: %w", l.mode, err)
	}
	if scores == nil {
		scores = make(map[uuid.UUID]Score)
	}

	l.mu.Lock()
	l.scores = scores
	l.mu.Unlock()

	logger.Info("Loaded leaderboard", "mode", l.mode, "scores", len(scores))
	return nil
}

// Write saves the scores to the store.
func (l *Leaderboard) Write() error {
	l.mu.RLock()
	scores := make(map[uuid.UUID]Score, len(l.scores))
	for id, s := range l.scores {
		scores[id] = s
	}
	l.mu.RUnlock()

	if err := l.store.WriteScores(l.mode, scores); err != nil {
		return fmt.Errorf("failed to write leaderboard %s: %w", l.mode, err)
	}
	return nil
}

// Put records a score if it beats the player's current best. It reports
// whether the leaderboard changed.
func (l *Leaderboard) Put(id uuid.UUID, s Score) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if old, ok := l.scores[id]; ok && old.Score >= s.Score {
		return false
	}
	l.scores[id] = s
	return true
}

// Get returns a player's best score.
func (l *Leaderboard) Get(id uuid.UUID) (Score, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.scores[id]
	return s, ok
}

// Reset removes a player's score.
func (l *Leaderboard) Reset(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.scores, id)
}

// Len returns the number of players on the leaderboard.
func (l *Leaderboard) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.scores)
}

// Rank returns the player's 1-based position, or 0 if they have no score.
func (l *Leaderboard) Rank(id uuid.UUID) int {
	for _, e := range l.sorted() {
		if e.ID == id {
			return e.Rank
		}
	}
	return 0
}

// Top returns the best n entries. n <= 0 returns every entry.
func (l *Leaderboard) Top(n int) []Entry {
	entries := l.sorted()
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// sorted orders by score, highest first, then by name and id so ties are
// stable.
func (l *Leaderboard) sorted() []Entry {
	l.mu.RLock()
	entries := make([]Entry, 0, len(l.scores))
	for id, s := range l.scores {
		entries = append(entries, Entry{ID: id, Score: s})
	}
	l.mu.RUnlock()

	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Or(
			cmp.Compare(b.Score.Score, a.Score.Score),
			strings.Compare(a.Score.Name, b.Score.Name),
			strings.Compare(a.ID.String(), b.ID.String()),
		)
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
