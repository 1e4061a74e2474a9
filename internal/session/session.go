// Package session runs parkour sessions: one player, one island and one
// generator per session.
package session

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/config"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/generator"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/leaderboard"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/logger"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/player"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/reward"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/schematic"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/storage"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/world"
)

var (
	ErrJoiningDisabled = errors.New("session: joining is disabled")
	ErrAlreadyPlaying  = errors.New("session: player already has a run")
	ErrNotPlaying      = errors.New("session: player has no run")
	ErrNoBlockAhead    = errors.New("session: no block ahead of the player")
)

// maxAttempts bounds the generator calls spent on each missing lead block.
const maxAttempts = 10

// Feed receives finished runs in addition to score events. *feed.Hub
// implements it.
type Feed interface {
	generator.ScoreSink
	RunFinished(player uuid.UUID, s leaderboard.Score, best bool)
}

// scoreSaver is a store that can record one score without rewriting the
// whole leaderboard. *database.Database implements it.
type scoreSaver interface {
	SaveScore(mode string, id uuid.UUID, s leaderboard.Score) error
}

// Deps are the shared services a Manager runs sessions against.
type Deps struct {
	World   *world.World
	Divider *world.Divider
	Pool    *schematic.Pool
	Storage storage.Storage
	Board   *leaderboard.Leaderboard
	Rewards *reward.Tracker
	// Feed is optional.
	Feed Feed
}

// Options configure a Manager.
type Options struct {
	Joining bool
	// Spawn names the island schematic in the pool.
	Spawn string
	// TrailBehind is the number of jumps kept behind the player.
	TrailBehind int
	// Seed seeds the generators. Zero seeds from the clock.
	Seed int64
}

// Session is one player's run.
type Session struct {
	ID       string
	Player   uuid.UUID
	Settings *player.Settings
	Island   *generator.Island

	gen     *generator.Generator
	started time.Time

	// generated is the generator's score, kept by its score sink.
	generated atomic.Int64

	mu     sync.Mutex
	landed int
}

// Ahead returns the number of generated blocks the player has not reached.
func (s *Session) Ahead() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ahead()
}

func (s *Session) ahead() int {
	return int(s.generated.Load()) - s.landed
}

// Score returns the number of blocks the player has landed on.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.landed
}

// Generator returns the session's course generator.
func (s *Session) Generator() *generator.Generator {
	return s.gen
}

// Result summarizes an ended run.
type Result struct {
	Player   uuid.UUID
	Score    leaderboard.Score
	Duration time.Duration
	// Best reports whether the run improved the player's leaderboard entry.
	Best bool
	Rank int
}

// Manager owns every running session.
type Manager struct {
	deps Deps
	opts Options

	sinks []generator.ScoreSink
	now   func() time.Time

	mu       sync.Mutex
	gen      *config.Generation
	placer   *generator.Placer
	joining  bool
	rng      *rand.Rand
	sessions map[uuid.UUID]*Session
}

// NewManager creates a manager. gen must already be validated.
func NewManager(gen *config.Generation, deps Deps, opts Options) *Manager {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.TrailBehind < 0 {
		opts.TrailBehind = 0
	}

	m := &Manager{
		deps:     deps,
		opts:     opts,
		gen:      gen,
		placer:   generator.NewPlacer(deps.World, deps.Divider, gen),
		now:      time.Now,
		joining:  opts.Joining,
		rng:      rand.New(rand.NewSource(seed)),
		sessions: make(map[uuid.UUID]*Session),
	}
	if deps.Rewards != nil {
		m.sinks = append(m.sinks, deps.Rewards)
	}
	if deps.Feed != nil {
		m.sinks = append(m.sinks, deps.Feed)
	}
	return m
}

// SetJoining enables or disables new runs. Running sessions continue.
func (m *Manager) SetJoining(joining bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.joining = joining
}

// Get returns a player's session.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Count returns the number of running sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s != nil {
			n++
		}
	}
	return n
}

// Join starts a run: it allocates a region, pastes the spawn island and
// generates the player's block lead.
func (m *Manager) Join(id uuid.UUID, name string) (*Session, error) {
	m.mu.Lock()
	if !m.joining {
		m.mu.Unlock()
		return nil, ErrJoiningDisabled
	}
	if _, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return nil, ErrAlreadyPlaying
	}
	rng := rand.New(rand.NewSource(m.rng.Int63()))
	gen, placer := m.gen, m.placer
	// reserve the slot so concurrent joins for the same player fail
	m.sessions[id] = nil
	m.mu.Unlock()

	s, err := m.start(id, name, rng, gen, placer)

	m.mu.Lock()
	if err != nil {
		delete(m.sessions, id)
	} else {
		m.sessions[id] = s
	}
	m.mu.Unlock()

	return s, err
}

func (m *Manager) start(id uuid.UUID, name string, rng *rand.Rand, gen *config.Generation, placer *generator.Placer) (*Session, error) {
	settings, err := storage.LoadPlayer(m.deps.Storage, id, name, gen.DefaultStyle)
	if err != nil {
		return nil, fmt.Errorf("failed to load player %s: %w", id, err)
	}

	tables, err := generator.NewTables(gen, settings.Options())
	if err != nil {
		return nil, err
	}

	tmpl, err := m.deps.Pool.Get(m.opts.Spawn)
	if err != nil {
		return nil, fmt.Errorf("spawn island: %w", err)
	}

	s := &Session{
		ID:       uuid.NewString(),
		Player:   id,
		Settings: settings,
	}
	s.gen = generator.New(id, m.deps.World, tables, m.deps.Pool, rng,
		generator.ScoreSinkFunc(func(_ uuid.UUID, score int) {
			s.generated.Store(int64(score))
		}))

	m.deps.Divider.Allocate(s.ID)
	island, err := placer.Build(s.ID, tmpl, s.gen)
	if err != nil {
		m.deps.Divider.Release(s.ID)
		return nil, err
	}
	s.Island = island

	if err := m.extend(s); err != nil {
		if s.ahead() == 0 {
			m.deps.World.Clear(s.gen.Reset(false).Trail...)
			island.Destroy(m.deps.World)
			m.deps.Divider.Release(s.ID)
			return nil, fmt.Errorf("failed to generate the first jump: %w", err)
		}
		logger.Warning("Could not generate the full block lead", "player", name, "ahead", s.ahead(), "lead", settings.BlockLead, "error", err)
	}

	if m.deps.Rewards != nil {
		m.deps.Rewards.Join(settings)
	}
	s.started = m.now()

	logger.Info("Player joined", "player", name, "uuid", id, "session", s.ID, "spawn", island.Spawn.Block().String())
	return s, nil
}

// extend generates jumps until the player's block lead lies ahead of them.
// Failed placements are retried with fresh draws; a jump schematic with bad
// markers is disabled so later draws skip it. The caller holds s.mu or owns
// s exclusively.
func (m *Manager) extend(s *Session) error {
	lead := s.Settings.BlockLead
	budget := maxAttempts * (lead - s.ahead())

	var err error
	for s.ahead() < lead && budget > 0 {
		budget--
		if _, err = s.gen.Generate(); err == nil {
			continue
		}
		if errors.Is(err, generator.ErrStopped) {
			return err
		}
		var cfgErr *generator.ConfigurationError
		if errors.As(err, &cfgErr) && cfgErr.Schematic != "" {
			m.deps.Pool.Disable(cfgErr.Schematic)
		}
	}

	if ahead := s.ahead(); ahead < lead {
		return fmt.Errorf("%d of %d blocks ahead: %w", ahead, lead, err)
	}
	return nil
}

// Land records that the player reached the next block. It notifies the
// score sinks, refills the block lead and removes old jumps behind the
// player. It returns the new score.
//
// A landing with no generated block ahead is not counted and returns
// ErrNoBlockAhead.
func (m *Manager) Land(id uuid.UUID) (int, error) {
	s, ok := m.Get(id)
	if !ok || s == nil {
		return 0, ErrNotPlaying
	}

	// the generator is not safe for concurrent draws
	s.mu.Lock()
	if s.ahead() <= 0 {
		err := m.extend(s)
		if s.ahead() <= 0 {
			score := s.landed
			s.mu.Unlock()
			return score, errors.Join(ErrNoBlockAhead, err)
		}
	}
	s.landed++
	score, lead := s.landed, s.Settings.BlockLead
	err := m.extend(s)
	s.gen.Trim(lead + 1 + m.opts.TrailBehind)
	s.mu.Unlock()

	for _, sink := range m.sinks {
		sink.ScoreChanged(id, score)
	}

	if err != nil {
		return score, fmt.Errorf("failed to extend course: %w", err)
	}
	return score, nil
}

// UpdateSettings applies fn to a running player's settings and rebuilds the
// generator tables from them.
func (m *Manager) UpdateSettings(id uuid.UUID, fn func(*player.Settings)) error {
	s, ok := m.Get(id)
	if !ok || s == nil {
		return ErrNotPlaying
	}

	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	fn(s.Settings)
	s.Settings.Normalize(gen.DefaultStyle)
	return s.gen.SetOptions(gen, s.Settings.Options())
}

// Reload swaps in a new generation config and recalculates every running
// generator. An invalid config is rejected and the old one stays active.
func (m *Manager) Reload(gen *config.Generation) error {
	if err := gen.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.gen = gen
	m.placer = generator.NewPlacer(m.deps.World, m.deps.Divider, gen)
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s != nil {
			sessions = append(sessions, s)
		}
	}
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.gen.Recalculate(gen); err != nil {
			errs = append(errs, fmt.Errorf("player %s: %w", s.Player, err))
		}
	}
	return errors.Join(errs...)
}

// Fall ends the player's run after they fell off the course.
func (m *Manager) Fall(id uuid.UUID) (Result, error) {
	return m.end(id, "fall")
}

// Leave ends the player's run when they quit.
func (m *Manager) Leave(id uuid.UUID) (Result, error) {
	return m.end(id, "leave")
}

// Shutdown ends every run.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.joining = false
	ids := make([]uuid.UUID, 0, len(m.sessions))
	for id, s := range m.sessions {
		if s != nil {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()

	for _, id := range ids {
		if _, err := m.end(id, "shutdown"); err != nil {
			logger.Error("Failed to end run on shutdown", "uuid", id, "error", err)
		}
	}
}

func (m *Manager) end(id uuid.UUID, reason string) (Result, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok || s == nil {
		m.mu.Unlock()
		return Result{}, ErrNotPlaying
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	summary := s.gen.Reset(false)
	m.deps.World.Clear(summary.Trail...)
	s.Island.Destroy(m.deps.World)
	m.deps.Divider.Release(s.ID)

	s.mu.Lock()
	landed := s.landed
	s.mu.Unlock()

	duration := m.now().Sub(s.started)
	res := Result{
		Player:   id,
		Duration: duration,
		Score: leaderboard.Score{
			Name:       s.Settings.Name,
			Time:       leaderboard.FormatTime(duration),
			Difficulty: leaderboard.FormatDifficulty(s.Settings.SchematicDifficulty),
			Score:      landed,
		},
	}

	var errs []error
	if landed > 0 && m.deps.Board.Put(id, res.Score) {
		res.Best = true
		if err := m.saveScore(id, res.Score); err != nil {
			errs = append(errs, err)
		}
	}
	res.Rank = m.deps.Board.Rank(id)

	if err := m.deps.Storage.WritePlayer(s.Settings); err != nil {
		errs = append(errs, fmt.Errorf("failed to save player: %w", err))
	}
	if m.deps.Rewards != nil {
		m.deps.Rewards.Leave(id)
	}
	if m.deps.Feed != nil {
		m.deps.Feed.RunFinished(id, res.Score, res.Best)
	}

	logger.Info("Run ended",
		"player", s.Settings.Name,
		"reason", reason,
		"score", landed,
		"time", res.Score.Time,
		"best", res.Best,
		"rank", res.Rank)

	return res, errors.Join(errs...)
}

// saveScore persists a new best score. Stores that can upsert a single row
// do so; others get the whole leaderboard rewritten.
func (m *Manager) saveScore(id uuid.UUID, score leaderboard.Score) error {
	if saver, ok := m.deps.Storage.(scoreSaver); ok {
		if err := saver.SaveScore(m.deps.Board.Mode(), id, score); err != nil {
			return fmt.Errorf("failed to save score: %w", err)
		}
		return nil
	}
	return m.deps.Board.Write()
}
