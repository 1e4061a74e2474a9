// Package generator produces an endless parkour course one jump at a time.
//
// A Generator owns a single run. It draws a JumpPlan from its Tables
// snapshot, turns the plan into a target position next to the previous
// block, and asks the World to place the block or schematic. Score and
// anchor only advance when placement succeeds.
package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/chance"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/config"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/logger"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/schematic"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/world"
)

// World is the block store the generator places into. *world.World
// implements it.
type World interface {
	PlaceBlock(pos world.Pos, spec world.BlockSpec) error
	PasteSchematic(s world.Structure, origin world.Pos) ([]world.Pos, error)
	Material(pos world.Pos) world.Material
	Clear(positions ...world.Pos)
}

// Schematics supplies jump templates. *schematic.Pool implements it.
type Schematics interface {
	Pick(rng *rand.Rand, maxDifficulty float64) (*schematic.Template, error)
}

// ScoreSink receives the new score after every successful jump.
type ScoreSink interface {
	ScoreChanged(player uuid.UUID, score int)
}

// ScoreSinkFunc adapts a function to ScoreSink.
type ScoreSinkFunc func(player uuid.UUID, score int)

func (f ScoreSinkFunc) ScoreChanged(player uuid.UUID, score int) {
	f(player, score)
}

// State is the run lifecycle.
type State int32

const (
	Uninitialized State = iota
	Ready
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// maxRedraws bounds the redraws made to avoid repeating a failed jump.
const maxRedraws = 16

// Jump describes a successfully placed jump.
type Jump struct {
	Plan   JumpPlan
	Target world.Pos
	// Anchor is where the next jump starts from. It differs from Target
	// for schematic jumps, which continue from their end marker.
	Anchor    world.Pos
	Blocks    []world.Pos
	Schematic string
	Score     int
}

// Summary is returned by Reset.
type Summary struct {
	Score int
	// Trail holds every position the run placed, oldest first, minus
	// those already removed by Trim.
	Trail []world.Pos
	// RegenerateBack asks the caller to rebuild the path back to spawn.
	RegenerateBack bool
}

type attempt struct {
	plan   JumpPlan
	target world.Pos
}

// Generator runs one player's course.
type Generator struct {
	player     uuid.UUID
	world      World
	schematics Schematics
	selector   *Selector
	tables     atomic.Pointer[Tables]
	sinks      []ScoreSink

	state atomic.Int32

	// mu guards the fields below. Placement happens outside it so a
	// concurrent Reset is never blocked by the world.
	mu     sync.Mutex
	score  int
	spawn  world.Pos
	anchor world.Pos
	trail  [][]world.Pos
	failed *attempt
}

// New creates a generator for player. schematics may be nil, in which case
// every schematic draw fails with ErrNoSchematic.
func New(player uuid.UUID, w World, tables *Tables, schematics Schematics, rng *rand.Rand, sinks ...ScoreSink) *Generator {
	g := &Generator{
		player:     player,
		world:      w,
		schematics: schematics,
		selector:   NewSelector(rng),
		sinks:      sinks,
	}
	g.tables.Store(tables)
	return g
}

// Player returns the id of the player running the course.
func (g *Generator) Player() uuid.UUID {
	return g.player
}

// State returns the current lifecycle state.
func (g *Generator) State() State {
	return State(g.state.Load())
}

// Score returns the number of successful jumps.
func (g *Generator) Score() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.score
}

// Anchor returns the position the next jump is measured from.
func (g *Generator) Anchor() world.Pos {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.anchor
}

// Spawn returns the spawn position given to GenerateFirst.
func (g *Generator) Spawn() world.Pos {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.spawn
}

// Tables returns the current snapshot.
func (g *Generator) Tables() *Tables {
	return g.tables.Load()
}

// Recalculate builds a new snapshot from cfg with the run's current options
// and swaps it in. The old snapshot stays valid for any draw in progress.
func (g *Generator) Recalculate(cfg *config.Generation) error {
	return g.SetOptions(cfg, g.Tables().Options)
}

// SetOptions rebuilds the snapshot with new run options.
func (g *Generator) SetOptions(cfg *config.Generation, opts Options) error {
	tables, err := NewTables(cfg, opts)
	if err != nil {
		return err
	}
	g.tables.Store(tables)
	return nil
}

// GenerateFirst seeds the run from the placed island. It does not draw or
// place anything.
func (g *Generator) GenerateFirst(spawn, parkourStart world.Pos) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.state.CompareAndSwap(int32(Uninitialized), int32(Ready)) {
		return fmt.Errorf("%w: GenerateFirst in state %s", ErrInvalidState, g.State())
	}
	g.spawn = spawn
	g.anchor = parkourStart
	return nil
}

// Generate places the next jump. On failure the score and anchor are left
// untouched and the error is a *PlacementError, a *ConfigurationError or an
// invariant violation such as chance.ErrEmptyDistribution.
func (g *Generator) Generate() (Jump, error) {
	switch st := g.State(); st {
	case Ready, Running:
	case Stopped:
		return Jump{}, ErrStopped
	default:
		return Jump{}, fmt.Errorf("%w: Generate in state %s", ErrInvalidState, st)
	}

	g.mu.Lock()
	score, anchor, failed := g.score, g.anchor, g.failed
	g.mu.Unlock()

	tables := g.Tables()
	plan, target, err := g.draw(tables, score, anchor, failed)
	if err != nil {
		if errors.Is(err, ErrNoAlternative) {
			// the tables only allow this jump; the next call may try it again
			g.mu.Lock()
			g.failed = nil
			g.mu.Unlock()
		}
		return Jump{}, err
	}

	jump, err := g.place(tables, plan, target)
	if err != nil {
		g.mu.Lock()
		g.failed = &attempt{plan: plan, target: target}
		g.mu.Unlock()
		if g.State() != Stopped {
			g.state.CompareAndSwap(int32(Ready), int32(Running))
		}

		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			logger.Stack("Error while placing schematic jump", "check the schematic's start and end marker blocks against generation.yaml", err, "player", g.player.String())
		} else {
			logger.Debug("Jump placement failed", "player", g.player.String(), "plan", plan.String(), "target", target.String(), "error", err)
		}
		return Jump{}, err
	}

	g.mu.Lock()
	if g.State() == Stopped {
		g.mu.Unlock()
		// the run ended while we were placing
		g.world.Clear(jump.Blocks...)
		return Jump{}, ErrStopped
	}
	g.score++
	g.anchor = jump.Anchor
	g.trail = append(g.trail, jump.Blocks)
	g.failed = nil
	g.state.Store(int32(Running))
	jump.Score = g.score
	g.mu.Unlock()

	for _, sink := range g.sinks {
		sink.ScoreChanged(g.player, jump.Score)
	}
	return jump, nil
}

// draw selects a plan and target, redrawing while it matches the attempt
// that failed last.
func (g *Generator) draw(t *Tables, score int, anchor world.Pos, failed *attempt) (JumpPlan, world.Pos, error) {
	for i := 0; i < maxRedraws; i++ {
		plan, err := g.selector.Select(t, score, t.Options.Adaptive)
		if err != nil {
			if errors.Is(err, chance.ErrEmptyDistribution) {
				logger.Error("Empty distribution while drawing jump", "player", g.player.String(), "score", score, "error", err)
			}
			return JumpPlan{}, world.Pos{}, err
		}

		plan = adjust(plan)
		target := g.target(t, plan, anchor)
		if failed == nil || failed.plan != plan || failed.target != target {
			return plan, target, nil
		}
	}
	return JumpPlan{}, world.Pos{}, &PlacementError{Kind: failed.plan.Type.String(), Pos: failed.target, Err: ErrNoAlternative}
}

// adjust removes plans a player cannot complete.
func adjust(plan JumpPlan) JumpPlan {
	if plan.Height == Up {
		plan.Distance = min(plan.Distance, chance.MaxDistance-1)
		if plan.Type == Special && plan.Special == Fence {
			// fences are one and a half blocks tall
			plan.Height = Level
		}
	}
	return plan
}

// target spends the jump distance between forward and sideways movement so
// that the horizontal Manhattan distance equals plan.Distance.
func (g *Generator) target(t *Tables, plan JumpPlan, anchor world.Pos) world.Pos {
	lateral := 0
	if limit := min(plan.Distance-1, t.MaxLateral); limit > 0 {
		lateral = g.selector.Rand().Intn(2*limit+1) - limit
	}
	forward := plan.Distance - abs(lateral)

	return anchor.
		Add(t.Heading.Vector().Scale(forward)).
		Add(t.Heading.Side().Scale(lateral)).
		Add(world.Pos{Y: plan.Height})
}

func (g *Generator) place(t *Tables, plan JumpPlan, target world.Pos) (Jump, error) {
	jump := Jump{Plan: plan, Target: target, Anchor: target}

	switch plan.Type {
	case Schematic:
		return g.placeSchematic(t, jump)
	case Special:
		if err := g.world.PlaceBlock(target, plan.Special.Block()); err != nil {
			return Jump{}, &PlacementError{Kind: plan.Type.String(), Pos: target, Err: err}
		}
	default:
		material := t.Palette[g.selector.Rand().Intn(len(t.Palette))]
		if err := g.world.PlaceBlock(target, world.BlockSpec{Material: material}); err != nil {
			return Jump{}, &PlacementError{Kind: plan.Type.String(), Pos: target, Err: err}
		}
	}

	jump.Blocks = []world.Pos{target}
	return jump, nil
}

// placeSchematic pastes a template so that its start marker lands on the
// target. The next jump continues from the end marker.
func (g *Generator) placeSchematic(t *Tables, jump Jump) (Jump, error) {
	kind := jump.Plan.Type.String()
	if g.schematics == nil {
		return Jump{}, &PlacementError{Kind: kind, Pos: jump.Target, Err: ErrNoSchematic}
	}

	tmpl, err := g.schematics.Pick(g.selector.Rand(), t.Options.SchematicDifficulty)
	if err != nil {
		return Jump{}, &PlacementError{Kind: kind, Pos: jump.Target, Err: fmt.Errorf("%w: %v", ErrNoSchematic, err)}
	}

	starts := tmpl.Find(t.StartMarker)
	ends := tmpl.Find(t.EndMarker)
	if len(starts) != 1 || len(ends) != 1 {
		return Jump{}, &ConfigurationError{
			Schematic: tmpl.Name(),
			Reason:    fmt.Sprintf("found %d %s start markers and %d %s end markers, want one each", len(starts), t.StartMarker.Name(), len(ends), t.EndMarker.Name()),
		}
	}

	origin := jump.Target.Sub(starts[0])
	placed, err := g.world.PasteSchematic(tmpl, origin)
	if err != nil {
		return Jump{}, &PlacementError{Kind: kind, Schematic: tmpl.Name(), Pos: origin, Err: err}
	}

	jump.Blocks = placed
	jump.Schematic = tmpl.Name()
	jump.Anchor = origin.Add(ends[0])
	return jump, nil
}

// Trim clears all but the newest keep jumps from the world and returns the
// cleared positions.
func (g *Generator) Trim(keep int) []world.Pos {
	g.mu.Lock()
	if keep < 0 || len(g.trail) <= keep {
		g.mu.Unlock()
		return nil
	}
	var cleared []world.Pos
	cut := len(g.trail) - keep
	for _, blocks := range g.trail[:cut] {
		cleared = append(cleared, blocks...)
	}
	g.trail = append([][]world.Pos(nil), g.trail[cut:]...)
	g.mu.Unlock()

	g.world.Clear(cleared...)
	return cleared
}

// Reset ends the run. The transition is irreversible and any placement
// still in flight is discarded. The caller removes the trail.
func (g *Generator) Reset(regenerateBack bool) Summary {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.Store(int32(Stopped))

	var trail []world.Pos
	for _, blocks := range g.trail {
		trail = append(trail, blocks...)
	}
	g.trail = nil

	logger.Debug("Run stopped", "player", g.player.String(), "score", g.score, "blocks", len(trail))
	return Summary{Score: g.score, Trail: trail, RegenerateBack: regenerateBack}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
