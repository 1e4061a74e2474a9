package generator

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/chance"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/config"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/schematic"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/world"
)

// hookWorld wraps a real world so tests can inject failures.
type hookWorld struct {
	*world.World
	failPlacements int
	onPlace        func()
	places         int
}

func (w *hookWorld) PlaceBlock(pos world.Pos, spec world.BlockSpec) error {
	w.places++
	if w.onPlace != nil {
		w.onPlace()
	}
	if w.failPlacements > 0 {
		w.failPlacements--
		return world.ErrObstructed
	}
	return w.World.PlaceBlock(pos, spec)
}

func normalOnly() *config.Generation {
	cfg := config.DefaultGeneration()
	cfg.Types = config.TypeWeights{Normal: 1}
	return cfg
}

func newRun(t *testing.T, cfg *config.Generation, w World, pool Schematics, seed int64, sinks ...ScoreSink) *Generator {
	t.Helper()
	tables, err := NewTables(cfg, Options{})
	if err != nil {
		t.Fatalf("NewTables() error: %v", err)
	}
	g := New(uuid.New(), w, tables, pool, rand.New(rand.NewSource(seed)), sinks...)
	if err := g.GenerateFirst(world.Pos{X: 0, Y: 100, Z: -3}, world.Pos{X: 0, Y: 100, Z: 0}); err != nil {
		t.Fatalf("GenerateFirst() error: %v", err)
	}
	return g
}

func newUninitialized(t *testing.T, w World) *Generator {
	t.Helper()
	tables, err := NewTables(normalOnly(), Options{})
	if err != nil {
		t.Fatalf("NewTables() error: %v", err)
	}
	return New(uuid.New(), w, tables, nil, rand.New(rand.NewSource(1)))
}

func TestStateTransitions(t *testing.T) {
	g := newUninitialized(t, world.NewWorld("parkour"))

	if g.State() != Uninitialized {
		t.Fatalf("initial state = %s", g.State())
	}
	if _, err := g.Generate(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Generate() before GenerateFirst = %v, want ErrInvalidState", err)
	}

	if err := g.GenerateFirst(world.Pos{}, world.Pos{X: 1}); err != nil {
		t.Fatalf("GenerateFirst() error: %v", err)
	}
	if g.State() != Ready || g.Anchor() != (world.Pos{X: 1}) || g.Score() != 0 {
		t.Errorf("after GenerateFirst: state=%s anchor=%v score=%d", g.State(), g.Anchor(), g.Score())
	}
	if err := g.GenerateFirst(world.Pos{}, world.Pos{}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second GenerateFirst = %v, want ErrInvalidState", err)
	}

	if _, err := g.Generate(); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if g.State() != Running {
		t.Errorf("state after Generate = %s, want running", g.State())
	}

	g.Reset(false)
	if g.State() != Stopped {
		t.Errorf("state after Reset = %s, want stopped", g.State())
	}
	if _, err := g.Generate(); !errors.Is(err, ErrStopped) {
		t.Errorf("Generate() after Reset = %v, want ErrStopped", err)
	}
	if err := g.GenerateFirst(world.Pos{}, world.Pos{}); !errors.Is(err, ErrInvalidState) {
		t.Errorf("GenerateFirst() after Reset = %v, want ErrInvalidState", err)
	}
}

func TestGenerateAdvancesScoreAndAnchor(t *testing.T) {
	w := world.NewWorld("parkour")
	var events []int
	g := newRun(t, normalOnly(), w, nil, 7, ScoreSinkFunc(func(_ uuid.UUID, score int) {
		events = append(events, score)
	}))

	for i := 1; i <= 50; i++ {
		before := g.Anchor()
		jump, err := g.Generate()
		if err != nil {
			t.Fatalf("jump %d: %v", i, err)
		}
		if jump.Score != i || g.Score() != i {
			t.Fatalf("jump %d: score = %d/%d", i, jump.Score, g.Score())
		}
		if g.Anchor() != jump.Target {
			t.Fatalf("jump %d: anchor %v, want target %v", i, g.Anchor(), jump.Target)
		}
		if w.Material(jump.Target).IsAir() {
			t.Fatalf("jump %d: nothing placed at %v", i, jump.Target)
		}

		d := jump.Target.Sub(before)
		if d.Y != jump.Plan.Height {
			t.Errorf("jump %d: dy = %d, want height %d", i, d.Y, jump.Plan.Height)
		}
		if got := abs(d.X) + abs(d.Z); got != jump.Plan.Distance {
			t.Errorf("jump %d: horizontal distance %d, want %d", i, got, jump.Plan.Distance)
		}
		if d.X <= 0 {
			t.Errorf("jump %d: course should run east, moved %v", i, d)
		}
	}

	if len(events) != 50 || events[49] != 50 {
		t.Errorf("score sink saw %v", events)
	}
}

func TestUpJumpsNeverUseFourBlocks(t *testing.T) {
	cfg := normalOnly()
	cfg.Height = config.HeightWeights{Up: 1}
	cfg.Distance.Normal = config.BlockWeights{Four: 1}

	g := newRun(t, cfg, world.NewWorld("parkour"), nil, 3)
	for i := 0; i < 20; i++ {
		jump, err := g.Generate()
		if err != nil {
			t.Fatal(err)
		}
		if jump.Plan.Height != Up || jump.Plan.Distance != 3 {
			t.Fatalf("plan = %s, want an up jump of distance 3", jump.Plan)
		}
	}
}

func TestFailedPlacementLeavesStateUnchanged(t *testing.T) {
	w := &hookWorld{World: world.NewWorld("parkour"), failPlacements: 1}
	events := 0
	g := newRun(t, normalOnly(), w, nil, 11, ScoreSinkFunc(func(uuid.UUID, int) { events++ }))

	anchor := g.Anchor()
	_, err := g.Generate()
	var placement *PlacementError
	if !errors.As(err, &placement) || !errors.Is(err, world.ErrObstructed) {
		t.Fatalf("Generate() = %v, want PlacementError wrapping ErrObstructed", err)
	}
	if g.Score() != 0 || g.Anchor() != anchor || events != 0 {
		t.Fatalf("failed placement changed state: score=%d anchor=%v events=%d", g.Score(), g.Anchor(), events)
	}
	if g.State() != Running {
		t.Errorf("state after failure = %s, want running", g.State())
	}

	jump, err := g.Generate()
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if g.Score() != 1 || g.Anchor() != jump.Target || events != 1 {
		t.Errorf("retry: score=%d anchor=%v events=%d", g.Score(), g.Anchor(), events)
	}
}

func TestFailedPlanIsNotRepeated(t *testing.T) {
	// every axis has a single category, so each draw is the same jump
	cfg := normalOnly()
	cfg.Height = config.HeightWeights{Level: 1}
	cfg.Distance.Normal = config.BlockWeights{Two: 1}
	cfg.MaxLateral = 0

	w := &hookWorld{World: world.NewWorld("parkour"), failPlacements: 1}
	g := newRun(t, cfg, w, nil, 5)

	if _, err := g.Generate(); !errors.Is(err, world.ErrObstructed) {
		t.Fatalf("first Generate() = %v, want obstruction", err)
	}
	places := w.places

	if _, err := g.Generate(); !errors.Is(err, ErrNoAlternative) {
		t.Fatalf("second Generate() = %v, want ErrNoAlternative", err)
	}
	if w.places != places {
		t.Errorf("identical failed jump was placed again")
	}

	if _, err := g.Generate(); err != nil {
		t.Fatalf("third Generate() = %v, want success", err)
	}
	if g.Score() != 1 {
		t.Errorf("score = %d, want 1", g.Score())
	}
}

func TestStopDuringPlacementDiscardsResult(t *testing.T) {
	w := &hookWorld{World: world.NewWorld("parkour")}
	events := 0
	g := newRun(t, normalOnly(), w, nil, 9, ScoreSinkFunc(func(uuid.UUID, int) { events++ }))

	var summary Summary
	w.onPlace = func() { summary = g.Reset(true) }

	if _, err := g.Generate(); !errors.Is(err, ErrStopped) {
		t.Fatalf("Generate() = %v, want ErrStopped", err)
	}
	if g.Score() != 0 || events != 0 {
		t.Errorf("stopped run advanced: score=%d events=%d", g.Score(), events)
	}
	if w.BlockCount() != 0 {
		t.Errorf("discarded placement left %d blocks", w.BlockCount())
	}
	if !summary.RegenerateBack || summary.Score != 0 || len(summary.Trail) != 0 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestResetReturnsTrail(t *testing.T) {
	w := world.NewWorld("parkour")
	g := newRun(t, normalOnly(), w, nil, 21)

	var targets []world.Pos
	for i := 0; i < 5; i++ {
		jump, err := g.Generate()
		if err != nil {
			t.Fatal(err)
		}
		targets = append(targets, jump.Target)
	}

	cleared := g.Trim(3)
	if len(cleared) != 2 || cleared[0] != targets[0] || cleared[1] != targets[1] {
		t.Errorf("Trim(3) cleared %v, want first two targets", cleared)
	}
	if !w.Material(targets[0]).IsAir() {
		t.Error("trimmed block still in world")
	}

	summary := g.Reset(false)
	if summary.Score != 5 || summary.RegenerateBack {
		t.Errorf("summary = %+v", summary)
	}
	if len(summary.Trail) != 3 || summary.Trail[2] != targets[4] {
		t.Errorf("trail = %v, want last three targets", summary.Trail)
	}
}

func endMarkerTemplate(name string, withEnd bool) *schematic.Template {
	blocks := []world.Block{
		{Offset: world.Pos{X: 0, Y: 0, Z: 1}, Material: world.ParseMaterial("lime_wool")},
		{Offset: world.Pos{X: 1, Y: 0, Z: 1}, Material: world.Stone},
		{Offset: world.Pos{X: 2, Y: 0, Z: 1}, Material: world.Stone},
	}
	if withEnd {
		blocks = append(blocks, world.Block{Offset: world.Pos{X: 4, Y: 1, Z: 0}, Material: world.ParseMaterial("red_wool")})
	}
	return schematic.NewTemplate(name, blocks, 0.1)
}

func schematicOnly() *config.Generation {
	cfg := config.DefaultGeneration()
	cfg.Types = config.TypeWeights{Schematic: 1}
	cfg.Height = config.HeightWeights{Level: 1}
	cfg.Distance.Normal = config.BlockWeights{Three: 1}
	cfg.MaxLateral = 0
	return cfg
}

func TestSchematicJumpContinuesFromEndMarker(t *testing.T) {
	w := world.NewWorld("parkour")
	pool := schematic.NewPool(endMarkerTemplate("parkour-1", true))
	tables, err := NewTables(schematicOnly(), Options{SchematicDifficulty: 1})
	if err != nil {
		t.Fatal(err)
	}
	g := New(uuid.New(), w, tables, pool, rand.New(rand.NewSource(2)))
	if err := g.GenerateFirst(world.Pos{}, world.Pos{Y: 100}); err != nil {
		t.Fatal(err)
	}

	jump, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	target := world.Pos{X: 3, Y: 100}
	if jump.Target != target || jump.Schematic != "parkour-1" {
		t.Fatalf("jump = %+v", jump)
	}
	if w.Material(target) != world.ParseMaterial("lime_wool") {
		t.Errorf("start marker not on target, found %s", w.Material(target))
	}
	// origin = target - (0,0,1); end = origin + (4,1,0)
	if want := (world.Pos{X: 7, Y: 101, Z: -1}); g.Anchor() != want {
		t.Errorf("anchor = %v, want %v", g.Anchor(), want)
	}
	if len(jump.Blocks) != 4 {
		t.Errorf("placed %d blocks, want 4", len(jump.Blocks))
	}
}

func TestSchematicWithoutEndMarker(t *testing.T) {
	w := world.NewWorld("parkour")
	pool := schematic.NewPool(endMarkerTemplate("parkour-broken", false))
	tables, err := NewTables(schematicOnly(), Options{SchematicDifficulty: 1})
	if err != nil {
		t.Fatal(err)
	}
	g := New(uuid.New(), w, tables, pool, rand.New(rand.NewSource(2)))
	if err := g.GenerateFirst(world.Pos{}, world.Pos{Y: 100}); err != nil {
		t.Fatal(err)
	}

	_, err = g.Generate()
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) || cfgErr.Schematic != "parkour-broken" {
		t.Fatalf("Generate() = %v, want ConfigurationError naming the schematic", err)
	}
	if w.BlockCount() != 0 || g.Score() != 0 {
		t.Errorf("broken schematic left blocks=%d score=%d", w.BlockCount(), g.Score())
	}
}

func TestSchematicUnavailable(t *testing.T) {
	tests := []struct {
		name string
		pool Schematics
	}{
		{"no pool", nil},
		{"too hard", schematic.NewPool(schematic.NewTemplate("parkour-hard", nil, 0.9))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables, err := NewTables(schematicOnly(), Options{SchematicDifficulty: 0.5})
			if err != nil {
				t.Fatal(err)
			}
			g := New(uuid.New(), world.NewWorld("parkour"), tables, tt.pool, rand.New(rand.NewSource(2)))
			if err := g.GenerateFirst(world.Pos{}, world.Pos{}); err != nil {
				t.Fatal(err)
			}

			_, err = g.Generate()
			var placement *PlacementError
			if !errors.As(err, &placement) || !errors.Is(err, ErrNoSchematic) {
				t.Errorf("Generate() = %v, want PlacementError wrapping ErrNoSchematic", err)
			}
		})
	}
}

func TestSpecialJumpPlacesSpecialBlock(t *testing.T) {
	cfg := config.DefaultGeneration()
	cfg.Types = config.TypeWeights{Special: 1}
	cfg.Special = config.SpecialWeights{Slab: 1}

	w := world.NewWorld("parkour")
	g := newRun(t, cfg, w, nil, 4)

	jump, err := g.Generate()
	if err != nil {
		t.Fatal(err)
	}
	block, ok := w.Block(jump.Target)
	if !ok || block.Material != world.Slab || block.Properties["type"] != "bottom" {
		t.Errorf("placed %+v, want bottom slab", block)
	}
}

func TestRecalculateSwapsTables(t *testing.T) {
	g := newRun(t, normalOnly(), world.NewWorld("parkour"), nil, 1)
	old := g.Tables()

	cfg := normalOnly()
	cfg.Heading = "north"
	if err := g.Recalculate(cfg); err != nil {
		t.Fatalf("Recalculate() error: %v", err)
	}
	if g.Tables() == old || g.Tables().Heading != world.North {
		t.Error("Recalculate did not swap in the new snapshot")
	}
	if old.Heading != world.East {
		t.Error("old snapshot was mutated")
	}

	bad := normalOnly()
	bad.Height = config.HeightWeights{}
	if err := g.Recalculate(bad); err == nil {
		t.Error("expected error for empty height weights")
	}
	if g.Tables().Heading != world.North {
		t.Error("failed Recalculate replaced the snapshot")
	}
}

func TestEmptyAdaptiveDistanceRejected(t *testing.T) {
	cfg := normalOnly()
	cfg.Distance.Normal = config.BlockWeights{One: 1}
	cfg.Distance.Maxed = config.BlockWeights{Four: 1}
	cfg.Multiplier = 100

	// both weights floor to zero between the end points
	_, err := NewTables(cfg, Options{Adaptive: true})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) || !errors.Is(err, chance.ErrEmptyDistribution) {
		t.Fatalf("NewTables(adaptive) error = %v, want ConfigurationError wrapping ErrEmptyDistribution", err)
	}

	if _, err := NewTables(cfg, Options{}); err != nil {
		t.Errorf("NewTables(static) error = %v, want nil", err)
	}
}
