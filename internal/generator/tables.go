package generator

import (
	"fmt"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/chance"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/config"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/world"
)

// JumpType is the default-type axis.
type JumpType int

const (
	Normal JumpType = iota
	Schematic
	Special
)

func (t JumpType) String() string {
	switch t {
	case Normal:
		return "normal"
	case Schematic:
		return "schematic"
	case Special:
		return "special"
	default:
		return "unknown"
	}
}

// SpecialKind is the special block axis.
type SpecialKind int

const (
	Ice SpecialKind = iota
	Slab
	Pane
	Fence
)

func (k SpecialKind) String() string {
	switch k {
	case Ice:
		return "ice"
	case Slab:
		return "slab"
	case Pane:
		return "pane"
	case Fence:
		return "fence"
	default:
		return "unknown"
	}
}

// Block returns the block placed for the special kind.
func (k SpecialKind) Block() world.BlockSpec {
	switch k {
	case Slab:
		return world.BlockSpec{Material: world.Slab, Properties: map[string]string{"type": "bottom"}}
	case Pane:
		return world.BlockSpec{Material: world.Pane}
	case Fence:
		return world.BlockSpec{Material: world.Fence}
	default:
		return world.BlockSpec{Material: world.Ice}
	}
}

// Height categories, in blocks relative to the previous block.
const (
	Up    = 1
	Level = 0
	Down  = -1
	Down2 = -2
)

// Options are the per-run generator switches, usually taken from the
// player's settings.
type Options struct {
	Adaptive          bool
	DisableSchematics bool
	DisableSpecial    bool

	// SchematicDifficulty is the highest template difficulty offered.
	SchematicDifficulty float64

	// Style selects the material palette for normal jumps.
	Style string
}

// Tables is an immutable snapshot of everything the generator samples. A
// new snapshot is built on every recalculation and swapped in whole.
type Tables struct {
	Types    chance.Table[JumpType]
	Special  chance.Table[SpecialKind]
	Height   chance.Table[int]
	Distance *chance.Adaptive

	Heading    world.Direction
	MaxLateral int
	Palette    []world.Material

	StartMarker world.Material
	EndMarker   world.Material

	Options Options
}

// NewTables builds a snapshot from the generation config and run options.
// An axis that can be drawn but has no slots is a ConfigurationError.
func NewTables(cfg *config.Generation, opts Options) (*Tables, error) {
	t := &Tables{Options: opts, MaxLateral: cfg.MaxLateral}

	schematicWeight, specialWeight := cfg.Types.Schematic, cfg.Types.Special
	if opts.DisableSchematics {
		schematicWeight = 0
	}
	if opts.DisableSpecial {
		specialWeight = 0
	}

	var err error
	t.Types, err = chance.Build([]chance.Weight[JumpType]{
		chance.W(Normal, cfg.Types.Normal),
		chance.W(Schematic, schematicWeight),
		chance.W(Special, specialWeight),
	})
	if err != nil {
		return nil, &ConfigurationError{Reason: "bad type weights", Err: err}
	}
	if t.Types.Empty() {
		return nil, &ConfigurationError{Reason: "type weights sum to zero", Err: chance.ErrEmptyDistribution}
	}

	t.Special, err = chance.Build([]chance.Weight[SpecialKind]{
		chance.W(Ice, cfg.Special.Ice),
		chance.W(Slab, cfg.Special.Slab),
		chance.W(Pane, cfg.Special.Pane),
		chance.W(Fence, cfg.Special.Fence),
	})
	if err != nil {
		return nil, &ConfigurationError{Reason: "bad special weights", Err: err}
	}
	if specialWeight > 0 && t.Special.Empty() {
		return nil, &ConfigurationError{Reason: "special jumps enabled but special weights sum to zero", Err: chance.ErrEmptyDistribution}
	}

	t.Height, err = chance.Build([]chance.Weight[int]{
		chance.W(Up, cfg.Height.Up),
		chance.W(Level, cfg.Height.Level),
		chance.W(Down, cfg.Height.Down),
		chance.W(Down2, cfg.Height.Down2),
	})
	if err != nil {
		return nil, &ConfigurationError{Reason: "bad height weights", Err: err}
	}
	if t.Height.Empty() {
		return nil, &ConfigurationError{Reason: "height weights sum to zero", Err: chance.ErrEmptyDistribution}
	}

	t.Distance, err = chance.NewAdaptive(cfg.Distance.Normal.Array(), cfg.Distance.Maxed.Array(), cfg.Multiplier)
	if err != nil {
		return nil, &ConfigurationError{Reason: "bad multiplier", Err: err}
	}
	for _, adaptive := range []bool{false, true} {
		// past the ceiling the maxed weights apply
		tbl, err := t.Distance.DistanceTable(int(cfg.Multiplier)+1, adaptive)
		if err != nil {
			return nil, &ConfigurationError{Reason: "bad distance weights", Err: err}
		}
		if tbl.Empty() && (!adaptive || opts.Adaptive) {
			return nil, &ConfigurationError{Reason: "distance weights sum to zero", Err: chance.ErrEmptyDistribution}
		}
	}
	if opts.Adaptive {
		if score, empty := t.Distance.EmptyScore(); empty {
			return nil, &ConfigurationError{
				Reason: fmt.Sprintf("adaptive distance weights sum to zero at score %d", score),
				Err:    chance.ErrEmptyDistribution,
			}
		}
	}

	heading, ok := world.ParseDirection(cfg.Heading)
	if !ok {
		return nil, &ConfigurationError{Reason: "unknown heading " + cfg.Heading}
	}
	t.Heading = heading

	for _, name := range cfg.StyleMaterials(opts.Style) {
		t.Palette = append(t.Palette, world.ParseMaterial(name))
	}
	if len(t.Palette) == 0 {
		t.Palette = []world.Material{world.Stone}
	}

	t.StartMarker = world.ParseMaterial(cfg.Schematic.StartBlock)
	t.EndMarker = world.ParseMaterial(cfg.Schematic.EndBlock)

	return t, nil
}
