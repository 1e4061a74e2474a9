package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/chance"
)

// ErrInvalidGeneration is wrapped by every generation.yaml validation failure.
var ErrInvalidGeneration = errors.New("invalid generation config")

// Generation holds the course generator settings from generation.yaml.
// The generator treats it as read-only; changes apply on the next explicit
// recalculation.
type Generation struct {
	Types    TypeWeights     `yaml:"types"`
	Special  SpecialWeights  `yaml:"special"`
	Height   HeightWeights   `yaml:"height"`
	Distance DistanceWeights `yaml:"distance"`

	// Multiplier is the score at which adaptive distance weights reach their
	// maxed values.
	Multiplier float64 `yaml:"multiplier"`

	// Heading is the compass direction the course runs in.
	Heading string `yaml:"heading"`

	// MaxLateral caps the sideways offset of a jump, in blocks.
	MaxLateral int `yaml:"max_lateral"`

	// Styles maps a style name to the block materials normal jumps use.
	Styles       map[string][]string `yaml:"styles"`
	DefaultStyle string              `yaml:"default_style"`

	Island    IslandConfig    `yaml:"island"`
	Schematic SchematicConfig `yaml:"schematic"`
	Region    RegionConfig    `yaml:"region"`
}

// TypeWeights weights the default jump type draw.
type TypeWeights struct {
	Normal    int `yaml:"normal"`
	Schematic int `yaml:"schematic"`
	Special   int `yaml:"special"`
}

// SpecialWeights weights the special block draw.
type SpecialWeights struct {
	Ice   int `yaml:"ice"`
	Slab  int `yaml:"slab"`
	Pane  int `yaml:"pane"`
	Fence int `yaml:"fence"`
}

// HeightWeights weights the height draw.
type HeightWeights struct {
	Up    int `yaml:"up"`
	Level int `yaml:"level"`
	Down  int `yaml:"down"`
	Down2 int `yaml:"down2"`
}

// DistanceWeights holds the distance weights at the start of a run and at
// the multiplier score.
type DistanceWeights struct {
	Normal BlockWeights `yaml:"normal"`
	Maxed  BlockWeights `yaml:"maxed"`
}

// BlockWeights weights the one- to four-block distances.
type BlockWeights struct {
	One   int `yaml:"one"`
	Two   int `yaml:"two"`
	Three int `yaml:"three"`
	Four  int `yaml:"four"`
}

// Array returns the weights indexed by distance - 1.
func (b BlockWeights) Array() [4]int {
	return [4]int{b.One, b.Two, b.Three, b.Four}
}

func (b BlockWeights) total() int {
	return b.One + b.Two + b.Three + b.Four
}

// IslandConfig names the marker blocks inside the spawn island schematic.
type IslandConfig struct {
	Spawn struct {
		PlayerBlock string  `yaml:"player_block"`
		Yaw         float64 `yaml:"yaw"`
		Pitch       float64 `yaml:"pitch"`
	} `yaml:"spawn"`
	Parkour struct {
		BeginBlock string `yaml:"begin_block"`
	} `yaml:"parkour"`
}

// SchematicConfig names the marker blocks inside jump schematics.
type SchematicConfig struct {
	// StartBlock marks the block aligned with the jump target.
	StartBlock string `yaml:"start_block"`
	// EndBlock marks where the course continues after the schematic.
	EndBlock string `yaml:"end_block"`
}

// RegionConfig sizes the per-session world regions.
type RegionConfig struct {
	Spacing int `yaml:"spacing"`
	Columns int `yaml:"columns"`
	Height  int `yaml:"height"`
}

// DefaultGeneration returns the stock generator settings.
func DefaultGeneration() *Generation {
	g := &Generation{
		Types:   TypeWeights{Normal: 80, Schematic: 10, Special: 10},
		Special: SpecialWeights{Ice: 25, Slab: 25, Pane: 25, Fence: 25},
		Height:  HeightWeights{Up: 20, Level: 60, Down: 15, Down2: 5},
		Distance: DistanceWeights{
			Normal: BlockWeights{One: 10, Two: 40, Three: 40, Four: 10},
			Maxed:  BlockWeights{One: 5, Two: 20, Three: 45, Four: 30},
		},
		Multiplier: 100,
		Heading:    "east",
		MaxLateral: 2,
		Styles: map[string][]string{
			"red":   {"red_wool", "red_concrete", "red_terracotta"},
			"blue":  {"blue_wool", "blue_concrete", "blue_terracotta"},
			"stone": {"stone", "andesite", "cobblestone"},
		},
		DefaultStyle: "red",
		Schematic: SchematicConfig{
			StartBlock: "lime_wool",
			EndBlock:   "red_wool",
		},
		Region: RegionConfig{Spacing: 1000, Columns: 16, Height: 100},
	}
	g.Island.Spawn.PlayerBlock = "diamond_block"
	g.Island.Spawn.Yaw = -90
	g.Island.Parkour.BeginBlock = "emerald_block"
	return g
}

// LoadGeneration loads generation.yaml over the defaults and validates it.
// A missing file yields the validated defaults.
func LoadGeneration(path string) (*Generation, error) {
	g := DefaultGeneration()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return g, nil
		}
		return nil, fmt.Errorf("failed to read generation config: %w", err)
	}

	if err := yaml.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("failed to parse generation config: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate reports every problem at once so an operator can fix the file in
// one pass.
func (g *Generation) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	negative := map[string]int{
		"types.normal": g.Types.Normal, "types.schematic": g.Types.Schematic, "types.special": g.Types.Special,
		"special.ice": g.Special.Ice, "special.slab": g.Special.Slab, "special.pane": g.Special.Pane, "special.fence": g.Special.Fence,
		"height.up": g.Height.Up, "height.level": g.Height.Level, "height.down": g.Height.Down, "height.down2": g.Height.Down2,
		"distance.normal.one": g.Distance.Normal.One, "distance.normal.two": g.Distance.Normal.Two,
		"distance.normal.three": g.Distance.Normal.Three, "distance.normal.four": g.Distance.Normal.Four,
		"distance.maxed.one": g.Distance.Maxed.One, "distance.maxed.two": g.Distance.Maxed.Two,
		"distance.maxed.three": g.Distance.Maxed.Three, "distance.maxed.four": g.Distance.Maxed.Four,
	}
	for _, key := range slices.Sorted(maps.Keys(negative)) {
		if negative[key] < 0 {
			add("%s is negative (%d)", key, negative[key])
		}
	}

	if g.Types.Normal+g.Types.Schematic+g.Types.Special <= 0 {
		add("types weights sum to zero")
	}
	if g.Types.Special > 0 && g.Special.Ice+g.Special.Slab+g.Special.Pane+g.Special.Fence <= 0 {
		add("special jumps are enabled but special weights sum to zero")
	}
	if g.Height.Up+g.Height.Level+g.Height.Down+g.Height.Down2 <= 0 {
		add("height weights sum to zero")
	}
	if g.Distance.Normal.total() <= 0 {
		add("distance.normal weights sum to zero")
	}
	if g.Distance.Maxed.total() <= 0 {
		add("distance.maxed weights sum to zero")
	}
	if g.Multiplier <= 0 {
		add("multiplier must be positive (got %v)", g.Multiplier)
	} else if score, ok := g.emptyAdaptiveScore(); ok {
		add("adaptive distance weights sum to zero at score %d", score)
	}
	if g.MaxLateral < 0 {
		add("max_lateral is negative (%d)", g.MaxLateral)
	}
	if !validHeading(g.Heading) {
		add("unknown heading %q", g.Heading)
	}
	if len(g.Styles[g.DefaultStyle]) == 0 {
		add("default_style %q has no materials", g.DefaultStyle)
	}

	player := strings.TrimSpace(g.Island.Spawn.PlayerBlock)
	begin := strings.TrimSpace(g.Island.Parkour.BeginBlock)
	if player == "" || begin == "" {
		add("island marker blocks must be set")
	} else if strings.EqualFold(player, begin) {
		add("island player_block and begin_block must differ")
	}
	start := strings.TrimSpace(g.Schematic.StartBlock)
	end := strings.TrimSpace(g.Schematic.EndBlock)
	if start == "" || end == "" {
		add("schematic marker blocks must be set")
	} else if strings.EqualFold(start, end) {
		add("schematic start_block and end_block must differ")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidGeneration, strings.Join(problems, "; "))
	}
	return nil
}

// emptyAdaptiveScore returns the first score up to the multiplier at which
// the interpolated distance weights sum to zero.
func (g *Generation) emptyAdaptiveScore() (int, bool) {
	a, err := chance.NewAdaptive(g.Distance.Normal.Array(), g.Distance.Maxed.Array(), g.Multiplier)
	if err != nil {
		return 0, false
	}
	return a.EmptyScore()
}

// StyleMaterials returns the materials for a style, falling back to the
// default style for unknown names.
func (g *Generation) StyleMaterials(style string) []string {
	if m := g.Styles[style]; len(m) > 0 {
		return m
	}
	return g.Styles[g.DefaultStyle]
}

func validHeading(h string) bool {
	switch strings.ToLower(strings.TrimSpace(h)) {
	case "", "east", "south", "west", "north":
		return true
	}
	return false
}
