package generator

import (
	"fmt"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/config"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/logger"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/schematic"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/world"
)

// Partitioner resolves a session to the origin of its world region.
// *world.Divider implements it.
type Partitioner interface {
	Origin(sessionID string) (world.Pos, error)
}

// FirstGenerator is seeded once the island is in place. *Generator
// implements it.
type FirstGenerator interface {
	GenerateFirst(spawn, parkourStart world.Pos) error
}

// Island is a placed spawn island.
type Island struct {
	Schematic string
	// Blocks holds every position the island occupies.
	Blocks       []world.Pos
	Spawn        world.Location
	ParkourStart world.Pos
}

// Destroy clears the island's blocks. It is safe on a nil island.
func (i *Island) Destroy(w World) {
	if i == nil || len(i.Blocks) == 0 {
		return
	}
	w.Clear(i.Blocks...)
	i.Blocks = nil
}

// Placer builds spawn islands.
type Placer struct {
	world       World
	partitions  Partitioner
	spawnMarker world.Material
	beginMarker world.Material
	yaw, pitch  float64
}

// NewPlacer creates a placer using the island markers from cfg.
func NewPlacer(w World, partitions Partitioner, cfg *config.Generation) *Placer {
	return &Placer{
		world:       w,
		partitions:  partitions,
		spawnMarker: world.ParseMaterial(cfg.Island.Spawn.PlayerBlock),
		beginMarker: world.ParseMaterial(cfg.Island.Parkour.BeginBlock),
		yaw:         cfg.Island.Spawn.Yaw,
		pitch:       cfg.Island.Spawn.Pitch,
	}
}

// Build pastes tmpl below the session's region origin, finds the spawn and
// parkour start markers, clears them and seeds first.
//
// A template without exactly one of each marker is a ConfigurationError:
// everything pasted is reverted and first is not called.
func (p *Placer) Build(sessionID string, tmpl *schematic.Template, first FirstGenerator) (*Island, error) {
	origin, err := p.partitions.Origin(sessionID)
	if err != nil {
		return nil, fmt.Errorf("island for session %s: %w", sessionID, err)
	}
	origin = origin.Sub(world.Pos{Y: tmpl.Size().Y})

	placed, err := p.world.PasteSchematic(tmpl, origin)
	if err != nil {
		return nil, &PlacementError{Kind: "island", Schematic: tmpl.Name(), Pos: origin, Err: err}
	}

	var spawns, begins []world.Pos
	for _, pos := range placed {
		switch p.world.Material(pos) {
		case p.spawnMarker:
			spawns = append(spawns, pos)
		case p.beginMarker:
			begins = append(begins, pos)
		}
	}

	if len(spawns) != 1 || len(begins) != 1 {
		p.world.Clear(placed...)
		err := &ConfigurationError{
			Schematic: tmpl.Name(),
			Reason: fmt.Sprintf("found %d %s spawn markers and %d %s parkour markers, want one each",
				len(spawns), p.spawnMarker.Name(), len(begins), p.beginMarker.Name()),
		}
		logger.Stack("Error while trying to find parkour or player spawn in schematic",
			"check if you used the same material as the one in generation.yaml", err, "schematic", tmpl.Name())
		return nil, err
	}

	spawn, begin := spawns[0], begins[0]
	p.world.Clear(spawn, begin)

	if err := first.GenerateFirst(spawn, begin); err != nil {
		p.world.Clear(placed...)
		return nil, err
	}

	blocks := make([]world.Pos, 0, len(placed)-2)
	for _, pos := range placed {
		if pos != spawn && pos != begin {
			blocks = append(blocks, pos)
		}
	}

	logger.Debug("Built island", "session", sessionID, "schematic", tmpl.Name(), "spawn", spawn.String(), "parkour", begin.String())
	return &Island{
		Schematic:    tmpl.Name(),
		Blocks:       blocks,
		Spawn:        world.Centered(spawn, p.yaw, p.pitch),
		ParkourStart: begin,
	}, nil
}
