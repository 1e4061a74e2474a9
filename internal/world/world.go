// Package world holds block positions and an in-memory block world that the
// course generator places its jumps into.
package world

import (
	"errors"
	"fmt"
	"sync"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/logger"
)

var (
	// ErrObstructed is returned when a target position already holds a block.
	ErrObstructed = errors.New("world: position obstructed")

	// ErrOutOfBounds is returned for positions outside the world's build height.
	ErrOutOfBounds = errors.New("world: position out of bounds")

	// ErrReadOnly is returned for mutations on a read-only world.
	ErrReadOnly = errors.New("world: read-only")
)

// Default build limits.
const (
	DefaultMinY = -64
	DefaultMaxY = 319
)

// World is a sparse, thread-safe block store. Positions that were never set
// are air.
type World struct {
	name     string
	blocks   map[Pos]BlockSpec
	minY     int
	maxY     int
	readOnly bool
	mu       sync.RWMutex
}

// NewWorld creates an empty world with the default build limits.
func NewWorld(name string) *World {
	return &World{
		name:   name,
		blocks: make(map[Pos]BlockSpec),
		minY:   DefaultMinY,
		maxY:   DefaultMaxY,
	}
}

// Name returns the world name.
func (w *World) Name() string {
	return w.name
}

// SetHeightLimits changes the inclusive build height range.
func (w *World) SetHeightLimits(minY, maxY int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.minY, w.maxY = minY, maxY
}

// SetReadOnly sets whether mutations are rejected.
func (w *World) SetReadOnly(readOnly bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.readOnly = readOnly
}

// IsReadOnly returns whether the world rejects mutations.
func (w *World) IsReadOnly() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.readOnly
}

// Material returns the material at pos, or Air.
func (w *World) Material(pos Pos) Material {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if b, ok := w.blocks[pos]; ok {
		return b.Material
	}
	return Air
}

// Block returns the full block spec at pos.
func (w *World) Block(pos Pos) (BlockSpec, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.blocks[pos]
	return b, ok
}

// BlockCount returns the number of non-air blocks.
func (w *World) BlockCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.blocks)
}

// PlaceBlock sets the block at pos. The position must be air; placing onto
// an existing block fails with ErrObstructed and changes nothing.
func (w *World) PlaceBlock(pos Pos, spec BlockSpec) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.checkLocked(pos); err != nil {
		return err
	}
	if spec.Material.IsAir() {
		delete(w.blocks, pos)
		return nil
	}
	w.blocks[pos] = spec
	return nil
}

// PasteSchematic places every non-air block of s relative to origin and
// returns the positions it wrote. The paste is all-or-nothing: if any target
// is obstructed or out of bounds, nothing is placed.
func (w *World) PasteSchematic(s Structure, origin Pos) ([]Pos, error) {
	blocks := s.Blocks()

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, b := range blocks {
		if b.Material.IsAir() {
			continue
		}
		if err := w.checkLocked(origin.Add(b.Offset)); err != nil {
			return nil, fmt.Errorf("paste %s: %w", s.Name(), err)
		}
	}

	placed := make([]Pos, 0, len(blocks))
	for _, b := range blocks {
		if b.Material.IsAir() {
			continue
		}
		pos := origin.Add(b.Offset)
		w.blocks[pos] = BlockSpec{Material: b.Material}
		placed = append(placed, pos)
	}

	logger.Debug("Pasted schematic", "world", w.name, "schematic", s.Name(), "origin", origin.String(), "blocks", len(placed))
	return placed, nil
}

// Clear sets every given position to air.
func (w *World) Clear(positions ...Pos) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.readOnly {
		return
	}
	for _, pos := range positions {
		delete(w.blocks, pos)
	}
}

// checkLocked validates a placement target. Callers must hold w.mu.
func (w *World) checkLocked(pos Pos) error {
	if w.readOnly {
		return ErrReadOnly
	}
	if !w.inBounds(pos) {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, pos)
	}
	if _, ok := w.blocks[pos]; ok {
		return fmt.Errorf("%w: %s", ErrObstructed, pos)
	}
	return nil
}

func (w *World) inBounds(pos Pos) bool {
	return pos.Y >= w.minY && pos.Y <= w.maxY
}
