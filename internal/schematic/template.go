// Package schematic loads the block templates pasted by the course
// generator: the spawn island and the multi-block jump structures.
package schematic

import (
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/world"
)

// Template is an immutable set of blocks relative to its minimum corner.
type Template struct {
	name       string
	size       world.Pos
	blocks     []world.Block
	difficulty float64
}

// NewTemplate creates a template from blocks. Air blocks are dropped and the
// size is computed from the remaining offsets.
func NewTemplate(name string, blocks []world.Block, difficulty float64) *Template {
	t := &Template{name: name, difficulty: difficulty}

	t.blocks = make([]world.Block, 0, len(blocks))
	for _, b := range blocks {
		if b.Material.IsAir() {
			continue
		}
		t.blocks = append(t.blocks, b)
		t.size.X = max(t.size.X, b.Offset.X+1)
		t.size.Y = max(t.size.Y, b.Offset.Y+1)
		t.size.Z = max(t.size.Z, b.Offset.Z+1)
	}
	return t
}

// Name returns the template name, usually the file name without extension.
func (t *Template) Name() string {
	return t.name
}

// Blocks returns the non-air blocks. The slice must not be modified.
func (t *Template) Blocks() []world.Block {
	return t.blocks
}

// Size returns the bounding box dimensions.
func (t *Template) Size() world.Pos {
	return t.size
}

// Difficulty returns the template's difficulty rating between 0 and 1.
func (t *Template) Difficulty() float64 {
	return t.difficulty
}

// Find returns the offsets of every block of the given material.
func (t *Template) Find(m world.Material) []world.Pos {
	var out []world.Pos
	for _, b := range t.blocks {
		if b.Material == m {
			out = append(out, b.Offset)
		}
	}
	return out
}
