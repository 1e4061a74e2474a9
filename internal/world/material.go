package world

import "strings"

// Material is a namespaced block identifier such as "minecraft:stone".
type Material string

const (
	Air     Material = "minecraft:air"
	Ice     Material = "minecraft:packed_ice"
	Slab    Material = "minecraft:smooth_stone_slab"
	Pane    Material = "minecraft:white_stained_glass_pane"
	Fence   Material = "minecraft:oak_fence"
	Stone   Material = "minecraft:stone"
	Barrier Material = "minecraft:barrier"
)

// ParseMaterial normalizes a configured material name. Names are lowercased
// and given the minecraft namespace when none is present, so "DIAMOND_BLOCK"
// and "minecraft:diamond_block" compare equal.
func ParseMaterial(name string) Material {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Air
	}
	if !strings.Contains(name, ":") {
		name = "minecraft:" + name
	}
	return Material(name)
}

// IsAir reports whether the material is empty space.
func (m Material) IsAir() bool {
	return m == "" || m == Air || m == "minecraft:cave_air" || m == "minecraft:void_air"
}

// Name returns the material without its namespace.
func (m Material) Name() string {
	if i := strings.IndexByte(string(m), ':'); i >= 0 {
		return string(m[i+1:])
	}
	return string(m)
}

// BlockSpec describes a single block to place.
type BlockSpec struct {
	Material Material
	// Properties holds block state values such as "type": "bottom" for slabs.
	Properties map[string]string
}

// Block is a material at an offset, as stored in a structure.
type Block struct {
	Offset   Pos
	Material Material
}

// Structure is anything that can be pasted into the world block by block.
type Structure interface {
	Name() string
	Blocks() []Block
}
