package schematic

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Tnze/go-mc/nbt"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/world"
)

// Extension is the file extension of schematic files.
const Extension = ".nbt"

// ErrMalformed is returned for structure files that decode but make no sense.
var ErrMalformed = errors.New("schematic: malformed structure")

// structureFile is the vanilla structure block layout, plus an optional
// difficulty rating.
type structureFile struct {
	DataVersion int32            `nbt:"DataVersion"`
	Size        []int32          `nbt:"size"`
	Palette     []paletteEntry   `nbt:"palette"`
	Blocks      []structureBlock `nbt:"blocks"`
	Difficulty  float64          `nbt:"difficulty"`
}

type paletteEntry struct {
	Name       string            `nbt:"Name"`
	Properties map[string]string `nbt:"Properties,omitempty"`
}

type structureBlock struct {
	Pos   []int32 `nbt:"pos"`
	State int32   `nbt:"state"`
}

// dataVersion is written into saved files (1.20.1).
const dataVersion = 3465

// Load reads a gzip-compressed structure file. The template is named after
// the file without its extension.
func Load(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schematic: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Read(f, name)
}

// Read decodes a gzip-compressed structure from r.
func Read(r io.Reader, name string) (*Template, error) {
	gr, err := gzip.NewReader(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("schematic %s: %w", name, err)
	}
	defer gr.Close()

	var file structureFile
	if _, err := nbt.NewDecoder(gr).Decode(&file); err != nil {
		return nil, fmt.Errorf("schematic %s: failed to decode nbt: %w", name, err)
	}

	blocks := make([]world.Block, 0, len(file.Blocks))
	for i, b := range file.Blocks {
		if len(b.Pos) != 3 {
			return nil, fmt.Errorf("%w: %s block %d has %d coordinates", ErrMalformed, name, i, len(b.Pos))
		}
		if b.State < 0 || int(b.State) >= len(file.Palette) {
			return nil, fmt.Errorf("%w: %s block %d references palette entry %d of %d", ErrMalformed, name, i, b.State, len(file.Palette))
		}
		blocks = append(blocks, world.Block{
			Offset:   world.Pos{X: int(b.Pos[0]), Y: int(b.Pos[1]), Z: int(b.Pos[2])},
			Material: world.ParseMaterial(file.Palette[b.State].Name),
		})
	}

	return NewTemplate(name, blocks, file.Difficulty), nil
}

// Write encodes t as a gzip-compressed structure.
func Write(w io.Writer, t *Template) error {
	file := structureFile{
		DataVersion: dataVersion,
		Size:        []int32{int32(t.size.X), int32(t.size.Y), int32(t.size.Z)},
		Difficulty:  t.difficulty,
	}

	states := make(map[world.Material]int32)
	for _, b := range t.blocks {
		state, ok := states[b.Material]
		if !ok {
			state = int32(len(file.Palette))
			states[b.Material] = state
			file.Palette = append(file.Palette, paletteEntry{Name: string(b.Material)})
		}
		file.Blocks = append(file.Blocks, structureBlock{
			Pos:   []int32{int32(b.Offset.X), int32(b.Offset.Y), int32(b.Offset.Z)},
			State: state,
		})
	}

	gw := gzip.NewWriter(w)
	if err := nbt.NewEncoder(gw).Encode(file, ""); err != nil {
		gw.Close()
		return fmt.Errorf("schematic %s: failed to encode nbt: %w", t.name, err)
	}
	return gw.Close()
}

// Save writes t to path, creating parent directories as needed.
func Save(path string, t *Template) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create schematic directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create schematic: %w", err)
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
