package schematic

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/world"
)

func jumpTemplate(name string, difficulty float64) *Template {
	return NewTemplate(name, []world.Block{
		{Offset: world.Pos{X: 0, Y: 0, Z: 0}, Material: world.ParseMaterial("lime_wool")},
		{Offset: world.Pos{X: 1, Y: 0, Z: 0}, Material: world.Stone},
		{Offset: world.Pos{X: 2, Y: 1, Z: 0}, Material: world.Air},
		{Offset: world.Pos{X: 3, Y: 1, Z: 1}, Material: world.ParseMaterial("red_wool")},
	}, difficulty)
}

func TestNewTemplateDropsAirAndSizes(t *testing.T) {
	tmpl := jumpTemplate("parkour-1", 0.3)

	if got := len(tmpl.Blocks()); got != 3 {
		t.Fatalf("expected 3 blocks, got %d", got)
	}
	if want := (world.Pos{X: 4, Y: 2, Z: 2}); tmpl.Size() != want {
		t.Errorf("Size() = %v, want %v", tmpl.Size(), want)
	}

	ends := tmpl.Find(world.ParseMaterial("red_wool"))
	if len(ends) != 1 || ends[0] != (world.Pos{X: 3, Y: 1, Z: 1}) {
		t.Errorf("Find(red_wool) = %v", ends)
	}
	if got := tmpl.Find(world.Ice); len(got) != 0 {
		t.Errorf("Find(ice) = %v, want none", got)
	}
}

func TestWriteRead(t *testing.T) {
	tmpl := jumpTemplate("parkour-2", 0.5)

	var buf bytes.Buffer
	if err := Write(&buf, tmpl); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	got, err := Read(&buf, "parkour-2")
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got.Difficulty() != 0.5 {
		t.Errorf("Difficulty() = %v, want 0.5", got.Difficulty())
	}
	if got.Size() != tmpl.Size() {
		t.Errorf("Size() = %v, want %v", got.Size(), tmpl.Size())
	}
	if len(got.Blocks()) != len(tmpl.Blocks()) {
		t.Fatalf("got %d blocks, want %d", len(got.Blocks()), len(tmpl.Blocks()))
	}
	for i, b := range got.Blocks() {
		if b != tmpl.Blocks()[i] {
			t.Errorf("block %d = %+v, want %+v", i, b, tmpl.Blocks()[i])
		}
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	if _, err := Read(bytes.NewReader([]byte("not gzip")), "broken"); err == nil {
		t.Error("expected error for non-gzip input")
	}
}

func TestLoadDirSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	if err := Save(filepath.Join(dir, "parkour-1.nbt"), jumpTemplate("parkour-1", 0.2)); err != nil {
		t.Fatal(err)
	}
	if err := Save(filepath.Join(dir, "spawn-island.nbt"), jumpTemplate("spawn-island", 0)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "parkour-9.nbt"), []byte("junk"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("# schematics"), 0644); err != nil {
		t.Fatal(err)
	}

	pool, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error: %v", err)
	}
	if pool.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (%v)", pool.Len(), pool.Names())
	}
	if _, err := pool.Get("spawn-island"); err != nil {
		t.Errorf("Get(spawn-island) error: %v", err)
	}
	if _, err := pool.Get("parkour-9"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(parkour-9) = %v, want ErrNotFound", err)
	}
}

func TestLoadDirMissing(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestPoolJumpsByDifficulty(t *testing.T) {
	pool := NewPool(
		jumpTemplate("parkour-easy", 0.2),
		jumpTemplate("parkour-medium", 0.5),
		jumpTemplate("parkour-hard", 0.9),
		jumpTemplate("spawn-island", 0),
	)

	tests := []struct {
		max  float64
		want []string
	}{
		{0.1, nil},
		{0.2, []string{"parkour-easy"}},
		{0.5, []string{"parkour-easy", "parkour-medium"}},
		{1.0, []string{"parkour-easy", "parkour-hard", "parkour-medium"}},
	}

	for _, tt := range tests {
		jumps := pool.Jumps(tt.max)
		if len(jumps) != len(tt.want) {
			t.Errorf("Jumps(%v) = %d templates, want %v", tt.max, len(jumps), tt.want)
			continue
		}
		for i, j := range jumps {
			if j.Name() != tt.want[i] {
				t.Errorf("Jumps(%v)[%d] = %s, want %s", tt.max, i, j.Name(), tt.want[i])
			}
		}
	}
}

func TestPoolPick(t *testing.T) {
	pool := NewPool(jumpTemplate("parkour-easy", 0.2), jumpTemplate("parkour-hard", 0.9))
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 20; i++ {
		tmpl, err := pool.Pick(rng, 0.5)
		if err != nil {
			t.Fatalf("Pick() error: %v", err)
		}
		if tmpl.Name() != "parkour-easy" {
			t.Fatalf("Pick() returned %s above the difficulty limit", tmpl.Name())
		}
	}

	if _, err := pool.Pick(rng, 0.1); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Pick() = %v, want ErrNoCandidates", err)
	}
}

func TestPoolDisable(t *testing.T) {
	pool := NewPool(jumpTemplate("parkour-broken", 0.2), jumpTemplate("parkour-ok", 0.2))
	rng := rand.New(rand.NewSource(2))

	pool.Disable("parkour-broken")
	pool.Disable("parkour-unknown")
	if !pool.Disabled("parkour-broken") || pool.Disabled("parkour-unknown") {
		t.Fatal("Disabled() does not match the disabled templates")
	}

	for i := 0; i < 20; i++ {
		tmpl, err := pool.Pick(rng, 1)
		if err != nil {
			t.Fatalf("Pick() error: %v", err)
		}
		if tmpl.Name() != "parkour-ok" {
			t.Fatalf("Pick() returned disabled template %s", tmpl.Name())
		}
	}
	if _, err := pool.Get("parkour-broken"); err != nil {
		t.Errorf("Get(disabled) error = %v, want the template", err)
	}

	pool.Disable("parkour-ok")
	if _, err := pool.Pick(rng, 1); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Pick() with every jump disabled = %v, want ErrNoCandidates", err)
	}

	pool.Add(jumpTemplate("parkour-ok", 0.2))
	if pool.Disabled("parkour-ok") {
		t.Error("Add() should enable a replaced template")
	}
}

func TestFetchLocalDirectory(t *testing.T) {
	src := t.TempDir()
	if err := Save(filepath.Join(src, "parkour-1.nbt"), jumpTemplate("parkour-1", 0.4)); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(t.TempDir(), "pack")
	if err := Fetch(context.Background(), src, dst); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	pool, err := LoadDir(dst)
	if err != nil {
		t.Fatalf("LoadDir() error: %v", err)
	}
	if _, err := pool.Get("parkour-1"); err != nil {
		t.Errorf("fetched pack missing parkour-1: %v", err)
	}
}

func TestFetchEmptySource(t *testing.T) {
	if err := Fetch(context.Background(), "", t.TempDir()); err == nil {
		t.Error("expected error for empty source")
	}
}
