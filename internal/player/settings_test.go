package player

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestDefault(t *testing.T) {
	id := uuid.New()
	s := Default(id, "Efnilite")

	if s.ID != id || s.Name != "Efnilite" {
		t.Errorf("identity = %v %q", s.ID, s.Name)
	}
	if s.BlockLead != DefaultBlockLead || s.SchematicDifficulty != SchematicEasy {
		t.Errorf("defaults = %+v", s)
	}

	opts := s.Options()
	if opts.Adaptive || opts.DisableSchematics || opts.DisableSpecial {
		t.Errorf("default options = %+v", opts)
	}
}

func TestOptions(t *testing.T) {
	s := Default(uuid.New(), "p")
	s.UseScoreDifficulty = true
	s.UseSchematic = false
	s.UseSpecialBlocks = false
	s.SchematicDifficulty = SchematicHard
	s.Style = "blue"

	opts := s.Options()
	if !opts.Adaptive || !opts.DisableSchematics || !opts.DisableSpecial {
		t.Errorf("options = %+v", opts)
	}
	if opts.SchematicDifficulty != SchematicHard || opts.Style != "blue" {
		t.Errorf("options = %+v", opts)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		in    Settings
		check func(t *testing.T, s Settings)
	}{
		{
			name: "block lead clamped high",
			in:   Settings{BlockLead: 99},
			check: func(t *testing.T, s Settings) {
				if s.BlockLead != MaxBlockLead {
					t.Errorf("BlockLead = %d", s.BlockLead)
				}
			},
		},
		{
			name: "block lead clamped low",
			in:   Settings{BlockLead: 0},
			check: func(t *testing.T, s Settings) {
				if s.BlockLead != MinBlockLead {
					t.Errorf("BlockLead = %d", s.BlockLead)
				}
			},
		},
		{
			name: "empty style and locale",
			in:   Settings{BlockLead: 3},
			check: func(t *testing.T, s Settings) {
				if s.Style != "red" || s.Locale != "en" {
					t.Errorf("style=%q locale=%q", s.Style, s.Locale)
				}
			},
		},
		{
			name: "bad difficulty and time",
			in:   Settings{SchematicDifficulty: 3, SelectedTime: 50000},
			check: func(t *testing.T, s Settings) {
				if s.SchematicDifficulty != SchematicEasy || s.SelectedTime != 6000 {
					t.Errorf("difficulty=%v time=%d", s.SchematicDifficulty, s.SelectedTime)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.in
			s.Normalize("red")
			tt.check(t, s)
		})
	}
}

func TestCollect(t *testing.T) {
	s := Default(uuid.New(), "p")

	if !s.Collect("100") {
		t.Error("first Collect should succeed")
	}
	if s.Collect("100") {
		t.Error("second Collect should report already collected")
	}
	if !s.HasCollected("100") || s.HasCollected("200") {
		t.Errorf("collected = %v", s.CollectedRewards)
	}
}

func TestSettingsJSONNames(t *testing.T) {
	raw := `{"uuid":"6c0a2a5e-1f5b-4a43-9d26-0f6f7d3f2c11","style":"blue","blockLead":6,"useScoreDifficulty":true,"useSchematic":false,"_locale":"nl"}`

	var s Settings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatal(err)
	}
	if s.Style != "blue" || s.BlockLead != 6 || !s.UseScoreDifficulty || s.UseSchematic || s.Locale != "nl" {
		t.Errorf("decoded %+v", s)
	}
}
