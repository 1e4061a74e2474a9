package reward

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/uuid"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/player"
)

const testRewards = `
enabled: true
score_rewards:
  "10":
    - "give %player% diamond 1"
    - "send:Well done, %player%!"
  "0":
    - "never"
  "abc":
    - "never"
interval_rewards:
  "5":
    - "give %player% emerald 1"
  "2":
    - "send:even"
one_time_rewards:
  "10":
    - "leave:give %player% trophy 1"
    - "broadcast first ten"
`

type recordingExecutor struct {
	commands []string
	messages []string
	err      error
}

func (r *recordingExecutor) Command(cmd string) error {
	r.commands = append(r.commands, cmd)
	return r.err
}

func (r *recordingExecutor) Send(_ uuid.UUID, msg string) error {
	r.messages = append(r.messages, msg)
	return r.err
}

func TestParseRewards(t *testing.T) {
	r, err := ParseRewards([]byte(testRewards))
	if err != nil {
		t.Fatalf("ParseRewards() error: %v", err)
	}
	if !r.Enabled {
		t.Fatal("expected rewards to be enabled")
	}
	if len(r.Score) != 1 {
		t.Errorf("Score = %v, want only key 10", r.Score)
	}
	if len(r.Interval) != 2 || len(r.OneTime) != 1 {
		t.Errorf("Interval = %v, OneTime = %v", r.Interval, r.OneTime)
	}
}

func TestParseRewards_Disabled(t *testing.T) {
	r, err := ParseRewards([]byte("enabled: false\nscore_rewards:\n  \"1\": [x]\n"))
	if err != nil {
		t.Fatalf("ParseRewards() error: %v", err)
	}
	if repeat, once := r.For(1); repeat != nil || once != nil {
		t.Errorf("disabled rewards returned %v %v", repeat, once)
	}
}

func TestParseRewards_Invalid(t *testing.T) {
	if _, err := ParseRewards([]byte("enabled: [")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadRewards(t *testing.T) {
	dir := t.TempDir()

	r, err := LoadRewards(filepath.Join(dir, "missing.yaml"))
	if err != nil || r.Enabled {
		t.Errorf("LoadRewards(missing) = %+v, %v", r, err)
	}

	path := filepath.Join(dir, "rewards.yaml")
	os.WriteFile(path, []byte(testRewards), 0644)
	r, err = LoadRewards(path)
	if err != nil || !r.Enabled {
		t.Errorf("LoadRewards() = %+v, %v", r, err)
	}
}

func TestFor(t *testing.T) {
	r, _ := ParseRewards([]byte(testRewards))

	tests := []struct {
		score      int
		wantRepeat []string
		wantOnce   int
	}{
		{1, nil, 0},
		{2, []string{"send:even"}, 0},
		{5, []string{"give %player% emerald 1"}, 0},
		{10, []string{
			"give %player% diamond 1",
			"send:Well done, %player%!",
			"send:even",
			"give %player% emerald 1",
		}, 2},
	}
	for _, tt := range tests {
		repeat, once := r.For(tt.score)
		if !slices.Equal(repeat, tt.wantRepeat) {
			t.Errorf("For(%d) repeat = %v, want %v", tt.score, repeat, tt.wantRepeat)
		}
		if len(once) != tt.wantOnce {
			t.Errorf("For(%d) one-time = %v", tt.score, once)
		}
	}
}

func TestTracker(t *testing.T) {
	r, _ := ParseRewards([]byte(testRewards))
	exec := &recordingExecutor{}
	tracker := NewTracker(r, exec)

	s := player.Default(uuid.New(), "Efnilite")
	tracker.Join(s)

	tracker.ScoreChanged(s.ID, 10)

	wantCommands := []string{
		"give Efnilite diamond 1",
		"give Efnilite emerald 1",
		"broadcast first ten",
	}
	if !slices.Equal(exec.commands, wantCommands) {
		t.Errorf("commands = %v, want %v", exec.commands, wantCommands)
	}
	if !slices.Equal(exec.messages, []string{"Well done, Efnilite!", "even"}) {
		t.Errorf("messages = %v", exec.messages)
	}
	if !s.HasCollected("10") {
		t.Error("one-time reward not recorded in settings")
	}
	if got := tracker.Pending(s.ID); !slices.Equal(got, []string{"give %player% trophy 1"}) {
		t.Errorf("Pending() = %v", got)
	}

	// A second run to 10 skips the one-time reward.
	exec.commands = nil
	tracker.ScoreChanged(s.ID, 10)
	if slices.Contains(exec.commands, "broadcast first ten") {
		t.Error("one-time reward paid twice")
	}
	if len(tracker.Pending(s.ID)) != 1 {
		t.Error("leave reward queued twice")
	}

	exec.commands = nil
	tracker.Leave(s.ID)
	if !slices.Equal(exec.commands, []string{"give Efnilite trophy 1"}) {
		t.Errorf("leave commands = %v", exec.commands)
	}
	if tracker.Pending(s.ID) != nil {
		t.Error("player still tracked after Leave")
	}

	// Leaving twice and unknown players are no-ops.
	exec.commands = nil
	tracker.Leave(s.ID)
	tracker.ScoreChanged(uuid.New(), 10)
	if len(exec.commands) != 0 {
		t.Errorf("unexpected commands %v", exec.commands)
	}
}

func TestTracker_ExecutorErrorsAreLogged(t *testing.T) {
	r, _ := ParseRewards([]byte(testRewards))
	exec := &recordingExecutor{err: errors.New("offline")}
	tracker := NewTracker(r, exec)

	s := player.Default(uuid.New(), "p")
	tracker.Join(s)
	tracker.ScoreChanged(s.ID, 5)

	if len(exec.commands) != 1 {
		t.Errorf("commands = %v", exec.commands)
	}
}

func TestNewTracker_NilRewards(t *testing.T) {
	exec := &recordingExecutor{}
	tracker := NewTracker(nil, exec)
	s := player.Default(uuid.New(), "p")
	tracker.Join(s)
	tracker.ScoreChanged(s.ID, 10)
	if len(exec.commands) != 0 {
		t.Errorf("commands = %v", exec.commands)
	}
}
