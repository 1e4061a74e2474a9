package reward

import (
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/logger"
	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/player"
)

// Executor carries out rewards.
type Executor interface {
	// Command runs a console command.
	Command(cmd string) error
	// Send delivers a chat message to a player.
	Send(player uuid.UUID, msg string) error
}

// LogExecutor logs every reward instead of running it.
type LogExecutor struct{}

func (LogExecutor) Command(cmd string) error {
	logger.Info("Reward command", "command", cmd)
	return nil
}

func (LogExecutor) Send(player uuid.UUID, msg string) error {
	logger.Info("Reward message", "player", player, "message", msg)
	return nil
}

type tracked struct {
	settings *player.Settings
	leave    []string
}

// Tracker pays rewards as players' scores change. It is a generator score
// sink.
type Tracker struct {
	rewards *Rewards
	exec    Executor

	mu      sync.Mutex
	players map[uuid.UUID]*tracked
}

// NewTracker creates a tracker for the given reward tables.
func NewTracker(rewards *Rewards, exec Executor) *Tracker {
	if rewards == nil {
		rewards = Disabled()
	}
	return &Tracker{
		rewards: rewards,
		exec:    exec,
		players: make(map[uuid.UUID]*tracked),
	}
}

// Join starts tracking a player. One-time rewards are recorded in settings.
func (t *Tracker) Join(settings *player.Settings) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.players[settings.ID] = &tracked{settings: settings}
}

// ScoreChanged dispatches the rewards for a newly reached score.
func (t *Tracker) ScoreChanged(id uuid.UUID, score int) {
	repeat, oneTime := t.rewards.For(score)
	if len(repeat) == 0 && len(oneTime) == 0 {
		return
	}

	t.mu.Lock()
	p, ok := t.players[id]
	if !ok {
		t.mu.Unlock()
		return
	}

	commands := append([]string{}, repeat...)
	if len(oneTime) > 0 && p.settings.Collect(strconv.Itoa(score)) {
		commands = append(commands, oneTime...)
	}

	var now []string
	for _, c := range commands {
		if rest, ok := strings.CutPrefix(c, LeavePrefix); ok {
			p.leave = append(p.leave, rest)
			continue
		}
		now = append(now, c)
	}
	name := p.settings.Name
	t.mu.Unlock()

	for _, c := range now {
		t.dispatch(id, name, c)
	}
}

// Leave stops tracking a player and runs their deferred leave rewards.
func (t *Tracker) Leave(id uuid.UUID) {
	t.mu.Lock()
	p, ok := t.players[id]
	delete(t.players, id)
	t.mu.Unlock()

	if !ok {
		return
	}
	for _, c := range p.leave {
		t.dispatch(id, p.settings.Name, c)
	}
}

// Pending returns the leave rewards queued for a player.
func (t *Tracker) Pending(id uuid.UUID) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.players[id]; ok {
		return append([]string(nil), p.leave...)
	}
	return nil
}

func (t *Tracker) dispatch(id uuid.UUID, name, reward string) {
	reward = strings.ReplaceAll(reward, PlayerPlaceholder, name)

	var err error
	if msg, ok := strings.CutPrefix(reward, SendPrefix); ok {
		err = t.exec.Send(id, msg)
	} else {
		err = t.exec.Command(reward)
	}
	if err != nil {
		logger.Warning("Failed to execute reward", "player", id, "reward", reward, "error", err)
	}
}
