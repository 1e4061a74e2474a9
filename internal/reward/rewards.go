// Package reward pays out commands and messages when players reach scores.
package reward

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/logger"
)

// Prefixes that change how a reward string is dispatched.
const (
	LeavePrefix = "leave:"
	SendPrefix  = "send:"
)

// PlayerPlaceholder is replaced with the player's name.
const PlayerPlaceholder = "%player%"

// RewardsYAML is the rewards.yaml layout.
type RewardsYAML struct {
	Enabled         bool                `yaml:"enabled"`
	ScoreRewards    map[string][]string `yaml:"score_rewards"`
	IntervalRewards map[string][]string `yaml:"interval_rewards"`
	OneTimeRewards  map[string][]string `yaml:"one_time_rewards"`
}

// Rewards are the parsed reward tables, keyed by score.
type Rewards struct {
	Enabled bool

	// Score rewards fire every time the exact score is reached.
	Score map[int][]string
	// Interval rewards fire on every multiple of the key.
	Interval map[int][]string
	// OneTime rewards fire the first time a player ever reaches the score.
	OneTime map[int][]string
}

// Disabled returns an empty reward set.
func Disabled() *Rewards {
	return &Rewards{
		Score:    map[int][]string{},
		Interval: map[int][]string{},
		OneTime:  map[int][]string{},
	}
}

// LoadRewards reads rewards.yaml. A missing file disables rewards.
func LoadRewards(filename string) (*Rewards, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return Disabled(), nil
		}
		return nil, fmt.Errorf("failed to read rewards file: %w", err)
	}
	return ParseRewards(data)
}

// ParseRewards parses rewards.yaml content. Keys that are not positive
// integers are logged and skipped.
func ParseRewards(data []byte) (*Rewards, error) {
	var raw RewardsYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse rewards YAML: %w", err)
	}

	r := Disabled()
	r.Enabled = raw.Enabled
	if !r.Enabled {
		return r, nil
	}

	r.Score = parseScores("score_rewards", raw.ScoreRewards)
	r.Interval = parseScores("interval_rewards", raw.IntervalRewards)
	r.OneTime = parseScores("one_time_rewards", raw.OneTimeRewards)

	logger.Info("Loaded rewards",
		"score", len(r.Score),
		"interval", len(r.Interval),
		"one_time", len(r.OneTime))
	return r, nil
}

func parseScores(section string, raw map[string][]string) map[int][]string {
	out := make(map[int][]string, len(raw))
	for key, commands := range raw {
		score, err := strconv.Atoi(strings.TrimSpace(key))
		if err == nil && score < 1 {
			err = fmt.Errorf("score %d is below 1", score)
		}
		if err != nil {
			logger.Stack("Invalid reward score", "rewards.yaml "+section, err, "key", key)
			continue
		}
		out[score] = commands
	}
	return out
}

// For returns the reward strings earned by reaching score, in a stable
// order: score rewards, then interval rewards by ascending interval. The
// one-time rewards are returned separately since the caller has to check
// whether the player already collected them.
func (r *Rewards) For(score int) (repeat []string, oneTime []string) {
	if !r.Enabled || score < 1 {
		return nil, nil
	}

	repeat = append(repeat, r.Score[score]...)

	intervals := make([]int, 0, len(r.Interval))
	for k := range r.Interval {
		intervals = append(intervals, k)
	}
	sort.Ints(intervals)
	for _, k := range intervals {
		if score%k == 0 {
			repeat = append(repeat, r.Interval[k]...)
		}
	}

	return repeat, r.OneTime[score]
}
