// Package leaderboard keeps the best score of every player per game mode.
package leaderboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedScore is returned by ParseScore for strings it cannot split.
var ErrMalformedScore = errors.New("leaderboard: malformed score")

// Score is one player's best run.
type Score struct {
	Name string
	// Time is the run duration as formatted by FormatTime.
	Time string
	// Difficulty is the schematic difficulty the run was played at.
	Difficulty string
	Score      int
}

// String returns the stored form "name,time,difficulty,score".
func (s Score) String() string {
	return fmt.Sprintf("%s,%s,%s,%d", s.Name, s.Time, s.Difficulty, s.Score)
}

// ParseScore parses the stored form. Names may contain commas; the last
// three fields are always time, difficulty and score.
func ParseScore(s string) (Score, error) {
	parts := strings.Split(s, ",")
	if len(parts) < 4 {
		return Score{}, fmt.Errorf("%w: %q", ErrMalformedScore, s)
	}

	n := len(parts)
	score, err := strconv.Atoi(strings.TrimSpace(parts[n-1]))
	if err != nil {
		return Score{}, fmt.Errorf("%w: %q: %v", ErrMalformedScore, s, err)
	}

	return Score{
		Name:       strings.Join(parts[:n-3], ","),
		Time:       parts[n-3],
		Difficulty: parts[n-2],
		Score:      score,
	}, nil
}

// FormatTime renders a run duration as "mm:ss.SSS", with hours prepended
// for runs of an hour or more.
func FormatTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h, m, sec, milli := ms/3_600_000, ms/60_000%60, ms/1000%60, ms%1000
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, sec, milli)
	}
	return fmt.Sprintf("%02d:%02d.%03d", m, sec, milli)
}

// FormatDifficulty renders a schematic difficulty the way it is stored.
func FormatDifficulty(d float64) string {
	return strconv.FormatFloat(d, 'f', 1, 64)
}
