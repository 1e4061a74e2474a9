package feed

import (
	"github.com/google/uuid"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/leaderboard"
)

// Message types sent to feed clients.
const (
	TypeLeaderboard = "leaderboard"
	TypeScore       = "score"
	TypeFinish      = "finish"
)

// EntryJSON is one leaderboard row.
type EntryJSON struct {
	Rank       int       `json:"rank"`
	Player     uuid.UUID `json:"player"`
	Name       string    `json:"name"`
	Time       string    `json:"time"`
	Difficulty string    `json:"difficulty"`
	Score      int       `json:"score"`
}

// LeaderboardMessage is sent once when a client connects.
type LeaderboardMessage struct {
	Type    string      `json:"type"`
	Mode    string      `json:"mode"`
	Entries []EntryJSON `json:"entries"`
}

// ScoreMessage is broadcast after every successful jump.
type ScoreMessage struct {
	Type   string    `json:"type"`
	Player uuid.UUID `json:"player"`
	Score  int       `json:"score"`
}

// FinishMessage is broadcast when a run ends.
type FinishMessage struct {
	Type   string    `json:"type"`
	Mode   string    `json:"mode"`
	Player uuid.UUID `json:"player"`
	Name   string    `json:"name"`
	Score  int       `json:"score"`
	Time   string    `json:"time"`
	Best   bool      `json:"best"`
	Rank   int       `json:"rank"`
}

func entryJSON(e leaderboard.Entry) EntryJSON {
	return EntryJSON{
		Rank:       e.Rank,
		Player:     e.ID,
		Name:       e.Score.Name,
		Time:       e.Score.Time,
		Difficulty: e.Score.Difficulty,
		Score:      e.Score.Score,
	}
}
