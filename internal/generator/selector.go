package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/chance"
)

// JumpPlan is one draw across every axis.
type JumpPlan struct {
	Type JumpType
	// Special is only meaningful when Type is Special.
	Special  SpecialKind
	Distance int
	Height   int
}

func (p JumpPlan) String() string {
	if p.Type == Special {
		return fmt.Sprintf("%s/%s distance=%d height=%d", p.Type, p.Special, p.Distance, p.Height)
	}
	return fmt.Sprintf("%s distance=%d height=%d", p.Type, p.Distance, p.Height)
}

// Selector draws jump plans. Every axis is an independent uniform draw.
// A Selector is not safe for concurrent use; each run owns one.
type Selector struct {
	rng *rand.Rand

	// the distance table only changes when the effective weights do
	weights  [4]int
	adaptive *chance.Adaptive
	distance chance.Table[int]
}

// NewSelector creates a selector drawing from rng. A nil rng is seeded from
// the clock.
func NewSelector(rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{rng: rng}
}

// Rand returns the selector's random source.
func (s *Selector) Rand() *rand.Rand {
	return s.rng
}

// Select draws the jump type, the special kind when the type is special,
// then the distance and height.
func (s *Selector) Select(t *Tables, score int, adaptive bool) (JumpPlan, error) {
	var plan JumpPlan

	jumpType, err := t.Types.Draw(s.rng)
	if err != nil {
		return JumpPlan{}, fmt.Errorf("type draw: %w", err)
	}
	plan.Type = jumpType

	if jumpType == Special {
		kind, err := t.Special.Draw(s.rng)
		if err != nil {
			return JumpPlan{}, fmt.Errorf("special draw: %w", err)
		}
		plan.Special = kind
	}

	distance, err := s.distanceTable(t, score, adaptive)
	if err != nil {
		return JumpPlan{}, err
	}
	if plan.Distance, err = distance.Draw(s.rng); err != nil {
		return JumpPlan{}, fmt.Errorf("distance draw at score %d: %w", score, err)
	}

	if plan.Height, err = t.Height.Draw(s.rng); err != nil {
		return JumpPlan{}, fmt.Errorf("height draw: %w", err)
	}

	return plan, nil
}

func (s *Selector) distanceTable(t *Tables, score int, adaptive bool) (chance.Table[int], error) {
	w := t.Distance.Weights(score, adaptive)
	if s.adaptive == t.Distance && s.weights == w {
		return s.distance, nil
	}

	table, err := t.Distance.DistanceTable(score, adaptive)
	if err != nil {
		return chance.Table[int]{}, fmt.Errorf("distance table at score %d: %w", score, err)
	}
	s.adaptive, s.weights, s.distance = t.Distance, w, table
	return table, nil
}
