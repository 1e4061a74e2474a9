package chance

import (
	"errors"
	"fmt"
	"math"
)

// Distance categories, in blocks.
const (
	MinDistance = 1
	MaxDistance = 4
)

// ErrInvalidCeiling is returned when the score ceiling is not positive.
var ErrInvalidCeiling = errors.New("chance: score ceiling must be positive")

// Adaptive interpolates distance weights between their "normal" and "maxed"
// values as the player's score approaches the ceiling (the configured
// multiplier).
//
// Index 0 holds the one-block category, index 3 the four-block category.
type Adaptive struct {
	normal  [4]int
	maxed   [4]int
	ceiling float64
	scale   [4]float64
}

// NewAdaptive computes the per-category scale factors
// (maxed - normal) / ceiling.
func NewAdaptive(normal, maxed [4]int, ceiling float64) (*Adaptive, error) {
	if ceiling <= 0 || math.IsNaN(ceiling) || math.IsInf(ceiling, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCeiling, ceiling)
	}

	a := &Adaptive{normal: normal, maxed: maxed, ceiling: ceiling}
	for i := range a.scale {
		a.scale[i] = float64(maxed[i]-normal[i]) / ceiling
	}
	return a, nil
}

// Ceiling returns the score at which weights reach their maxed values.
func (a *Adaptive) Ceiling() float64 {
	return a.ceiling
}

// Scale returns the per-point weight change for a distance category (1..4).
func (a *Adaptive) Scale(distance int) float64 {
	if distance < MinDistance || distance > MaxDistance {
		return 0
	}
	return a.scale[distance-1]
}

// Weights returns the effective distance weights for a score.
//
// Without adaptive difficulty the normal weights always apply. With it, the
// weights move linearly from normal towards maxed while score <= ceiling and
// stay at maxed past the ceiling.
func (a *Adaptive) Weights(score int, adaptive bool) [4]int {
	if !adaptive {
		return a.normal
	}
	if float64(score) > a.ceiling {
		return a.maxed
	}
	if score < 0 {
		score = 0
	}

	var out [4]int
	for i := range out {
		lo, hi := a.normal[i], a.maxed[i]
		if lo > hi {
			lo, hi = hi, lo
		}
		// epsilon absorbs float error at score == ceiling
		w := int(math.Floor(float64(a.normal[i]) + a.scale[i]*float64(score) + 1e-9))
		out[i] = min(max(w, lo), hi)
	}
	return out
}

// EmptyScore returns the lowest score at which the adaptive weights sum to
// zero. Past the ceiling the maxed weights apply, so only scores up to the
// ceiling are checked.
func (a *Adaptive) EmptyScore() (int, bool) {
	for score := 0; float64(score) <= a.ceiling; score++ {
		total := 0
		for _, w := range a.Weights(score, true) {
			total += w
		}
		if total <= 0 {
			return score, true
		}
	}
	return 0, false
}

// DistanceTable builds the distance axis table for a score.
func (a *Adaptive) DistanceTable(score int, adaptive bool) (Table[int], error) {
	w := a.Weights(score, adaptive)
	return Build([]Weight[int]{
		W(1, w[0]),
		W(2, w[1]),
		W(3, w[2]),
		W(4, w[3]),
	})
}
