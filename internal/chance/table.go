// Package chance builds weighted distributions for the course generator.
//
// A Table is an immutable snapshot: callers rebuild it wholesale whenever the
// configured weights change and swap the reference, so a table that is being
// sampled is never mutated.
package chance

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
)

var (
	// ErrEmptyDistribution is returned when sampling a table whose weights sum to zero.
	ErrEmptyDistribution = errors.New("chance: empty distribution")

	// ErrNegativeWeight is returned by Build when a weight is below zero.
	ErrNegativeWeight = errors.New("chance: negative weight")

	// ErrFractionRange is returned when a sample fraction lies outside [0, 1).
	ErrFractionRange = errors.New("chance: fraction out of range")
)

// Weight pairs a category with the number of slots it occupies in a table.
type Weight[C comparable] struct {
	Category C
	Weight   int
}

// W is shorthand for building a Weight literal.
func W[C comparable](category C, weight int) Weight[C] {
	return Weight[C]{Category: category, Weight: weight}
}

// bound marks the exclusive upper slot of a category's range.
type bound[C comparable] struct {
	upper    int
	category C
}

// Table maps the slots [0, Total) to categories. Categories fill the slots in
// the order their weights were declared, later categories taking the higher
// ranges. Weight-zero categories occupy no slots.
type Table[C comparable] struct {
	bounds []bound[C]
	total  int
}

// Build creates a table from weights in declaration order.
func Build[C comparable](weights []Weight[C]) (Table[C], error) {
	t := Table[C]{bounds: make([]bound[C], 0, len(weights))}

	for _, w := range weights {
		if w.Weight < 0 {
			return Table[C]{}, fmt.Errorf("%w: %v has weight %d", ErrNegativeWeight, w.Category, w.Weight)
		}
		if w.Weight == 0 {
			continue
		}
		t.total += w.Weight
		t.bounds = append(t.bounds, bound[C]{upper: t.total, category: w.Category})
	}

	return t, nil
}

// MustBuild is like Build but panics on a negative weight. Intended for
// package-level tables built from constants.
func MustBuild[C comparable](weights ...Weight[C]) Table[C] {
	t, err := Build(weights)
	if err != nil {
		panic(err)
	}
	return t
}

// Total returns the number of slots in the table.
func (t Table[C]) Total() int {
	return t.total
}

// Empty reports whether the table has no slots and therefore cannot be sampled.
func (t Table[C]) Empty() bool {
	return t.total == 0
}

// Slot returns the category occupying the given slot.
func (t Table[C]) Slot(slot int) (C, error) {
	var zero C
	if t.total == 0 {
		return zero, ErrEmptyDistribution
	}
	if slot < 0 || slot >= t.total {
		return zero, fmt.Errorf("chance: slot %d outside [0, %d)", slot, t.total)
	}

	// first bound whose exclusive upper edge lies past the slot
	i := sort.Search(len(t.bounds), func(i int) bool {
		return t.bounds[i].upper > slot
	})
	return t.bounds[i].category, nil
}

// Sample returns the category at floor(fraction * Total).
func (t Table[C]) Sample(fraction float64) (C, error) {
	var zero C
	if t.total == 0 {
		return zero, ErrEmptyDistribution
	}
	if fraction < 0 || fraction >= 1 {
		return zero, fmt.Errorf("%w: %v", ErrFractionRange, fraction)
	}
	return t.Slot(int(fraction * float64(t.total)))
}

// Draw samples the table with a fresh fraction from rng.
func (t Table[C]) Draw(rng *rand.Rand) (C, error) {
	return t.Sample(rng.Float64())
}

// Range returns the half-open slot range [lo, hi) occupied by category.
// ok is false when the category holds no slots.
func (t Table[C]) Range(category C) (lo, hi int, ok bool) {
	lower := 0
	for _, b := range t.bounds {
		if b.category == category {
			return lower, b.upper, true
		}
		lower = b.upper
	}
	return 0, 0, false
}

// Categories lists the categories holding at least one slot, lowest range first.
func (t Table[C]) Categories() []C {
	out := make([]C, 0, len(t.bounds))
	for _, b := range t.bounds {
		out = append(out, b.category)
	}
	return out
}
