package generator

import (
	"errors"
	"fmt"

	"github.com/OpenCommunity-Original/Walk-in-the-Park/internal/world"
)

var (
	// ErrInvalidState is returned when an operation is not allowed in the
	// generator's current state.
	ErrInvalidState = errors.New("generator: invalid state")

	// ErrStopped is returned by Generate once the run has ended, including
	// when the run ended while the placement was in flight.
	ErrStopped = errors.New("generator: run stopped")

	// ErrNoSchematic is returned when a schematic jump was drawn but no
	// template is available for the player.
	ErrNoSchematic = errors.New("generator: no schematic available")

	// ErrNoAlternative is returned when every redraw reproduced the plan and
	// target that just failed.
	ErrNoAlternative = errors.New("generator: no alternative to failed jump")
)

// ConfigurationError is a content or configuration mistake that an operator
// has to fix, such as a schematic without its marker blocks. It is never
// retried.
type ConfigurationError struct {
	Schematic string
	Reason    string
	Err       error
}

func (e *ConfigurationError) Error() string {
	msg := e.Reason
	if e.Schematic != "" {
		msg = fmt.Sprintf("schematic %s: %s", e.Schematic, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "generator: " + msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// PlacementError is a transient failure to place a jump or island. The
// generator state is unchanged and the next attempt draws a fresh plan.
type PlacementError struct {
	// Kind is the jump type being placed, or "island".
	Kind      string
	Schematic string
	Pos       world.Pos
	Err       error
}

func (e *PlacementError) Error() string {
	if e.Schematic != "" {
		return fmt.Sprintf("generator: failed to place %s jump %s at %s: %v", e.Kind, e.Schematic, e.Pos, e.Err)
	}
	return fmt.Sprintf("generator: failed to place %s jump at %s: %v", e.Kind, e.Pos, e.Err)
}

func (e *PlacementError) Unwrap() error {
	return e.Err
}
