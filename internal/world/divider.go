package world

import (
	"fmt"
	"sync"
)

// Divider partitions the parkour world into equally sized square regions,
// one per session. Slots are laid out row by row on the X/Z plane and reused
// once released.
type Divider struct {
	spacing  int
	columns  int
	height   int
	sessions map[string]int
	used     map[int]bool
	mu       sync.Mutex
}

// NewDivider creates a divider whose regions are spacing blocks wide, with
// columns regions per row, anchored at the given Y level.
func NewDivider(spacing, columns, height int) *Divider {
	if spacing <= 0 {
		spacing = 1000
	}
	if columns <= 0 {
		columns = 16
	}
	return &Divider{
		spacing:  spacing,
		columns:  columns,
		height:   height,
		sessions: make(map[string]int),
		used:     make(map[int]bool),
	}
}

// Allocate reserves the lowest free slot for a session and returns it.
// Allocating an already known session returns its existing slot.
func (d *Divider) Allocate(sessionID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if slot, ok := d.sessions[sessionID]; ok {
		return slot
	}

	slot := 0
	for d.used[slot] {
		slot++
	}
	d.used[slot] = true
	d.sessions[sessionID] = slot
	return slot
}

// Release frees a session's slot for reuse.
func (d *Divider) Release(sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if slot, ok := d.sessions[sessionID]; ok {
		delete(d.used, slot)
		delete(d.sessions, sessionID)
	}
}

// Origin returns the center of the session's region.
func (d *Divider) Origin(sessionID string) (Pos, error) {
	d.mu.Lock()
	slot, ok := d.sessions[sessionID]
	d.mu.Unlock()

	if !ok {
		return Pos{}, fmt.Errorf("world: no region allocated for session %s", sessionID)
	}
	return d.SlotOrigin(slot), nil
}

// SlotOrigin returns the center of a slot's region.
func (d *Divider) SlotOrigin(slot int) Pos {
	row, col := slot/d.columns, slot%d.columns
	return Pos{
		X: col*d.spacing + d.spacing/2,
		Y: d.height,
		Z: row*d.spacing + d.spacing/2,
	}
}

// Count returns the number of allocated regions.
func (d *Divider) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}
