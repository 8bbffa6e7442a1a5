package game

import "fmt"

// SlotMap is the fixed row of positions the player and clocks occupy.
// Index 0 is the spawn slot and the last index is the oil drink slot.
type SlotMap struct {
	positions []Vec2
}

// NewSlotMap copies positions into an immutable slot map.
func NewSlotMap(positions []Vec2) *SlotMap {
	p := make([]Vec2, len(positions))
	copy(p, positions)
	return &SlotMap{positions: p}
}

// Len returns the number of slots (N+1).
func (m *SlotMap) Len() int { return len(m.positions) }

// SpawnSlot is where new clocks appear.
func (m *SlotMap) SpawnSlot() int { return 0 }

// OilSlot is where the player drinks oil.
func (m *SlotMap) OilSlot() int { return len(m.positions) - 1 }

// PositionOf returns the resting position of slot i. Indices are clamped by
// callers, so an out-of-range index is a programming error.
func (m *SlotMap) PositionOf(i int) Vec2 {
	if i < 0 || i >= len(m.positions) {
		panic(fmt.Sprintf("slot index %d out of range [0,%d]", i, len(m.positions)-1))
	}
	return m.positions[i]
}

// SlotOf finds the slot whose x coordinate matches p exactly. Lifted clocks
// keep their slot x, so only the slot axis is compared.
func (m *SlotMap) SlotOf(p Vec2) (int, bool) {
	for i, s := range m.positions {
		if s.X == p.X {
			return i, true
		}
	}
	return 0, false
}

// Clamp bounds i to [0, N] without wrapping.
func (m *SlotMap) Clamp(i int) int {
	if i < 0 {
		return 0
	}
	if last := len(m.positions) - 1; i > last {
		return last
	}
	return i
}
