// Package autoplay plays sessions headlessly and soaks the leaderboard with
// the results.
package autoplay

import (
	"github.com/okian/clockery/internal/game"
)

// Default bot thresholds.
const (
	DefaultLowOil    = 35.0
	DefaultFullOil   = 95.0
	DefaultWindBelow = 12.0
	DefaultWindTo    = 45.0
)

// Bot is a greedy policy: keep the oil up, carry new clocks off the spawn
// slot and wind whichever clock is closest to running down. It never sets
// hands. After GiveUpAfter simulated seconds it stops playing so the oil
// runs dry and the session ends.
type Bot struct {
	Name        string
	LowOil      float64
	FullOil     float64
	WindBelow   float64
	WindTo      float64
	GiveUpAfter float64
}

// NewBot returns a bot with the default thresholds.
func NewBot(name string, giveUpAfter float64) *Bot {
	return &Bot{
		Name:        name,
		LowOil:      DefaultLowOil,
		FullOil:     DefaultFullOil,
		WindBelow:   DefaultWindBelow,
		WindTo:      DefaultWindTo,
		GiveUpAfter: giveUpAfter,
	}
}

// Decide picks the input for the next tick.
func (b *Bot) Decide(snap game.Snapshot) game.Input {
	if snap.State != game.StatePlaying {
		return game.Input{}
	}
	if b.GiveUpAfter > 0 && snap.Elapsed >= b.GiveUpAfter {
		return game.Input{}
	}

	p := snap.Player
	if p.Holding() {
		return b.carry(snap)
	}

	oil := p.OilLevel
	if oil < b.LowOil || (p.Drinking && oil < b.FullOil) {
		if p.Slot == snap.OilSlot {
			return game.Input{Drink: true}
		}
		return towards(p.Slot, snap.OilSlot)
	}

	target, ok := b.target(snap)
	if !ok {
		return game.Input{}
	}
	if p.Slot != target {
		return towards(p.Slot, target)
	}
	return game.Input{Interact: true}
}

// carry winds the held clock, then drops it on the nearest free slot.
// A thirsty bot skips the winding.
func (b *Bot) carry(snap game.Snapshot) game.Input {
	p := snap.Player
	held, _ := heldClock(snap)
	thirsty := p.OilLevel < b.LowOil

	if !thirsty && held.TimeLeft < b.WindTo {
		return game.Input{Wind: true}
	}
	slot, ok := freeSlot(snap)
	if !ok {
		return game.Input{Wind: !thirsty}
	}
	if slot != p.Slot {
		return towards(p.Slot, slot)
	}
	return game.Input{Interact: true}
}

// target is the slot of the clock to pick up next: anything sitting on the
// spawn slot first, then the clock with the least time left below WindBelow.
func (b *Bot) target(snap game.Snapshot) (int, bool) {
	occupancy := make(map[int]int)
	for _, c := range snap.Clocks {
		if !c.Main && !c.Lifted && c.Slot >= 0 {
			occupancy[c.Slot]++
		}
	}
	// Two clocks on one slot cannot be picked up.
	if occupancy[snap.SpawnSlot] == 1 {
		return snap.SpawnSlot, true
	}

	best, found := -1, false
	bestLeft := b.WindBelow
	for _, c := range snap.Clocks {
		if c.Main || c.Lifted || c.Slot < 0 || occupancy[c.Slot] != 1 {
			continue
		}
		if c.TimeLeft < bestLeft {
			best, bestLeft, found = c.Slot, c.TimeLeft, true
		}
	}
	return best, found
}

func heldClock(snap game.Snapshot) (game.ClockView, bool) {
	for _, c := range snap.Clocks {
		if c.ID == snap.Player.Held {
			return c, true
		}
	}
	return game.ClockView{}, false
}

// freeSlot is the droppable slot nearest to the player, preferring the left.
func freeSlot(snap game.Snapshot) (int, bool) {
	taken := make(map[int]bool)
	for _, c := range snap.Clocks {
		if !c.Main && !c.Lifted && c.Slot >= 0 {
			taken[c.Slot] = true
		}
	}
	from := snap.Player.Slot
	for d := 0; d < len(snap.Slots); d++ {
		for _, s := range [2]int{from - d, from + d} {
			if s < 0 || s >= len(snap.Slots) || s == snap.SpawnSlot || s == snap.OilSlot || taken[s] {
				continue
			}
			return s, true
		}
	}
	return 0, false
}

func towards(from, to int) game.Input {
	switch {
	case to < from:
		return game.Input{Left: true}
	case to > from:
		return game.Input{Right: true}
	default:
		return game.Input{}
	}
}
