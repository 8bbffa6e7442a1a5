package game

import "math"

// interact resolves movement, pick-up/drop, winding and setting for one tick.
func (s *Session) interact(in Input, dt float64) {
	p := &s.player

	p.Direction = in.direction()
	if p.Direction != 0 {
		s.move(p.Direction)
	}
	if in.Interact {
		s.toggleHold()
	}
	s.wind(in.Wind, dt)
	s.set(in.Set, dt)
}

// move shifts the player one slot, clamping at both ends. A held clock is
// dragged along.
func (s *Session) move(dir int) {
	p := &s.player
	next := s.slots.Clamp(p.Slot + dir)
	if next == p.Slot {
		return
	}
	p.Slot = next
	s.playOnce(pick(s.rng, stepSounds))
	s.emit(Event{Kind: EventMoved, Slot: next, Clock: p.Held})

	if c := s.clocks.get(p.Held); c != nil {
		c.Position = s.liftedPosition(next)
	}
}

// toggleHold picks up the only free clock at the player's slot, or drops the
// held clock onto an empty clock slot.
func (s *Session) toggleHold() {
	p := &s.player
	if !p.Holding() {
		if p.Slot == s.slots.OilSlot() {
			return
		}
		ids := s.clocks.atSlot(s.slots, p.Slot, NoClock)
		if len(ids) != 1 {
			return
		}
		c := s.clocks.get(ids[0])
		c.Lifted = true
		c.Position = s.liftedPosition(p.Slot)
		p.Held = c.ID
		s.emit(Event{Kind: EventClockPicked, Clock: c.ID, Slot: p.Slot})
		return
	}

	// The clock-down sound plays whether or not the drop is accepted.
	s.playOnce(pick(s.rng, clockDownSounds))

	if p.Slot == s.slots.SpawnSlot() || p.Slot == s.slots.OilSlot() ||
		len(s.clocks.atSlot(s.slots, p.Slot, p.Held)) != 0 {
		s.emit(Event{Kind: EventDropRejected, Clock: p.Held, Slot: p.Slot})
		return
	}
	c := s.clocks.get(p.Held)
	c.Lifted = false
	c.Position = s.slots.PositionOf(p.Slot)
	p.Held = NoClock
	s.emit(Event{Kind: EventClockDropped, Clock: c.ID, Slot: p.Slot})
}

// wind replenishes the held clock's time while the input is held.
func (s *Session) wind(hold bool, dt float64) {
	p := &s.player
	c := s.clocks.get(p.Held)
	if !hold || c == nil {
		if p.Winding {
			s.stopLoop(SoundWinding)
		}
		p.Winding = false
		p.TimeWinding = 0
		return
	}

	p.Winding = true
	p.TimeWinding = math.Min(s.tuning.AccumulatorCap, p.TimeWinding+dt)
	s.playLoop(SoundWinding)

	before := c.TimeLeft
	c.TimeLeft += s.tuning.WindRate * dt
	if limit := s.tuning.MaxTimeLeft; limit > 0 && c.TimeLeft > limit {
		c.TimeLeft = math.Max(before, limit)
	}
	if before == 0 && c.TimeLeft > 0 {
		s.playLoop(c.AudioKey)
		s.emit(Event{Kind: EventClockRevived, Clock: c.ID})
	}
}

// set spins the held clock's hands, faster the longer the input is held.
func (s *Session) set(hold bool, dt float64) {
	p := &s.player
	c := s.clocks.get(p.Held)
	if !hold || c == nil {
		if p.setTier >= 0 {
			s.stopLoop(SettingTiers[p.setTier])
		}
		p.setTier = -1
		p.Setting = false
		p.TimeSetting = 0
		return
	}

	t := s.tuning
	p.Setting = true
	p.TimeSetting = math.Min(t.AccumulatorCap, p.TimeSetting+dt)

	speed := t.SetSpeedFactor * p.TimeSetting
	c.Hour = normalizeAngle(c.Hour + t.HourRate*speed*dt)
	c.Minute = normalizeAngle(c.Minute + t.HourRate*t.MinuteFactor*speed*dt)

	tier := min(int(p.TimeSetting/t.SetTierBand), len(SettingTiers)-1)
	if tier != p.setTier {
		if p.setTier >= 0 {
			s.stopLoop(SettingTiers[p.setTier])
		}
		s.playLoop(SettingTiers[tier])
		p.setTier = tier
	}
}

func (s *Session) liftedPosition(slot int) Vec2 {
	pos := s.slots.PositionOf(slot)
	pos.Y += s.tuning.LiftOffset
	return pos
}
