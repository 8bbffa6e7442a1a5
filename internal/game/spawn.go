package game

// checkSpawn raises a spawn request once the score passes the threshold for
// the current clock count. A pending request blocks further ones.
func (s *Session) checkSpawn() {
	if s.pendingSpawn {
		return
	}
	count := s.clocks.ordinaryCount()
	if count < 1 || count >= s.tuning.MaxClocks() {
		return
	}
	if s.score > s.tuning.Thresholds[count-1] {
		s.pendingSpawn = true
		s.emit(Event{Kind: EventSpawnRequested, Score: s.score})
	}
}

// consumeSpawn creates the requested clock at the spawn slot from the next
// preset in order. The request stays pending while a clock still sits on the
// spawn slot, since two clocks there could never be picked up.
func (s *Session) consumeSpawn() {
	if !s.pendingSpawn || s.state != StatePlaying {
		return
	}
	if len(s.clocks.atSlot(s.slots, s.slots.SpawnSlot(), NoClock)) > 0 {
		return
	}
	s.pendingSpawn = false

	count := s.clocks.ordinaryCount()
	if count >= s.tuning.MaxClocks() {
		return
	}
	id := s.clocks.add(s.clockFromPreset(s.tuning.Presets[count], s.slots.SpawnSlot()))
	s.reached = s.clocks.ordinaryCount()

	s.playOnce(pick(s.rng, clockSpawnSounds))
	s.playLoop(s.clocks.get(id).AudioKey)
	s.emit(Event{Kind: EventClockSpawned, Clock: id, Slot: s.slots.SpawnSlot()})
}

func (s *Session) clockFromPreset(p ClockPreset, slot int) Clock {
	return Clock{
		TimeLeft: p.TimeLeft,
		Hour:     normalizeAngle(p.Hour),
		Minute:   normalizeAngle(p.Minute),
		AudioKey: p.AudioKey,
		Position: s.slots.PositionOf(slot),
	}
}
