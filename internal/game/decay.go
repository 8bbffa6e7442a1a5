package game

// stepClocks advances hands, drains lifetimes and scores one fixed step.
func (s *Session) stepClocks(dt float64) {
	t := s.tuning
	hourRate := t.HourRate * t.HandSpeed
	minuteRate := hourRate * t.MinuteFactor

	ref := s.clocks.mainClock()
	ref.advance(hourRate, minuteRate, dt)

	for i := range s.clocks.clocks {
		c := &s.clocks.clocks[i]
		if !c.Active() {
			continue
		}
		c.advance(hourRate, minuteRate, dt)

		c.TimeLeft -= dt
		if c.TimeLeft <= 0 {
			c.TimeLeft = 0
			s.stopLoop(c.AudioKey)
			s.emit(Event{Kind: EventClockDormant, Clock: c.ID})
		}

		// A clock that ran out this step still scores it.
		s.score += dt
		if InSync(c, ref, t.SyncTolerance) {
			s.score += dt
		}
	}
}
