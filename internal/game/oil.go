package game

import "math"

// stepOil drinks, leaks and escalates the leak. It returns true when the
// tank ran dry and the session ended.
func (s *Session) stepOil(in Input, dt float64) bool {
	t := s.tuning
	p := &s.player

	p.Drinking = in.Drink && p.Slot == s.slots.OilSlot() && !p.Holding()
	before := p.OilLevel
	if p.Drinking {
		p.OilLevel = math.Min(t.OilMax, p.OilLevel+t.DrinkRate*dt)
		s.playLoop(SoundOilDrink)
	} else {
		s.stopLoop(SoundOilDrink)
	}

	p.OilLevel -= p.OilLeak * dt
	if p.Drinking && p.OilLevel < before {
		// drinking never loses ground, even once the leak outpaces it
		p.OilLevel = before
	}
	p.OilLeak += t.LeakGrowth * dt

	if p.OilLevel <= 0 {
		p.OilLevel = 0
		s.gameOver()
		return true
	}
	return false
}

// OilBand maps an oil level to the gauge band shown to the player: 0 for
// empty (below 5), then 1 for 5-15 up to 10 for 95-100.
func OilBand(level float64) int {
	if level < 5 || level > 100 {
		return 0
	}
	for band := 1; band < 10; band++ {
		if level <= 5+10*float64(band) {
			return band
		}
	}
	return 10
}
