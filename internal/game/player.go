package game

// Controller is the player's state for one session.
type Controller struct {
	Slot        int
	Held        ClockID
	Winding     bool
	TimeWinding float64
	Setting     bool
	TimeSetting float64
	// Direction is the movement intent of the latest tick: -1, 0 or +1.
	Direction int
	Drinking  bool
	OilLevel  float64
	OilLeak   float64

	setTier int
}

func newController(t *Tuning) Controller {
	return Controller{
		Slot:     t.StartSlot,
		Held:     NoClock,
		OilLevel: t.OilStart,
		OilLeak:  t.LeakStart,
		setTier:  -1,
	}
}

// Holding reports whether a clock is picked up.
func (p Controller) Holding() bool { return p.Held != NoClock }
