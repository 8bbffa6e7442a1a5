package game

// ClockView is the presentation view of one clock.
type ClockView struct {
	ID       ClockID
	Main     bool
	Slot     int // -1 for the main clock or an unmatched position
	Position Vec2
	Hour     float64
	Minute   float64
	TimeLeft float64
	Lifted   bool
	Dormant  bool
	InSync   bool
}

// Snapshot is a read-only copy of everything a renderer or recorder needs.
type Snapshot struct {
	SessionID string
	State     State
	Tick      uint64
	Elapsed   float64
	Score     float64
	Slots     []Vec2
	SpawnSlot int
	OilSlot   int
	Player    Controller
	OilBand   int
	Clocks    []ClockView
	Active    int
	Synced    int
	MaxClocks int
}

// Snapshot captures the current state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID: s.id,
		State:     s.state,
		Tick:      s.tick,
		Elapsed:   s.elapsed,
		Score:     s.score,
		Slots:     append([]Vec2(nil), s.slots.positions...),
		SpawnSlot: s.slots.SpawnSlot(),
		OilSlot:   s.slots.OilSlot(),
		Player:    s.player,
		OilBand:   OilBand(s.player.OilLevel),
		MaxClocks: s.tuning.MaxClocks(),
	}

	ref := s.clocks.mainClock()
	snap.Clocks = make([]ClockView, 0, len(s.clocks.clocks))
	for i := range s.clocks.clocks {
		c := &s.clocks.clocks[i]
		v := ClockView{
			ID:       c.ID,
			Main:     c.Main,
			Slot:     -1,
			Position: c.Position,
			Hour:     c.Hour,
			Minute:   c.Minute,
			TimeLeft: c.TimeLeft,
			Lifted:   c.Lifted,
			Dormant:  c.Dormant(),
		}
		if !c.Main {
			if slot, ok := s.slots.SlotOf(c.Position); ok {
				v.Slot = slot
			}
			if c.Active() {
				snap.Active++
				if ref != nil && InSync(c, ref, s.tuning.SyncTolerance) {
					v.InSync = true
					snap.Synced++
				}
			}
		}
		snap.Clocks = append(snap.Clocks, v)
	}
	return snap
}
