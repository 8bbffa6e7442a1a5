package game

import "math"

const twoPi = 2 * math.Pi

// ClockID is a stable handle into the clock arena.
type ClockID int

// NoClock marks an empty handle.
const NoClock ClockID = -1

// Clock is one clock face. The main clock is the synchronization reference
// and never decays; ordinary clocks go dormant when TimeLeft reaches zero.
type Clock struct {
	ID       ClockID
	Main     bool
	TimeLeft float64
	Hour     float64
	Minute   float64
	AudioKey SoundKey
	Position Vec2
	Lifted   bool
}

// Active reports whether an ordinary clock is still ticking.
func (c *Clock) Active() bool { return !c.Main && c.TimeLeft > 0 }

// Dormant reports whether an ordinary clock ran out of time.
func (c *Clock) Dormant() bool { return !c.Main && c.TimeLeft <= 0 }

// advance rotates both hands by their rates over dt seconds.
func (c *Clock) advance(hourRate, minuteRate, dt float64) {
	c.Hour = normalizeAngle(c.Hour + hourRate*dt)
	c.Minute = normalizeAngle(c.Minute + minuteRate*dt)
}

// arena owns every clock of a session. Clocks are never removed mid-session,
// so a ClockID stays valid until the arena is reset.
type arena struct {
	clocks []Clock
	main   ClockID
}

func newArena() arena {
	return arena{main: NoClock}
}

func (a *arena) add(c Clock) ClockID {
	id := ClockID(len(a.clocks))
	c.ID = id
	a.clocks = append(a.clocks, c)
	if c.Main {
		a.main = id
	}
	return id
}

func (a *arena) get(id ClockID) *Clock {
	if id < 0 || int(id) >= len(a.clocks) {
		return nil
	}
	return &a.clocks[id]
}

func (a *arena) mainClock() *Clock { return a.get(a.main) }

// ordinaryCount returns how many non-main clocks exist, dormant included.
func (a *arena) ordinaryCount() int {
	n := len(a.clocks)
	if a.main != NoClock {
		n--
	}
	return n
}

// atSlot lists the ordinary clocks whose position maps to slot, skipping
// exclude. Clocks with no matching slot are ignored.
func (a *arena) atSlot(slots *SlotMap, slot int, exclude ClockID) []ClockID {
	var out []ClockID
	for i := range a.clocks {
		c := &a.clocks[i]
		if c.Main || c.ID == exclude {
			continue
		}
		if s, ok := slots.SlotOf(c.Position); ok && s == slot {
			out = append(out, c.ID)
		}
	}
	return out
}

// normalizeAngle maps a to [0, 2π).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, twoPi)
	if a < 0 {
		a += twoPi
	}
	return a
}

// ShortestArc returns the smallest angle between two orientations, in [0, π].
func ShortestArc(a, b float64) float64 {
	d := normalizeAngle(a - b)
	if d > math.Pi {
		d = twoPi - d
	}
	return d
}

// InSync reports whether both hands of c are within tolerance of ref.
func InSync(c, ref *Clock, tolerance float64) bool {
	return ShortestArc(c.Hour, ref.Hour) < tolerance &&
		ShortestArc(c.Minute, ref.Minute) < tolerance
}
