package game

// EventKind tags an outgoing simulation event.
type EventKind uint8

const (
	EventPlayOnce EventKind = iota
	EventPlayLoop
	EventStopLoop
	EventStopAllLoops
	EventSpawnRequested
	EventClockSpawned
	EventClockDormant
	EventClockRevived
	EventClockPicked
	EventClockDropped
	EventDropRejected
	EventMoved
	EventGameOver
	EventSessionStarted
	EventSessionEnded
)

var eventKindNames = [...]string{
	EventPlayOnce:       "play_once",
	EventPlayLoop:       "play_loop",
	EventStopLoop:       "stop_loop",
	EventStopAllLoops:   "stop_all_loops",
	EventSpawnRequested: "spawn_requested",
	EventClockSpawned:   "clock_spawned",
	EventClockDormant:   "clock_dormant",
	EventClockRevived:   "clock_revived",
	EventClockPicked:    "clock_picked",
	EventClockDropped:   "clock_dropped",
	EventDropRejected:   "drop_rejected",
	EventMoved:          "moved",
	EventGameOver:       "game_over",
	EventSessionStarted: "session_started",
	EventSessionEnded:   "session_ended",
}

func (k EventKind) String() string {
	if int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// IsSound reports whether the event is addressed to the audio sink.
func (k EventKind) IsSound() bool {
	return k <= EventStopAllLoops
}

// Event is one entry of the per-tick outgoing queue. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind  EventKind
	Tick  uint64
	Sound SoundKey
	Clock ClockID
	Slot  int
	Score float64
}
