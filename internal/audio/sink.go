// Package audio turns simulation sound events into audible output.
package audio

import (
	"sync"

	"github.com/okian/clockery/internal/game"
)

// Sink plays sound keys. Implementations must tolerate StopLoop for a key
// that is not playing.
type Sink interface {
	PlayOnce(key game.SoundKey) error
	PlayLoop(key game.SoundKey) error
	StopLoop(key game.SoundKey) error
	StopAllLoops() error
}

// NullSink discards everything. Used for headless runs.
type NullSink struct{}

func (NullSink) PlayOnce(game.SoundKey) error { return nil }
func (NullSink) PlayLoop(game.SoundKey) error { return nil }
func (NullSink) StopLoop(game.SoundKey) error { return nil }
func (NullSink) StopAllLoops() error          { return nil }

// Call is one request recorded by RecordingSink.
type Call struct {
	Op  string
	Key game.SoundKey
}

// RecordingSink remembers every call and which loops are playing.
type RecordingSink struct {
	mu    sync.Mutex
	calls []Call
	loops map[game.SoundKey]bool
}

// NewRecordingSink creates an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{loops: make(map[game.SoundKey]bool)}
}

func (r *RecordingSink) record(op string, key game.SoundKey) {
	r.calls = append(r.calls, Call{Op: op, Key: key})
}

func (r *RecordingSink) PlayOnce(key game.SoundKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("once", key)
	return nil
}

func (r *RecordingSink) PlayLoop(key game.SoundKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("loop", key)
	r.loops[key] = true
	return nil
}

func (r *RecordingSink) StopLoop(key game.SoundKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("stop", key)
	delete(r.loops, key)
	return nil
}

func (r *RecordingSink) StopAllLoops() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record("stop_all", "")
	clear(r.loops)
	return nil
}

// Calls returns a copy of the recorded calls.
func (r *RecordingSink) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Playing reports whether key is currently looping.
func (r *RecordingSink) Playing(key game.SoundKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loops[key]
}
