package game

// loopRegistry remembers which loop keys are playing so the sink never
// receives PlayLoop twice for a key without a StopLoop in between.
type loopRegistry struct {
	active map[SoundKey]struct{}
}

func newLoopRegistry() loopRegistry {
	return loopRegistry{active: make(map[SoundKey]struct{})}
}

// start returns true when key was not playing and is now marked active.
func (r *loopRegistry) start(key SoundKey) bool {
	if _, ok := r.active[key]; ok {
		return false
	}
	r.active[key] = struct{}{}
	return true
}

// stop returns true when key was playing.
func (r *loopRegistry) stop(key SoundKey) bool {
	if _, ok := r.active[key]; !ok {
		return false
	}
	delete(r.active, key)
	return true
}

func (r *loopRegistry) playing(key SoundKey) bool {
	_, ok := r.active[key]
	return ok
}

func (r *loopRegistry) len() int { return len(r.active) }

func (r *loopRegistry) reset() {
	clear(r.active)
}
