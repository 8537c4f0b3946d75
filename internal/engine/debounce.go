package engine

import (
	"sync"
	"time"
)

// Debouncer is a cancellable delayed-execution primitive with
// single-owner-per-key semantics: scheduling a run for a key always replaces
// any pending run for that key, so at most one timer per key is live.
//
// The fire callback receives a generation token. It must claim the run with
// Take before acting; a superseded or cancelled generation fails the claim
// and the fire becomes a no-op. This closes the race between a timer that
// has already popped and a concurrent Schedule/Cancel.
type Debouncer struct {
	mu      sync.Mutex
	seq     uint64
	pending map[string]*pendingRun
}

type pendingRun struct {
	gen   uint64
	timer *time.Timer
}

func NewDebouncer() *Debouncer {
	return &Debouncer{pending: map[string]*pendingRun{}}
}

// Schedule arms fire(gen) to run after delay, superseding any pending run
// for key. The payload must be captured in the closure at schedule time.
func (d *Debouncer) Schedule(key string, delay time.Duration, fire func(gen uint64)) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked(key)
	d.seq++
	gen := d.seq
	d.pending[key] = &pendingRun{
		gen:   gen,
		timer: time.AfterFunc(delay, func() { fire(gen) }),
	}
	return gen
}

// Take claims a fired run. It returns false when the generation was
// superseded or cancelled in the meantime.
func (d *Debouncer) Take(key string, gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.pending[key]
	if p == nil || p.gen != gen {
		return false
	}
	delete(d.pending, key)
	return true
}

// Cancel drops any pending run for key. Idempotent.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked(key)
}

// Pending reports whether a run is currently scheduled for key.
func (d *Debouncer) Pending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending[key] != nil
}

// Stop cancels every pending run.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.pending {
		d.cancelLocked(key)
	}
}

func (d *Debouncer) cancelLocked(key string) {
	if p := d.pending[key]; p != nil {
		p.timer.Stop()
		delete(d.pending, key)
	}
}
