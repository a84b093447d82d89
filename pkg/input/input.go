// Package input turns held keys into repeated actions. Terminals report key
// presses only, so a key counts as held while its repeat events keep arriving.
package input

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Repeat timing defaults
const (
	DefaultInitialDelay = 500 * time.Millisecond
	DefaultInterval     = 50 * time.Millisecond
)

// Busy is the flag shared by every repeat loop of a surface. While it is
// set, new edits are rejected.
type Busy struct {
	flag atomic.Bool
}

// TryAcquire sets the flag, returning false if it was already set
func (b *Busy) TryAcquire() bool {
	return b.flag.CompareAndSwap(false, true)
}

// Release clears the flag
func (b *Busy) Release() {
	b.flag.Store(false)
}

// Busy reports whether a repeat loop is running
func (b *Busy) Busy() bool {
	return b.flag.Load()
}

// KeyTracker infers whether keys are still held from the time of their
// last press or repeat event.
type KeyTracker struct {
	mu     sync.Mutex
	window time.Duration
	last   map[interface{}]time.Time
	now    func() time.Time
}

// NewKeyTracker creates a tracker that treats a key as released once no
// event for it arrived within window. The window must be shorter than the
// repeat's initial delay so a single tap does not repeat.
func NewKeyTracker(window time.Duration) *KeyTracker {
	return &KeyTracker{
		window: window,
		last:   make(map[interface{}]time.Time),
		now:    time.Now,
	}
}

// Press records an event for key
func (t *KeyTracker) Press(key interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[key] = t.now()
}

// Release forgets key
func (t *KeyTracker) Release(key interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.last, key)
}

// Held reports whether key had an event within the window
func (t *KeyTracker) Held(key interface{}) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	at, ok := t.last[key]
	if !ok {
		return false
	}
	if t.now().Sub(at) >= t.window {
		delete(t.last, key)
		return false
	}
	return true
}

// Repeater runs an action once, then again at a steady interval for as
// long as its key stays held.
type Repeater struct {
	InitialDelay time.Duration
	Interval     time.Duration
	Busy         *Busy
}

// NewRepeater creates a repeater sharing busy with the other repeaters of
// the same surface. A nil busy gets a private flag.
func NewRepeater(initial, interval time.Duration, busy *Busy) *Repeater {
	if busy == nil {
		busy = &Busy{}
	}
	if initial <= 0 {
		initial = DefaultInitialDelay
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Repeater{InitialDelay: initial, Interval: interval, Busy: busy}
}

// Start acquires the busy flag and runs the repeat loop in a goroutine:
// act once, wait the initial delay, then act every interval while held
// reports true. The returned channel closes when the loop ends and the flag
// is released. ok is false, and act is never called, when another loop
// holds the flag.
func (r *Repeater) Start(ctx context.Context, act func(), held func() bool) (<-chan struct{}, bool) {
	if !r.Busy.TryAcquire() {
		return nil, false
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer r.Busy.Release()
		r.run(ctx, act, held)
	}()
	return done, true
}

func (r *Repeater) run(ctx context.Context, act func(), held func() bool) {
	act()

	timer := time.NewTimer(r.InitialDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if !held() {
			return
		}
		act()
		timer.Reset(r.Interval)
	}
}
