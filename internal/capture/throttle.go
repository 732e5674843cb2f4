package capture

import (
	"sync"
	"time"
)

// DefaultInterval caps live-stroke updates at 20 per second.
const DefaultInterval = 50 * time.Millisecond

// Throttle bounds how often stroke deltas go out. A trigger outside the
// interval sends immediately; triggers inside it coalesce onto one
// deferred send scheduled at half the interval, which reads the current
// buffer when it fires. The deferred path does not refresh the
// last-send timestamp.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	pending  *time.Timer
	send     func()
}

func NewThrottle(interval time.Duration, send func()) *Throttle {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Throttle{interval: interval, send: send}
}

// Trigger is evaluated on every move event while capturing.
func (t *Throttle) Trigger() {
	t.mu.Lock()
	now := time.Now()
	if now.Sub(t.last) > t.interval {
		t.last = now
		if t.pending != nil {
			t.pending.Stop()
			t.pending = nil
		}
		t.mu.Unlock()
		t.send()
		return
	}
	if t.pending == nil {
		t.pending = time.AfterFunc(t.interval/2, t.fire)
	}
	t.mu.Unlock()
}

func (t *Throttle) fire() {
	t.mu.Lock()
	t.pending = nil
	t.mu.Unlock()
	t.send()
}

// Cancel drops any deferred send. Safe to call when nothing is pending.
func (t *Throttle) Cancel() {
	t.mu.Lock()
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.mu.Unlock()
}
