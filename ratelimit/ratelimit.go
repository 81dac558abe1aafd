// CLAUDE:SUMMARY Fixed-window admission gate keyed by provider/host, with remaining-quota reporting.
// Package ratelimit provides a fixed-window admission gate shared across
// outbound calls to a single logical resource (a search provider or a crawl
// target host).
//
// The gate never blocks and never errors: Allow returns a synchronous
// decision with the remaining quota and the time until the window resets.
// Callers that need to wait use Wait, which backs off between attempts.
//
// One Gate instance owns all counters for its callers; there is no
// process-wide singleton, so tests get clean isolation by constructing
// their own gate.
package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of an admission check.
type Decision struct {
	OK        bool          // request admitted
	Remaining int           // calls left in the current window (after this one)
	ResetIn   time.Duration // time until the window rolls over
}

// Gate is a fixed-window rate limiter keyed by resource identifier.
// Thread-safe: all counter access goes through a mutex. Contention is low
// because keys are provider/host identifiers, not global.
type Gate struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

type window struct {
	start time.Time
	count int
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock sets a custom clock function (for testing).
func WithClock(fn func() time.Time) Option {
	return func(g *Gate) { g.now = fn }
}

// New creates a Gate.
func New(opts ...Option) *Gate {
	g := &Gate{
		windows: make(map[string]*window),
		now:     time.Now,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Allow checks whether one more call to key is admitted under a limit of
// max calls per windowDur. The window boundary is aligned to
// floor(now/windowDur)*windowDur; a new window resets the counter. The
// counter only advances when the decision is OK.
//
// max < 1 and windowDur <= 0 degrade to a floor of one call per second
// rather than rejecting everything: the pipeline runs unattended and a
// misconfigured limit must not silently drop a whole batch.
func (g *Gate) Allow(key string, max int, windowDur time.Duration) Decision {
	if max < 1 {
		max = 1
	}
	if windowDur <= 0 {
		windowDur = time.Second
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	boundary := now.Truncate(windowDur)

	w, ok := g.windows[key]
	if !ok || w.start.Before(boundary) {
		w = &window{start: boundary}
		g.windows[key] = w
	}

	resetIn := boundary.Add(windowDur).Sub(now)
	if w.count >= max {
		return Decision{OK: false, Remaining: 0, ResetIn: resetIn}
	}

	w.count++
	return Decision{OK: true, Remaining: max - w.count, ResetIn: resetIn}
}

// Used returns the number of admitted calls for key in its current window.
func (g *Gate) Used(key string, windowDur time.Duration) int {
	if windowDur <= 0 {
		windowDur = time.Second
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	w, ok := g.windows[key]
	if !ok || w.start.Before(g.now().Truncate(windowDur)) {
		return 0
	}
	return w.count
}
