// Package ratelimit provides per-client rate limiting functionality.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config defines the rate limiting configuration. Max requests are allowed
// per Window; the budget refills continuously.
type Config struct {
	Max             int           // Requests allowed per window, and the burst size
	Window          time.Duration // Length of the window
	CleanupInterval time.Duration // How often to drop idle limiters
}

// DefaultConfig mirrors the public API defaults: 100 requests per 15 minutes.
var DefaultConfig = Config{
	Max:             100,
	Window:          15 * time.Minute,
	CleanupInterval: 15 * time.Minute,
}

type entry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// Limiter manages one token bucket per client key.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	config   Config
	now      func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a limiter and starts its cleanup goroutine.
func New(config Config) *Limiter {
	return newLimiter(config, time.Now)
}

func newLimiter(config Config, now func() time.Time) *Limiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = config.Window
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig.CleanupInterval
	}

	l := &Limiter{
		limiters: make(map[string]*entry),
		config:   config,
		now:      now,
		stopCh:   make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupLoop()

	return l
}

// Enabled reports whether the limiter enforces anything.
func (l *Limiter) Enabled() bool {
	return l.config.Max > 0 && l.config.Window > 0
}

// Max is the per-window budget.
func (l *Limiter) Max() int {
	return l.config.Max
}

// Allow takes one token for key. When the budget is spent it returns false
// and how long until the next token is available.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	if !l.Enabled() {
		return true, 0
	}

	now := l.now()
	r := l.get(key, now).ReserveN(now, 1)
	if !r.OK() {
		return false, l.config.Window
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return false, d
	}
	return true, 0
}

// Remaining returns the approximate number of requests key may still make.
func (l *Limiter) Remaining(key string) int {
	if !l.Enabled() {
		return 0
	}
	now := l.now()
	n := int(l.get(key, now).TokensAt(now))
	if n < 0 {
		return 0
	}
	return n
}

func (l *Limiter) get(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.limiters[key]
	if !ok {
		every := l.config.Window / time.Duration(l.config.Max)
		e = &entry{limiter: rate.NewLimiter(rate.Every(every), l.config.Max)}
		l.limiters[key] = e
	}
	e.lastUsed = now
	return e.limiter
}

// Cleanup removes limiters idle for longer than the cleanup interval.
func (l *Limiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.config.CleanupInterval)
	for key, e := range l.limiters {
		if e.lastUsed.Before(cutoff) {
			delete(l.limiters, key)
		}
	}
}

func (l *Limiter) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.Cleanup()
		case <-l.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine and waits for it to finish. It is safe
// to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
	l.wg.Wait()
}

// Len returns the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
