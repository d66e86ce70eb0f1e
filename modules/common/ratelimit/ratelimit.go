package ratelimit

import (
	"context"
	"log"
	"sync"
	"time"
)

// Result - outcome of one rate limit check
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter admits or rejects a request for key within a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string, maxRequests int, window time.Duration) (Result, error)
}

// DefaultSweepInterval - how often expired windows are dropped
const DefaultSweepInterval = 60 * time.Second

type entry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a process-local fixed window counter. Every check and the
// sweep hold the same mutex, so counts are exact under concurrent access.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	sweepInterval time.Duration
	now           func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	started   bool
	stop      chan struct{}
	done      chan struct{}
}

// NewMemoryLimiter - sweepInterval <= 0 uses DefaultSweepInterval
func NewMemoryLimiter(sweepInterval time.Duration) *MemoryLimiter {
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	return &MemoryLimiter{
		entries:       make(map[string]*entry),
		sweepInterval: sweepInterval,
		now:           time.Now,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Allow counts one request for key.
func (l *MemoryLimiter) Allow(_ context.Context, key string, maxRequests int, window time.Duration) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, exists := l.entries[key]

	if !exists || now.After(e.resetAt) {
		resetAt := now.Add(window)
		l.entries[key] = &entry{count: 1, resetAt: resetAt}
		return Result{Allowed: true, Remaining: maxRequests - 1, ResetAt: resetAt}, nil
	}

	e.count++

	if e.count > maxRequests {
		return Result{Allowed: false, Remaining: 0, ResetAt: e.resetAt}, nil
	}

	return Result{Allowed: true, Remaining: maxRequests - e.count, ResetAt: e.resetAt}, nil
}

// Start runs the periodic sweep until Stop is called. Extra calls are no-ops.
func (l *MemoryLimiter) Start() {
	l.startOnce.Do(l.startSweep)
}

func (l *MemoryLimiter) startSweep() {
	l.mu.Lock()
	l.started = true
	l.mu.Unlock()

	go func() {
		defer close(l.done)

		ticker := time.NewTicker(l.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.Sweep()
			case <-l.stop:
				return
			}
		}
	}()

	log.Printf("🔄 [RateLimit] Started sweep routine (every %v)", l.sweepInterval)
}

// Stop ends the sweep and waits for it to exit. Safe to call more than once,
// and returns at once when Start was never called.
func (l *MemoryLimiter) Stop() {
	l.stopOnce.Do(func() {
		// blocks a later Start from launching the sweep
		l.startOnce.Do(func() {})

		l.mu.Lock()
		started := l.started
		l.mu.Unlock()

		close(l.stop)
		if !started {
			return
		}
		<-l.done
		log.Println("🛑 [RateLimit] Sweep routine stopped")
	})
}

// Sweep drops every entry whose window has passed and returns how many.
func (l *MemoryLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cleaned := 0
	for key, e := range l.entries {
		if now.After(e.resetAt) {
			delete(l.entries, key)
			cleaned++
		}
	}

	if cleaned > 0 {
		log.Printf("🧹 [RateLimit] Swept %d expired windows (active: %d)", cleaned, len(l.entries))
	}
	return cleaned
}

// Len returns the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
