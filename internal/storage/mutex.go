package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MutexStats is a read-only snapshot of CompatMutex contention counters.
type MutexStats struct {
	// TotalWaits counts successful acquisitions.
	TotalWaits int64 `json:"total_waits"`

	// TotalWaitTime is the summed time acquirers spent waiting.
	TotalWaitTime time.Duration `json:"total_wait_time"`

	// MaxWait is the longest single wait observed.
	MaxWait time.Duration `json:"max_wait"`
}

// Waiter lifecycle. Exactly one CAS away from waiting wins: the scheduler
// moves a waiter to granted, a timed-out acquirer moves it to abandoned.
// Whoever loses that race defers to the winner, so a timed-out caller can
// never end up ambiguously holding the lock.
const (
	waiterWaiting int32 = iota
	waiterGranted
	waiterAbandoned
)

type waiter struct {
	state    atomic.Int32
	grant    chan struct{}
	enqueued time.Time
}

// mutexState holds the scheduler goroutine's channels and the stats it
// produces. The waiter queue itself lives inside the run loop: it is owned
// by, and destroyed with, the scheduler, so discarding the scheduler can
// never leak queued resources.
type mutexState struct {
	requests chan *waiter
	releases chan struct{}
	stop     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	statsMu sync.Mutex
	stats   MutexStats
}

// CompatMutex is a mutual-exclusion primitive usable identically from
// blocking callers (Lock) and context-suspended callers (Acquire), both
// domains sharing one exclusion guarantee.
//
// Grant decisions are made by a single background scheduler goroutine that
// is created lazily on first use and torn down by Close. Callers on any
// goroutine communicate with it only through its channels; release never
// touches scheduler-private state from a foreign goroutine.
//
// The zero value is not usable; call NewCompatMutex.
type CompatMutex struct {
	initMu sync.Mutex
	state  atomic.Pointer[mutexState]
}

// NewCompatMutex returns an unlocked mutex. The scheduler goroutine is not
// started until the first acquisition.
func NewCompatMutex() *CompatMutex {
	return &CompatMutex{}
}

// scheduler returns the live mutexState, lazily creating the scheduler
// goroutine. Initialization is double-checked: a thread that loses the
// init race adopts the state the winner created instead of overwriting a
// scheduler that may already have granted the lock.
func (m *CompatMutex) scheduler() *mutexState {
	if s := m.state.Load(); s != nil {
		return s
	}
	m.initMu.Lock()
	defer m.initMu.Unlock()
	if s := m.state.Load(); s != nil {
		return s
	}
	s := &mutexState{
		requests: make(chan *waiter),
		releases: make(chan struct{}),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go s.run()
	m.state.Store(s)
	return s
}

// run is the scheduler loop. It is the only goroutine that touches the
// waiter queue or the held flag, which is what makes cross-goroutine
// release safe: foreign goroutines only ever send on channels.
func (s *mutexState) run() {
	defer close(s.stopped)

	var held bool
	var queue []*waiter

	grantNext := func() {
		for len(queue) > 0 {
			w := queue[0]
			queue = queue[1:]
			if w.state.CompareAndSwap(waiterWaiting, waiterGranted) {
				held = true
				close(w.grant)
				return
			}
			// Waiter abandoned its request (timeout); skip it.
		}
		held = false
	}

	for {
		select {
		case w := <-s.requests:
			queue = append(queue, w)
			if !held {
				grantNext()
			}
		case <-s.releases:
			held = false
			grantNext()
		case <-s.stop:
			// Fail pending waiters over a snapshot of the queue; the
			// live slice is cleared first so nothing can observe it
			// mid-teardown.
			pending := make([]*waiter, len(queue))
			copy(pending, queue)
			queue = nil
			for _, w := range pending {
				if w.state.CompareAndSwap(waiterWaiting, waiterAbandoned) {
					close(w.grant)
				}
			}
			return
		}
	}
}

func (s *mutexState) recordWait(d time.Duration) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.stats.TotalWaits++
	s.stats.TotalWaitTime += d
	if d > s.stats.MaxWait {
		s.stats.MaxWait = d
	}
}

// Acquire obtains the mutex, suspending until it is granted or ctx expires.
// A deadline expiry is reported as ErrLockTimeout regardless of the calling
// domain; after a timeout the mutex is guaranteed not to be held by the
// failed caller.
func (m *CompatMutex) Acquire(ctx context.Context) error {
	s := m.scheduler()
	w := &waiter{grant: make(chan struct{}), enqueued: time.Now()}

	select {
	case s.requests <- w:
	case <-s.stopped:
		return ErrMutexClosed
	case <-ctx.Done():
		return acquireErr(ctx)
	}

	select {
	case <-w.grant:
		if w.state.Load() != waiterGranted {
			return ErrMutexClosed
		}
		s.recordWait(time.Since(w.enqueued))
		return nil
	case <-ctx.Done():
		if w.state.CompareAndSwap(waiterWaiting, waiterAbandoned) {
			return acquireErr(ctx)
		}
		// The scheduler granted concurrently with the timeout. The caller
		// must not assume ownership, so hand the grant straight back
		// through the scheduler and report the timeout.
		<-w.grant
		m.Release()
		return acquireErr(ctx)
	}
}

// AcquireTimeout is the blocking-domain form of Acquire with a bounded wait.
func (m *CompatMutex) AcquireTimeout(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return m.Acquire(ctx)
}

// Lock blocks until the mutex is granted. It fails only if the mutex has
// been closed.
func (m *CompatMutex) Lock() error {
	return m.Acquire(context.Background())
}

// Release returns the mutex to the scheduler so the next waiter can be
// granted. It must be called exactly once per successful acquisition, but
// may be called from any goroutine; the handoff goes through the
// scheduler's channels rather than shared state.
func (m *CompatMutex) Release() {
	s := m.state.Load()
	if s == nil {
		return
	}
	select {
	case s.releases <- struct{}{}:
	case <-s.stopped:
	}
}

// Stats returns a snapshot of the contention counters. Safe to call
// concurrently with acquisitions.
func (m *CompatMutex) Stats() MutexStats {
	s := m.state.Load()
	if s == nil {
		return MutexStats{}
	}
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// Close stops the scheduler goroutine and fails all pending waiters with
// ErrMutexClosed. Close is idempotent and waits for the scheduler to exit.
// Independent CompatMutex instances have independent schedulers, so closing
// one never disturbs another.
func (m *CompatMutex) Close() {
	m.initMu.Lock()
	s := m.state.Load()
	m.initMu.Unlock()
	if s == nil {
		return
	}
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.stopped
}

// acquireErr maps a context failure to the store's error taxonomy: deadline
// expiry is a lock timeout, cancellation surfaces as-is.
func acquireErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("acquiring mutex: %w", ErrLockTimeout)
	}
	return fmt.Errorf("acquiring mutex: %w", ctx.Err())
}
