package core

// import_limiter.go caps how many import jobs run at once.
//
// Each job holds one slot of a buffered-channel semaphore for its whole row
// loop. Jobs that cannot get a slot within maxWait fail with
// ErrTooManyImports instead of queueing forever. Shutdown uses WaitForDrain
// to let running jobs finish.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyImports is returned when every import slot stays busy for maxWait.
var ErrTooManyImports = errors.New("too many imports in progress, please try again later")

const (
	// DefaultMaxConcurrentImports is used when no positive limit is configured.
	DefaultMaxConcurrentImports = 3

	// DefaultMaxWaitTime is how long a job waits for a slot by default.
	DefaultMaxWaitTime = 30 * time.Second
)

// ImportLimiter is a counting semaphore for import jobs.
type ImportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu      sync.Mutex
	active  int
	drained chan struct{} // closed whenever active drops to zero
}

// NewImportLimiter allows at most maxConcurrent jobs, each waiting up to maxWait.
func NewImportLimiter(maxConcurrent int, maxWait time.Duration) *ImportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentImports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	drained := make(chan struct{})
	close(drained)
	return &ImportLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		drained: drained,
	}
}

// Acquire blocks until a slot is free, maxWait passes or ctx ends.
// On success the returned func releases the slot and must be called once.
func (l *ImportLimiter) Acquire(ctx context.Context) (release func(), err error) {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		return l.acquired(), nil
	case <-timer.C:
		return nil, ErrTooManyImports
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *ImportLimiter) TryAcquire() (release func(), ok bool) {
	select {
	case l.slots <- struct{}{}:
		return l.acquired(), true
	default:
		return nil, false
	}
}

func (l *ImportLimiter) acquired() func() {
	l.mu.Lock()
	if l.active == 0 {
		l.drained = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.active--
			if l.active == 0 {
				close(l.drained)
			}
			l.mu.Unlock()
			<-l.slots
		})
	}
}

// ActiveCount returns the number of running jobs.
func (l *ImportLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// WaitForDrain blocks until no job holds a slot or ctx ends.
func (l *ImportLimiter) WaitForDrain(ctx context.Context) error {
	for {
		l.mu.Lock()
		if l.active == 0 {
			l.mu.Unlock()
			return nil
		}
		drained := l.drained
		l.mu.Unlock()

		select {
		case <-drained:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ImportLimiterStatus is a point-in-time view of the limiter.
type ImportLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for health endpoints.
func (l *ImportLimiter) Status() ImportLimiterStatus {
	active := l.ActiveCount()
	return ImportLimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
