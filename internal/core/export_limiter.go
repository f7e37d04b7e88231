package core

// export_limiter.go limits how many grid exports are generated at once.
//
// Every export loads the whole order grid and writes a file, so the limiter
// uses a semaphore to cap parallel exports. When all slots are taken a
// request waits up to maxWait and then fails with ErrTooManyExports.
//
// WaitForDrain blocks until running exports finish and is used on shutdown.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyExports is returned when no export slot frees up within the wait time.
var ErrTooManyExports = errors.New("too many concurrent exports, please try again later")

// DefaultMaxConcurrentExports is used when the configured limit is not positive.
const DefaultMaxConcurrentExports = 2

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// ExportLimiter caps concurrent exports with a buffered channel semaphore.
type ExportLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewExportLimiter allows at most maxConcurrent exports at a time.
func NewExportLimiter(maxConcurrent int, maxWait time.Duration) *ExportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentExports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &ExportLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire takes an export slot, waiting up to maxWait.
// The caller must Release the slot when the export is written.
func (l *ExportLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		// The caller's context wins over our own timeout.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyExports
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *ExportLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *ExportLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of exports in progress.
func (l *ExportLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *ExportLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// Available returns the number of free slots.
func (l *ExportLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no export is running or ctx is done.
func (l *ExportLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ExportLimiterStatus is a snapshot of the limiter.
type ExportLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for monitoring.
func (l *ExportLimiter) Status() ExportLimiterStatus {
	l.mu.RLock()
	active := l.active
	l.mu.RUnlock()

	return ExportLimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}
