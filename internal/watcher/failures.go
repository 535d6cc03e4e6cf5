package watcher

import (
	"sync"
	"time"

	"github.com/willibrandon/pageview/internal/logger"
)

// FailureTracker counts consecutive failures of a watched path.
type FailureTracker struct {
	mu          sync.Mutex
	count       int
	threshold   int
	lastFailure time.Time
	lastErr     error
}

// NewFailureTracker creates a tracker that trips after threshold consecutive
// failures.
func NewFailureTracker(threshold int) *FailureTracker {
	if threshold < 1 {
		threshold = 1
	}
	return &FailureTracker{threshold: threshold}
}

// Record counts a failure and reports whether the threshold has been reached.
func (f *FailureTracker) Record(err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.count++
	f.lastFailure = time.Now()
	f.lastErr = err

	logger.Debug("Recorded consecutive failure",
		"count", f.count,
		"threshold", f.threshold,
		"error", err,
	)

	return f.count >= f.threshold
}

// Reset clears the count after a success.
func (f *FailureTracker) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.count > 0 {
		logger.Debug("Resetting failure count after success", "previous", f.count)
	}
	f.count = 0
	f.lastErr = nil
}

// Count returns the current number of consecutive failures.
func (f *FailureTracker) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// Remaining returns how many more failures are tolerated.
func (f *FailureTracker) Remaining() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.count >= f.threshold {
		return 0
	}
	return f.threshold - f.count
}

// LastError returns the most recent failure and when it happened.
func (f *FailureTracker) LastError() (error, time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr, f.lastFailure
}
