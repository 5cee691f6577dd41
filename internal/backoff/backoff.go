// Package backoff works out how long to wait before retrying something
// that has been failing.
package backoff

import (
	"sync"
	"time"
)

// Tracks recent failures and doubles the retry delay for each one seen
// within Period. Failures older than Period are forgotten, as are all
// failures once Reset is called.
type BackOff struct {
	// The period for which failures will be evaluated.
	Period time.Duration

	// The delay after a single failure. Must not be zero.
	X time.Duration

	// The Maximum back off allowed.
	Max time.Duration

	// Failure times kept as a ring buffer so nothing is copied as entries
	// expire. end is the next slot written.
	queue  []time.Time
	end    int
	length int

	lock sync.Mutex
}

// Records a failure.
func (b *BackOff) Failure() {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.queue == nil {
		b.allocate()
	}
	qlen := len(b.queue)
	b.queue[b.end] = time.Now()
	b.end = (b.end + 1) % qlen
	if b.length < qlen {
		b.length++
	}
}

// Forgets every failure, usually after a success.
func (b *BackOff) Reset() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.length = 0
}

// True if there are no failures being tracked.
func (b *BackOff) Healthy() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.length == 0
}

// Returns how long to wait before the next attempt: zero with no recent
// failures, X after one, doubling for each additional failure up to Max.
func (b *BackOff) Wait() time.Duration {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.queue == nil {
		b.allocate()
	}
	b.expire(time.Now().Add(-b.Period))
	if b.length == 0 {
		return 0
	}
	delay := b.X
	for i := 1; i < b.length && delay < b.Max; i++ {
		delay *= 2
	}
	if delay > b.Max {
		return b.Max
	}
	return delay
}

// Drops failures that happened before cutoff. Must be called with the
// lock held.
func (b *BackOff) expire(cutoff time.Time) {
	for b.length > 0 {
		qlen := len(b.queue)
		oldest := (b.end + qlen - b.length) % qlen
		if b.queue[oldest].After(cutoff) {
			return
		}
		b.length--
	}
}

func (b *BackOff) allocate() {
	size := int(b.Period / b.X)
	if size < 1 {
		size = 1
	}
	b.queue = make([]time.Time, size)
}
