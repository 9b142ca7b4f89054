package domain

import (
	"sync/atomic"
	"time"
)

// RankStep is the gap placed between a section and one inserted after it,
// in milliseconds. An inserted rank stays ordered only while the next
// section's rank is more than RankStep away; denser insertion points
// collide. That weakness is accepted: ranks are allocated at human pace,
// not by a concurrent-safe allocator.
const RankStep int64 = 1000

// Clock supplies the current time for rank assignment. Injecting it keeps
// rank allocation deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// RankSource allocates end-of-board ranks from a clock. Ranks are forced
// strictly monotonic per source so two sections created in the same
// millisecond still sort stably.
type RankSource struct {
	clock Clock
	last  int64
}

// NewRankSource creates a RankSource backed by the given clock. A nil clock
// falls back to the system clock.
func NewRankSource(clock Clock) *RankSource {
	if clock == nil {
		clock = SystemClock{}
	}
	return &RankSource{clock: clock}
}

// Next returns a rank placing a new section at the end of the board.
func (r *RankSource) Next() int64 {
	for {
		now := r.clock.Now().UnixMilli()
		last := atomic.LoadInt64(&r.last)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&r.last, last, now) {
			return now
		}
	}
}

// RankAfter returns the rank for a section inserted immediately after one
// holding the given rank.
func RankAfter(rank int64) int64 {
	return rank + RankStep
}
