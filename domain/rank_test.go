package domain

import (
	"testing"
	"time"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func TestRankSourceNextUsesClock(t *testing.T) {
	clock := &fixedClock{now: time.UnixMilli(1_700_000_000_000)}
	ranks := NewRankSource(clock)

	if got := ranks.Next(); got != 1_700_000_000_000 {
		t.Fatalf("expected rank from clock, got %d", got)
	}

	clock.now = clock.now.Add(5 * time.Second)
	if got := ranks.Next(); got != 1_700_000_005_000 {
		t.Fatalf("expected advanced rank, got %d", got)
	}
}

func TestRankSourceNextMonotonicSameMillisecond(t *testing.T) {
	clock := &fixedClock{now: time.UnixMilli(42_000)}
	ranks := NewRankSource(clock)

	first := ranks.Next()
	second := ranks.Next()
	third := ranks.Next()

	if second != first+1 || third != second+1 {
		t.Fatalf("expected strictly increasing ranks, got %d %d %d", first, second, third)
	}
}

func TestRankSourceNextStalledClock(t *testing.T) {
	clock := &fixedClock{now: time.UnixMilli(10_000)}
	ranks := NewRankSource(clock)

	first := ranks.Next()
	clock.now = time.UnixMilli(5_000)
	second := ranks.Next()

	if second <= first {
		t.Fatalf("rank went backwards: %d after %d", second, first)
	}
}

func TestRankAfterDelta(t *testing.T) {
	base := int64(1_700_000_000_000)
	got := RankAfter(base)
	if got-base != RankStep {
		t.Fatalf("expected delta of %d, got %d", RankStep, got-base)
	}
}
