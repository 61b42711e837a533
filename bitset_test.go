package rtos

import "testing"

// TestPriorityBitsetFindHighest verifies that FindHighest always returns
// the numerically greatest set priority across all three bitset words.
func TestPriorityBitsetFindHighest(t *testing.T) {
	b := NewPriorityBitset(130) // spans three words
	if _, ok := b.FindHighest(); ok {
		t.Fatal("FindHighest on empty bitset reported a priority")
	}

	b.Set(3)
	b.Set(70)
	b.Set(129)
	if got, ok := b.FindHighest(); !ok || got != 129 {
		t.Fatalf("FindHighest = %d, %v, want 129, true", got, ok)
	}

	b.Clear(129)
	if got, ok := b.FindHighest(); !ok || got != 70 {
		t.Fatalf("FindHighest = %d, %v, want 70, true", got, ok)
	}
}

// TestPriorityBitsetClearDropsWordFromSummary verifies that clearing the
// last set bit in a word also clears that word's summary bit, so IsEmpty
// reflects the true state rather than a stale summary.
func TestPriorityBitsetClearDropsWordFromSummary(t *testing.T) {
	b := NewPriorityBitset(10)
	b.Set(5)
	b.Clear(5)
	if !b.IsEmpty() {
		t.Fatal("bitset not empty after clearing its only set bit")
	}
}

// TestPriorityBitsetOutOfRangePanics verifies the generator-sizing
// invariant: an out-of-range priority is a kernel panic, not a status
// code, since it can only indicate a malformed static configuration.
func TestPriorityBitsetOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Set out of range did not panic")
		}
	}()
	b := NewPriorityBitset(4)
	b.Set(4)
}
