package rtos

import "testing"

// TestTaskDequeFIFOOrder verifies plain push-back/pop-front preserves
// insertion order.
func TestTaskDequeFIFOOrder(t *testing.T) {
	d := NewTaskDeque(4)
	d.PushBack(1)
	d.PushBack(2)
	d.PushBack(3)

	for _, want := range []TaskID{1, 2, 3} {
		got, ok := d.PopFront()
		if !ok || got != want {
			t.Fatalf("PopFront = %d, %v, want %d, true", got, ok, want)
		}
	}
	if !d.IsEmpty() {
		t.Fatal("deque not empty after draining all pushed entries")
	}
}

// TestTaskDequePushFrontPromotes verifies that PushFront places a task
// ahead of everything already queued, the ceiling-promotion path.
func TestTaskDequePushFrontPromotes(t *testing.T) {
	d := NewTaskDeque(4)
	d.PushBack(1)
	d.PushBack(2)
	d.PushFront(9)

	got, _ := d.PeekFront()
	if got != 9 {
		t.Fatalf("PeekFront = %d, want 9", got)
	}
}

// TestTaskDequeRotateHeadPreservesOthers verifies RotateHead moves only
// the head to the tail, leaving the rest of the order untouched — the
// distinction the round-robin tick must preserve.
func TestTaskDequeRotateHeadPreservesOthers(t *testing.T) {
	d := NewTaskDeque(4)
	d.PushBack(1)
	d.PushBack(2)
	d.PushBack(3)
	d.RotateHead()

	want := []TaskID{2, 3, 1}
	for _, w := range want {
		got, ok := d.PopFront()
		if !ok || got != w {
			t.Fatalf("PopFront = %d, %v, want %d, true", got, ok, w)
		}
	}
}

// TestTaskDequeOverflowPanics verifies that exceeding the statically
// configured capacity panics rather than silently dropping or growing —
// overflow can only mean the generator under-sized this deque.
func TestTaskDequeOverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("PushBack beyond capacity did not panic")
		}
	}()
	d := NewTaskDeque(1)
	d.PushBack(1)
	d.PushBack(2)
}

// TestTaskDequeRemoveAll verifies every occurrence of a killed task's
// queued multi-activations is removed while preserving the relative order
// of survivors.
func TestTaskDequeRemoveAll(t *testing.T) {
	d := NewTaskDeque(8)
	d.PushBack(1)
	d.PushBack(2)
	d.PushBack(1)
	d.PushBack(3)

	if removed := d.RemoveAll(1); removed != 2 {
		t.Fatalf("RemoveAll = %d, want 2", removed)
	}
	want := []TaskID{2, 3}
	for _, w := range want {
		got, ok := d.PopFront()
		if !ok || got != w {
			t.Fatalf("PopFront = %d, %v, want %d, true", got, ok, w)
		}
	}
}
