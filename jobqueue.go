// jobqueue.go - binary heap of timed jobs, keyed by modular expiry ordering

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

import "container/heap"

// JobKind tags which concrete facility owns a Job — the tagged-variant
// discriminator described in §9 ("Job as base of Alarm/SchT-point/RR/TP"):
// one operation table (the Callback closure), never deep inheritance.
type JobKind int32

const (
	JobKindAlarm JobKind = iota
	JobKindScheduleTablePoint
	JobKindRoundRobin
	JobKindTPTimeout
)

// Job is the common timed-expiry record queued against one counter. A job
// is in at most one priority queue at a time; Timestamp is an absolute
// counter value in [0, counter.MaxCountingValue].
type Job struct {
	Kind      JobKind
	Owner     CounterID
	Timestamp uint64
	Callback  func(now uint64)

	seq   uint64 // insertion order, breaks the (construction-time impossible) tie
	index int    // position in the heap, -1 when not queued
	queue *JobQueue
}

// Queued reports whether the job is currently linked into a JobQueue.
func (j *Job) Queued() bool { return j.queue != nil }

// JobQueue is the binary min-heap described in §4.5: the job expiring
// soonest (per the owning counter's modular "future" ordering) is always at
// the root. Ordering is evaluated relative to a moving reference point
// (the counter's last-observed value) because raw timestamps wrap modulo
// MaxCountingValue+1 and are not a total order on their own.
type JobQueue struct {
	items     []*Job
	reference uint64
	nextSeq   uint64
	future    func(v, r uint64) bool
}

// NewJobQueue creates an empty queue. future must implement the counter's
// modular future-ordering rule (§4.5 "Value semantics").
func NewJobQueue(future func(v, r uint64) bool) *JobQueue {
	return &JobQueue{future: future}
}

// SetReference updates the point every pending job's timestamp is compared
// against for "expires sooner" ordering. Called by the owning counter
// immediately before any push/pop sequence driven by a tick.
func (q *JobQueue) SetReference(now uint64) { q.reference = now }

func (q *JobQueue) Len() int { return len(q.items) }

func (q *JobQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	aFuture := q.future(a.Timestamp, q.reference)
	bFuture := q.future(b.Timestamp, q.reference)
	// A job already not-future (due) always sorts ahead of one still future.
	if aFuture != bFuture {
		return !aFuture
	}
	// Both future or both due: order by distance from the reference point,
	// modulo wrap, so "expires sooner" wins; insertion order is the final
	// tiebreak (ties are impossible within one counter by construction).
	da := distance(a.Timestamp, q.reference)
	db := distance(b.Timestamp, q.reference)
	if da != db {
		return da < db
	}
	return a.seq < b.seq
}

func distance(ts, ref uint64) uint64 {
	return ts - ref // unsigned wraparound subtraction gives the forward distance
}

func (q *JobQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *JobQueue) Push(x any) {
	j := x.(*Job)
	j.index = len(q.items)
	j.queue = q
	q.items = append(q.items, j)
}

func (q *JobQueue) Pop() any {
	old := q.items
	n := len(old)
	j := old[n-1]
	old[n-1] = nil
	j.index = -1
	j.queue = nil
	q.items = old[:n-1]
	return j
}

// Insert adds job to the heap at the given timestamp.
func (q *JobQueue) Insert(job *Job, timestamp uint64) {
	if job.Queued() {
		panicKernel("jobqueue: job already queued")
	}
	job.Timestamp = timestamp
	job.seq = q.nextSeq
	q.nextSeq++
	heap.Push(q, job)
}

// Remove deletes job from the heap, wherever it currently sits.
func (q *JobQueue) Remove(job *Job) bool {
	if !job.Queued() || job.queue != q {
		return false
	}
	heap.Remove(q, job.index)
	return true
}

// Peek returns the job expiring soonest relative to the current reference,
// without removing it.
func (q *JobQueue) Peek() *Job {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// PopDue removes and returns every job whose timestamp is not-future
// relative to the current reference (i.e. due now), soonest first.
func (q *JobQueue) PopDue() []*Job {
	var due []*Job
	for len(q.items) > 0 {
		top := q.items[0]
		if q.future(top.Timestamp, q.reference) {
			break
		}
		due = append(due, heap.Pop(q).(*Job))
	}
	return due
}

// HeapInvariant reports whether the binary-heap ordering property holds —
// used by tests asserting §8's "heap_invariant(C) holds" for all reachable
// states.
func (q *JobQueue) HeapInvariant() bool {
	for i := range q.items {
		l, r := 2*i+1, 2*i+2
		if l < len(q.items) && q.Less(l, i) {
			return false
		}
		if r < len(q.items) && q.Less(r, i) {
			return false
		}
	}
	return true
}
