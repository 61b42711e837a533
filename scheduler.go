// scheduler.go - ready set, priority ceiling, round-robin slicing

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

// Scheduler owns one core's ready bit-array and per-priority deques. It
// never performs the HAL context switch itself (§4.2): it only decides
// current/next and is driven by the core orchestrator.
type Scheduler struct {
	ready         *PriorityBitset
	deques        []*TaskDeque // indexed by Priority
	homePrio      []Priority   // indexed by TaskID
	currentTask   TaskID
	currentPrio   Priority
	nextTask      TaskID
	nextPrio      Priority
	hasCurrent    bool
	slicesLeft    map[TaskID]int
	sliceQuantum  map[TaskID]int // 0 means not a round-robin task
}

const noTask TaskID = -1

// NewScheduler allocates a scheduler for numPriorities levels, with the
// given per-priority deque capacities (generator-sized per §4.1) and each
// task's home priority and RR slice quantum (0 = no round-robin).
func NewScheduler(numPriorities int, deqCaps []int, homePrio []Priority, sliceQuantum map[TaskID]int) *Scheduler {
	if len(deqCaps) != numPriorities {
		panicKernel("scheduler: deque capacity table length %d != %d priorities", len(deqCaps), numPriorities)
	}
	s := &Scheduler{
		ready:        NewPriorityBitset(numPriorities),
		deques:       make([]*TaskDeque, numPriorities),
		homePrio:     homePrio,
		currentTask:  noTask,
		nextTask:     noTask,
		slicesLeft:   make(map[TaskID]int),
		sliceQuantum: sliceQuantum,
	}
	for p := 0; p < numPriorities; p++ {
		s.deques[p] = NewTaskDeque(deqCaps[p])
	}
	return s
}

func (s *Scheduler) deque(p Priority) *TaskDeque { return s.deques[int(p)] }

// recomputeNext refreshes next_task/next_priority from the ready set's
// current top, per §4.2's Schedule() contract.
func (s *Scheduler) recomputeNext() {
	top, ok := s.ready.FindHighest()
	if !ok {
		s.nextTask = noTask
		s.nextPrio = 0
		return
	}
	p := Priority(top)
	head, ok := s.deque(p).PeekFront()
	if !ok {
		// Bit says non-empty but deque is empty: cannot happen if Set/Clear
		// are kept in lockstep, but guard rather than silently misschedule.
		panicKernel("scheduler: ready bit set for priority %d with empty deque", p)
	}
	s.nextTask = head
	s.nextPrio = p
}

// Insert admits task into the ready set at its home priority.
func (s *Scheduler) Insert(task TaskID) {
	p := s.homePrio[task]
	s.deque(p).PushBack(task)
	s.ready.Set(int(p))
	if !s.hasCurrent || prioIsHigher(p, s.nextPrio) {
		s.recomputeNext()
	}
}

// popCurrentFromDeque removes the current task from the head of its present
// priority level's deque without recomputing next — callers either finish
// moving it elsewhere (RaiseCeiling/ReleaseCeiling) or are done with it for
// good (RemoveCurrentHead). A task occupies its deque throughout READY and
// RUNNING alike (§3), so the head must always be the current task here; a
// mismatch means that invariant was already broken elsewhere.
func (s *Scheduler) popCurrentFromDeque() {
	d := s.deque(s.currentPrio)
	head, ok := d.PeekFront()
	if !ok || head != s.currentTask {
		panicKernel("scheduler: current task %d not at head of deque(%d)", s.currentTask, s.currentPrio)
	}
	d.PopFront()
	if d.IsEmpty() {
		s.ready.Clear(int(s.currentPrio))
	}
}

// RemoveCurrentHead removes the current task from the ready/running set for
// good — used only when it actually leaves READY/RUNNING (blocking on
// WaitEvent, ending its last pending activation, self-chaining into
// suspension), never on ordinary dispatch: while RUNNING a task remains
// queued at current_priority (§3), only these true-departure points pop it.
func (s *Scheduler) RemoveCurrentHead() {
	s.popCurrentFromDeque()
	s.recomputeNext()
}

// RemoveAll strips every queued instance of task (multi-activation cleanup
// on kill), checking both its home priority's deque and, when task is the
// scheduler's current task, whatever priority it is presently parked at
// (its ceiling level, if a resource is held).
func (s *Scheduler) RemoveAll(task TaskID) {
	s.removeAllAt(s.homePrio[task], task)
	if s.hasCurrent && s.currentTask == task && s.currentPrio != s.homePrio[task] {
		s.removeAllAt(s.currentPrio, task)
	}
	delete(s.slicesLeft, task)
	s.recomputeNext()
}

func (s *Scheduler) removeAllAt(p Priority, task TaskID) {
	d := s.deque(p)
	d.RemoveAll(task)
	if d.IsEmpty() {
		s.ready.Clear(int(p))
	}
}

// RaiseCeiling promotes the current task to priority p (resource ceiling
// or interrupt-lock escalation): it is popped from its present level and
// pushed to the front of the new one, remaining queued throughout.
func (s *Scheduler) RaiseCeiling(p Priority) {
	if !s.hasCurrent {
		panicKernel("scheduler: ceiling raise with no current task")
	}
	s.popCurrentFromDeque()
	s.deque(p).PushFront(s.currentTask)
	s.ready.Set(int(p))
	s.currentPrio = p
	s.recomputeNext()
}

// ReleaseCeiling lowers the current task back toward homePrio (the new top
// of its held-resource stack, or its own home priority if none remain): it
// is popped from the ceiling level it was parked at and pushed to the front
// of the level it resumes at, so it stays the head there whether or not it
// remains RUNNING once Dispatch re-evaluates next.
func (s *Scheduler) ReleaseCeiling(to Priority) {
	if !s.hasCurrent {
		panicKernel("scheduler: ceiling release with no current task")
	}
	s.popCurrentFromDeque()
	s.deque(to).PushFront(s.currentTask)
	s.ready.Set(int(to))
	s.currentPrio = to
	s.recomputeNext()
}

// Dispatch commits next_task/next_priority as current. The incoming task is
// already the head of deque(next_priority) — whatever made it READY put it
// there — so dispatch touches no deque itself: a task occupies its deque
// throughout READY and RUNNING (§3) and is only ever removed by
// RemoveCurrentHead, never by becoming current. A preempted outgoing task
// is left exactly where it was: still queued, now simply no longer current.
func (s *Scheduler) Dispatch() (task TaskID, switched bool) {
	if s.hasCurrent && s.nextTask == s.currentTask {
		return s.currentTask, false
	}
	s.currentTask = s.nextTask
	s.currentPrio = s.nextPrio
	s.hasCurrent = s.currentTask != noTask
	if s.hasCurrent {
		if q := s.sliceQuantum[s.currentTask]; q > 0 {
			s.slicesLeft[s.currentTask] = q
		}
	}
	return s.currentTask, true
}

// CurrentTask reports the running task, if any.
func (s *Scheduler) CurrentTask() (TaskID, bool) { return s.currentTask, s.hasCurrent }

// NeedsSwitch reports whether next differs from current — the condition
// Schedule() uses to decide whether a switch is due at the next safe
// point.
func (s *Scheduler) NeedsSwitch() bool {
	return !s.hasCurrent || s.nextTask != s.currentTask
}

// Tick delivers one round-robin alarm tick: decrements the current task's
// remaining slice count and, on reaching zero, rotates it to the tail of
// its priority level (§4.1: "pop_front the head of deque[current_priority],
// push_back it"). The running task is already that deque's head (§3), so
// the rotation needs no restoration step first.
func (s *Scheduler) Tick() {
	if !s.hasCurrent {
		return
	}
	q := s.sliceQuantum[s.currentTask]
	if q == 0 {
		return
	}
	s.slicesLeft[s.currentTask]--
	if s.slicesLeft[s.currentTask] > 0 {
		return
	}
	s.slicesLeft[s.currentTask] = q
	s.deque(s.currentPrio).RotateHead()
	s.recomputeNext()
}
