// task.go - task lifecycle state machine, events, multi-activation queueing

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

// TaskState is the task lifecycle state (§4.3).
type TaskState int32

const (
	TaskSuspended TaskState = iota
	TaskReady
	TaskRunning
	TaskWaiting
)

// TaskConfig is the static descriptor for one task.
type TaskConfig struct {
	HomePriority   Priority
	MaxActivations int
	Extended       bool // may call WaitEvent
	Core           CoreID
	App            ApplicationID
	AccessMask     uint64
	TP             TPConfig
}

// taskDyn is the mutable record owned exclusively by the kernel (§3).
type taskDyn struct {
	state       TaskState
	currentPrio Priority
	waiting     EventMask
	pending     EventMask
	activations int
}

// TaskEngine drives every configured task's lifecycle against one core's
// Scheduler.
type TaskEngine struct {
	cfg   []TaskConfig
	dyn   []taskDyn
	sched *Scheduler
	held  *ResourceTable // queried on Terminate/Kill for the RESOURCE check
	tp    *TPEngine
}

// NewTaskEngine builds an engine for the given per-task static config.
func NewTaskEngine(cfg []TaskConfig, sched *Scheduler, held *ResourceTable, tp *TPEngine) *TaskEngine {
	e := &TaskEngine{cfg: cfg, dyn: make([]taskDyn, len(cfg)), sched: sched, held: held, tp: tp}
	for i := range e.dyn {
		e.dyn[i].currentPrio = cfg[i].HomePriority
	}
	return e
}

func (e *TaskEngine) valid(t TaskID) bool { return t >= 0 && int(t) < len(e.cfg) }

func (e *TaskEngine) GetTaskState(t TaskID) (TaskState, StatusCode) {
	if !e.valid(t) {
		return 0, StatusID
	}
	return e.dyn[t].state, StatusOK
}

// ActivateTask implements §4.3's contract: LIMIT when already at max
// activations; otherwise increments the count and, on the 0→1 transition,
// inserts the task into the scheduler.
func (e *TaskEngine) ActivateTask(t TaskID) StatusCode {
	if !e.valid(t) {
		return StatusID
	}
	d := &e.dyn[t]
	if d.activations >= e.cfg[t].MaxActivations {
		return StatusLimit
	}
	if violation := e.tp.CheckArrival(ThreadContext{Kind: ThreadKindTask, ID: int32(t)}); violation != StatusOK {
		return violation
	}
	d.activations++
	if d.activations == 1 {
		d.state = TaskReady
		e.sched.Insert(t)
	}
	return StatusOK
}

// SetEvent implements §4.3: ORs mask into pending; if the task is WAITING
// and now satisfied, it is released back to READY.
func (e *TaskEngine) SetEvent(t TaskID, mask EventMask) StatusCode {
	if !e.valid(t) {
		return StatusID
	}
	d := &e.dyn[t]
	if !e.cfg[t].Extended {
		return StatusNoFunc
	}
	d.pending |= mask
	if d.state == TaskWaiting && d.pending&d.waiting != 0 {
		d.waiting = NoEvent
		d.state = TaskReady
		e.sched.Insert(t)
	}
	return StatusOK
}

func (e *TaskEngine) ClearEvent(t TaskID, mask EventMask) StatusCode {
	if !e.valid(t) {
		return StatusID
	}
	e.dyn[t].pending &^= mask
	return StatusOK
}

func (e *TaskEngine) GetEvent(t TaskID) (EventMask, StatusCode) {
	if !e.valid(t) {
		return 0, StatusID
	}
	if !e.cfg[t].Extended {
		return 0, StatusNoFunc
	}
	return e.dyn[t].pending, StatusOK
}

// WaitEvent blocks the calling (RUNNING, extended) task until one of mask's
// bits is pending. Returns immediately if already satisfied.
func (e *TaskEngine) WaitEvent(t TaskID, mask EventMask) StatusCode {
	if !e.valid(t) {
		return StatusID
	}
	if !e.cfg[t].Extended {
		return StatusNoFunc
	}
	d := &e.dyn[t]
	if d.state != TaskRunning {
		return StatusCallLevel
	}
	if d.pending&mask != 0 {
		return StatusOK
	}
	if cur, ok := e.sched.CurrentTask(); ok && cur == t && e.sched.currentPrio != e.cfg[t].HomePriority {
		return StatusAccess // must hold no ceiling-raising resource/lock
	}
	d.waiting = mask
	d.state = TaskWaiting
	e.sched.RemoveCurrentHead()
	return StatusOK
}

// checkNoLocksHeld implements the shared TerminateTask/ChainTask
// precondition: t holds no resource. Held spinlocks and disabled interrupts
// are not checked here, and Kill does not call it.
func (e *TaskEngine) checkNoLocksHeld(t TaskID) StatusCode {
	if e.held != nil {
		if e.held.AnyHeldBy(ThreadContext{Kind: ThreadKindTask, ID: int32(t)}) {
			return StatusResource
		}
	}
	return StatusOK
}

// TerminateTask ends the current activation. The caller is always the
// scheduler's current task here, so it is first popped from wherever it is
// queued (RemoveCurrentHead); if activations remain, it re-enters READY
// immediately (a still-pending multi-activation run) via a fresh Insert.
func (e *TaskEngine) TerminateTask(t TaskID) StatusCode {
	if !e.valid(t) {
		return StatusID
	}
	if s := e.checkNoLocksHeld(t); s != StatusOK {
		return s
	}
	d := &e.dyn[t]
	d.activations--
	e.sched.RemoveCurrentHead()
	if d.activations > 0 {
		d.state = TaskReady
		e.sched.Insert(t)
		return StatusOK
	}
	d.state = TaskSuspended
	return StatusOK
}

// ChainTask activates next (reserving its activation slot so self-chaining
// never spuriously reports LIMIT) before removing the caller's own
// activation. The caller is always the scheduler's current task, so each
// branch must pop it from its present deque slot before any re-Insert.
func (e *TaskEngine) ChainTask(self, next TaskID) StatusCode {
	if !e.valid(self) || !e.valid(next) {
		return StatusID
	}
	if s := e.checkNoLocksHeld(self); s != StatusOK {
		return s
	}
	if self == next {
		// Self-chain: the caller's own activation is the reserved slot, so
		// re-activating is always legal regardless of MaxActivations.
		d := &e.dyn[self]
		d.state = TaskReady
		e.sched.RemoveCurrentHead()
		e.sched.Insert(self)
		return StatusOK
	}
	if s := e.ActivateTask(next); s != StatusOK {
		return s
	}
	d := &e.dyn[self]
	d.activations--
	e.sched.RemoveCurrentHead()
	if d.activations > 0 {
		d.state = TaskReady
		e.sched.Insert(self)
	} else {
		d.state = TaskSuspended
	}
	return StatusOK
}

// Kill forcibly terminates t: releases every held resource, passing each
// forced release's status code to errHook, clears
// all activations, resets state, event masks and (arrival preserved) TP
// budgets.
func (e *TaskEngine) Kill(t TaskID, errHook func(StatusCode)) {
	if !e.valid(t) {
		return
	}
	ctx := ThreadContext{Kind: ThreadKindTask, ID: int32(t)}
	if e.held != nil {
		for _, code := range e.held.ForceReleaseAll(ctx) {
			if errHook != nil {
				errHook(code)
			}
		}
	}
	d := &e.dyn[t]
	d.activations = 0
	d.pending = NoEvent
	d.waiting = NoEvent
	d.state = TaskSuspended
	d.currentPrio = e.cfg[t].HomePriority
	e.sched.RemoveAll(t)
	if e.tp != nil {
		e.tp.ResetBudgetsPreserveArrival(ctx)
	}
}

// Dispatch commits the scheduler's chosen next task as RUNNING, marking
// the outgoing current (if any and still READY-bound) appropriately. The
// caller (core orchestrator) performs the actual HAL context switch.
func (e *TaskEngine) Dispatch() (TaskID, bool) {
	prev, hadPrev := e.sched.CurrentTask()
	next, switched := e.sched.Dispatch()
	if hadPrev && switched && e.dyn[prev].state == TaskRunning {
		e.dyn[prev].state = TaskReady
	}
	if switched && next != noTask {
		e.dyn[next].state = TaskRunning
	}
	return next, switched
}
