// core.go - per-core thread orchestrator: current-thread pointer,
// interrupted-thread stack, lifecycle handshake, critical user section

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

// CoreActivationState is a core's lifecycle state (§4.10).
type CoreActivationState int32

const (
	CoreInactive CoreActivationState = iota
	CoreActivatedASR
	CoreActivatedNonASR
)

// OSState is the shared boot/run state machine (§4.10).
type OSState int32

const (
	OSStateInit OSState = iota
	OSStatePrestart
	OSStateStarted
)

// bootPattern is one of the four hand-shake values exchanged during core
// bring-up (§4.10).
type bootPattern int32

const (
	bootWaitingSign bootPattern = iota
	bootInitHardware
	bootInitHardwareCompleted
	bootStartCore
)

const maxInterruptedDepth = 16 // ISR_LEVELS + 8 hook depth, generator-sized per core

// Core is one physical core's orchestration state: the HAL fast-access
// current-thread slot, the bounded interrupted-thread stack, the
// scheduler/task/ISR engines bound to it, and its boot/shutdown lifecycle.
type Core struct {
	id    CoreID
	hal   Hal
	sched *Scheduler
	tasks *TaskEngine

	current     ThreadContext
	interrupted [maxInterruptedDepth]ThreadContext
	intTop      int

	interruptLockDepth map[ThreadContext]int32
	savedGlobalFlag    map[ThreadContext]bool

	activation CoreActivationState
	osState    OSState
	echoOut    bootPattern

	criticalDepth int32

	scheduleRequested bool
}

// NewCore builds a core orchestrator bound to hal and the given scheduler
// and task engine.
func NewCore(id CoreID, hal Hal, sched *Scheduler, tasks *TaskEngine) *Core {
	c := &Core{
		id:                 id,
		hal:                hal,
		sched:              sched,
		tasks:              tasks,
		current:            noThread,
		interruptLockDepth: make(map[ThreadContext]int32),
		savedGlobalFlag:    make(map[ThreadContext]bool),
	}
	return c
}

// CurrentThread returns the HAL fast-access current-thread identity.
func (c *Core) CurrentThread() ThreadContext { return c.current }

// SetCurrentThread updates the HAL fast-access slot — called only by the
// ISR engine and the dispatch path immediately around a SwitchContext.
func (c *Core) SetCurrentThread(ctx ThreadContext) { c.current = ctx }

// PushInterrupted pushes ctx onto the bounded interrupted-thread stack on
// ISR/hook entry.
func (c *Core) PushInterrupted(ctx ThreadContext) error {
	if c.intTop >= maxInterruptedDepth {
		return &KernelPanic{Reason: "interrupted-thread stack overflow"}
	}
	c.interrupted[c.intTop] = ctx
	c.intTop++
	return nil
}

// PopInterrupted pops the interrupted-thread stack on ISR/hook exit.
func (c *Core) PopInterrupted() ThreadContext {
	if c.intTop == 0 {
		return noThread
	}
	c.intTop--
	return c.interrupted[c.intTop]
}

// ThreadByContext scans current + the interrupted stack and returns the
// highest-priority entry matching kind — the primitive GetISRID/hook
// lookups are built on (§4.10).
func (c *Core) ThreadByContext(kind ThreadKind) (ThreadContext, bool) {
	if c.current.Kind == kind {
		return c.current, true
	}
	for i := c.intTop - 1; i >= 0; i-- {
		if c.interrupted[i].Kind == kind {
			return c.interrupted[i], true
		}
	}
	return noThread, false
}

// RequestSchedule marks that a reschedule is due at the next safe point. Every
// §5 dispatch point (WaitEvent, the explicit Schedule API, TerminateTask,
// ChainTask, a ReleaseResource/ReleaseSpinlock that lowers priority, a
// counter tick, and a category-2 ISR epilogue's return to task level) sets
// this and immediately calls Schedule(), which consumes it.
func (c *Core) RequestSchedule() { c.scheduleRequested = true }

// Schedule performs a reschedule if one is pending or the ready set's top
// differs from current, switching context via the HAL when required. It is
// the one place scheduleRequested is read: a call with nothing requested and
// nothing changed in the ready set is a no-op, so callers at every §5
// dispatch point can invoke it unconditionally after their own state change.
func (c *Core) Schedule() {
	if !c.scheduleRequested && !c.sched.NeedsSwitch() {
		return
	}
	c.scheduleRequested = false
	if !c.sched.NeedsSwitch() {
		return
	}
	prevCtx := c.current
	next, switched := c.tasks.Dispatch()
	if !switched {
		return
	}
	nextCtx := ThreadContext{Kind: ThreadKindTask, ID: int32(next)}
	c.hal.SwitchContext(c.id, prevCtx, nextCtx)
	c.current = nextCtx
}

// SuspendAllInterrupts / ResumeAllInterrupts and the OS-interrupt variants
// track nesting depth per the calling thread context (§5: "Interrupt API
// state per thread"). The global interrupt flag at the first Suspend is not
// recorded.
func (c *Core) SuspendAllInterrupts(ctx ThreadContext) InterruptLockLevel {
	prior := c.hal.SuspendAllInterrupts()
	c.interruptLockDepth[ctx]++
	return prior
}

func (c *Core) ResumeAllInterrupts(ctx ThreadContext, prior InterruptLockLevel) {
	if c.interruptLockDepth[ctx] > 0 {
		c.interruptLockDepth[ctx]--
	}
	c.hal.ResumeAllInterrupts(prior)
}

func (c *Core) SuspendOSInterrupts(ctx ThreadContext) InterruptLockLevel {
	prior := c.hal.SuspendOSInterrupts()
	c.interruptLockDepth[ctx]++
	return prior
}

func (c *Core) ResumeOSInterrupts(ctx ThreadContext, prior InterruptLockLevel) {
	if c.interruptLockDepth[ctx] > 0 {
		c.interruptLockDepth[ctx]--
	}
	c.hal.ResumeOSInterrupts(prior)
}

// ResetInterruptState restores ctx's nesting depth to zero on Kill. If ctx
// still had a Suspend outstanding it re-enables all interrupts, whatever the
// global flag was before that thread's first Suspend call.
func (c *Core) ResetInterruptState(ctx ThreadContext) {
	if c.interruptLockDepth[ctx] > 0 {
		c.hal.EnableAllInterrupts()
	}
	delete(c.interruptLockDepth, ctx)
	delete(c.savedGlobalFlag, ctx)
}

// EnterCriticalUserSection / LeaveCriticalUserSection implement the
// reentrant guard (§4.10) preventing nested hook callbacks to user code
// from being interrupted by further nested hooks.
func (c *Core) EnterCriticalUserSection() { c.criticalDepth++ }
func (c *Core) LeaveCriticalUserSection() {
	if c.criticalDepth > 0 {
		c.criticalDepth--
	}
}
func (c *Core) InCriticalUserSection() bool { return c.criticalDepth > 0 }

// StartCore begins the boot hand-shake for an AUTOSAR-mode core.
func (c *Core) StartCore() {
	c.activation = CoreActivatedASR
	c.osState = OSStatePrestart
}

// StartNonAutosarCore begins boot for a core not participating in the
// AUTOSAR hand-shake.
func (c *Core) StartNonAutosarCore() {
	c.activation = CoreActivatedNonASR
	c.osState = OSStatePrestart
}

// RunBootHandshake drives the four-pattern echo-in/echo-out sequence
// (§4.10): masters write echo-in patterns, this core mirrors them via
// echo-out; isHardwareInitCore performs one-time peripheral bring-up.
func (c *Core) RunBootHandshake(echoIn bootPattern, isHardwareInitCore bool, initHardware func()) bootPattern {
	switch echoIn {
	case bootWaitingSign:
		c.echoOut = bootWaitingSign
	case bootInitHardware:
		if isHardwareInitCore && initHardware != nil {
			initHardware()
		}
		c.echoOut = bootInitHardwareCompleted
	case bootInitHardwareCompleted:
		c.echoOut = bootInitHardwareCompleted
	case bootStartCore:
		c.osState = OSStateStarted
		c.echoOut = bootStartCore
	}
	return c.echoOut
}

// ShutdownLocal runs this core's local shutdown sequence — invoked by
// ShutdownAllCores before the barrier/global-hook step.
func (c *Core) ShutdownLocal() {
	c.activation = CoreInactive
	c.osState = OSStateInit
}
