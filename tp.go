// tp.go - timing protection: execution/lock/arrival budgets

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

// LockBudgetKind distinguishes a resource-scoped lock budget from the
// all-interrupts/OS-interrupts lock classes (§4.9).
type LockBudgetKind int32

const (
	LockBudgetKindResource LockBudgetKind = iota
	LockBudgetKindAllInterrupts
	LockBudgetKindOSInterrupts
)

// TPConfig is the static timing-protection descriptor paired with one
// owner thread (task or ISR).
type TPConfig struct {
	ExecutionBudget  uint64 // 0 = unmonitored
	ArrivalTimeframe uint64 // minimum gap between successive activations, 0 = unmonitored
	LockBudgets      map[LockBudgetKind]uint64
	DelayLevel       func() int32 // returns the thread's current delayed-violation-call depth
}

// budgetFrame is one entry of a thread's TP budget-stack (§4.9).
type budgetFrame struct {
	kind      string // "execution" or "lock"
	lockKind  LockBudgetKind
	lockKey   int32
	deadline  uint64 // absolute HRT tick the budget expires at
	remaining uint64
}

// violationSeverity ranks LOCK > EXECUTION > ARRIVAL per §4.9.
func violationSeverity(code StatusCode) int {
	switch code {
	case StatusProtectionLocked:
		return 3
	case StatusProtectionTime:
		return 2
	case StatusProtectionArrival:
		return 1
	default:
		return 0
	}
}

// tpThreadState is the per-owner-thread dyn record: its budget stack, its
// inter-arrival deadline, and the held deferred violation (if any) while
// delay_level > 0.
type tpThreadState struct {
	stack           []budgetFrame
	earliestArrival uint64
	arrivalArmed    bool
	deferred        StatusCode
}

// TPEngine drives the single HRT-backed TP counter for one core and the
// per-thread budget bookkeeping described in §4.9.
type TPEngine struct {
	cfg             map[ThreadContext]TPConfig
	state           map[ThreadContext]*tpThreadState
	hrt             *Counter
	monitoredThread ThreadContext
	tpJob           Job
	protectionHook  func(ctx ThreadContext, code StatusCode) ProtectionAction
}

// NewTPEngine builds a TP engine driven by the core's dedicated HRT
// counter.
func NewTPEngine(cfg map[ThreadContext]TPConfig, hrt *Counter, hook func(ThreadContext, StatusCode) ProtectionAction) *TPEngine {
	e := &TPEngine{
		cfg:            cfg,
		state:          make(map[ThreadContext]*tpThreadState),
		hrt:            hrt,
		protectionHook: hook,
	}
	e.tpJob = Job{Kind: JobKindTPTimeout, Owner: 0}
	e.tpJob.Callback = e.onExpiry
	for ctx := range cfg {
		e.state[ctx] = &tpThreadState{}
	}
	return e
}

func (e *TPEngine) ensure(ctx ThreadContext) *tpThreadState {
	s, ok := e.state[ctx]
	if !ok {
		s = &tpThreadState{}
		e.state[ctx] = s
	}
	return s
}

// CheckArrival implements §4.9's inter-arrival check, performed at ISR
// entry and task activation.
func (e *TPEngine) CheckArrival(ctx ThreadContext) StatusCode {
	cfg, hasCfg := e.cfg[ctx]
	if !hasCfg || cfg.ArrivalTimeframe == 0 {
		return StatusOK
	}
	s := e.ensure(ctx)
	now := e.hrt.Value()
	if s.arrivalArmed && now < s.earliestArrival {
		return e.reportOrDefer(ctx, StatusProtectionArrival)
	}
	s.earliestArrival = now + cfg.ArrivalTimeframe
	s.arrivalArmed = true
	return StatusOK
}

// reportOrDefer implements §4.9's delayed-violation rule: while
// delay_level > 0 the highest-severity pending violation is recorded and
// replayed once delay_level returns to 0; otherwise ProtectionHook fires
// immediately.
func (e *TPEngine) reportOrDefer(ctx ThreadContext, code StatusCode) StatusCode {
	cfg := e.cfg[ctx]
	depth := int32(0)
	if cfg.DelayLevel != nil {
		depth = cfg.DelayLevel()
	}
	s := e.ensure(ctx)
	if depth > 0 {
		if violationSeverity(code) > violationSeverity(s.deferred) {
			s.deferred = code
		}
		return code
	}
	if e.protectionHook != nil {
		e.protectionHook(ctx, code)
	}
	return code
}

// ReplayDeferred is called when a thread's delay_level returns to 0; it
// re-raises the highest-severity violation accumulated while delayed, if
// any.
func (e *TPEngine) ReplayDeferred(ctx ThreadContext) {
	s := e.ensure(ctx)
	if s.deferred == StatusOK {
		return
	}
	code := s.deferred
	s.deferred = StatusOK
	if e.protectionHook != nil {
		e.protectionHook(ctx, code)
	}
}

// PushExecutionBudget arms the execution-time budget for ctx becoming the
// active (top-of-stack) thread — called by the thread-switch hook.
func (e *TPEngine) PushExecutionBudget(ctx ThreadContext) {
	cfg, ok := e.cfg[ctx]
	if !ok || cfg.ExecutionBudget == 0 {
		return
	}
	s := e.ensure(ctx)
	s.stack = append(s.stack, budgetFrame{kind: "execution", remaining: cfg.ExecutionBudget})
	e.reprogram(ctx)
}

// PushLockBudget pushes a lock-scoped budget (resource or interrupt-class)
// when ctx enters a locked section, freezing whatever budget is beneath it.
func (e *TPEngine) PushLockBudget(ctx ThreadContext, kind LockBudgetKind, key int32) {
	cfg, ok := e.cfg[ctx]
	if !ok || cfg.LockBudgets == nil {
		return
	}
	budget, ok := cfg.LockBudgets[kind]
	if !ok || budget == 0 {
		return
	}
	s := e.ensure(ctx)
	s.stack = append(s.stack, budgetFrame{kind: "lock", lockKind: kind, lockKey: key, remaining: budget})
	e.reprogram(ctx)
}

// PopLockBudget pops the top-of-stack budget on exiting a locked section,
// charging elapsed time to it and resuming the budget beneath with its
// frozen remaining time minus what the inner budget consumed, clamped to
// zero.
func (e *TPEngine) PopLockBudget(ctx ThreadContext) {
	s := e.ensure(ctx)
	if len(s.stack) == 0 {
		return
	}
	s.stack = s.stack[:len(s.stack)-1]
	e.freeze(ctx)
	e.reprogram(ctx)
}

// PopAllLockBudgets clears ctx's entire budget stack (kill path).
func (e *TPEngine) PopAllLockBudgets(ctx ThreadContext) {
	s := e.ensure(ctx)
	s.stack = nil
}

// ResetBudgetsPreserveArrival clears ctx's budget stack and deferred
// violation but keeps its inter-arrival deadline armed (§4.3 Kill: "reset
// TP budgets, inter-arrival preserved").
func (e *TPEngine) ResetBudgetsPreserveArrival(ctx ThreadContext) {
	s := e.ensure(ctx)
	s.stack = nil
	s.deferred = StatusOK
}

// OnThreadSwitch is the thread-switch hook §4.9 requires: freezes the
// outgoing thread's remaining budget and programs the compare for the
// incoming thread's deadline.
func (e *TPEngine) OnThreadSwitch(from, to ThreadContext) {
	if from != noThread {
		e.freeze(from)
	}
	e.monitoredThread = to
	e.reprogram(to)
}

// freeze records how much of the top-of-stack budget's time remains before
// its deadline, clamped at zero.
func (e *TPEngine) freeze(ctx ThreadContext) {
	s := e.ensure(ctx)
	if len(s.stack) == 0 {
		return
	}
	top := &s.stack[len(s.stack)-1]
	now := e.hrt.Value()
	if now >= top.deadline {
		top.remaining = 0
		return
	}
	top.remaining = top.deadline - now
}

// reprogram arms the TP HRT compare to ctx's top-of-stack budget deadline.
func (e *TPEngine) reprogram(ctx ThreadContext) {
	s := e.ensure(ctx)
	if len(s.stack) == 0 {
		e.hrt.Delete(&e.tpJob)
		return
	}
	top := &s.stack[len(s.stack)-1]
	top.deadline = e.hrt.Value() + top.remaining
	e.hrt.Delete(&e.tpJob)
	e.hrt.AddAbs(&e.tpJob, top.deadline)
}

// onExpiry fires when the TP HRT compare reaches the active budget's
// deadline: the budget is exhausted.
func (e *TPEngine) onExpiry(now uint64) {
	ctx := e.monitoredThread
	s := e.ensure(ctx)
	if len(s.stack) == 0 {
		return
	}
	top := s.stack[len(s.stack)-1]
	switch top.kind {
	case "lock":
		e.reportOrDefer(ctx, StatusProtectionLocked)
	default:
		e.reportOrDefer(ctx, StatusProtectionTime)
	}
}

// ProtectionAction is ProtectionHook's return value (§6).
type ProtectionAction int32

const (
	ProtectionIgnore ProtectionAction = iota
	ProtectionTerminateTaskISR
	ProtectionTerminateAppl
	ProtectionTerminateApplRestart
	ProtectionShutdown
)
