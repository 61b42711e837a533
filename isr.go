// isr.go - category-2 ISR prologue/epilogue, nesting stack, lock-leak detection

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

// ISRConfig is the static descriptor for one category-2 ISR (§3).
type ISRConfig struct {
	Source     InterruptSourceID
	App        ApplicationID
	Core       CoreID
	AccessMask uint64
	TP         TPConfig
}

// isrDyn is the mutable per-ISR record: only a killed flag, since hardware
// arbitrates nesting (§3: "No queueing: hardware arbitrates nesting").
type isrDyn struct {
	killed bool
}

// ISREngine drives category-2 ISR prologue/epilogue for one core.
type ISREngine struct {
	cfg    []ISRConfig
	dyn    []isrDyn
	core   *Core
	tp     *TPEngine
	res    *ResourceTable
	spin   *SpinlockTable
	errHook func(api string, code StatusCode)
}

func NewISREngine(cfg []ISRConfig, core *Core, tp *TPEngine, res *ResourceTable, spin *SpinlockTable, errHook func(string, StatusCode)) *ISREngine {
	return &ISREngine{cfg: cfg, dyn: make([]isrDyn, len(cfg)), core: core, tp: tp, res: res, spin: spin, errHook: errHook}
}

func (e *ISREngine) valid(id ISRID) bool { return id >= 0 && int(id) < len(e.cfg) }

// IsrRun is the prologue: with interrupts suspended, checks the
// inter-arrival budget (dropping the invocation on violation), pushes the
// interrupted thread, and starts the context switch to the ISR's thread.
func (e *ISREngine) IsrRun(id ISRID, hal Hal, ack func()) StatusCode {
	if !e.valid(id) {
		return StatusID
	}
	ctx := ThreadContext{Kind: ThreadKindISR, ID: int32(id)}
	prior := hal.SuspendAllInterrupts()
	defer hal.ResumeAllInterrupts(prior)

	if e.tp != nil {
		if violation := e.tp.CheckArrival(ctx); violation != StatusOK {
			ack()
			return violation
		}
	}

	interrupted := e.core.CurrentThread()
	if err := e.core.PushInterrupted(interrupted); err != nil {
		panicKernel("isr: interrupted-thread stack overflow on core %d", e.core.id)
	}
	hal.SwitchContext(e.core.id, interrupted, ctx)
	e.core.SetCurrentThread(ctx)
	if e.tp != nil {
		e.tp.OnThreadSwitch(interrupted, ctx)
	}
	return StatusOK
}

// IsrEpilogue is invoked when the ISR body returns: verifies no resources
// or spinlocks remain held and interrupts are enabled, force-releasing and
// reporting (non-fatally) any violation found, then acknowledges hardware
// and pops back to the interrupted thread.
func (e *ISREngine) IsrEpilogue(id ISRID, hal Hal, ack func()) {
	if !e.valid(id) {
		return
	}
	ctx := ThreadContext{Kind: ThreadKindISR, ID: int32(id)}
	hal.DisableAllInterrupts()

	d := &e.dyn[id]
	if d.killed {
		d.killed = false
	} else {
		if e.res != nil && e.res.AnyHeldBy(ctx) {
			for range e.res.ForceReleaseAll(ctx) {
				e.report("IsrEpilogue", StatusResource)
			}
		}
		if e.spin != nil {
			if stack := e.spin.coreHeld[e.core.id]; len(stack) > 0 {
				for i := len(stack) - 1; i >= 0; i-- {
					e.spin.ReleaseSpinlock(stack[i], e.core.id)
					e.report("IsrEpilogue", StatusSpinlock)
				}
			}
		}
		// Interrupts-enabled check: the Suspend/Resume nesting depth for
		// this context must be back to zero by the time the epilogue runs.
		if depth := e.core.interruptLockDepth[ctx]; depth != 0 {
			e.core.interruptLockDepth[ctx] = 0
			e.report("IsrEpilogue", StatusDisabledInt)
		}
	}

	ack()
	prev := e.core.PopInterrupted()
	hal.SwitchContext(e.core.id, ctx, prev)
	e.core.SetCurrentThread(prev)
	if e.tp != nil {
		e.tp.OnThreadSwitch(ctx, prev)
	}
	if prev.Kind == ThreadKindTask {
		// Hardware has just returned control to the interrupted task, but a
		// higher-priority task may have become ready while this ISR ran —
		// the epilogue is the §5 dispatch point that must re-evaluate before
		// letting prev actually resume.
		e.core.RequestSchedule()
		e.core.Schedule()
	}
}

func (e *ISREngine) report(api string, code StatusCode) {
	if e.errHook != nil {
		e.errHook(api, code)
	}
}

// Kill is invoked out-of-band (TerminateApplication from another thread)
// against an ISR that will never reach its own epilogue: it must force-release
// whatever the ISR was holding itself, rather than leaving that to
// IsrEpilogue, since that epilogue is never going to run for this
// invocation. The killed flag is only held true for the duration of the
// cleanup and cleared once it completes, so the ISR's next normal
// invocation sees a clean state.
func (e *ISREngine) Kill(id ISRID) {
	if !e.valid(id) {
		return
	}
	e.dyn[id].killed = true
	ctx := ThreadContext{Kind: ThreadKindISR, ID: int32(id)}
	if e.res != nil && e.res.AnyHeldBy(ctx) {
		for range e.res.ForceReleaseAll(ctx) {
			e.report("Kill", StatusResource)
		}
	}
	if e.spin != nil {
		if stack := e.spin.coreHeld[e.core.id]; len(stack) > 0 {
			for i := len(stack) - 1; i >= 0; i-- {
				e.spin.ReleaseSpinlock(stack[i], e.core.id)
				e.report("Kill", StatusSpinlock)
			}
		}
	}
	e.dyn[id].killed = false
}

// GetISRID reports the ISR identity of the running context, if any — the
// GetISRID API (§6), implemented via Core's thread_by_context scan.
func (e *ISREngine) GetISRID(core *Core) (ISRID, bool) {
	ctx, ok := core.ThreadByContext(ThreadKindISR)
	if ok {
		return ISRID(ctx.ID), true
	}
	return 0, false
}

// EnableInterruptSource / DisableInterruptSource / ClearPendingInterrupt /
// IsInterruptSourceEnabled / IsInterruptPending implement §4.4's API
// surface; all reject ids the caller's application does not own.
func (e *ISREngine) EnableInterruptSource(id ISRID, hal Hal, clearPending bool, callerApp ApplicationID) StatusCode {
	if s := e.checkOwner(id, callerApp); s != StatusOK {
		return s
	}
	hal.EnableSource(e.cfg[id].Source, clearPending)
	return StatusOK
}

func (e *ISREngine) DisableInterruptSource(id ISRID, hal Hal, callerApp ApplicationID) StatusCode {
	if s := e.checkOwner(id, callerApp); s != StatusOK {
		return s
	}
	hal.DisableSource(e.cfg[id].Source)
	return StatusOK
}

func (e *ISREngine) ClearPendingInterrupt(id ISRID, hal Hal, callerApp ApplicationID) StatusCode {
	if s := e.checkOwner(id, callerApp); s != StatusOK {
		return s
	}
	hal.ClearPending(e.cfg[id].Source)
	return StatusOK
}

func (e *ISREngine) IsInterruptSourceEnabled(id ISRID, hal Hal, callerApp ApplicationID) (bool, StatusCode) {
	if s := e.checkOwner(id, callerApp); s != StatusOK {
		return false, s
	}
	return hal.IsEnabled(e.cfg[id].Source), StatusOK
}

func (e *ISREngine) IsInterruptPending(id ISRID, hal Hal, callerApp ApplicationID) (bool, StatusCode) {
	if s := e.checkOwner(id, callerApp); s != StatusOK {
		return false, s
	}
	return hal.IsPending(e.cfg[id].Source), StatusOK
}

func (e *ISREngine) checkOwner(id ISRID, callerApp ApplicationID) StatusCode {
	if !e.valid(id) {
		return StatusID
	}
	if e.cfg[id].App != callerApp {
		return StatusNotTheOwner
	}
	return StatusOK
}
