// api_task.go - task and event API surface

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

// ActivateTask requests activation of t, routing to the local task engine
// or, for a cross-core target, posting to the target core's XSignal ring.
func (s *System) ActivateTask(caller ThreadContext, callerCore CoreID, t TaskID) StatusCode {
	if int(t) < 0 || int(t) >= len(s.cfg.Tasks) {
		return StatusID
	}
	targetCore := s.cfg.Tasks[t].Core
	if targetCore != callerCore {
		ring := s.Mailbox(callerCore, targetCore, 64)
		if !ring.Post(XSignalMsg{Kind: XSignalActivateTask, Task: t}) {
			return StatusLimit
		}
		return StatusOK
	}
	return s.taskEngineFor(t).ActivateTask(t)
}

// TerminateTask ends the caller's own current activation — a §5 dispatch
// point, so a reschedule is due immediately once it returns.
func (s *System) TerminateTask(caller ThreadContext) StatusCode {
	if caller.Kind != ThreadKindTask {
		return StatusCallLevel
	}
	code := s.taskEngineFor(TaskID(caller.ID)).TerminateTask(TaskID(caller.ID))
	s.scheduleOn(caller)
	return code
}

// ChainTask terminates the caller and activates next as an atomic unit — a
// §5 dispatch point, so a reschedule is due immediately once it returns.
func (s *System) ChainTask(caller ThreadContext, next TaskID) StatusCode {
	if caller.Kind != ThreadKindTask {
		return StatusCallLevel
	}
	code := s.taskEngineFor(TaskID(caller.ID)).ChainTask(TaskID(caller.ID), next)
	s.scheduleOn(caller)
	return code
}

// Schedule requests a reschedule at the next safe point on callerCore.
func (s *System) Schedule(callerCore CoreID) StatusCode {
	core, ok := s.cores[callerCore]
	if !ok {
		return StatusCore
	}
	core.RequestSchedule()
	core.Schedule()
	return StatusOK
}

// GetTaskID reports the running task's identity, or StatusID if the
// caller is not task context.
func (s *System) GetTaskID(caller ThreadContext) (TaskID, StatusCode) {
	if caller.Kind != ThreadKindTask {
		return 0, StatusID
	}
	return TaskID(caller.ID), StatusOK
}

// GetTaskState reports t's lifecycle state.
func (s *System) GetTaskState(t TaskID) (TaskState, StatusCode) {
	te := s.taskEngineFor(t)
	if te == nil {
		return 0, StatusID
	}
	return te.GetTaskState(t)
}

// SetEvent ORs mask into t's pending event set and releases it from
// WAITING if satisfied.
func (s *System) SetEvent(t TaskID, mask EventMask) StatusCode {
	te := s.taskEngineFor(t)
	if te == nil {
		return StatusID
	}
	return te.SetEvent(t, mask)
}

// ClearEvent clears bits of mask from the caller's pending event set.
func (s *System) ClearEvent(caller ThreadContext, mask EventMask) StatusCode {
	if caller.Kind != ThreadKindTask {
		return StatusCallLevel
	}
	return s.taskEngineFor(TaskID(caller.ID)).ClearEvent(TaskID(caller.ID), mask)
}

// GetEvent reports t's pending event set.
func (s *System) GetEvent(t TaskID) (EventMask, StatusCode) {
	te := s.taskEngineFor(t)
	if te == nil {
		return 0, StatusID
	}
	return te.GetEvent(t)
}

// WaitEvent blocks the calling extended task until one of mask's bits is
// pending — a §5 dispatch point: if it actually blocks, a reschedule is due
// immediately so some other ready task gets the core.
func (s *System) WaitEvent(caller ThreadContext, mask EventMask) StatusCode {
	if caller.Kind != ThreadKindTask {
		return StatusCallLevel
	}
	code := s.taskEngineFor(TaskID(caller.ID)).WaitEvent(TaskID(caller.ID), mask)
	s.scheduleOn(caller)
	return code
}

// scheduleOn requests and immediately performs a reschedule on ctx's owning
// core — the shared tail end of every §5 dispatch-point API. A call where
// nothing actually changed the ready set is a no-op (Core.Schedule checks
// NeedsSwitch before touching the HAL).
func (s *System) scheduleOn(ctx ThreadContext) {
	core := s.coreOf(ctx)
	if core == nil {
		return
	}
	core.RequestSchedule()
	core.Schedule()
}
