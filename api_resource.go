// api_resource.go - resource and spinlock API surface

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

// callerPriority looks up the caller's current priority on the core it is
// actually running on (a resource is per-core, so its ceiling check must
// consult that core's scheduler, not an arbitrary one).
func (s *System) callerPriority(core CoreID, caller ThreadContext) Priority {
	c, ok := s.cores[core]
	if !ok || caller.Kind != ThreadKindTask {
		return 0
	}
	if cur, isCur := c.sched.CurrentTask(); isCur && cur == TaskID(caller.ID) {
		return c.sched.currentPrio
	}
	return 0
}

func (s *System) GetResource(core CoreID, caller ThreadContext, r ResourceID) StatusCode {
	res, ok := s.resByCore[core]
	if !ok {
		return StatusCore
	}
	return res.GetResource(caller, r, s.callerPriority(core, caller))
}

// ReleaseResource implements §4.7's release. Releasing can only lower the
// caller's priority back toward its home level (never raise it), making
// this a §5 dispatch point: a reschedule is due immediately in case that
// drop exposes a higher-priority task that was blocked below the ceiling.
func (s *System) ReleaseResource(core CoreID, caller ThreadContext, r ResourceID) StatusCode {
	res, ok := s.resByCore[core]
	if !ok {
		return StatusCore
	}
	code := res.ReleaseResource(caller, r)
	s.scheduleOn(caller)
	return code
}

func (s *System) GetSpinlock(core CoreID, caller ThreadContext, id SpinlockID) StatusCode {
	return s.spin.GetSpinlock(id, core, caller)
}

func (s *System) TryToGetSpinlock(core CoreID, caller ThreadContext, id SpinlockID) StatusCode {
	return s.spin.TryToGetSpinlock(id, core, caller)
}

// ReleaseSpinlock drops id's interrupt-lock level, which can unblock a
// pending preemption the same way releasing a ceilinged resource can — also
// a §5 dispatch point.
func (s *System) ReleaseSpinlock(core CoreID, caller ThreadContext, id SpinlockID) StatusCode {
	code := s.spin.ReleaseSpinlock(id, core)
	s.scheduleOn(caller)
	return code
}
