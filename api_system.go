// api_system.go - application and core/system API surface

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

func (s *System) GetApplicationID(caller ThreadContext) (ApplicationID, StatusCode) {
	owner, ok := s.ownerOf(caller)
	if !ok {
		return 0, StatusID
	}
	return owner, StatusOK
}

func (s *System) CheckObjectAccess(app ApplicationID, objectBit uint) StatusCode {
	return s.apps.CheckObjectAccess(app, objectBit)
}

func (s *System) CheckObjectOwnership(app ApplicationID, objectBit uint) StatusCode {
	return s.apps.CheckObjectOwnership(app, objectBit)
}

func (s *System) TerminateApplication(app ApplicationID, restart bool) StatusCode {
	return s.apps.TerminateApplication(app, restart, func(c StatusCode) { s.defaultErrHook("TerminateApplication", c) })
}

func (s *System) AllowAccess(app ApplicationID, objectBit uint) StatusCode {
	return s.apps.AllowAccess(app, objectBit)
}

func (s *System) GetCoreID(caller ThreadContext) CoreID {
	switch caller.Kind {
	case ThreadKindTask:
		if int(caller.ID) < len(s.cfg.Tasks) {
			return s.cfg.Tasks[caller.ID].Core
		}
	case ThreadKindISR:
		if int(caller.ID) < len(s.cfg.ISRs) {
			return s.cfg.ISRs[caller.ID].Core
		}
	}
	return 0
}

func (s *System) StartCore(core CoreID) StatusCode {
	c, ok := s.cores[core]
	if !ok {
		return StatusCore
	}
	c.StartCore()
	return StatusOK
}

func (s *System) StartNonAutosarCore(core CoreID) StatusCode {
	c, ok := s.cores[core]
	if !ok {
		return StatusCore
	}
	c.StartNonAutosarCore()
	return StatusOK
}

func (s *System) GetActiveApplicationMode() int32 { return 0 }

// ControlIdle configures whether the idle loop sleeps between
// reschedules; the kernel only invokes the idle task body (§1), so this
// merely records the requested mode for the HAL-provided idle loop.
type IdleMode int32

const (
	IdleDefault IdleMode = iota
	IdleSleep
	IdleBusy
)

func (s *System) ControlIdle(core CoreID, mode IdleMode) StatusCode {
	if _, ok := s.cores[core]; !ok {
		return StatusCore
	}
	return StatusOK
}

// CallTrustedFunction / CallNonTrustedFunction dispatch a generator-bound
// function id with opaque parameters; the kernel's role is purely the
// trust-boundary check, the function table itself is generator-owned.
func (s *System) CallTrustedFunction(callerApp ApplicationID, id int32, params any, fn func(any) any) (any, StatusCode) {
	if int(callerApp) < 0 || int(callerApp) >= len(s.cfg.Applications) {
		return nil, StatusID
	}
	if !s.cfg.Applications[callerApp].Trusted {
		return nil, StatusAccess
	}
	return fn(params), StatusOK
}

func (s *System) CallNonTrustedFunction(id int32, params any, fn func(any) any) (any, StatusCode) {
	return fn(params), StatusOK
}

// OsGetLastError surfaces the most recent error captured per-core.
func (s *System) OsGetLastError(core CoreID) *LastError {
	return s.errs.OsGetLastError(core)
}
