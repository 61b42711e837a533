// api_isr.go - ISR and interrupt-control API surface

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

func (s *System) GetISRID(core CoreID) (ISRID, StatusCode) {
	c, ok := s.cores[core]
	if !ok {
		return 0, StatusCore
	}
	ie, ok := s.isrByCore[core]
	if !ok {
		return 0, StatusCore
	}
	id, ok := ie.GetISRID(c)
	if !ok {
		return 0, StatusID
	}
	return id, StatusOK
}

func (s *System) DisableInterruptSource(id ISRID, callerApp ApplicationID) StatusCode {
	hal := s.halForISR(id)
	ie := s.isrEngineFor(id)
	if hal == nil || ie == nil {
		return StatusID
	}
	return ie.DisableInterruptSource(id, hal, callerApp)
}

func (s *System) EnableInterruptSource(id ISRID, clearPending bool, callerApp ApplicationID) StatusCode {
	hal := s.halForISR(id)
	ie := s.isrEngineFor(id)
	if hal == nil || ie == nil {
		return StatusID
	}
	return ie.EnableInterruptSource(id, hal, clearPending, callerApp)
}

// InitialEnableInterruptSources enables every configured source once
// during boot, bypassing the ownership check (no caller application is
// current yet).
func (s *System) InitialEnableInterruptSources() {
	for i, ic := range s.cfg.ISRs {
		if hal := s.halByCore[ic.Core]; hal != nil {
			hal.EnableSource(ic.Source, true)
			_ = i
		}
	}
}

func (s *System) ClearPendingInterrupt(id ISRID, callerApp ApplicationID) StatusCode {
	hal := s.halForISR(id)
	ie := s.isrEngineFor(id)
	if hal == nil || ie == nil {
		return StatusID
	}
	return ie.ClearPendingInterrupt(id, hal, callerApp)
}

func (s *System) IsInterruptSourceEnabled(id ISRID, callerApp ApplicationID) (bool, StatusCode) {
	hal := s.halForISR(id)
	ie := s.isrEngineFor(id)
	if hal == nil || ie == nil {
		return false, StatusID
	}
	return ie.IsInterruptSourceEnabled(id, hal, callerApp)
}

func (s *System) IsInterruptPending(id ISRID, callerApp ApplicationID) (bool, StatusCode) {
	hal := s.halForISR(id)
	ie := s.isrEngineFor(id)
	if hal == nil || ie == nil {
		return false, StatusID
	}
	return ie.IsInterruptPending(id, hal, callerApp)
}

func (s *System) halForISR(id ISRID) Hal {
	if int(id) < 0 || int(id) >= len(s.cfg.ISRs) {
		return nil
	}
	return s.halByCore[s.cfg.ISRs[id].Core]
}

// DisableAllInterrupts / EnableAllInterrupts / Suspend.../Resume... are the
// unconditional (non-nestable for Disable/Enable, nestable for
// Suspend/Resume) interrupt control calls. Only the Suspend/Resume pairs
// track nesting depth per calling thread context on its core (§5);
// Disable/Enable act on the core's HAL directly and are not tracked.
func (s *System) DisableAllInterrupts(core CoreID) StatusCode {
	c, ok := s.cores[core]
	if !ok {
		return StatusCore
	}
	c.hal.DisableAllInterrupts()
	return StatusOK
}

func (s *System) EnableAllInterrupts(core CoreID) StatusCode {
	c, ok := s.cores[core]
	if !ok {
		return StatusCore
	}
	c.hal.EnableAllInterrupts()
	return StatusOK
}

func (s *System) SuspendAllInterrupts(core CoreID, caller ThreadContext) (InterruptLockLevel, StatusCode) {
	c, ok := s.cores[core]
	if !ok {
		return 0, StatusCore
	}
	return c.SuspendAllInterrupts(caller), StatusOK
}

func (s *System) ResumeAllInterrupts(core CoreID, caller ThreadContext, prior InterruptLockLevel) StatusCode {
	c, ok := s.cores[core]
	if !ok {
		return StatusCore
	}
	c.ResumeAllInterrupts(caller, prior)
	return StatusOK
}

func (s *System) SuspendOSInterrupts(core CoreID, caller ThreadContext) (InterruptLockLevel, StatusCode) {
	c, ok := s.cores[core]
	if !ok {
		return 0, StatusCore
	}
	return c.SuspendOSInterrupts(caller), StatusOK
}

func (s *System) ResumeOSInterrupts(core CoreID, caller ThreadContext, prior InterruptLockLevel) StatusCode {
	c, ok := s.cores[core]
	if !ok {
		return StatusCore
	}
	c.ResumeOSInterrupts(caller, prior)
	return StatusOK
}
