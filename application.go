// application.go - OS-Application state machine and access control

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

// ApplicationState is an OS-Application's lifecycle state (§3).
type ApplicationState int32

const (
	AppAccessible ApplicationState = iota
	AppRestarting
	AppTerminated
)

// ApplicationConfig is the static descriptor for one OS-Application.
type ApplicationConfig struct {
	Trusted     bool
	Privileged  bool
	RestartTask TaskID
	HasRestart  bool
	CategoryBMask uint64 // bitmap of object ids this application may reach

	StartupHook  func()
	ShutdownHook func(StatusCode)
	ErrorHook    func(StatusCode)
}

type applicationDyn struct {
	state ApplicationState
}

// ApplicationTable owns every configured application's state and drives
// TerminateApplication against the task/ISR engines.
type ApplicationTable struct {
	cfg       []ApplicationConfig
	dyn       []applicationDyn
	taskEngineFor func(TaskID) *TaskEngine
	isrEngineFor  func(ISRID) *ISREngine
	taskOwner []ApplicationID // dense task -> owning app
	isrOwner  []ApplicationID // dense isr -> owning app
}

// NewApplicationTable builds the table. taskEngineFor/isrEngineFor resolve
// a task/ISR id to whichever core's engine owns it, since an application's
// tasks and ISRs may be spread across cores.
func NewApplicationTable(cfg []ApplicationConfig, taskEngineFor func(TaskID) *TaskEngine, isrEngineFor func(ISRID) *ISREngine, taskOwner, isrOwner []ApplicationID) *ApplicationTable {
	return &ApplicationTable{
		cfg:           cfg,
		dyn:           make([]applicationDyn, len(cfg)),
		taskEngineFor: taskEngineFor,
		isrEngineFor:  isrEngineFor,
		taskOwner:     taskOwner,
		isrOwner:      isrOwner,
	}
}

func (a *ApplicationTable) valid(app ApplicationID) bool { return app >= 0 && int(app) < len(a.cfg) }

func (a *ApplicationTable) GetApplicationState(app ApplicationID) (ApplicationState, StatusCode) {
	if !a.valid(app) {
		return 0, StatusID
	}
	return a.dyn[app].state, StatusOK
}

// CheckObjectAccess reports whether app's CategoryBMask permits touching
// objectBit; mismatches return NOT_THE_OWNER (§4.11).
func (a *ApplicationTable) CheckObjectAccess(app ApplicationID, objectBit uint) StatusCode {
	if !a.valid(app) {
		return StatusID
	}
	if a.cfg[app].CategoryBMask&(1<<objectBit) == 0 {
		return StatusNotTheOwner
	}
	return StatusOK
}

// CheckObjectOwnership is identical in contract to CheckObjectAccess at
// this layer; kept as a distinct name because the external API (§6) names
// both separately even though they consult the same access-mask.
func (a *ApplicationTable) CheckObjectOwnership(app ApplicationID, objectBit uint) StatusCode {
	return a.CheckObjectAccess(app, objectBit)
}

// AllowAccess grants app access to objectBit at runtime (dynamic grant
// within the statically configured ceiling the generator allows).
func (a *ApplicationTable) AllowAccess(app ApplicationID, objectBit uint) StatusCode {
	if !a.valid(app) {
		return StatusID
	}
	a.cfg[app].CategoryBMask |= 1 << objectBit
	return StatusOK
}

// TerminateApplication kills every task and ISR owned by app, transitions
// its state to TERMINATED, invokes its ShutdownHook if trusted, and — when
// restart is true and a restart task is configured — reactivates that task
// and returns app to ACCESSIBLE (§4.11).
func (a *ApplicationTable) TerminateApplication(app ApplicationID, restart bool, errHook func(StatusCode)) StatusCode {
	if !a.valid(app) {
		return StatusID
	}
	for t, owner := range a.taskOwner {
		if owner == app {
			if te := a.taskEngineFor(TaskID(t)); te != nil {
				te.Kill(TaskID(t), errHook)
			}
		}
	}
	for i, owner := range a.isrOwner {
		if owner == app {
			if ie := a.isrEngineFor(ISRID(i)); ie != nil {
				ie.Kill(ISRID(i))
			}
		}
	}
	a.dyn[app].state = AppTerminated
	if a.cfg[app].Trusted && a.cfg[app].ShutdownHook != nil {
		a.cfg[app].ShutdownHook(StatusOK)
	}
	if restart && a.cfg[app].HasRestart {
		a.dyn[app].state = AppRestarting
		restartTask := a.cfg[app].RestartTask
		te := a.taskEngineFor(restartTask)
		if te == nil {
			return StatusID
		}
		if s := te.ActivateTask(restartTask); s != StatusOK {
			return s
		}
		a.dyn[app].state = AppAccessible
	}
	return StatusOK
}
