// spinlock.go - cross-core spinlocks with rank-ordered deadlock avoidance

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

import "sync/atomic"

// SpinlockConfig is the static descriptor for one spinlock (§3).
type SpinlockConfig struct {
	Rank       int32
	Cores      []CoreID // allowed core set
	LockLevel  InterruptLockLevel
	AccessMask uint64
}

// spinlockDyn tracks, per lock, who currently holds it and the interrupt
// state to restore on release.
type spinlockDyn struct {
	held       int32 // 0 = free, 1 = held (atomic)
	holderCore CoreID
	holderTask ThreadContext
	priorLevel InterruptLockLevel
}

// SpinlockTable owns every configured spinlock plus, per core, the rank of
// the highest lock currently held — the deadlock-avoidance state §4.8
// requires ("a core may acquire only locks of strictly increasing rank").
type SpinlockTable struct {
	cfg        []SpinlockConfig
	dyn        []spinlockDyn
	coreHeld   map[CoreID][]SpinlockID // per-core acquisition stack, rank-ordered
	hal        Hal
}

func NewSpinlockTable(cfg []SpinlockConfig, hal Hal) *SpinlockTable {
	return &SpinlockTable{
		cfg:      cfg,
		dyn:      make([]spinlockDyn, len(cfg)),
		coreHeld: make(map[CoreID][]SpinlockID),
		hal:      hal,
	}
}

func (t *SpinlockTable) valid(id SpinlockID) bool { return id >= 0 && int(id) < len(t.cfg) }

func (t *SpinlockTable) allowedOn(id SpinlockID, core CoreID) bool {
	for _, c := range t.cfg[id].Cores {
		if c == core {
			return true
		}
	}
	return false
}

// topRank returns the rank of the highest lock this core currently holds,
// or -1 if none.
func (t *SpinlockTable) topRank(core CoreID) int32 {
	stack := t.coreHeld[core]
	if len(stack) == 0 {
		return -1
	}
	return t.cfg[stack[len(stack)-1]].Rank
}

// checkOrder enforces strictly increasing rank per core.
func (t *SpinlockTable) checkOrder(id SpinlockID, core CoreID) StatusCode {
	if t.cfg[id].Rank <= t.topRank(core) {
		return StatusNestingError
	}
	return StatusOK
}

// GetSpinlock spins (conceptually — single-threaded kernel model here
// resolves it immediately) until the lock is free, then acquires it,
// raising the interrupt lock level configured for this spinlock.
func (t *SpinlockTable) GetSpinlock(id SpinlockID, core CoreID, task ThreadContext) StatusCode {
	if !t.valid(id) {
		return StatusID
	}
	if !t.allowedOn(id, core) {
		return StatusAccess
	}
	if s := t.checkOrder(id, core); s != StatusOK {
		return s
	}
	d := &t.dyn[id]
	for !atomic.CompareAndSwapInt32(&d.held, 0, 1) {
		// spin: in the software model this resolves synchronously since
		// acquisition is modeled as a single-threaded kernel call.
	}
	d.holderCore = core
	d.holderTask = task
	if t.hal != nil {
		d.priorLevel = t.hal.SuspendAllInterrupts()
		if t.cfg[id].LockLevel == InterruptLockCategory2 {
			t.hal.ResumeAllInterrupts(d.priorLevel)
			d.priorLevel = t.hal.SuspendOSInterrupts()
		}
	}
	t.coreHeld[core] = append(t.coreHeld[core], id)
	return StatusOK
}

// TryToGetSpinlock attempts acquisition without spinning; returns
// StatusResource immediately if unavailable rather than blocking.
func (t *SpinlockTable) TryToGetSpinlock(id SpinlockID, core CoreID, task ThreadContext) StatusCode {
	if !t.valid(id) {
		return StatusID
	}
	if !t.allowedOn(id, core) {
		return StatusAccess
	}
	if s := t.checkOrder(id, core); s != StatusOK {
		return s
	}
	d := &t.dyn[id]
	if !atomic.CompareAndSwapInt32(&d.held, 0, 1) {
		return StatusResource
	}
	d.holderCore = core
	d.holderTask = task
	if t.hal != nil {
		d.priorLevel = t.hal.SuspendAllInterrupts()
	}
	t.coreHeld[core] = append(t.coreHeld[core], id)
	return StatusOK
}

// ReleaseSpinlock releases id, which must be the topmost lock acquired on
// core (rank ordering guarantees LIFO release order).
func (t *SpinlockTable) ReleaseSpinlock(id SpinlockID, core CoreID) StatusCode {
	if !t.valid(id) {
		return StatusID
	}
	stack := t.coreHeld[core]
	if len(stack) == 0 || stack[len(stack)-1] != id {
		return StatusSpinlock
	}
	d := &t.dyn[id]
	t.coreHeld[core] = stack[:len(stack)-1]
	if t.hal != nil {
		t.hal.ResumeAllInterrupts(d.priorLevel)
	}
	atomic.StoreInt32(&d.held, 0)
	return StatusOK
}
