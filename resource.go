// resource.go - OSEK priority-ceiling resources

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

// ResourceConfig is the static descriptor for one resource (§3).
type ResourceConfig struct {
	Ceiling    Priority
	AccessMask uint64
}

// heldEntry is one frame of a thread's LIFO of currently-held resources.
type heldEntry struct {
	res      ResourceID
	priorBefore Priority
}

// ResourceTable owns every configured resource's dyn state plus, per owner
// thread, the LIFO of currently-held resources (§3: "A task's held
// resources form a LIFO").
type ResourceTable struct {
	cfg     []ResourceConfig
	holder  []ThreadContext // res -> current holder, noThread if free
	sched   *Scheduler
	tp      *TPEngine
	heldBy  map[ThreadContext][]heldEntry
}

func NewResourceTable(cfg []ResourceConfig, sched *Scheduler, tp *TPEngine) *ResourceTable {
	r := &ResourceTable{
		cfg:    cfg,
		holder: make([]ThreadContext, len(cfg)),
		sched:  sched,
		tp:     tp,
		heldBy: make(map[ThreadContext][]heldEntry),
	}
	for i := range r.holder {
		r.holder[i] = noThread
	}
	return r
}

func (r *ResourceTable) valid(res ResourceID) bool { return res >= 0 && int(res) < len(r.cfg) }

// GetResource implements §4.7. callerPrio is the caller's current priority
// (before the raise); it is needed to reject a ceiling below the caller.
func (r *ResourceTable) GetResource(owner ThreadContext, res ResourceID, callerPrio Priority) StatusCode {
	if !r.valid(res) {
		return StatusID
	}
	ceiling := r.cfg[res].Ceiling
	if ceiling != callerPrio && !prioIsHigher(ceiling, callerPrio) {
		return StatusAccess // ceiling must be >= caller's current priority
	}
	for _, e := range r.heldBy[owner] {
		if e.res == res {
			return StatusState // already held: strict LIFO nesting violation
		}
	}
	if r.holder[res] != noThread {
		return StatusResource
	}
	r.holder[res] = owner
	r.heldBy[owner] = append(r.heldBy[owner], heldEntry{res: res, priorBefore: callerPrio})
	if cur, ok := r.sched.CurrentTask(); ok && owner.Kind == ThreadKindTask && TaskID(owner.ID) == cur {
		r.sched.RaiseCeiling(ceiling)
	}
	if r.tp != nil {
		r.tp.PushLockBudget(owner, LockBudgetKindResource, int32(res))
	}
	return StatusOK
}

// ReleaseResource implements §4.7: res must be topmost on the caller's
// held list.
func (r *ResourceTable) ReleaseResource(owner ThreadContext, res ResourceID) StatusCode {
	if !r.valid(res) {
		return StatusID
	}
	stack := r.heldBy[owner]
	if len(stack) == 0 || stack[len(stack)-1].res != res {
		return StatusNotTheOwner
	}
	top := stack[len(stack)-1]
	r.heldBy[owner] = stack[:len(stack)-1]
	r.holder[res] = noThread
	if r.tp != nil {
		r.tp.PopLockBudget(owner)
	}
	newCeiling := top.priorBefore
	if rest := r.heldBy[owner]; len(rest) > 0 {
		newCeiling = r.cfg[rest[len(rest)-1].res].Ceiling
	}
	if cur, ok := r.sched.CurrentTask(); ok && owner.Kind == ThreadKindTask && TaskID(owner.ID) == cur {
		r.sched.ReleaseCeiling(newCeiling)
	}
	return StatusOK
}

// AnyHeldBy reports whether owner currently holds any resource — the
// precondition check used by TerminateTask/ChainTask.
func (r *ResourceTable) AnyHeldBy(owner ThreadContext) bool {
	return len(r.heldBy[owner]) > 0
}

// ForceReleaseAll silently releases every resource owner holds (kill path,
// §4.3) and returns one StatusResource per forced release for the
// kill-path's single error report.
func (r *ResourceTable) ForceReleaseAll(owner ThreadContext) []StatusCode {
	stack := r.heldBy[owner]
	var codes []StatusCode
	for i := len(stack) - 1; i >= 0; i-- {
		r.holder[stack[i].res] = noThread
		codes = append(codes, StatusResource)
	}
	delete(r.heldBy, owner)
	if r.tp != nil {
		r.tp.PopAllLockBudgets(owner)
	}
	return codes
}
