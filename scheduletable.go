// scheduletable.go - expiry-point schedule tables with synchronous chasing

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

// ScheduleTableState is the table's run state (§4.6).
type ScheduleTableState int32

const (
	SchTStopped ScheduleTableState = iota
	SchTRunning
	SchTRunningAndSynchronous
	SchTNext // chained-table state; no code path sets it: a table chained by NextScheduleTable stays STOPPED until its predecessor's final point starts it
)

// ExpiryPoint is one offset-from-start row of a schedule table, paired with
// the actions it fires.
type ExpiryPoint struct {
	Offset  uint64
	Actions []AlarmAction
}

// ScheduleTableConfig is the static descriptor for one table.
type ScheduleTableConfig struct {
	Counter    CounterID
	Points     []ExpiryPoint // ascending by Offset; generator-guaranteed
	Duration   uint64        // length of one full cycle, >= last point's offset
	Precision  uint64        // max correction per sync step (RUNNING_AND_SYNCHRONOUS)
	NextTable  ScheduleTableID
	HasNext    bool
	AccessMask uint64
}

// ScheduleTable is the runtime state of one configured table.
type ScheduleTable struct {
	id      ScheduleTableID
	cfg     ScheduleTableConfig
	job     Job
	state   ScheduleTableState
	cursor  int    // index into cfg.Points of the next point to fire
	start   uint64 // counter value at which the current cycle began
}

// NewScheduleTable wires a table's Job to fire points against the given
// dispatch callback, which performs the point's actions and advances the
// cursor/state machine.
func NewScheduleTable(id ScheduleTableID, cfg ScheduleTableConfig, onPoint func(t *ScheduleTable)) *ScheduleTable {
	t := &ScheduleTable{id: id, cfg: cfg, state: SchTStopped}
	t.job = Job{Kind: JobKindScheduleTablePoint, Owner: cfg.Counter}
	t.job.Callback = func(now uint64) { onPoint(t) }
	return t
}

func (t *ScheduleTable) State() ScheduleTableState { return t.state }

// arm queues the job for cfg.Points[t.cursor], offset from t.start.
func (t *ScheduleTable) arm(c *Counter) StatusCode {
	if t.cursor >= len(t.cfg.Points) {
		return StatusState
	}
	return c.AddAbs(&t.job, c.wrap(t.start+t.cfg.Points[t.cursor].Offset))
}

// StartRel arms the table's first point at (now + offset) and sets it
// running.
func (t *ScheduleTable) StartRel(c *Counter, offset uint64) StatusCode {
	if t.state != SchTStopped {
		return StatusState
	}
	t.cursor = 0
	t.start = c.wrap(c.value + offset)
	t.state = SchTRunning
	return t.arm(c)
}

// StartAbs arms the table's first point at absolute tick start.
func (t *ScheduleTable) StartAbs(c *Counter, start uint64) StatusCode {
	if t.state != SchTStopped {
		return StatusState
	}
	t.cursor = 0
	t.start = c.wrap(start)
	t.state = SchTRunning
	return t.arm(c)
}

// Stop cancels any pending point and returns the table to STOPPED.
func (t *ScheduleTable) Stop(c *Counter) StatusCode {
	if t.state == SchTStopped {
		return StatusNoFunc
	}
	c.Delete(&t.job)
	t.state = SchTStopped
	t.cursor = 0
	return StatusOK
}

// SetSynchronous moves a running table into RUNNING_AND_SYNCHRONOUS, so the
// next Sync call may accelerate or delay its pending point.
func (t *ScheduleTable) SetSynchronous() StatusCode {
	if t.state != SchTRunning {
		return StatusState
	}
	t.state = SchTRunningAndSynchronous
	return StatusOK
}

// Sync nudges the table's timeline toward globalTime, clamped to at most
// cfg.Precision ticks of correction per call, as required of
// SyncScheduleTable under RUNNING_AND_SYNCHRONOUS.
func (t *ScheduleTable) Sync(c *Counter, globalTime uint64) StatusCode {
	if t.state != SchTRunningAndSynchronous {
		return StatusState
	}
	if t.cursor >= len(t.cfg.Points) {
		return StatusOK
	}
	target := c.wrap(t.start + t.cfg.Points[t.cursor].Offset)
	drift := modSub(globalTime, target, c.modulus())
	correction := drift
	if correction > t.cfg.Precision {
		correction = t.cfg.Precision
	}
	if correction == 0 {
		return StatusOK
	}
	c.Delete(&t.job)
	t.start = c.wrap(t.start + correction)
	return t.arm(c)
}

// advance runs the state machine one expiry point forward: invoked by the
// dispatch callback after firing cfg.Points[t.cursor]'s actions. It handles
// plain cyclic wraparound and the NEXT chain hand-off ("no gap, no tick
// lost") in the same step.
func (t *ScheduleTable) advance(c *Counter) {
	t.cursor++
	if t.cursor < len(t.cfg.Points) {
		t.arm(c)
		return
	}
	// Reached the end of the table.
	if t.cfg.HasNext {
		// Hand-off is performed by the orchestrator (it owns the sibling
		// table instance); advance marks this table stopped and lets the
		// caller re-arm the next one at the same absolute deadline.
		t.state = SchTStopped
		t.cursor = 0
		return
	}
	// Plain cyclic: wrap back to point 0 at start + Duration.
	t.cursor = 0
	t.start = c.wrap(t.start + t.cfg.Duration)
	t.arm(c)
}
