// alarm.go - one-shot and cyclic alarms bound to a counter

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

// AlarmActionKind selects the effect an alarm fires (§4.6).
type AlarmActionKind int32

const (
	AlarmActionActivateTask AlarmActionKind = iota
	AlarmActionSetEvent
	AlarmActionCallback
	AlarmActionIncrementCounter
)

// AlarmAction is the tagged union of the four things an alarm may do when
// it fires.
type AlarmAction struct {
	Kind    AlarmActionKind
	Task    TaskID      // ActivateTask, SetEvent
	Events  EventMask   // SetEvent
	Counter CounterID   // IncrementCounter
	Fn      func()      // Callback
}

// AlarmConfig is the static descriptor for one alarm.
type AlarmConfig struct {
	Counter    CounterID
	Action     AlarmAction
	AccessMask uint64
}

// Alarm is the runtime state of one configured alarm: its Job (queued
// against the owning counter) plus cyclic re-arm bookkeeping.
type Alarm struct {
	id      AlarmID
	cfg     AlarmConfig
	job     Job
	cyclic  bool
	cycle   uint64
}

// NewAlarm builds an alarm bound to its owning counter's dispatch.
func NewAlarm(id AlarmID, cfg AlarmConfig, fire func(a *Alarm)) *Alarm {
	a := &Alarm{id: id, cfg: cfg}
	a.job = Job{Kind: JobKindAlarm, Owner: cfg.Counter}
	a.job.Callback = func(now uint64) { fire(a) }
	return a
}

// Active reports whether the alarm currently has a pending expiry.
func (a *Alarm) Active() bool { return a.job.Queued() }

// Cyclic reports whether the alarm re-arms itself after firing.
func (a *Alarm) Cyclic() bool { return a.cyclic }

// Remaining reports the number of ticks remaining until the next expiry and,
// if cyclic, the configured cycle length — the values backing the
// GetAlarm API (§6). ticksUntil maps the expiry timestamp to the modular
// distance from the counter's current value to it.
func (a *Alarm) Remaining(counterNow uint64, ticksUntil func(ts uint64) uint64) (ticksLeft uint64, cycle uint64, ok bool) {
	if !a.Active() {
		return 0, 0, false
	}
	return ticksUntil(a.job.Timestamp), a.cycle, true
}

// SetRelAlarm arms the alarm at (now + increment), optionally cyclic with
// period cycle (cycle == 0 means one-shot).
func (a *Alarm) SetRelAlarm(c *Counter, increment, cycle uint64) StatusCode {
	if a.Active() {
		return StatusState
	}
	a.cyclic = cycle != 0
	a.cycle = cycle
	return c.AddRel(&a.job, increment)
}

// SetAbsAlarm arms the alarm at absolute tick start.
func (a *Alarm) SetAbsAlarm(c *Counter, start, cycle uint64) StatusCode {
	if a.Active() {
		return StatusState
	}
	a.cyclic = cycle != 0
	a.cycle = cycle
	return c.AddAbs(&a.job, start)
}

// CancelAlarm removes a pending expiry; returns StatusNoFunc if the alarm
// was not armed (mirrors GetAlarm/CancelAlarm's "not active" error).
func (a *Alarm) CancelAlarm(c *Counter) StatusCode {
	if !a.Active() {
		return StatusNoFunc
	}
	c.Delete(&a.job)
	a.cyclic = false
	return StatusOK
}

// Rearm re-queues a cyclic alarm's job for the next period; called from the
// fire callback immediately after performing the alarm's action.
func (a *Alarm) Rearm(c *Counter) {
	if !a.cyclic {
		return
	}
	c.Reload(&a.job, a.cycle)
}
