// counter.go - tick sources (SW/PIT/HRT/PFRT) and modular job dispatch

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

// CounterKind selects which of the four physical flavours described in
// §4.5 backs a Counter. The kernel treats all four through the same
// Advance/dispatch contract; only the trigger differs.
type CounterKind int32

const (
	CounterKindSW   CounterKind = iota // advanced only by explicit IncrementCounter
	CounterKindPIT                     // hardware periodic interrupt ticks it by one
	CounterKindHRT                     // free-running hardware counter + compare register
	CounterKindPFRT                    // free-running hardware counter, no per-tick ISR
)

// CounterConfig is the static descriptor the generator emits for one
// counter instance.
type CounterConfig struct {
	Kind              CounterKind
	Core              CoreID
	MaxCountingValue  uint64 // M: values live modulo M+1
	MaxDifferential   uint64 // max_differential_value, the future-window size
	MinCycle          uint64
	TicksPerBase      uint64
	AccessMask        uint64 // which applications may reach this counter
}

// Counter is the runtime state of one counter instance: current value, its
// job queue, and (for HRT) the hardware reconciliation needed between reads.
type Counter struct {
	id     CounterID
	cfg    CounterConfig
	value  uint64
	jobs   *JobQueue
	hal    Hal
}

// NewCounter builds a Counter and its job queue, wiring the queue's future
// ordering to this counter's own modulus and differential.
func NewCounter(id CounterID, cfg CounterConfig, hal Hal) *Counter {
	c := &Counter{id: id, cfg: cfg, hal: hal}
	c.jobs = NewJobQueue(c.future)
	return c
}

func (c *Counter) modulus() uint64 { return c.cfg.MaxCountingValue + 1 }

func (c *Counter) wrap(v uint64) uint64 {
	m := c.modulus()
	if m == 0 {
		return v // MaxCountingValue == max uint64: modulus overflowed to 0, meaning "no wrap"
	}
	return v % m
}

// future implements §4.5's modular ordering rule exactly: v is in-future of
// r iff (v-r) mod M <= max_differential_value when v > r, or
// (r-v) mod M > max_differential_value when v < r; equal is never future.
func (c *Counter) future(v, r uint64) bool {
	if v == r {
		return false
	}
	m := c.modulus()
	if v > r {
		return modSub(v, r, m) <= c.cfg.MaxDifferential
	}
	return modSub(r, v, m) > c.cfg.MaxDifferential
}

func modSub(a, b, m uint64) uint64 {
	if m == 0 {
		return a - b
	}
	return (a - b + m) % m
}

// Value returns the counter's current raw value.
func (c *Counter) Value() uint64 { return c.value }

// GetElapsedValue returns the modular distance since since_value, as used
// by the GetElapsedValue API (§6).
func (c *Counter) ElapsedSince(since uint64) uint64 {
	return modSub(c.value, since, c.modulus())
}

// AddRel arms job at (now + offset) mod (M+1).
func (c *Counter) AddRel(job *Job, offset uint64) StatusCode {
	ts := c.wrap(c.value + offset)
	c.jobs.SetReference(c.value)
	c.jobs.Insert(job, ts)
	c.reprogramHRT()
	return StatusOK
}

// AddAbs arms job at start mod (M+1); start must be in the future relative
// to the counter's current value, else StatusID (per §4.5, "must be future;
// else error").
func (c *Counter) AddAbs(job *Job, start uint64) StatusCode {
	ts := c.wrap(start)
	if !c.future(ts, c.value) {
		return StatusID
	}
	c.jobs.SetReference(c.value)
	c.jobs.Insert(job, ts)
	c.reprogramHRT()
	return StatusOK
}

// Reload reinserts job at (job.Timestamp + offset) mod (M+1) — used by
// cyclic alarms and schedule tables to re-arm after firing.
func (c *Counter) Reload(job *Job, offset uint64) {
	base := job.Timestamp
	ts := c.wrap(base + offset)
	c.jobs.SetReference(c.value)
	c.jobs.Insert(job, ts)
	c.reprogramHRT()
}

// Delete cancels job if still pending.
func (c *Counter) Delete(job *Job) bool {
	ok := c.jobs.Remove(job)
	if ok {
		c.reprogramHRT()
	}
	return ok
}

// IncrementCounter advances an SW counter by one tick and dispatches due
// jobs. Callers must hold the counter-core's interrupt lock (§5).
func (c *Counter) IncrementCounter() {
	c.value = c.wrap(c.value + 1)
	c.dispatch()
}

// AdvancePIT is the periodic-interrupt tick path: identical dispatch to
// IncrementCounter, named separately so the ISR-side caller reads naturally.
func (c *Counter) AdvancePIT() {
	c.value = c.wrap(c.value + 1)
	c.dispatch()
}

// ReconcileHRT resyncs the software value from the free-running hardware
// counter, wrapping the HAL's 64-bit read to the counter's range, then
// dispatches anything now due. No separate upper-bit state is kept.
func (c *Counter) ReconcileHRT() {
	if c.hal == nil {
		return
	}
	c.value = c.wrap(c.hal.ReadFreeRunning(c.cfg.Core))
	c.dispatch()
}

// dispatch pops every not-future job and invokes its callback. A callback
// may reinsert itself (cyclic alarm, schedule table chaining) — that
// reinsertion lands in the same heap and is safe because PopDue has already
// unlinked the job before the callback runs.
func (c *Counter) dispatch() {
	c.jobs.SetReference(c.value)
	for _, job := range c.jobs.PopDue() {
		job.Callback(c.value)
	}
	c.reprogramHRT()
}

// reprogramHRT re-arms the hardware compare register to the new heap top,
// with the defensive retry loop §4.5 requires when the computed deadline
// has already slipped into the past by the time it is programmed.
func (c *Counter) reprogramHRT() {
	if c.cfg.Kind != CounterKindHRT || c.hal == nil {
		return
	}
	top := c.jobs.Peek()
	if top == nil {
		return
	}
	deadline := top.Timestamp
	delta := uint64(1)
	for {
		c.hal.ProgramCompare(c.cfg.Core, deadline)
		now := c.hal.ReadFreeRunning(c.cfg.Core)
		if c.future(deadline, now) || deadline == now {
			return
		}
		// deadline already passed: trigger in software if the HAL can, else
		// push the compare forward by a growing delta until it lands ahead
		// of the hardware's live value.
		if c.hal.TriggerCompareInSoftware(c.cfg.Core) {
			return
		}
		deadline = c.wrap(now + delta)
		delta++
	}
}
