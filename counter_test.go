package rtos

import "testing"

// TestCounterSWIncrementFiresDueJob verifies that a software counter
// dispatches a job's callback the tick its timestamp becomes due.
func TestCounterSWIncrementFiresDueJob(t *testing.T) {
	c := NewCounter(0, CounterConfig{Kind: CounterKindSW, MaxCountingValue: 99, MaxDifferential: 49}, nil)

	fired := 0
	job := &Job{Kind: JobKindAlarm, Callback: func(uint64) { fired++ }}
	if s := c.AddRel(job, 3); s != StatusOK {
		t.Fatalf("AddRel = %v, want StatusOK", s)
	}

	for i := 0; i < 2; i++ {
		c.IncrementCounter()
	}
	if fired != 0 {
		t.Fatalf("job fired early, fired = %d", fired)
	}
	c.IncrementCounter()
	if fired != 1 {
		t.Fatalf("job did not fire on its due tick, fired = %d", fired)
	}
}

// TestCounterAddAbsRejectsPast verifies AddAbs returns StatusID when the
// requested start is not in the counter's future window.
func TestCounterAddAbsRejectsPast(t *testing.T) {
	c := NewCounter(0, CounterConfig{Kind: CounterKindSW, MaxCountingValue: 99, MaxDifferential: 49}, nil)
	for i := 0; i < 10; i++ {
		c.IncrementCounter()
	}
	job := &Job{Kind: JobKindAlarm, Callback: func(uint64) {}}
	if s := c.AddAbs(job, 5); s != StatusID {
		t.Fatalf("AddAbs(past) = %v, want StatusID", s)
	}
}

// TestCounterWrapsAtModulus verifies a counter's value wraps modulo
// MaxCountingValue+1 rather than overflowing past it.
func TestCounterWrapsAtModulus(t *testing.T) {
	c := NewCounter(0, CounterConfig{Kind: CounterKindSW, MaxCountingValue: 3, MaxDifferential: 1}, nil)
	for i := 0; i < 5; i++ {
		c.IncrementCounter()
	}
	if got := c.Value(); got != 1 {
		t.Fatalf("Value after 5 increments of a mod-4 counter = %d, want 1", got)
	}
}

// TestCounterCyclicReloadRefires verifies Reload re-arms a job relative to
// its just-fired timestamp, the cyclic alarm re-arm path.
func TestCounterCyclicReloadRefires(t *testing.T) {
	c := NewCounter(0, CounterConfig{Kind: CounterKindSW, MaxCountingValue: 99, MaxDifferential: 49}, nil)
	fired := 0
	job := &Job{Kind: JobKindAlarm}
	job.Callback = func(uint64) {
		fired++
		c.Reload(job, 2)
	}
	c.AddRel(job, 2)

	for i := 0; i < 6; i++ {
		c.IncrementCounter()
	}
	if fired != 3 {
		t.Fatalf("cyclic job fired %d times in 6 ticks of period 2, want 3", fired)
	}
}

// TestCounterDeleteCancelsPendingJob verifies Delete removes a job before
// it fires.
func TestCounterDeleteCancelsPendingJob(t *testing.T) {
	c := NewCounter(0, CounterConfig{Kind: CounterKindSW, MaxCountingValue: 99, MaxDifferential: 49}, nil)
	fired := false
	job := &Job{Callback: func(uint64) { fired = true }}
	c.AddRel(job, 2)
	if !c.Delete(job) {
		t.Fatal("Delete reported false for a pending job")
	}
	for i := 0; i < 5; i++ {
		c.IncrementCounter()
	}
	if fired {
		t.Fatal("deleted job still fired")
	}
}
