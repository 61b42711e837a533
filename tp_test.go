package rtos

import "testing"

// TestTPExecutionBudgetFiresProtectionTime verifies the end-to-end
// execution-budget violation: a task that runs past its configured
// execution_budget triggers ProtectionHook with StatusProtectionTime
// (§8 scenario 3, "T busy-loops for 3 ms" against a 2 ms budget).
func TestTPExecutionBudgetFiresProtectionTime(t *testing.T) {
	hrt := NewCounter(0, CounterConfig{Kind: CounterKindSW, MaxCountingValue: 999, MaxDifferential: 499}, nil)
	task := ThreadContext{Kind: ThreadKindTask, ID: 0}

	var got StatusCode
	hook := func(ctx ThreadContext, code StatusCode) ProtectionAction {
		got = code
		return ProtectionTerminateTaskISR
	}
	e := NewTPEngine(map[ThreadContext]TPConfig{task: {ExecutionBudget: 2}}, hrt, hook)

	e.OnThreadSwitch(noThread, task)
	e.PushExecutionBudget(task)

	for i := 0; i < 3; i++ {
		hrt.IncrementCounter()
	}
	if got != StatusProtectionTime {
		t.Fatalf("ProtectionHook code = %v, want StatusProtectionTime", got)
	}
}

// TestTPExecutionBudgetNotExceededStaysSilent verifies a task finishing
// within its budget never triggers the hook.
func TestTPExecutionBudgetNotExceededStaysSilent(t *testing.T) {
	hrt := NewCounter(0, CounterConfig{Kind: CounterKindSW, MaxCountingValue: 999, MaxDifferential: 499}, nil)
	task := ThreadContext{Kind: ThreadKindTask, ID: 0}

	fired := false
	hook := func(ctx ThreadContext, code StatusCode) ProtectionAction {
		fired = true
		return ProtectionIgnore
	}
	e := NewTPEngine(map[ThreadContext]TPConfig{task: {ExecutionBudget: 5}}, hrt, hook)

	e.OnThreadSwitch(noThread, task)
	e.PushExecutionBudget(task)
	for i := 0; i < 3; i++ {
		hrt.IncrementCounter()
	}
	e.PopLockBudget(task) // pop the execution frame, as a normal task return would

	if fired {
		t.Fatal("ProtectionHook fired within budget")
	}
}

// TestTPDeferredViolationKeepsHighestSeverity verifies the LOCK > EXECUTION
// > ARRIVAL severity ordering (§4.9): while delay_level > 0, a lower
// severity violation must not overwrite an already-deferred higher one,
// and ReplayDeferred re-raises exactly the highest one recorded.
func TestTPDeferredViolationKeepsHighestSeverity(t *testing.T) {
	task := ThreadContext{Kind: ThreadKindTask, ID: 0}
	depth := int32(1)
	cfg := TPConfig{DelayLevel: func() int32 { return depth }}

	var replayed StatusCode
	hook := func(ctx ThreadContext, code StatusCode) ProtectionAction {
		replayed = code
		return ProtectionIgnore
	}
	e := NewTPEngine(map[ThreadContext]TPConfig{task: cfg}, nil, hook)

	e.reportOrDefer(task, StatusProtectionArrival)
	e.reportOrDefer(task, StatusProtectionLocked)
	e.reportOrDefer(task, StatusProtectionTime) // lower severity, must not overwrite

	depth = 0
	e.ReplayDeferred(task)
	if replayed != StatusProtectionLocked {
		t.Fatalf("replayed = %v, want StatusProtectionLocked (highest severity)", replayed)
	}
}
