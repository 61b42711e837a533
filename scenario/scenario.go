// Package scenario runs Lua-scripted end-to-end exercises against a booted
// kernel image: activate tasks, fire alarms, assert on status codes and
// task state, the same way the teacher's Machine Monitor runs a depth-bounded
// "script <file>" command list against a live machine, generalised here from
// a line-oriented command script to a small embedded Lua VM.
package scenario

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	rtos "github.com/intuitionamiga/ossim"
)

// Result collects one scenario run's assertion outcomes.
type Result struct {
	Name      string
	Failures  []string
	Log       []string
}

func (r *Result) Passed() bool { return len(r.Failures) == 0 }

func (r *Result) fail(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

func (r *Result) logf(format string, args ...any) {
	r.Log = append(r.Log, fmt.Sprintf(format, args...))
}

// Run executes the Lua script at path against sys, called on core 0 unless
// the script switches core via rtos.core(n).
func Run(sys *rtos.System, name, path string) *Result {
	res := &Result{Name: name}
	L := lua.NewState()
	defer L.Close()

	state := &runState{sys: sys, core: 0, res: res}
	registerAPI(L, state)

	if err := L.DoFile(path); err != nil {
		res.fail("script error: %v", err)
	}
	return res
}

// RunString is Run's in-memory counterpart, used by tests that embed the
// Lua source directly rather than reading testdata/scenarios/*.lua.
func RunString(sys *rtos.System, name, src string) *Result {
	res := &Result{Name: name}
	L := lua.NewState()
	defer L.Close()

	state := &runState{sys: sys, core: 0, res: res}
	registerAPI(L, state)

	if err := L.DoString(src); err != nil {
		res.fail("script error: %v", err)
	}
	return res
}

type runState struct {
	sys  *rtos.System
	core rtos.CoreID
	res  *Result

	lastCaller rtos.ThreadContext
}

func registerAPI(L *lua.LState, st *runState) {
	mod := L.NewTable()

	reg := func(name string, fn func(*lua.LState) int) {
		L.SetField(mod, name, L.NewFunction(fn))
	}

	reg("core", func(L *lua.LState) int {
		st.core = rtos.CoreID(L.CheckInt(1))
		return 0
	})

	reg("activate_task", func(L *lua.LState) int {
		t := rtos.TaskID(L.CheckInt(1))
		code := st.sys.ActivateTask(st.lastCaller, st.core, t)
		L.Push(lua.LNumber(code))
		return 1
	})

	reg("set_caller_task", func(L *lua.LState) int {
		st.lastCaller = rtos.ThreadContext{Kind: rtos.ThreadKindTask, ID: int32(L.CheckInt(1))}
		return 0
	})

	reg("terminate_task", func(L *lua.LState) int {
		code := st.sys.TerminateTask(st.lastCaller)
		L.Push(lua.LNumber(code))
		return 1
	})

	reg("get_task_state", func(L *lua.LState) int {
		t := rtos.TaskID(L.CheckInt(1))
		state, code := st.sys.GetTaskState(t)
		L.Push(lua.LNumber(state))
		L.Push(lua.LNumber(code))
		return 2
	})

	reg("set_event", func(L *lua.LState) int {
		t := rtos.TaskID(L.CheckInt(1))
		mask := rtos.EventMask(L.CheckInt(2))
		L.Push(lua.LNumber(st.sys.SetEvent(t, mask)))
		return 1
	})

	reg("wait_event", func(L *lua.LState) int {
		mask := rtos.EventMask(L.CheckInt(1))
		L.Push(lua.LNumber(st.sys.WaitEvent(st.lastCaller, mask)))
		return 1
	})

	reg("get_resource", func(L *lua.LState) int {
		r := rtos.ResourceID(L.CheckInt(1))
		L.Push(lua.LNumber(st.sys.GetResource(st.core, st.lastCaller, r)))
		return 1
	})

	reg("release_resource", func(L *lua.LState) int {
		r := rtos.ResourceID(L.CheckInt(1))
		L.Push(lua.LNumber(st.sys.ReleaseResource(st.core, st.lastCaller, r)))
		return 1
	})

	reg("increment_counter", func(L *lua.LState) int {
		c := rtos.CounterID(L.CheckInt(1))
		L.Push(lua.LNumber(st.sys.IncrementCounter(c)))
		return 1
	})

	reg("set_rel_alarm", func(L *lua.LState) int {
		a := rtos.AlarmID(L.CheckInt(1))
		inc := uint64(L.CheckInt64(2))
		cycle := uint64(L.CheckInt64(3))
		L.Push(lua.LNumber(st.sys.SetRelAlarm(a, inc, cycle)))
		return 1
	})

	reg("cancel_alarm", func(L *lua.LState) int {
		a := rtos.AlarmID(L.CheckInt(1))
		L.Push(lua.LNumber(st.sys.CancelAlarm(a)))
		return 1
	})

	reg("drain_mailboxes", func(L *lua.LState) int {
		st.sys.DrainMailboxes(rtos.CoreID(L.CheckInt(1)))
		return 0
	})

	reg("schedule", func(L *lua.LState) int {
		L.Push(lua.LNumber(st.sys.Schedule(st.core)))
		return 1
	})

	reg("get_spinlock", func(L *lua.LState) int {
		id := rtos.SpinlockID(L.CheckInt(1))
		L.Push(lua.LNumber(st.sys.GetSpinlock(st.core, st.lastCaller, id)))
		return 1
	})

	reg("try_get_spinlock", func(L *lua.LState) int {
		id := rtos.SpinlockID(L.CheckInt(1))
		L.Push(lua.LNumber(st.sys.TryToGetSpinlock(st.core, st.lastCaller, id)))
		return 1
	})

	reg("release_spinlock", func(L *lua.LState) int {
		id := rtos.SpinlockID(L.CheckInt(1))
		L.Push(lua.LNumber(st.sys.ReleaseSpinlock(st.core, st.lastCaller, id)))
		return 1
	})

	reg("set_caller_isr", func(L *lua.LState) int {
		st.lastCaller = rtos.ThreadContext{Kind: rtos.ThreadKindISR, ID: int32(L.CheckInt(1))}
		return 0
	})

	reg("terminate_application", func(L *lua.LState) int {
		app := rtos.ApplicationID(L.CheckInt(1))
		restart := L.ToBool(2)
		L.Push(lua.LNumber(st.sys.TerminateApplication(app, restart)))
		return 1
	})

	reg("log", func(L *lua.LState) int {
		st.res.logf("%s", L.CheckString(1))
		return 0
	})

	reg("assert_eq", func(L *lua.LState) int {
		got := L.CheckNumber(2)
		want := L.CheckNumber(3)
		if got != want {
			st.res.fail("%s: got %v want %v", L.CheckString(1), got, want)
		}
		return 0
	})

	reg("assert_status_ok", func(L *lua.LState) int {
		got := rtos.StatusCode(L.CheckInt(2))
		if got != rtos.StatusOK {
			st.res.fail("%s: status %v, want OK", L.CheckString(1), got)
		}
		return 0
	})

	// Status code constants, exposed by name rather than asking scripts to
	// hardcode the underlying integers.
	for name, code := range map[string]rtos.StatusCode{
		"OK":                 rtos.StatusOK,
		"ACCESS":             rtos.StatusAccess,
		"CALLLEVEL":          rtos.StatusCallLevel,
		"ID":                 rtos.StatusID,
		"LIMIT":              rtos.StatusLimit,
		"NOFUNC":             rtos.StatusNoFunc,
		"RESOURCE":           rtos.StatusResource,
		"STATE":              rtos.StatusState,
		"NOTTHEOWNER":        rtos.StatusNotTheOwner,
		"DISABLEDINT":        rtos.StatusDisabledInt,
		"INTERFERENCEDEADLOCK": rtos.StatusInterferenceDeadlock,
		"NESTINGERROR":       rtos.StatusNestingError,
		"CORE":               rtos.StatusCore,
		"PROTECTION_TIME":    rtos.StatusProtectionTime,
		"PROTECTION_LOCKED":  rtos.StatusProtectionLocked,
		"SPINLOCK":           rtos.StatusSpinlock,
	} {
		L.SetField(mod, "STATUS_"+name, lua.LNumber(code))
	}

	for name, state := range map[string]rtos.TaskState{
		"SUSPENDED": rtos.TaskSuspended,
		"READY":     rtos.TaskReady,
		"RUNNING":   rtos.TaskRunning,
		"WAITING":   rtos.TaskWaiting,
	} {
		L.SetField(mod, "STATE_"+name, lua.LNumber(state))
	}

	L.SetGlobal("rtos", mod)
}
