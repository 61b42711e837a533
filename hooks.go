// hooks.go - external hook contract the kernel invokes but never defines

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

// Hooks collects every user-supplied callback the kernel invokes at
// well-defined points (§6). The kernel never implements a hook body —
// only the invocation contract — matching §1's "idle task body, startup
// hooks, error hook, protection hook bodies — the kernel only invokes
// them."
type Hooks struct {
	StartupHook    func()
	ShutdownHook   func(StatusCode)
	ErrorHook      func(api string, code StatusCode, ctx ThreadContext)
	ProtectionHook func(ctx ThreadContext, code StatusCode) ProtectionAction
	PreTaskHook    func(t TaskID)
	PostTaskHook   func(t TaskID)

	// InitHook runs once per core before StartOS transitions it to STARTED.
	InitHook func(core CoreID)
}

// NewHooks returns a Hooks with every field defaulted to a no-op, so a
// caller may wire only the hooks it cares about.
func NewHooks() *Hooks {
	return &Hooks{
		StartupHook:    func() {},
		ShutdownHook:   func(StatusCode) {},
		ErrorHook:      func(string, StatusCode, ThreadContext) {},
		ProtectionHook: func(ThreadContext, StatusCode) ProtectionAction { return ProtectionIgnore },
		PreTaskHook:    func(TaskID) {},
		PostTaskHook:   func(TaskID) {},
		InitHook:       func(CoreID) {},
	}
}

// fireError passes an API error's name, status code and calling context to
// ErrorHook, if one is installed.
func (h *Hooks) fireError(api string, code StatusCode, ctx ThreadContext) {
	if h.ErrorHook != nil {
		h.ErrorHook(api, code, ctx)
	}
}
