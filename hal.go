// hal.go - hardware abstraction boundary consumed by the real-time core

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

// CoreID identifies one physical core. Dense, 0..N-1, assigned by the
// (out-of-scope) configuration generator.
type CoreID int32

// InterruptSourceID identifies one hardware interrupt line bound to a
// category-2 ISR. Dense, generator-assigned.
type InterruptSourceID int32

// ThreadKind discriminates the union described in §3 ("Thread is the
// discriminated union {Task, ISR, Hook}").
type ThreadKind int32

const (
	ThreadKindNone ThreadKind = iota
	ThreadKindTask
	ThreadKindISR
	ThreadKindHook
)

// ThreadContext conveys the kernel-visible identity of whichever entity is
// running or was displaced. It carries no register state: that lives behind
// the Hal boundary, opaque to the kernel.
type ThreadContext struct {
	Kind ThreadKind
	ID   int32
}

var noThread = ThreadContext{Kind: ThreadKindNone, ID: -1}

// Priority is the kernel's internal, logical priority ordering. Higher
// numeric value means higher priority; the (out-of-scope) generator is
// responsible for translating OSEK/AUTOSAR priority values, which may be
// gapless or inverted, into this space.
type Priority int32

func prioIsHigher(x, y Priority) bool { return x > y }

// InterruptLockLevel is the discipline a kernel entry raises interrupts to.
// The generator selects "all" or "level" (category-2-only) at build time.
type InterruptLockLevel int32

const (
	InterruptLockNone InterruptLockLevel = iota
	InterruptLockCategory2
	InterruptLockAll
)

// Hal is the hardware abstraction layer the core consumes. Every method is
// implemented by code outside this package (the real silicon backend or, in
// this repository, the halshim software stand-in used for tests and the
// cmd/ossim demo harness) — the kernel never reaches below this interface.
type Hal interface {
	// Interrupt masking, nestable via the returned opaque prior-state token.
	DisableAllInterrupts()
	EnableAllInterrupts()
	SuspendAllInterrupts() InterruptLockLevel
	ResumeAllInterrupts(prior InterruptLockLevel)
	SuspendOSInterrupts() InterruptLockLevel
	ResumeOSInterrupts(prior InterruptLockLevel)

	// Context switch: the kernel has already decided what runs next: the HAL
	// performs the register save/restore and update of the current-thread
	// fast-access slot's backing store.
	SwitchContext(core CoreID, from, to ThreadContext)

	// Timer/counter plumbing consumed by the counter engine (§4.5).
	ProgramCompare(core CoreID, deadline uint64)
	ReadFreeRunning(core CoreID) uint64
	TriggerCompareInSoftware(core CoreID) bool // true if supported

	// Category-2 interrupt source control (§4.4 API surface).
	EnableSource(id InterruptSourceID, clearPending bool)
	DisableSource(id InterruptSourceID)
	ClearPending(id InterruptSourceID)
	IsEnabled(id InterruptSourceID) bool
	IsPending(id InterruptSourceID) bool
	AcknowledgeSource(id InterruptSourceID)
}
