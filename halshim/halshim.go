// Package halshim is the software stand-in for the hardware abstraction
// layer the kernel core consumes, used by cmd/ossim and by scenario
// playback where no real silicon is available.
//
// It follows the teacher's headless-backend idiom (audio_backend_headless.go,
// video_backend_headless.go): a pure-Go implementation satisfying the same
// interface as a hardware-backed one, deterministic enough for scripted
// scenarios. Free-running time is the monotonic time since the shim was
// created; ProgramCompare arms a Linux timerfd at the compare deadline, and
// TriggerCompareInSoftware compares the free-running time against it.
package halshim

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	rtos "github.com/intuitionamiga/ossim"
)

// Shim implements rtos.Hal for one core entirely in software.
type Shim struct {
	core rtos.CoreID

	mu sync.Mutex

	timerFD  int
	epoch    time.Time
	compare  uint64
	armed    bool
	allLocks int32
	osLocks  int32

	sources map[rtos.InterruptSourceID]*sourceState

	switches int // count of SwitchContext calls, for scenario assertions
}

type sourceState struct {
	enabled bool
	pending bool
}

// New creates a software HAL for one core. The returned Shim owns a Linux
// timerfd (CLOCK_MONOTONIC) that ProgramCompare arms; the free-running
// counter is measured from the shim's creation time, not read from it.
func New(core rtos.CoreID) (*Shim, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, 0)
	if err != nil {
		return nil, err
	}
	spec := &unix.ItimerSpec{
		Value:    unix.NsecToTimespec(1),
		Interval: unix.Timespec{},
	}
	if err := unix.TimerfdSettime(fd, 0, spec, nil); err != nil {
		unix.Close(fd)
		return nil, err
	}
	return &Shim{
		core:    core,
		timerFD: fd,
		epoch:   time.Now(),
		sources: make(map[rtos.InterruptSourceID]*sourceState),
	}, nil
}

// Close releases the underlying timerfd.
func (h *Shim) Close() error {
	return unix.Close(h.timerFD)
}

func (h *Shim) source(id rtos.InterruptSourceID) *sourceState {
	s, ok := h.sources[id]
	if !ok {
		s = &sourceState{}
		h.sources[id] = s
	}
	return s
}

// DisableAllInterrupts / EnableAllInterrupts are the unconditional,
// non-nestable masking calls.
func (h *Shim) DisableAllInterrupts() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.allLocks = 1
}

func (h *Shim) EnableAllInterrupts() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.allLocks = 0
}

func (h *Shim) SuspendAllInterrupts() rtos.InterruptLockLevel {
	h.mu.Lock()
	defer h.mu.Unlock()
	prior := h.allLocks
	h.allLocks++
	if prior == 0 {
		return rtos.InterruptLockNone
	}
	return rtos.InterruptLockAll
}

func (h *Shim) ResumeAllInterrupts(prior rtos.InterruptLockLevel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.allLocks > 0 {
		h.allLocks--
	}
}

func (h *Shim) SuspendOSInterrupts() rtos.InterruptLockLevel {
	h.mu.Lock()
	defer h.mu.Unlock()
	prior := h.osLocks
	h.osLocks++
	if prior == 0 {
		return rtos.InterruptLockNone
	}
	return rtos.InterruptLockCategory2
}

func (h *Shim) ResumeOSInterrupts(prior rtos.InterruptLockLevel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.osLocks > 0 {
		h.osLocks--
	}
}

// SwitchContext has nothing to save/restore in software: there is no real
// register file behind this shim, so it only tallies the switch for
// scenario/test assertions.
func (h *Shim) SwitchContext(core rtos.CoreID, from, to rtos.ThreadContext) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.switches++
}

// Switches reports how many SwitchContext calls this shim has observed.
func (h *Shim) Switches() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.switches
}

// ProgramCompare arms the timerfd to fire at deadline ticks (nanoseconds
// since the shim's epoch).
func (h *Shim) ProgramCompare(core rtos.CoreID, deadline uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.compare = deadline
	h.armed = true
	now := uint64(time.Since(h.epoch))
	var delay time.Duration
	if deadline > now {
		delay = time.Duration(deadline - now)
	} else {
		delay = time.Nanosecond
	}
	spec := &unix.ItimerSpec{Value: unix.NsecToTimespec(delay.Nanoseconds())}
	_ = unix.TimerfdSettime(h.timerFD, 0, spec, nil)
}

// ReadFreeRunning returns nanoseconds elapsed since the shim was created.
func (h *Shim) ReadFreeRunning(core rtos.CoreID) uint64 {
	return uint64(time.Since(h.epoch))
}

// TriggerCompareInSoftware reports whether the last armed compare deadline
// has been reached by the free-running time; a true result disarms it, and
// it reports false when nothing is armed. The shim has no hardware compare
// register.
func (h *Shim) TriggerCompareInSoftware(core rtos.CoreID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.armed {
		return false
	}
	due := uint64(time.Since(h.epoch)) >= h.compare
	if due {
		h.armed = false
	}
	return due
}

func (h *Shim) EnableSource(id rtos.InterruptSourceID, clearPending bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.source(id)
	s.enabled = true
	if clearPending {
		s.pending = false
	}
}

func (h *Shim) DisableSource(id rtos.InterruptSourceID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.source(id).enabled = false
}

func (h *Shim) ClearPending(id rtos.InterruptSourceID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.source(id).pending = false
}

func (h *Shim) IsEnabled(id rtos.InterruptSourceID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.source(id).enabled
}

func (h *Shim) IsPending(id rtos.InterruptSourceID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.source(id).pending
}

func (h *Shim) AcknowledgeSource(id rtos.InterruptSourceID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.source(id).pending = false
}

// Raise marks id pending, as a simulated external interrupt event; used by
// scenario scripts and cmd/ossim to drive category-2 ISR dispatch without
// real hardware.
func (h *Shim) Raise(id rtos.InterruptSourceID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.source(id).pending = true
}
