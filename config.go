// config.go - static configuration descriptor tables the kernel reads

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

// SchedulerConfig is the per-core scheduler shape the generator emits:
// number of priority levels and each level's deque capacity (§4.1).
type SchedulerConfig struct {
	NumPriorities int
	DequeCapacity []int
}

// CoreConfig is the static descriptor for one core: which applications are
// pinned to it, its scheduler shape, and whether it performs hardware
// bring-up during the boot hand-shake (§4.10).
type CoreConfig struct {
	Applications       []ApplicationID
	Scheduler          SchedulerConfig
	IsHardwareInitCore bool
	StackList          []uint64 // opaque stack bindings, consumed only by the HAL

	// RRCounter/RRPeriod bind this core's round-robin tick source: the
	// dedicated alarm §4.1 requires ("one RR alarm per core"), expressed
	// here as a cyclic job on RRCounter firing every RRPeriod ticks.
	// RRPeriod of 0 means this core has no round-robin tasks configured.
	RRCounter CounterID
	RRPeriod  uint64
}

// SystemConfig is the whole static image the kernel reads at boot: every
// dense-indexed object table plus per-core shape (§6 "Configuration
// descriptors").
type SystemConfig struct {
	Tasks          []TaskConfig
	ISRs           []ISRConfig
	Counters       []CounterConfig
	Alarms         []AlarmConfig
	ScheduleTables []ScheduleTableConfig
	Resources      []ResourceConfig
	Spinlocks      []SpinlockConfig
	Applications   []ApplicationConfig

	TaskOwner []ApplicationID // dense task id -> owning application
	ISROwner  []ApplicationID // dense isr id -> owning application

	Cores []CoreConfig

	// RoundRobinQuantum maps a task id to its configured time-slice count;
	// absence (or 0) means the task does not round-robin.
	RoundRobinQuantum map[TaskID]int
}
