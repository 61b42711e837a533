// ids.go - dense object identifiers shared across the kernel's static tables

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

// Every object kind the generator lays out statically gets its own integer
// type so a TaskID can never be passed where a ResourceID is expected, even
// though both are int32 underneath.
type (
	TaskID          int32
	ISRID           int32
	CounterID       int32
	AlarmID         int32
	ScheduleTableID int32
	ResourceID      int32
	SpinlockID      int32
	ApplicationID   int32
)

// EventMask is the bitmask type for the task event mechanism (§4.2): each
// configured event owns one bit, scoped to the extended task that declares
// it.
type EventMask uint64

const NoEvent EventMask = 0
