// xsignal.go - single-producer single-consumer cross-core mailbox FIFOs

/*
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package rtos

import "sync/atomic"

// XSignalMsgKind tags what a cross-core mailbox entry asks the receiving
// core to do.
type XSignalMsgKind int32

const (
	XSignalActivateTask XSignalMsgKind = iota
	XSignalSetEvent
)

// XSignalMsg is one ring-buffer slot's payload.
type XSignalMsg struct {
	Kind   XSignalMsgKind
	Task   TaskID
	Events EventMask
}

// XSignalRing is a bounded single-producer single-consumer FIFO from one
// core to another: the producer writes the payload then publishes the new
// head with a release store; the consumer reads head with an acquire load
// before touching the payload (§5). Mirrors the request-ring protocol a
// shared-memory mailbox uses between a dispatcher and its workers.
type XSignalRing struct {
	entries []XSignalMsg
	head    atomic.Uint64 // next free slot index, producer-owned, published last
	tail    atomic.Uint64 // next slot to consume, consumer-owned
}

// NewXSignalRing allocates a ring of the given static capacity.
func NewXSignalRing(capacity int) *XSignalRing {
	if capacity <= 0 {
		panicKernel("xsignal: non-positive ring capacity %d", capacity)
	}
	return &XSignalRing{entries: make([]XSignalMsg, capacity)}
}

// Post is called by the producer core. Returns false (StatusLimit at the
// API layer) if the ring is full — cross-core activation never blocks.
func (r *XSignalRing) Post(msg XSignalMsg) bool {
	head := r.head.Load()
	tail := r.tail.Load() // acquire: see the consumer's latest drain
	cap64 := uint64(len(r.entries))
	if head-tail >= cap64 {
		return false
	}
	r.entries[head%cap64] = msg // payload write
	r.head.Store(head + 1)      // release: publish after the payload is visible
	return true
}

// Drain is called by the consumer core: returns every message posted since
// the last Drain, preserving per-sender FIFO order (§5).
func (r *XSignalRing) Drain() []XSignalMsg {
	tail := r.tail.Load()
	head := r.head.Load() // acquire: see every payload published before this head
	if head == tail {
		return nil
	}
	cap64 := uint64(len(r.entries))
	out := make([]XSignalMsg, 0, head-tail)
	for i := tail; i != head; i++ {
		out = append(out, r.entries[i%cap64])
	}
	r.tail.Store(head)
	return out
}
