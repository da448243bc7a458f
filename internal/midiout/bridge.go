package midiout

import (
	"sync/atomic"

	"github.com/strumboli/strumboli/sdk/contracts"
)

// DefaultBridgeCapacity bounds the pending event queue of a Bridge.
const DefaultBridgeCapacity = 1000

// pendingEvent is one wire message waiting for the next real-time period,
// with its frame offset inside that period.
type pendingEvent struct {
	offset uint32
	msg    []byte
}

// Bridge carries wire messages from arbitrary producer threads into a
// periodic real-time callback. Producers push without ever blocking; the
// sole consumer drains in FIFO order from the callback without allocating
// or blocking. The queue is the only state shared across that boundary.
type Bridge struct {
	queue   chan pendingEvent
	logger  contracts.Logger
	sent    atomic.Uint64
	dropped atomic.Uint64
	lastErr atomic.Value // string
}

// NewBridge builds a bridge with the given queue capacity; a non-positive
// capacity selects DefaultBridgeCapacity.
func NewBridge(capacity int, logger contracts.Logger) *Bridge {
	if capacity <= 0 {
		capacity = DefaultBridgeCapacity
	}
	return &Bridge{
		queue:  make(chan pendingEvent, capacity),
		logger: logger,
	}
}

// Enqueue pushes one wire message for the next period. It may be called from
// any goroutine. When the queue is full the event is dropped, counted, and
// warned about; the producer is never blocked. It reports whether the event
// was accepted.
func (b *Bridge) Enqueue(offset uint32, msg []byte) bool {
	select {
	case b.queue <- pendingEvent{offset: offset, msg: msg}:
		return true
	default:
		b.dropped.Add(1)
		b.logger.Warn("event queue full, dropping wire message",
			b.logger.Field().Uint64("dropped", b.dropped.Load()))
		return false
	}
}

// Send implements contracts.OutputPort delivery on top of Enqueue. Overflow
// is non-fatal and reported through Stats, never as an error.
func (b *Bridge) Send(msg []byte) error {
	b.Enqueue(0, msg)
	return nil
}

// Drain hands every pending event to emit in FIFO order and returns when the
// queue is empty for this period. It is meant to be called exactly once per
// period from the real-time thread: it performs no allocation and never
// blocks. A transmit failure is recorded for out-of-band reporting and the
// remaining events still drain.
func (b *Bridge) Drain(emit func(offset uint32, msg []byte) error) {
	for {
		select {
		case ev := <-b.queue:
			if err := emit(ev.offset, ev.msg); err != nil {
				b.lastErr.Store(err.Error())
				continue
			}
			b.sent.Add(1)
		default:
			return
		}
	}
}

// Stats snapshots the bridge counters for monitoring. Drain never reports
// errors synchronously; the last transmit failure shows up here instead.
func (b *Bridge) Stats() contracts.PortStats {
	stats := contracts.PortStats{
		Sent:    b.sent.Load(),
		Dropped: b.dropped.Load(),
	}
	if s, ok := b.lastErr.Load().(string); ok {
		stats.LastError = s
	}
	return stats
}
