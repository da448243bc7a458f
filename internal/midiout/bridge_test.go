package midiout

import (
	"errors"
	"testing"

	"github.com/strumboli/strumboli/internal/logger"
)

func TestBridgeOverflowDropsWithoutBlocking(t *testing.T) {
	b := NewBridge(1000, logger.NewNop())

	accepted := 0
	for i := 0; i < 1001; i++ {
		if b.Enqueue(0, []byte{0x90, byte(i % 128), 100}) {
			accepted++
		}
	}
	if accepted != 1000 {
		t.Fatalf("accepted = %d, want 1000", accepted)
	}
	if stats := b.Stats(); stats.Dropped != 1 {
		t.Fatalf("dropped = %d, want 1", stats.Dropped)
	}

	var drained [][]byte
	b.Drain(func(offset uint32, msg []byte) error {
		drained = append(drained, msg)
		return nil
	})
	if len(drained) != 1000 {
		t.Fatalf("drained = %d, want 1000", len(drained))
	}
	for i, msg := range drained {
		if msg[1] != byte(i%128) {
			t.Fatalf("event %d out of order: pitch %d", i, msg[1])
		}
	}
	if stats := b.Stats(); stats.Sent != 1000 {
		t.Fatalf("sent = %d, want 1000", stats.Sent)
	}
}

func TestBridgeDrainOnEmptyQueueReturnsImmediately(t *testing.T) {
	b := NewBridge(8, logger.NewNop())
	calls := 0
	b.Drain(func(offset uint32, msg []byte) error {
		calls++
		return nil
	})
	if calls != 0 {
		t.Fatalf("emit called %d times on an empty queue", calls)
	}
}

func TestBridgeRecordsTransmitFailuresOutOfBand(t *testing.T) {
	b := NewBridge(8, logger.NewNop())
	b.Enqueue(0, []byte{0x90, 60, 100})
	b.Enqueue(0, []byte{0x90, 61, 100})
	b.Enqueue(0, []byte{0x90, 62, 100})

	failPitch := byte(61)
	b.Drain(func(offset uint32, msg []byte) error {
		if msg[1] == failPitch {
			return errors.New("buffer rejected event")
		}
		return nil
	})

	stats := b.Stats()
	if stats.Sent != 2 {
		t.Fatalf("sent = %d, want 2", stats.Sent)
	}
	if stats.LastError != "buffer rejected event" {
		t.Fatalf("last error = %q, want the recorded failure", stats.LastError)
	}
}

func TestBridgeDefaultCapacity(t *testing.T) {
	b := NewBridge(0, logger.NewNop())
	for i := 0; i < DefaultBridgeCapacity; i++ {
		if !b.Enqueue(0, nil) {
			t.Fatalf("event %d rejected below the default capacity", i)
		}
	}
	if b.Enqueue(0, nil) {
		t.Fatal("event accepted beyond the default capacity")
	}
}

func TestBridgeDrainDoesNotAllocate(t *testing.T) {
	b := NewBridge(128, logger.NewNop())
	msg := []byte{0x90, 60, 100}

	allocs := testing.AllocsPerRun(100, func() {
		for i := 0; i < 8; i++ {
			b.Enqueue(0, msg)
		}
		b.Drain(func(offset uint32, m []byte) error { return nil })
	})
	if allocs != 0 {
		t.Fatalf("drain cycle allocated %.0f times per run, want 0", allocs)
	}
}

func TestBridgeSendNeverReportsOverflow(t *testing.T) {
	b := NewBridge(1, logger.NewNop())
	if err := b.Send([]byte{0x90, 60, 100}); err != nil {
		t.Fatalf("send: %v", err)
	}
	// The queue is full now; overflow is reported through stats, not errors.
	if err := b.Send([]byte{0x90, 61, 100}); err != nil {
		t.Fatalf("send on full queue: %v", err)
	}
	if stats := b.Stats(); stats.Dropped != 1 {
		t.Fatalf("dropped = %d, want 1", stats.Dropped)
	}
}
