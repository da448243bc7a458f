package midiout

import (
	"sync"
	"testing"
	"time"

	"github.com/strumboli/strumboli/internal/logger"
	"github.com/strumboli/strumboli/sdk/contracts"
)

// recordPort captures every wire message with its arrival time.
type recordPort struct {
	mu     sync.Mutex
	msgs   [][]byte
	times  []time.Time
	closed bool
}

func (p *recordPort) Send(msg []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := make([]byte, len(msg))
	copy(cp, msg)
	p.msgs = append(p.msgs, cp)
	p.times = append(p.times, time.Now())
	return nil
}

func (p *recordPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *recordPort) snapshot() ([][]byte, []time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := make([][]byte, len(p.msgs))
	copy(msgs, p.msgs)
	times := make([]time.Time, len(p.times))
	copy(times, p.times)
	return msgs, times
}

func (p *recordPort) countKind(status byte, pitch uint8) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, msg := range p.msgs {
		if len(msg) >= 2 && msg[0]&0xF0 == status && msg[1] == pitch {
			n++
		}
	}
	return n
}

func newTestScheduler(port contracts.OutputPort, strumChannel uint8) *Scheduler {
	return NewScheduler(port, &contracts.ClientOptions{
		Logger:       logger.NewNop(),
		StrumChannel: strumChannel,
	})
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestPlayNoteEmitsPairedOnAndOff(t *testing.T) {
	port := &recordPort{}
	s := newTestScheduler(port, 1)
	defer s.Close()

	s.PlayNote(60, 100, 50*time.Millisecond)
	if n := port.countKind(0x90, 60); n != 1 {
		t.Fatalf("note-ons = %d, want 1", n)
	}
	if s.ActiveNotes() != 1 {
		t.Fatalf("active notes = %d, want 1", s.ActiveNotes())
	}

	waitFor(t, time.Second, func() bool { return port.countKind(0x80, 60) == 1 })
	if s.ActiveNotes() != 0 {
		t.Fatalf("active notes after expiry = %d, want 0", s.ActiveNotes())
	}

	msgs, _ := port.snapshot()
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want note-on + note-off", len(msgs))
	}
	wantOn := []byte{0x90, 60, 100}
	wantOff := []byte{0x80, 60, 0x40}
	for i, want := range [][]byte{wantOn, wantOff} {
		for j := range want {
			if msgs[i][j] != want[j] {
				t.Fatalf("message %d = %v, want %v", i, msgs[i], want)
			}
		}
	}
}

func TestRetriggerEmitsExactlyOneNoteOff(t *testing.T) {
	port := &recordPort{}
	s := newTestScheduler(port, 1)
	defer s.Close()

	duration := 200 * time.Millisecond
	s.PlayNote(60, 100, duration)
	time.Sleep(50 * time.Millisecond)
	second := time.Now()
	s.PlayNote(60, 110, duration)

	waitFor(t, time.Second, func() bool { return port.countKind(0x80, 60) >= 1 })
	// Allow the first call's original deadline to pass too.
	time.Sleep(250 * time.Millisecond)

	if n := port.countKind(0x80, 60); n != 1 {
		t.Fatalf("note-offs = %d, want exactly 1", n)
	}
	if n := port.countKind(0x90, 60); n != 2 {
		t.Fatalf("note-ons = %d, want 2", n)
	}

	msgs, times := port.snapshot()
	for i, msg := range msgs {
		if msg[0]&0xF0 == 0x80 {
			if elapsed := times[i].Sub(second); elapsed < duration-20*time.Millisecond {
				t.Fatalf("note-off fired %v after the retrigger, want >= %v", elapsed, duration)
			}
		}
	}
}

func TestReleaseNoteCancelsPendingOff(t *testing.T) {
	port := &recordPort{}
	s := newTestScheduler(port, 1)
	defer s.Close()

	s.PlayNote(60, 100, 300*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	s.ReleaseNote(60)

	if n := port.countKind(0x80, 60); n != 1 {
		t.Fatalf("note-offs after release = %d, want 1", n)
	}
	if s.ActiveNotes() != 0 {
		t.Fatalf("active notes after release = %d, want 0", s.ActiveNotes())
	}

	// The cancelled timer must not deliver a second, late note-off.
	time.Sleep(400 * time.Millisecond)
	if n := port.countKind(0x80, 60); n != 1 {
		t.Fatalf("note-offs after original deadline = %d, want still 1", n)
	}
}

func TestReleaseNotesReleasesEachPitch(t *testing.T) {
	port := &recordPort{}
	s := newTestScheduler(port, 1)
	defer s.Close()

	s.PlayNote(60, 100, time.Second)
	s.PlayNote(64, 100, time.Second)
	s.ReleaseNotes([]uint8{60, 64})

	if n := port.countKind(0x80, 60) + port.countKind(0x80, 64); n != 2 {
		t.Fatalf("note-offs = %d, want 2", n)
	}
	if s.ActiveNotes() != 0 {
		t.Fatalf("active notes = %d, want 0", s.ActiveNotes())
	}
}

func TestChannelResolution(t *testing.T) {
	// No explicit channels and no strum channel: all sixteen.
	port := &recordPort{}
	s := newTestScheduler(port, 0)
	s.PlayNote(60, 100, time.Second)
	if n := port.countKind(0x90, 60); n != 16 {
		t.Fatalf("omni note-ons = %d, want 16", n)
	}
	s.Close()

	// Explicit channel list wins over the strum channel.
	port = &recordPort{}
	s = newTestScheduler(port, 1)
	s.PlayNote(60, 100, time.Second, 3, 5)
	msgs, _ := port.snapshot()
	if len(msgs) != 2 {
		t.Fatalf("note-ons = %d, want 2", len(msgs))
	}
	if msgs[0][0] != 0x90|2 || msgs[1][0] != 0x90|4 {
		t.Fatalf("channels = %x, %x, want 92, 94", msgs[0][0], msgs[1][0])
	}
	s.Close()
}

func TestDistinctChannelSetsAreIndependentNotes(t *testing.T) {
	port := &recordPort{}
	s := newTestScheduler(port, 0)
	defer s.Close()

	s.PlayNote(60, 100, time.Second, 1)
	s.PlayNote(60, 100, time.Second, 2)
	if s.ActiveNotes() != 2 {
		t.Fatalf("active notes = %d, want 2", s.ActiveNotes())
	}

	// Releasing one channel set leaves the other sounding.
	s.ReleaseNote(60, 1)
	if s.ActiveNotes() != 1 {
		t.Fatalf("active notes after one release = %d, want 1", s.ActiveNotes())
	}
}

func TestSendPitchBendEncoding(t *testing.T) {
	tests := []struct {
		value    float64
		lsb, msb byte
	}{
		{1.0, 127, 127},
		{-1.0, 0, 0},
		{0.0, 0, 64},
		{2.5, 127, 127}, // clamped
		{-3.0, 0, 0},    // clamped
	}
	for _, tt := range tests {
		port := &recordPort{}
		s := newTestScheduler(port, 1)
		s.SendPitchBend(tt.value)
		msgs, _ := port.snapshot()
		if len(msgs) != 1 {
			t.Fatalf("value %v: messages = %d, want 1", tt.value, len(msgs))
		}
		msg := msgs[0]
		if msg[0] != 0xE0 || msg[1] != tt.lsb || msg[2] != tt.msb {
			t.Fatalf("value %v: message = %v, want [E0 %d %d]", tt.value, msg, tt.lsb, tt.msb)
		}
		s.Close()
	}
}

func TestNoTransportDegradesToNoOps(t *testing.T) {
	s := NewScheduler(nil, &contracts.ClientOptions{Logger: logger.NewNop()})
	s.PlayNote(60, 100, time.Second)
	s.ReleaseNote(60)
	s.SendPitchBend(0.5)
	if s.ActiveNotes() != 0 {
		t.Fatalf("active notes without transport = %d, want 0", s.ActiveNotes())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close without transport: %v", err)
	}
}

func TestCloseCancelsOutstandingTimers(t *testing.T) {
	port := &recordPort{}
	s := newTestScheduler(port, 1)

	s.PlayNote(60, 100, 50*time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !port.closed {
		t.Fatal("transport not closed")
	}

	time.Sleep(150 * time.Millisecond)
	if n := port.countKind(0x80, 60); n != 0 {
		t.Fatalf("note-offs after close = %d, want 0", n)
	}

	// Operations after close stay silent.
	s.PlayNote(62, 100, 10*time.Millisecond)
	if n := port.countKind(0x90, 62); n != 0 {
		t.Fatalf("note-ons after close = %d, want 0", n)
	}
}

// capturePort is a recording transport that also has an input side and
// delivery counters, like the JACK backend.
type capturePort struct {
	recordPort
	captured chan contracts.MIDI
	stats    contracts.PortStats
}

func (p *capturePort) StartCapture(eventChannel chan contracts.MIDI) {
	p.captured = eventChannel
}

func (p *capturePort) Stats() contracts.PortStats {
	return p.stats
}

func TestCaptureAndStatsReachTheTransport(t *testing.T) {
	port := &capturePort{stats: contracts.PortStats{Sent: 3, Dropped: 1, LastError: "buffer full"}}
	s := newTestScheduler(port, 1)
	defer s.Close()

	events := make(chan contracts.MIDI, 8)
	s.StartCapture(events)
	if port.captured != events {
		t.Fatal("capture registration did not reach the transport")
	}
	if got := s.Stats(); got != port.stats {
		t.Fatalf("stats = %+v, want the transport's counters", got)
	}
}

func TestCaptureAndStatsOnOutputOnlyTransport(t *testing.T) {
	s := newTestScheduler(&recordPort{}, 1)
	defer s.Close()

	s.StartCapture(make(chan contracts.MIDI, 1))
	if got := s.Stats(); got != (contracts.PortStats{}) {
		t.Fatalf("stats = %+v, want zeroes", got)
	}

	// Without a transport both degrade to no-ops like every other operation.
	bare := NewScheduler(nil, &contracts.ClientOptions{Logger: logger.NewNop()})
	bare.StartCapture(make(chan contracts.MIDI, 1))
	if got := bare.Stats(); got != (contracts.PortStats{}) {
		t.Fatalf("stats without transport = %+v, want zeroes", got)
	}
}

func TestConcurrentPlayersShareOneLockSafely(t *testing.T) {
	port := &recordPort{}
	s := newTestScheduler(port, 1)
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(pitch uint8) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.PlayNote(pitch, 100, 10*time.Millisecond)
			}
		}(uint8(60 + i))
	}
	wg.Wait()

	waitFor(t, 2*time.Second, func() bool { return s.ActiveNotes() == 0 })
	for i := 0; i < 8; i++ {
		pitch := uint8(60 + i)
		ons := port.countKind(0x90, pitch)
		offs := port.countKind(0x80, pitch)
		if ons != 50 {
			t.Fatalf("pitch %d: note-ons = %d, want 50", pitch, ons)
		}
		// Retriggers coalesce note-offs; there can never be more offs
		// than ons, and every sounding instance must end.
		if offs < 1 || offs > ons {
			t.Fatalf("pitch %d: note-offs = %d out of range [1,%d]", pitch, offs, ons)
		}
	}
}
