// Package midiout converts note intents into paired MIDI wire messages and
// moves them toward the output transport, either synchronously or through a
// real-time event bridge.
package midiout

import (
	"sync"
	"time"

	"github.com/strumboli/strumboli/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
)

const (
	// noteOffVelocity is the fixed release velocity carried by scheduled note-offs.
	noteOffVelocity = 0x40
	defaultDuration = 1500 * time.Millisecond
)

// noteKey identifies a logical sounding note: pitch plus the ordered target
// channel set, encoded so it can key a map.
type noteKey struct {
	pitch    uint8
	channels string
}

// timerRecord is the pending note-off for one sounding note. The generation
// number lets a fired timer detect that it lost a race with a retrigger and
// must not emit its note-off.
type timerRecord struct {
	timer *time.Timer
	gen   uint64
}

// Scheduler is the note lifecycle scheduler. Every operation is safe for
// concurrent use and returns without blocking; one mutex guards the pending
// note-off table and serializes wire emission per key, so a note-on and its
// paired note-off can never be reordered or doubled.
type Scheduler struct {
	port   contracts.OutputPort
	logger contracts.Logger

	strumChannel    uint8
	defaultDuration time.Duration

	mu     sync.Mutex
	active map[noteKey]*timerRecord
	gen    uint64
	closed bool
}

// NewScheduler builds a scheduler writing to port. A nil port means no
// transport was resolved; every operation then degrades to a no-op so the
// rest of the system keeps running.
func NewScheduler(port contracts.OutputPort, opts *contracts.ClientOptions) *Scheduler {
	duration := opts.DefaultDuration
	if duration <= 0 {
		duration = defaultDuration
	}
	return &Scheduler{
		port:            port,
		logger:          opts.Logger,
		strumChannel:    opts.StrumChannel,
		defaultDuration: duration,
		active:          make(map[noteKey]*timerRecord),
	}
}

// PlayNote emits a note-on per target channel now and schedules the paired
// note-off after duration. Retriggering a note that is still sounding
// replaces its pending note-off without emitting one, so the retrigger never
// causes a spurious gap and the earlier note-on never gets a second off.
func (s *Scheduler) PlayNote(pitch, velocity uint8, duration time.Duration, channels ...uint8) {
	if s.port == nil {
		return
	}
	if duration <= 0 {
		duration = s.defaultDuration
	}
	chans := s.resolveChannels(channels)
	key := makeKey(pitch, chans)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if rec, ok := s.active[key]; ok {
		rec.timer.Stop()
		delete(s.active, key)
	}
	for _, ch := range chans {
		s.send(midi.NoteOn(ch, pitch, velocity))
	}
	s.gen++
	rec := &timerRecord{gen: s.gen}
	gen := s.gen
	rec.timer = time.AfterFunc(duration, func() {
		s.expire(key, gen)
	})
	s.active[key] = rec
}

// expire is the delayed note-off action. It emits only if it still owns the
// key: a retrigger or release that happened after the timer fired but before
// this ran has already taken over responsibility for the note.
func (s *Scheduler) expire(key noteKey, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.active[key]
	if !ok || rec.gen != gen {
		return
	}
	delete(s.active, key)
	for _, ch := range []byte(key.channels) {
		s.send(midi.NoteOffVelocity(ch, key.pitch, noteOffVelocity))
	}
}

// ReleaseNote ends a note before its nominal duration: the pending note-off
// is cancelled and the note-off is emitted immediately instead.
func (s *Scheduler) ReleaseNote(pitch uint8, channels ...uint8) {
	if s.port == nil {
		return
	}
	chans := s.resolveChannels(channels)
	key := makeKey(pitch, chans)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if rec, ok := s.active[key]; ok {
		rec.timer.Stop()
		delete(s.active, key)
	}
	for _, ch := range chans {
		s.send(midi.NoteOffVelocity(ch, pitch, noteOffVelocity))
	}
}

// ReleaseNotes releases several pitches on the same target channel set.
func (s *Scheduler) ReleaseNotes(pitches []uint8, channels ...uint8) {
	for _, pitch := range pitches {
		s.ReleaseNote(pitch, channels...)
	}
}

// SendPitchBend emits a 14-bit pitch bend for value in [-1,1] on the
// resolved channel set. Out-of-range values are clamped.
func (s *Scheduler) SendPitchBend(value float64) {
	if s.port == nil {
		return
	}
	if value > 1 {
		value = 1
	}
	if value < -1 {
		value = -1
	}
	bend := int((value + 1.0) * 8192)
	if bend > 16383 {
		bend = 16383
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, ch := range s.resolveChannels(nil) {
		s.send(midi.Pitchbend(ch, int16(bend-8192)))
	}
}

// ActiveNotes reports how many notes currently have a pending note-off.
func (s *Scheduler) ActiveNotes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// StartCapture forwards MIDI events arriving on the transport's input side to
// eventChannel. Output-only transports ignore the registration.
func (s *Scheduler) StartCapture(eventChannel chan contracts.MIDI) {
	capturer, ok := s.port.(interface {
		StartCapture(chan contracts.MIDI)
	})
	if !ok {
		s.logger.Debug("transport has no input side, capture not started")
		return
	}
	capturer.StartCapture(eventChannel)
}

// Stats reports the transport's delivery counters; a transport that keeps
// none, or no transport at all, reports zeroes.
func (s *Scheduler) Stats() contracts.PortStats {
	reporter, ok := s.port.(interface {
		Stats() contracts.PortStats
	})
	if !ok {
		return contracts.PortStats{}
	}
	return reporter.Stats()
}

// Close cancels every pending note-off, so none can fire after the transport
// is torn down, and then closes the transport.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for key, rec := range s.active {
		rec.timer.Stop()
		delete(s.active, key)
	}
	s.mu.Unlock()

	if s.port == nil {
		return nil
	}
	return s.port.Close()
}

// resolveChannels maps a caller's 1-16 channel list to the 0-15 wire set:
// the explicit list if given, else the configured strum channel, else all
// sixteen channels.
func (s *Scheduler) resolveChannels(channels []uint8) []uint8 {
	if len(channels) > 0 {
		out := make([]uint8, 0, len(channels))
		for _, ch := range channels {
			if ch >= 1 && ch <= 16 {
				out = append(out, ch-1)
			}
		}
		return out
	}
	if s.strumChannel >= 1 && s.strumChannel <= 16 {
		return []uint8{s.strumChannel - 1}
	}
	all := make([]uint8, 16)
	for i := range all {
		all[i] = uint8(i)
	}
	return all
}

func makeKey(pitch uint8, channels []uint8) noteKey {
	return noteKey{pitch: pitch, channels: string(channels)}
}

func (s *Scheduler) send(msg midi.Message) {
	if err := s.port.Send(msg); err != nil {
		s.logger.Warn("wire message not delivered",
			s.logger.Field().Error("error", err))
	}
}
