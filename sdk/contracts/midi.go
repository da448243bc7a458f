package contracts

import (
	"context"
	"time"
)

// MIDI represents one incoming MIDI event with a timestamp, command, note, and velocity.
type MIDI struct {
	Timestamp uint64 // Timestamp indicates the time the event occurred.
	Command   byte   // Command specifies the type of MIDI event (e.g., Note On, Note Off).
	Note      byte   // Note represents the MIDI note number (0-127).
	Velocity  byte   // Velocity indicates the strength of the note being played (0-127).
}

// PortStats is a snapshot of a transport's out-of-band delivery counters.
type PortStats struct {
	Sent    uint64 // Wire messages delivered to the transport.
	Dropped uint64 // Wire messages discarded because the queue was full.
	// LastError is the most recent transmit failure, empty when none occurred.
	LastError string
}

// OutputPort delivers wire messages to a MIDI transport. Send must not block
// the caller; implementations either transmit synchronously or hand the
// message to a real-time queue. A nil OutputPort means no transport was
// resolved and note operations degrade to no-ops.
type OutputPort interface {
	Send(msg []byte) error
	Close() error
}

// NotePlayer converts note intents into guaranteed-paired note-on/note-off
// wire messages. All methods are safe for concurrent use and non-blocking.
//
// Channels are 1-16. When no channels are given, an intent targets the
// configured strum channel, or all sixteen channels if none is configured.
type NotePlayer interface {
	// PlayNote emits a note-on per target channel now and schedules the
	// paired note-off after duration. Retriggering a still-sounding note
	// replaces its pending note-off without emitting an extra one.
	// A non-positive duration selects the configured default.
	PlayNote(pitch, velocity uint8, duration time.Duration, channels ...uint8)
	// ReleaseNote ends a note early: it cancels the pending note-off, if
	// any, and emits the note-off per target channel immediately.
	ReleaseNote(pitch uint8, channels ...uint8)
	// ReleaseNotes releases several pitches on the same target channel set.
	ReleaseNotes(pitches []uint8, channels ...uint8)
	// SendPitchBend emits a 14-bit pitch bend for value in [-1,1] per
	// target channel. Out-of-range values are clamped.
	SendPitchBend(value float64)
	// ActiveNotes reports how many notes currently have a pending note-off.
	ActiveNotes() int
	// StartCapture forwards MIDI events arriving on the transport's input
	// side to eventChannel. The channel should be buffered; events are
	// dropped, not queued, when it is full. Transports without an input
	// side ignore the registration.
	StartCapture(eventChannel chan MIDI)
	// Stats reports the transport's delivery counters; zeroes when the
	// transport keeps none.
	Stats() PortStats
	// Close cancels every pending note-off and tears down the transport.
	Close() error
}

// FrameReader runs one device interface's read loop and publishes decoded frames.
type FrameReader interface {
	// Run polls the device until ctx is cancelled or the device fails.
	// A device failure is reported as the returned error; the frames
	// channel is closed either way.
	Run(ctx context.Context) error
	// Frames is the bounded frame channel. Frames are dropped, not queued
	// unboundedly, when the consumer falls behind.
	Frames() <-chan Frame
	// Dropped reports how many frames were discarded because the consumer
	// was not keeping up.
	Dropped() uint64
}
