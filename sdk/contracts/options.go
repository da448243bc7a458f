package contracts

import "time"

// Backend names accepted by the note player factory.
const (
	// BackendRTMidi transmits synchronously through the OS MIDI subsystem.
	BackendRTMidi = "rtmidi"
	// BackendJack transmits from the JACK process callback via the
	// real-time event bridge.
	BackendJack = "jack"
)

// ClientOptions defines the configuration options shared by the readers,
// the note player backends, and the scheduler.
type ClientOptions struct {
	Logger   Logger   // Logger for logging events and errors.
	LogLevel LogLevel // Level of logging to use.

	Backend    string // Output backend name, BackendRTMidi or BackendJack.
	ClientName string // Client name registered with the MIDI host.
	PortName   string // Output port to bind; empty selects the first available.

	// StrumChannel is the single MIDI channel (1-16) intents target when no
	// explicit channels are given. Zero means all sixteen channels.
	StrumChannel uint8
	// DefaultDuration is the nominal note length used when an intent does
	// not carry one.
	DefaultDuration time.Duration

	// FrameBuffer is the capacity of a reader's frame channel.
	FrameBuffer int
	// ReadBuffer is the size of a reader's raw report buffer.
	ReadBuffer int
	// PollInterval is how long a reader sleeps after an empty non-blocking read.
	PollInterval time.Duration
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithBackend selects the output backend.
func WithBackend(name string) Option {
	return func(opts *ClientOptions) {
		opts.Backend = name
	}
}

// WithClientName sets the name registered with the MIDI host.
func WithClientName(name string) Option {
	return func(opts *ClientOptions) {
		opts.ClientName = name
	}
}

// WithOutputPort binds the player to a specific output port by name substring.
func WithOutputPort(name string) Option {
	return func(opts *ClientOptions) {
		opts.PortName = name
	}
}

// WithStrumChannel sets the single channel (1-16) used when intents carry no
// explicit channel list.
func WithStrumChannel(channel uint8) Option {
	return func(opts *ClientOptions) {
		opts.StrumChannel = channel
	}
}

// WithDefaultDuration sets the nominal note length for intents without one.
func WithDefaultDuration(d time.Duration) Option {
	return func(opts *ClientOptions) {
		opts.DefaultDuration = d
	}
}

// WithFrameBuffer sets the capacity of a reader's frame channel.
func WithFrameBuffer(n int) Option {
	return func(opts *ClientOptions) {
		opts.FrameBuffer = n
	}
}

// WithReadBuffer sets the size of a reader's raw report buffer.
func WithReadBuffer(n int) Option {
	return func(opts *ClientOptions) {
		opts.ReadBuffer = n
	}
}

// WithPollInterval sets a reader's backoff after an empty read.
func WithPollInterval(d time.Duration) Option {
	return func(opts *ClientOptions) {
		opts.PollInterval = d
	}
}
