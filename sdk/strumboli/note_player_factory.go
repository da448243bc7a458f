package strumboli

import (
	"errors"
	"fmt"

	"github.com/strumboli/strumboli/internal/midiout"
	"github.com/strumboli/strumboli/internal/midiout/jackout"
	"github.com/strumboli/strumboli/internal/midiout/rtmidiout"
	"github.com/strumboli/strumboli/sdk/contracts"
)

// ErrUnknownBackend is returned when the configured output backend name is
// not recognized.
var ErrUnknownBackend = errors.New("unknown output backend")

// portInitializers maps backend names to corresponding output port initializers.
var portInitializers = map[string]func(*contracts.ClientOptions) (contracts.OutputPort, error){
	contracts.BackendRTMidi: newRTMidiPort, // Synchronous OS MIDI output.
	contracts.BackendJack:   newJackPort,   // Real-time callback output via the event bridge.
}

// NewNotePlayer creates a note player with the specified options.
// It applies default options, resolves the configured output backend, and
// binds the note lifecycle scheduler to it. A backend that fails to come up
// is not fatal: the player runs without a transport and every note
// operation becomes a no-op.
//
// opts ...contracts.Option: A variadic list of option functions to customize the configuration.
//
// Returns:
//   - contracts.NotePlayer: The note player instance.
//   - error: An error when the configured backend name is unknown.
func NewNotePlayer(opts ...contracts.Option) (contracts.NotePlayer, error) {
	options := applyDefaultOptions(opts...)

	initializer, exists := portInitializers[options.Backend]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, options.Backend)
	}

	port, err := initializer(&options)
	if err != nil {
		options.Logger.Warn("output backend unavailable, running without a transport",
			options.Logger.Field().String("backend", options.Backend),
			options.Logger.Field().Error("error", err))
		port = nil
	}
	return midiout.NewScheduler(port, &options), nil
}

func newRTMidiPort(options *contracts.ClientOptions) (contracts.OutputPort, error) {
	client, err := rtmidiout.NewClient(options)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newJackPort(options *contracts.ClientOptions) (contracts.OutputPort, error) {
	bridge := midiout.NewBridge(midiout.DefaultBridgeCapacity, options.Logger)
	client, err := jackout.NewClient(bridge, options)
	if err != nil {
		return nil, err
	}
	return client, nil
}
