//go:build linux && cgo
// +build linux,cgo

// Package jackout is the real-time output backend: wire messages are queued
// on the event bridge and written to a JACK MIDI port from inside the JACK
// process callback, which must never block or allocate.
package jackout

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/strumboli/strumboli/internal/midiout"
	"github.com/strumboli/strumboli/sdk/contracts"
	jack "github.com/xthexder/go-jack"
)

// Error definitions for JACK client setup.
var (
	ErrPortRegister    = errors.New("error registering JACK MIDI port")
	ErrProcessCallback = errors.New("error setting JACK process callback")
	ErrActivate        = errors.New("error activating JACK client")
	// errEventWrite is the pre-allocated transmit failure recorded by the
	// bridge when the period's MIDI buffer rejects an event.
	errEventWrite = errors.New("JACK MIDI event write failed")
)

// Client owns a JACK client with one MIDI output and one MIDI input port.
// It implements contracts.OutputPort by queuing onto the bridge; the process
// callback drains the bridge into the output port once per period and
// forwards incoming note events to an optionally registered channel.
type Client struct {
	logger       contracts.Logger
	bridge       *midiout.Bridge
	client       *jack.Client
	outPort      *jack.Port
	inPort       *jack.Port
	eventChannel atomic.Value // chan contracts.MIDI

	// event is reused for every MidiEventWrite; the drain path must not
	// allocate. Touched only on the JACK thread.
	event jack.MidiData
}

// NewClient connects to the JACK server and activates the client. The
// host then invokes the process callback once per period on its own
// real-time thread.
func NewClient(bridge *midiout.Bridge, options *contracts.ClientOptions) (*Client, error) {
	jc, status := jack.ClientOpen(options.ClientName, jack.NoStartServer)
	if jc == nil || status != 0 {
		return nil, fmt.Errorf("connecting to JACK server: status %d", status)
	}

	c := &Client{logger: options.Logger, bridge: bridge, client: jc}
	c.outPort = jc.PortRegister("out", jack.DEFAULT_MIDI_TYPE, jack.PortIsOutput, 0)
	c.inPort = jc.PortRegister("in", jack.DEFAULT_MIDI_TYPE, jack.PortIsInput, 0)
	if c.outPort == nil || c.inPort == nil {
		jc.Close()
		return nil, ErrPortRegister
	}
	if code := jc.SetProcessCallback(c.process); code != 0 {
		jc.Close()
		return nil, ErrProcessCallback
	}
	if code := jc.Activate(); code != 0 {
		jc.Close()
		return nil, ErrActivate
	}

	options.Logger.Info("JACK client activated",
		options.Logger.Field().String("client", jc.GetName()))
	return c, nil
}

// Send queues one wire message for the next process period. Overflow drops
// the message and is reported through the bridge stats, never to the caller.
func (c *Client) Send(msg []byte) error {
	c.bridge.Enqueue(0, msg)
	return nil
}

// StartCapture forwards incoming note on/off events to eventChannel. The
// channel should be buffered; events are dropped, not queued, when it is full.
func (c *Client) StartCapture(eventChannel chan contracts.MIDI) {
	if eventChannel == nil {
		c.logger.Error("StartCapture called with nil eventChannel")
		return
	}
	c.eventChannel.Store(eventChannel)
}

// Stats exposes the bridge counters for monitoring.
func (c *Client) Stats() contracts.PortStats {
	return c.bridge.Stats()
}

// process runs on the JACK real-time thread once per period. It drains the
// bridge into the output buffer and scans the input buffer; nothing in here
// may block, allocate, or take the scheduler's lock.
func (c *Client) process(nframes uint32) int {
	buffer := c.outPort.MidiClearBuffer(nframes)
	c.bridge.Drain(func(offset uint32, msg []byte) error {
		c.event.Time = offset
		c.event.Buffer = msg
		if code := c.outPort.MidiEventWrite(&c.event, buffer); code != 0 {
			return errEventWrite
		}
		return nil
	})

	eventChannel, _ := c.eventChannel.Load().(chan contracts.MIDI)
	if eventChannel == nil {
		return 0
	}
	for _, in := range c.inPort.GetMidiEvents(nframes) {
		if len(in.Buffer) < 3 {
			continue
		}
		event := contracts.MIDI{
			Timestamp: uint64(time.Now().UnixNano()),
			Command:   in.Buffer[0],
			Note:      in.Buffer[1],
			Velocity:  in.Buffer[2],
		}
		select {
		case eventChannel <- event:
		default:
		}
	}
	return 0
}

// Close deactivates the JACK client. Pending note-offs must already be
// cancelled by the scheduler before the ports go away.
func (c *Client) Close() error {
	// Stop forwarding before the ports disappear.
	dummy := make(chan contracts.MIDI)
	c.eventChannel.Store(dummy)

	if code := c.client.Deactivate(); code != 0 {
		c.logger.Warn("JACK client deactivate failed",
			c.logger.Field().Int("code", code))
	}
	if code := c.client.Close(); code != 0 {
		return fmt.Errorf("closing JACK client: status %d", code)
	}
	c.logger.Info("JACK client closed")
	return nil
}
