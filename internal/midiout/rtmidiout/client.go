// Package rtmidiout is the direct output backend: wire messages go to an OS
// MIDI port synchronously, for hosts where transmission does not have to
// happen inside a real-time callback.
package rtmidiout

import (
	"fmt"
	"strings"

	"github.com/strumboli/strumboli/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Client owns one rtmidi output port and implements contracts.OutputPort.
// When no port could be resolved at startup, Send is a no-op: the rest of
// the system keeps running without a transport.
type Client struct {
	logger contracts.Logger
	drv    *rtmididrv.Driver
	out    drivers.Out
	send   func(midi.Message) error
}

// NewClient opens the output port named by options.PortName (substring
// match), or the first available port when unset.
func NewClient(options *contracts.ClientOptions) (*Client, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	c := &Client{logger: options.Logger, drv: drv}

	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("listing output ports: %w", err)
	}
	if len(outs) == 0 {
		options.Logger.Warn("no MIDI output ports available, notes will be dropped")
		return c, nil
	}

	out := pickPort(outs, options.PortName)
	if out == nil {
		options.Logger.Warn("output port not found, using first available",
			options.Logger.Field().String("wanted", options.PortName))
		out = outs[0]
	}
	if err := out.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("opening port %q: %w", out.String(), err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		out.Close()
		drv.Close()
		return nil, fmt.Errorf("binding port %q: %w", out.String(), err)
	}

	c.out = out
	c.send = send
	options.Logger.Info("MIDI output port opened",
		options.Logger.Field().String("port", out.String()))
	return c, nil
}

// Send transmits one wire message synchronously.
func (c *Client) Send(msg []byte) error {
	if c.send == nil {
		return nil
	}
	return c.send(midi.Message(msg))
}

// Close releases the port and the driver.
func (c *Client) Close() error {
	if c.out != nil {
		if err := c.out.Close(); err != nil {
			c.logger.Warn("closing output port",
				c.logger.Field().Error("error", err))
		}
		c.out = nil
	}
	return c.drv.Close()
}

func pickPort(outs []drivers.Out, name string) drivers.Out {
	if name == "" {
		return outs[0]
	}
	for _, out := range outs {
		if strings.Contains(strings.ToLower(out.String()), strings.ToLower(name)) {
			return out
		}
	}
	return nil
}
