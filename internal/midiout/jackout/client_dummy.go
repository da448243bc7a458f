//go:build !linux || !cgo
// +build !linux !cgo

package jackout

import (
	"errors"

	"github.com/strumboli/strumboli/internal/midiout"
	"github.com/strumboli/strumboli/sdk/contracts"
)

// ErrUnsupported is returned where the JACK backend cannot be built; the
// factory falls back to running without a transport.
var ErrUnsupported = errors.New("JACK backend requires linux and cgo")

type Client struct{}

func NewClient(bridge *midiout.Bridge, options *contracts.ClientOptions) (*Client, error) {
	options.Logger.Warn("JACK backend unavailable on this platform")
	return nil, ErrUnsupported
}

func (c *Client) Send(msg []byte) error {
	return nil
}

func (c *Client) StartCapture(eventChannel chan contracts.MIDI) {}

func (c *Client) Stats() contracts.PortStats {
	return contracts.PortStats{}
}

func (c *Client) Close() error {
	return nil
}
