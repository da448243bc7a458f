//go:build !linux
// +build !linux

package hidraw

import "errors"

// ErrUnsupported is returned on platforms without the hidraw driver; use the
// hidapi device source there instead.
var ErrUnsupported = errors.New("hidraw devices are only available on linux")

type Device struct{}

func Open(path string) (*Device, error) {
	return nil, ErrUnsupported
}

func (d *Device) Read(p []byte) (int, error) {
	return 0, ErrUnsupported
}

func (d *Device) SetNonblocking(nonblocking bool) error {
	return ErrUnsupported
}

func (d *Device) Close() error {
	return ErrUnsupported
}
