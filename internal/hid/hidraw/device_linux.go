//go:build linux
// +build linux

// Package hidraw opens raw HID interfaces through the Linux hidraw driver.
// It avoids the cgo hidapi path on hosts where /dev/hidraw* is available,
// which is the common case on the embedded boards this runs on.
package hidraw

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Device is one open /dev/hidraw* handle implementing contracts.Device.
type Device struct {
	fd   int
	path string
}

// Open opens a hidraw node, e.g. /dev/hidraw3, in non-blocking mode.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return &Device{fd: fd, path: path}, nil
}

// Read reads one report. In non-blocking mode it returns 0 bytes and no
// error when the device has nothing pending, matching the hidapi contract
// the read loop expects.
func (d *Device) Read(p []byte) (int, error) {
	n, err := unix.Read(d.fd, p)
	if err == unix.EAGAIN {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", d.path, err)
	}
	return n, nil
}

// SetNonblocking toggles O_NONBLOCK on the handle.
func (d *Device) SetNonblocking(nonblocking bool) error {
	return unix.SetNonblock(d.fd, nonblocking)
}

// Close releases the handle.
func (d *Device) Close() error {
	return unix.Close(d.fd)
}
