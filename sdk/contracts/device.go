package contracts

// DeviceInfo contains information about an attached HID device interface.
type DeviceInfo struct {
	Path         string // OS path of the device interface.
	VendorID     uint16 // USB vendor id.
	ProductID    uint16 // USB product id.
	Product      string // Product string reported by the device.
	Manufacturer string // Manufacturer string reported by the device.
	Interface    int    // Interface number on multi-interface devices.
}

// Device is one readable HID interface handle. Read returns 0 bytes (not an
// error) when the device has nothing to report in non-blocking mode; the
// read loop backs off briefly in that case. hidapi device handles satisfy
// this interface directly.
type Device interface {
	Read(p []byte) (int, error)
	SetNonblocking(nonblocking bool) error
	Close() error
}
