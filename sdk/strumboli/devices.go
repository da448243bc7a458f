package strumboli

import (
	"errors"
	"fmt"
	"sync"

	hidapi "github.com/sstallion/go-hid"
	"github.com/strumboli/strumboli/internal/hid/hidraw"
	"github.com/strumboli/strumboli/sdk/contracts"
)

// ErrNoDevices is returned when enumeration finds no HID devices.
var ErrNoDevices = errors.New("no HID devices found")

var hidInit sync.Once

// ListDevices enumerates the attached HID device interfaces. A tablet
// typically exposes several interfaces; the stylus and the buttons may live
// on different ones.
func ListDevices() ([]contracts.DeviceInfo, error) {
	hidInit.Do(func() { _ = hidapi.Init() })

	var devices []contracts.DeviceInfo
	err := hidapi.Enumerate(hidapi.VendorIDAny, hidapi.ProductIDAny, func(info *hidapi.DeviceInfo) error {
		devices = append(devices, contracts.DeviceInfo{
			Path:         info.Path,
			VendorID:     info.VendorID,
			ProductID:    info.ProductID,
			Product:      info.ProductStr,
			Manufacturer: info.MfrStr,
			Interface:    info.InterfaceNbr,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerating HID devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, ErrNoDevices
	}
	return devices, nil
}

// OpenDevice opens the first HID interface matching the vendor and product id.
func OpenDevice(vendorID, productID uint16) (contracts.Device, error) {
	hidInit.Do(func() { _ = hidapi.Init() })

	device, err := hidapi.OpenFirst(vendorID, productID)
	if err != nil {
		return nil, fmt.Errorf("opening device %04x:%04x: %w", vendorID, productID, err)
	}
	return device, nil
}

// OpenDevicePath opens one specific HID interface by its enumeration path.
func OpenDevicePath(path string) (contracts.Device, error) {
	hidInit.Do(func() { _ = hidapi.Init() })

	device, err := hidapi.OpenPath(path)
	if err != nil {
		return nil, fmt.Errorf("opening device %s: %w", path, err)
	}
	return device, nil
}

// OpenRawDevice opens a Linux hidraw node, e.g. /dev/hidraw3, bypassing
// hidapi. Only available on Linux.
func OpenRawDevice(path string) (contracts.Device, error) {
	device, err := hidraw.Open(path)
	if err != nil {
		return nil, err
	}
	return device, nil
}
