package strumboli

import (
	"github.com/strumboli/strumboli/internal/hid"
	"github.com/strumboli/strumboli/sdk/contracts"
)

// NewFrameReader builds the read loop for one device interface: it polls the
// device, decodes each report through the layout, and publishes frames on a
// bounded channel. Run a separate reader per physical interface on
// multi-interface devices, marking the dedicated button interface in rctx.
func NewFrameReader(device contracts.Device, layout *contracts.Layout, rctx contracts.ReportContext, opts ...contracts.Option) contracts.FrameReader {
	options := applyDefaultOptions(opts...)
	return hid.NewReader(device, layout, rctx, &options)
}
