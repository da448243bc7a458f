package contracts

import "strconv"

// DeviceState describes what the stylus is currently doing, as resolved from
// the layout's status field for one report.
type DeviceState string

const (
	// StateUnknown means the report carried no resolvable status byte.
	StateUnknown DeviceState = ""
	// StateNone means the stylus is out of range of the device.
	StateNone DeviceState = "none"
	// StateHover means the stylus is in range but not touching the surface.
	StateHover DeviceState = "hover"
	// StateContact means the stylus tip is touching the surface.
	StateContact DeviceState = "contact"
	// StateButtons means the report describes device button activity rather
	// than stylus motion.
	StateButtons DeviceState = "buttons"
)

// Well-known semantic field keys used by device layouts.
const (
	KeyX        = "x"
	KeyY        = "y"
	KeyPressure = "pressure"
	KeyTiltX    = "tiltX"
	KeyTiltY    = "tiltY"
	// KeyButtons is the aggregate device-button field. It may be declared as
	// bit flags or as a status-style value table in the layout.
	KeyButtons = "buttons"
	// KeyPrimaryButton is the stylus barrel button flag carried by status values.
	KeyPrimaryButton = "primaryButtonPressed"
)

// ButtonKey returns the semantic key for device button n (1-based), e.g. "button3".
func ButtonKey(n int) string {
	return "button" + strconv.Itoa(n)
}

// Frame is one decoded report: normalized numeric values and boolean flags
// keyed by semantic name, plus the device state resolved for this report.
// A Frame is created fresh per raw buffer and is not mutated after decoding.
type Frame struct {
	State  DeviceState
	Values map[string]float64
	Flags  map[string]bool
}

// Value returns the numeric field for key and whether it was present in the report.
func (f Frame) Value(key string) (float64, bool) {
	v, ok := f.Values[key]
	return v, ok
}

// Flag returns the boolean field for key and whether it was present in the report.
func (f Frame) Flag(key string) (bool, bool) {
	v, ok := f.Flags[key]
	return v, ok
}
