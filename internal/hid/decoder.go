// Package hid turns raw device reports into semantic frames according to a
// declarative byte layout, and runs the per-interface read loops that feed it.
package hid

import (
	"github.com/strumboli/strumboli/sdk/contracts"
)

// Decode interprets one raw report according to the layout. It never fails:
// a field whose bytes fall outside the buffer, or whose raw value matches no
// table entry, is simply absent from the frame. Decoding is stateless; the
// device-state gate is recomputed from this buffer alone.
func Decode(buf []byte, layout *contracts.Layout, rctx contracts.ReportContext) contracts.Frame {
	frame := contracts.Frame{
		Values: make(map[string]float64),
		Flags:  make(map[string]bool),
	}

	reportID := 0
	if len(buf) > 0 {
		reportID = int(buf[0])
	}
	buttonInterface := rctx.ButtonInterface ||
		(layout.ButtonReportID != 0 && reportID == layout.ButtonReportID)

	// The status field resolves first: its state gates everything below.
	if _, spec, ok := layout.StatusField(); ok && spec.ByteIndex < len(buf) {
		if sv, ok := spec.Values[buf[spec.ByteIndex]]; ok {
			frame.State = sv.State
			for key, val := range sv.Flags {
				frame.Flags[key] = val
			}
		}
	}

	// In button mode, stylus motion bytes overlap button bytes: decoding
	// coordinates there would produce garbage values, and decoding buttons
	// from stylus reports would produce phantom presses.
	buttonMode := buttonInterface || frame.State == contracts.StateButtons

	for key, spec := range layout.Fields {
		switch spec.Kind {
		case contracts.FieldStatus:
			if key != contracts.KeyButtons {
				continue // the gating status field, handled above
			}
			// A status-typed button table selects exactly one button, and
			// only the dedicated button interface may report it.
			if !buttonInterface || spec.ByteIndex >= len(buf) {
				continue
			}
			sv, ok := spec.Values[buf[spec.ByteIndex]]
			if !ok || sv.Button < 1 {
				continue
			}
			for i := 1; i <= spec.FlagCount(); i++ {
				frame.Flags[contracts.ButtonKey(i)] = i == sv.Button
			}

		case contracts.FieldRange:
			if buttonMode || spec.ByteIndex >= len(buf) {
				continue
			}
			frame.Values[key] = normalize(int(buf[spec.ByteIndex]), spec.Min, spec.Max)

		case contracts.FieldMultiByteRange:
			if buttonMode || !indicesInBounds(spec.ByteIndices, len(buf)) {
				continue
			}
			raw := 0
			for i, idx := range spec.ByteIndices {
				raw |= int(buf[idx]) << (8 * i)
			}
			frame.Values[key] = normalize(raw, spec.Min, spec.Max)

		case contracts.FieldBipolarRange:
			if buttonMode || spec.ByteIndex >= len(buf) {
				continue
			}
			if v, ok := decodeBipolar(int(buf[spec.ByteIndex]), spec); ok {
				frame.Values[key] = v
			}

		case contracts.FieldBitFlags:
			if !buttonMode || spec.ByteIndex >= len(buf) {
				continue
			}
			b := buf[spec.ByteIndex]
			// Every flag is reported, false included, so consumers can
			// detect releases.
			for i := 1; i <= spec.FlagCount(); i++ {
				frame.Flags[contracts.ButtonKey(i)] = b&(1<<(i-1)) != 0
			}
		}
	}

	return frame
}

// normalize maps raw in [min,max] to [0,1], clamping out-of-range samples.
func normalize(raw, min, max int) float64 {
	if raw <= min {
		return 0
	}
	if raw >= max {
		return 1
	}
	return float64(raw-min) / float64(max-min)
}

// decodeBipolar maps a byte holding a split signed magnitude to [-1,1].
// Bytes between the positive and negative sub-ranges are a dead zone and
// yield no value for this sample.
func decodeBipolar(raw int, spec contracts.FieldSpec) (float64, bool) {
	if raw <= spec.PositiveMax {
		return float64(raw) / float64(spec.PositiveMax), true
	}
	if raw >= spec.NegativeMax && raw < spec.NegativeMin {
		return -float64(spec.NegativeMin-raw) / float64(spec.NegativeMin-spec.NegativeMax), true
	}
	return 0, false
}

func indicesInBounds(indices []int, n int) bool {
	for _, idx := range indices {
		if idx >= n {
			return false
		}
	}
	return true
}
