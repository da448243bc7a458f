package contracts

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// FieldKind discriminates the closed set of field descriptor variants a
// layout may use. The decoder is a total switch over these kinds, so an
// unknown kind is a configuration error at load time, never a per-frame one.
type FieldKind string

const (
	// FieldStatus decodes a categorical byte through a value table.
	FieldStatus FieldKind = "status"
	// FieldRange decodes one byte as an unsigned linear value normalized to [0,1].
	FieldRange FieldKind = "range"
	// FieldMultiByteRange reassembles a little-endian value from two or more
	// bytes before normalizing it to [0,1].
	FieldMultiByteRange FieldKind = "multi-byte-range"
	// FieldBipolarRange decodes one byte holding a signed magnitude split
	// across two disjoint sub-ranges into a value in [-1,1].
	FieldBipolarRange FieldKind = "bipolar-range"
	// FieldBitFlags decodes up to eight independent booleans packed as bits.
	FieldBitFlags FieldKind = "bit-flags"
)

// Errors reported by layout validation.
var (
	ErrUnknownFieldKind  = errors.New("unknown field kind")
	ErrMissingValueTable = errors.New("status field requires a non-empty value table")
	ErrInvalidRange      = errors.New("range field requires max > min")
	ErrMissingByteIndex  = errors.New("field requires a non-negative byte index")
	ErrTooFewByteIndices = errors.New("multi-byte field requires at least two byte indices")
	ErrInvalidBipolar    = errors.New("bipolar field requires positiveMax > 0 and negativeMin > negativeMax")
	ErrInvalidFlagCount  = errors.New("bit-flags field requires a count between 0 and 8")
	ErrMultipleStatus    = errors.New("layout declares more than one status field")
)

// StatusValue is one entry of a status field's value table: the device state
// (or exclusive button index) selected when the raw byte matches, plus any
// auxiliary flags the entry asserts, e.g. primaryButtonPressed.
type StatusValue struct {
	State  DeviceState     `yaml:"state"`
	Button int             `yaml:"button"`
	Flags  map[string]bool `yaml:",inline"`
}

// FieldSpec is one field descriptor: a declarative rule describing how to
// extract one semantic value from a report. Which fields are meaningful
// depends on Kind; Validate enforces the per-kind requirements.
type FieldSpec struct {
	Kind FieldKind `yaml:"type"`

	ByteIndex   int   `yaml:"byteIndex"`
	ByteIndices []int `yaml:"byteIndices"`

	Min int `yaml:"min"`
	Max int `yaml:"max"`

	PositiveMax int `yaml:"positiveMax"`
	NegativeMin int `yaml:"negativeMin"`
	NegativeMax int `yaml:"negativeMax"`

	// Count is the number of flags or exclusive buttons, up to 8. Zero means 8.
	Count int `yaml:"buttonCount"`

	Values map[uint8]StatusValue `yaml:"values"`
}

// Layout is the byte layout specification for one device profile: the report
// id the specification applies to, the report id of the dedicated button
// interface on multi-interface devices (0 when the device has none), and the
// per-semantic-key field descriptors.
type Layout struct {
	ReportID       int                  `yaml:"reportId"`
	ButtonReportID int                  `yaml:"buttonReportId"`
	Fields         map[string]FieldSpec `yaml:"mappings"`
}

// ReportContext tells the decoder where a raw buffer came from.
type ReportContext struct {
	// ButtonInterface marks the buffer as read from a dedicated button
	// interface, regardless of the report id it carries.
	ButtonInterface bool
}

// ParseLayout unmarshals and validates a YAML layout document. A non-nil
// error means the profile is unusable; per-report decoding never fails.
func ParseLayout(doc []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(doc, &l); err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Validate checks every field descriptor against its kind's requirements and
// reports all problems at once. It is the single point where a malformed
// specification surfaces; decode assumes a validated layout.
func (l *Layout) Validate() error {
	var err error
	statusFields := 0
	for key, spec := range l.Fields {
		if ferr := spec.validate(); ferr != nil {
			err = multierr.Append(err, fmt.Errorf("field %q: %w", key, ferr))
		}
		if spec.Kind == FieldStatus && key != KeyButtons {
			statusFields++
		}
	}
	if statusFields > 1 {
		err = multierr.Append(err, ErrMultipleStatus)
	}
	return err
}

func (s FieldSpec) validate() error {
	if s.ByteIndex < 0 {
		return ErrMissingByteIndex
	}
	switch s.Kind {
	case FieldStatus:
		if len(s.Values) == 0 {
			return ErrMissingValueTable
		}
	case FieldRange:
		if s.Max <= s.Min {
			return ErrInvalidRange
		}
	case FieldMultiByteRange:
		if len(s.ByteIndices) < 2 {
			return ErrTooFewByteIndices
		}
		for _, idx := range s.ByteIndices {
			if idx < 0 {
				return ErrMissingByteIndex
			}
		}
		if s.Max <= s.Min {
			return ErrInvalidRange
		}
	case FieldBipolarRange:
		if s.PositiveMax <= 0 || s.NegativeMin <= s.NegativeMax {
			return ErrInvalidBipolar
		}
	case FieldBitFlags:
		if s.Count < 0 || s.Count > 8 {
			return ErrInvalidFlagCount
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFieldKind, s.Kind)
	}
	return nil
}

// FlagCount returns the number of flags or buttons the field carries,
// applying the default of 8.
func (s FieldSpec) FlagCount() int {
	if s.Count == 0 {
		return 8
	}
	return s.Count
}

// StatusField returns the layout's gating status descriptor, if declared.
// The button field's own value table does not gate and is excluded here.
func (l *Layout) StatusField() (string, FieldSpec, bool) {
	for key, spec := range l.Fields {
		if spec.Kind == FieldStatus && key != KeyButtons {
			return key, spec, true
		}
	}
	return "", FieldSpec{}, false
}
