// Package notes converts between sharp-notation pitch names and MIDI note
// numbers, e.g. "c#4" <-> 61. Octaves follow the MIDI convention where
// note 0 is c-1 and middle C ("c4") is 60.
package notes

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var sharpNotations = [12]string{"c", "c#", "d", "d#", "e", "f", "f#", "g", "g#", "a", "a#", "b"}

// ErrInvalidNotation is returned for strings that do not name a note.
var ErrInvalidNotation = errors.New("invalid note notation")

// StringToNote parses a sharp-notation pitch name like "a#3" or "C4" into a
// MIDI note number.
func StringToNote(s string) (uint8, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if len(name) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNotation, s)
	}

	notation := name[:1]
	rest := name[1:]
	if strings.HasPrefix(rest, "#") {
		notation += "#"
		rest = rest[1:]
	}
	idx := notationIndex(notation)
	if idx < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNotation, s)
	}

	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNotation, s)
	}
	note := (octave+1)*12 + idx
	if note < 0 || note > 127 {
		return 0, fmt.Errorf("%w: %q is out of MIDI range", ErrInvalidNotation, s)
	}
	return uint8(note), nil
}

// NoteToString renders a MIDI note number as its sharp-notation name.
func NoteToString(note uint8) string {
	notation := sharpNotations[note%12]
	octave := int(note)/12 - 1
	return notation + strconv.Itoa(octave)
}

// Transpose shifts a note by a number of semitones, clamping to MIDI range.
func Transpose(note uint8, semitones int) uint8 {
	shifted := int(note) + semitones
	if shifted < 0 {
		shifted = 0
	}
	if shifted > 127 {
		shifted = 127
	}
	return uint8(shifted)
}

func notationIndex(notation string) int {
	for i, n := range sharpNotations {
		if n == notation {
			return i
		}
	}
	return -1
}
