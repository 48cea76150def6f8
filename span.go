package solgraph

import (
	"fmt"
	"strconv"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// Span is a decoded source location in compiler form: a byte offset, a byte
// length, and the index of the file the offset counts into. The compiler
// encodes it as "start:length:fileIndex"; every node's src attribute and
// every nameLocations entry use this shape.
//
// FileIndex may be negative: the compiler emits -1 for generated code with
// no source file. Such spans decode fine but fail file-index resolution.
type Span struct {
	Start     int `json:"start"`
	Length    int `json:"length"`
	FileIndex int `json:"fileIndex"`
}

// ParseSpan decodes a "start:length:fileIndex" string. Anything other than
// exactly three colon-separated integers fails with ErrMalformedSpan.
func ParseSpan(src string) (Span, error) {
	parts := strings.Split(src, ":")
	if len(parts) != 3 {
		return Span{}, errors.Errorf("%w: %q has %d fields, want start:length:fileIndex", ErrMalformedSpan, src, len(parts))
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return Span{}, errors.Errorf("%w: %q: start is not an integer", ErrMalformedSpan, src)
	}
	length, err := strconv.Atoi(parts[1])
	if err != nil {
		return Span{}, errors.Errorf("%w: %q: length is not an integer", ErrMalformedSpan, src)
	}
	fileIndex, err := strconv.Atoi(parts[2])
	if err != nil {
		return Span{}, errors.Errorf("%w: %q: file index is not an integer", ErrMalformedSpan, src)
	}
	return Span{Start: start, Length: length, FileIndex: fileIndex}, nil
}

// End returns the exclusive end offset, Start+Length.
func (s Span) End() int {
	return s.Start + s.Length
}

// Contains reports whether the byte offset falls inside the half-open
// interval [Start, End).
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End()
}

// String re-encodes the span in compiler form. ParseSpan(s.String()) == s
// for every span.
func (s Span) String() string {
	return fmt.Sprintf("%d:%d:%d", s.Start, s.Length, s.FileIndex)
}
