package benchmark

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// The compiler reports phase boundaries and the compiled size through these stdout line prefixes.
const (
	startMarker = "/forc-perf start "
	stopMarker  = "/forc-perf stop "
	sizeMarker  = "/forc-perf size "
)

// ErrProtocolViolation means the compiler's output no longer matches the marker contract.
var ErrProtocolViolation = errors.New("compiler marker protocol violation")

type MarkerKind int

const (
	// Any line that isn't a marker.
	MarkerNone MarkerKind = iota
	MarkerStart
	MarkerStop
	MarkerSize
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerStart:
		return "start"
	case MarkerStop:
		return "stop"
	case MarkerSize:
		return "size"
	default:
		return "none"
	}
}

type Marker struct {
	Kind MarkerKind
	// Phase name for start and stop markers.
	Name string
	// Bytecode size in bytes for size markers.
	Size uint64
}

// ParseMarker classifies one line of compiler output. Leading whitespace before the marker is ignored and only
// trailing whitespace is trimmed from the payload.
func ParseMarker(line string) (Marker, error) {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)

	if payload, ok := markerPayload(line, startMarker); ok {
		return Marker{Kind: MarkerStart, Name: payload}, nil
	}
	if payload, ok := markerPayload(line, stopMarker); ok {
		return Marker{Kind: MarkerStop, Name: payload}, nil
	}
	if payload, ok := markerPayload(line, sizeMarker); ok {
		size, err := strconv.ParseUint(payload, 10, 64)
		if err != nil {
			return Marker{}, fmt.Errorf("%w: bad size %q: %w", ErrProtocolViolation, payload, err)
		}
		return Marker{Kind: MarkerSize, Size: size}, nil
	}
	return Marker{Kind: MarkerNone}, nil
}

func markerPayload(line, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(line, prefix)
	if !ok {
		return "", false
	}
	return strings.TrimRightFunc(rest, unicode.IsSpace), true
}
