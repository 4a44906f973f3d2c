package sfnt

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// ErrInvalidFontData is returned if the font is malformed.
var ErrInvalidFontData = fmt.Errorf("invalid font data")

// ErrBusy is returned when a session is opened on an engine that already has an open session.
var ErrBusy = fmt.Errorf("engine already has an open session")

// ErrClosed is returned when a closed session is used.
var ErrClosed = fmt.Errorf("session closed")

var epoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)

func calcChecksum(b []byte) uint32 {
	if len(b)%4 != 0 {
		panic("data not multiple of four bytes")
	}
	var sum uint32
	for i := 0; i < len(b); i += 4 {
		sum += binary.BigEndian.Uint32(b[i : i+4])
	}
	return sum
}

// Uint16ToFlags converts a uint16 in 16 booleans from least to most significant.
func Uint16ToFlags(v uint16) (flags [16]bool) {
	for i := 0; i < 16; i++ {
		flags[i] = v&(1<<i) != 0
	}
	return
}

func flagsToUint16(flags [16]bool) (v uint16) {
	for i := 0; i < 16; i++ {
		if flags[i] {
			v |= 1 << i
		}
	}
	return
}

// longDateTime returns the number of seconds since 1904-01-01 as used in the head table.
func longDateTime(t time.Time) int64 {
	if t.IsZero() || t.Before(epoch) {
		return 0
	}
	return int64(t.UTC().Sub(epoch) / time.Second)
}

// toFUnit rounds a coordinate to font units, clamping to the int16 range.
func toFUnit(v float64) int16 {
	v = math.Round(v)
	if v < math.MinInt16 {
		return math.MinInt16
	} else if math.MaxInt16 < v {
		return math.MaxInt16
	}
	return int16(v)
}

// toFixed converts to a 16.16 fixed-point number.
func toFixed(v float64) uint32 {
	return uint32(int32(math.Round(v * (1 << 16))))
}
