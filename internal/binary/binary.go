// Package binary replaces the encoding/binary package in the standard library with
// generic helpers fixed to big-endian, the byte order the wire format mandates.
package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/constraints"
)

// Enc is the byte order used by every fixed-width field on the wire.
var Enc = binary.BigEndian

// Get gets any integer size from a []byte slice.
func Get[T constraints.Integer](b []byte) T {
	_ = b[len(b)-1] // bounds check hint to compiler; see golang.org/issue/14808

	var r T // This is only used for type detection.
	switch any(r).(type) {
	case int8:
		return T(int8(b[0]))
	case int16:
		return T(int16(uint16(b[1]) | uint16(b[0])<<8))
	case int32:
		return T(int32(uint32(b[3]) | uint32(b[2])<<8 | uint32(b[1])<<16 | uint32(b[0])<<24))
	case int64:
		return T(int64(uint64(b[7]) | uint64(b[6])<<8 | uint64(b[5])<<16 | uint64(b[4])<<24 |
			uint64(b[3])<<32 | uint64(b[2])<<40 | uint64(b[1])<<48 | uint64(b[0])<<56))
	case uint8:
		return T(uint8(b[0]))
	case uint16:
		return T(uint16(b[1]) | uint16(b[0])<<8)
	case uint32:
		return T(uint32(b[3]) | uint32(b[2])<<8 | uint32(b[1])<<16 | uint32(b[0])<<24)
	case uint64:
		return T(uint64(b[7]) | uint64(b[6])<<8 | uint64(b[5])<<16 | uint64(b[4])<<24 |
			uint64(b[3])<<32 | uint64(b[2])<<40 | uint64(b[1])<<48 | uint64(b[0])<<56)
	}
	panic(fmt.Sprintf("unsupported type that passed the type constraint %T", r))
}

// Put puts any integer size into a []byte slice, big-endian.
func Put[T constraints.Integer](b []byte, v T) {
	switch any(v).(type) {
	case int8, uint8:
		b[0] = byte(v)
		return
	case int16, uint16:
		Enc.PutUint16(b, uint16(v))
		return
	case int32, uint32:
		Enc.PutUint32(b, uint32(v))
		return
	}
	Enc.PutUint64(b, uint64(v))
}

// PutBuffer encodes an integer into the passed Buffer.
func PutBuffer[T constraints.Integer](buff *bytes.Buffer, v T) error {
	var b []byte
	switch any(v).(type) {
	case int8, uint8:
		b = make([]byte, 1)
	case int16, uint16:
		b = make([]byte, 2)
	case int32, uint32:
		b = make([]byte, 4)
	default:
		b = make([]byte, 8)
	}

	Put(b, v)
	_, err := buff.Write(b)
	return err
}
