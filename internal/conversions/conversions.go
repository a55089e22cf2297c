// Package conversions is a set of unsafe zero-copy conversions between strings and
// byte slices.
package conversions

import (
	"reflect"
	"unsafe"
)

// ByteSlice2String coverts bs to a string. It is no longer safe to use bs after this.
// This prevents having to make a copy of bs.
func ByteSlice2String(bs []byte) string {
	return *(*string)(unsafe.Pointer(&bs))
}

// UnsafeGetBytes retrieves the underlying []byte held in string "s" without doing
// a copy. Do not modify the []byte or suffer the consequences.
func UnsafeGetBytes(s string) []byte {
	if s == "" {
		return nil
	}
	return (*[0x7fff0000]byte)(unsafe.Pointer(
		(*reflect.StringHeader)(unsafe.Pointer(&s)).Data),
	)[:len(s):len(s)]
}
