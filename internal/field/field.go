// Package field holds the closed set of logical field types the MYRA codec and the
// schema model both key off of.
package field

import (
	"fmt"
	"strings"
)

//go:generate stringer -type=Type

// Type represents the logical type of a MYRA field.
type Type uint8

const (
	Unknown Type = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
	String
	Bytes
	// Record is a nested, registered message type. v1 codecs may reject it.
	Record
)

// named lists the IDL-facing type names accepted by the schema front-end.
// Lookups are case-insensitive.
var named = map[string]Type{
	"bool":    Bool,
	"boolean": Bool,
	"int8":    Int8,
	"i8":      Int8,
	"int16":   Int16,
	"i16":     Int16,
	"int32":   Int32,
	"i32":     Int32,
	"int64":   Int64,
	"i64":     Int64,
	"float":   Float32,
	"float32": Float32,
	"f32":     Float32,
	"double":  Float64,
	"float64": Float64,
	"f64":     Float64,
	"string":  String,
	"bytes":   Bytes,
}

// ParseType resolves an IDL type name to its logical Type. Names not in the closed
// set return Unknown and an unclassified error.
func ParseType(name string) (Type, error) {
	t, ok := named[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Unknown, fmt.Errorf("unsupported field type %q", name)
	}
	return t, nil
}

func (t Type) String() string {
	switch t {
	case Bool:
		return "Bool"
	case Int8:
		return "Int8"
	case Int16:
		return "Int16"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	case String:
		return "String"
	case Bytes:
		return "Bytes"
	case Record:
		return "Record"
	}
	return "Unknown"
}

// FixedWidth reports whether a type has a statically known wire width (i.e. is not
// length-prefixed).
func (t Type) FixedWidth() (width int, ok bool) {
	switch t {
	case Bool, Int8:
		return 1, true
	case Int16:
		return 2, true
	case Int32, Float32:
		return 4, true
	case Int64, Float64:
		return 8, true
	}
	return 0, false
}
