// Package schema is the in-memory model of an IDL source file, its syntactic
// validation, and the YAML front-end that parses it. Shaped after claw's
// internal/idl package: a File holding Structs and their fields, a two-pass
// parse-then-validate structure, and per-symbol duplicate-name checks.
package schema

import "github.com/mvp-express/the-framework/internal/field"

// Schema is the parsed, not-yet-id-assigned model of one IDL source file.
type Schema struct {
	Service  Service
	Messages []Message
}

// Service describes the single service declared by a schema file.
type Service struct {
	Name string
	// ID is the schema-supplied explicit id, or -1 if unset.
	ID      int
	Methods []Method
}

// Method is one RPC operation on a Service.
type Method struct {
	Name string
	// ID is the schema-supplied explicit id, or -1 if unset.
	ID       int
	Request  string // message name
	Response string // message name
}

// Message is a named record type with an ordered field list.
type Message struct {
	Name string
	// ID is the schema-supplied explicit id, or -1 if unset.
	ID     int
	Fields []Field
}

// Field is one member of a Message, in declared order.
type Field struct {
	Name     string
	Type     field.Type
	Optional bool
	// Default is the literal default value text from the schema, or "" if absent.
	Default string
}

// UnsetID is the sentinel for "schema left the id unset" across Service, Method, and
// Message. A negative id means absent.
const UnsetID = -1
