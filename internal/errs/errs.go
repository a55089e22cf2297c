// Package errs provides the error taxonomy for the framework. It wraps
// github.com/gostdlib/base/errors the same way claw's languages/go/errors package
// wraps it, so every error is classifiable by Category and Type instead of by
// matching error strings.
package errs

import (
	"github.com/gostdlib/base/context"
	"github.com/gostdlib/base/errors"
)

//go:generate stringer -type=Category -linecomment

// Category is the coarse classification of an error.
type Category uint32

func (c Category) Category() string { return c.String() }

const (
	// CatUnknown should never be used; it indicates a caller forgot to classify.
	CatUnknown Category = Category(0) // Unknown
	// CatUser indicates the error was caused by bad caller/schema input.
	CatUser Category = Category(1) // User
	// CatInternal indicates an internal invariant was violated.
	CatInternal Category = Category(2) // Internal
)

func (c Category) String() string {
	switch c {
	case CatUser:
		return "User"
	case CatInternal:
		return "Internal"
	}
	return "Unknown"
}

//go:generate stringer -type=Type -linecomment

// Type is the fine-grained classification of an error, grouped by taxonomy:
// CodecError, PoolError, SchemaError, IdError, IoError.
type Type uint16

func (t Type) Type() string { return t.String() }

const (
	TypeUnknown Type = Type(0) // Unknown

	// CodecError
	TypeUnregisteredMessage Type = Type(100) // UnregisteredMessage
	TypeUnknownMessageID    Type = Type(101) // UnknownMessageId
	TypeUnsupportedField    Type = Type(102) // UnsupportedField
	TypeTruncatedPayload    Type = Type(103) // TruncatedPayload
	TypeCorruptedPayload    Type = Type(104) // CorruptedPayload
	TypeInvalidUTF8         Type = Type(105) // InvalidUtf8

	// PoolError
	TypePoolClosed     Type = Type(200) // PoolClosed
	TypeForeignSegment Type = Type(201) // ForeignSegment

	// SchemaError
	TypeMissingField            Type = Type(300) // MissingField
	TypeUnknownFieldType        Type = Type(301) // UnknownFieldType
	TypeDuplicateMethodID       Type = Type(302) // DuplicateMethodId
	TypeDuplicateMessageName    Type = Type(303) // DuplicateMessageName
	TypeUndefinedMessageRef     Type = Type(304) // UndefinedMessageReference
	TypeSchemaValidation        Type = Type(305) // SchemaValidation

	// IdError
	TypeOutOfRange         Type = Type(400) // OutOfRange
	TypeAlreadyInUse       Type = Type(401) // AlreadyInUse
	TypeTombstoned         Type = Type(402) // Tombstoned
	TypeLockDrift          Type = Type(403) // LockDrift
	TypeMissingInCheckMode Type = Type(404) // MissingInLockCheckMode
	TypeAliasCycle         Type = Type(405) // AliasCycle
	TypeProbeExhausted     Type = Type(406) // ProbeExhausted

	// IoError
	TypeIO Type = Type(500) // Io
)

func (t Type) String() string {
	switch t {
	case TypeUnregisteredMessage:
		return "UnregisteredMessage"
	case TypeUnknownMessageID:
		return "UnknownMessageId"
	case TypeUnsupportedField:
		return "UnsupportedField"
	case TypeTruncatedPayload:
		return "TruncatedPayload"
	case TypeCorruptedPayload:
		return "CorruptedPayload"
	case TypeInvalidUTF8:
		return "InvalidUtf8"
	case TypePoolClosed:
		return "PoolClosed"
	case TypeForeignSegment:
		return "ForeignSegment"
	case TypeMissingField:
		return "MissingField"
	case TypeUnknownFieldType:
		return "UnknownFieldType"
	case TypeDuplicateMethodID:
		return "DuplicateMethodId"
	case TypeDuplicateMessageName:
		return "DuplicateMessageName"
	case TypeUndefinedMessageRef:
		return "UndefinedMessageReference"
	case TypeSchemaValidation:
		return "SchemaValidation"
	case TypeOutOfRange:
		return "OutOfRange"
	case TypeAlreadyInUse:
		return "AlreadyInUse"
	case TypeTombstoned:
		return "Tombstoned"
	case TypeLockDrift:
		return "LockDrift"
	case TypeMissingInCheckMode:
		return "MissingInLockCheckMode"
	case TypeAliasCycle:
		return "AliasCycle"
	case TypeProbeExhausted:
		return "ProbeExhausted"
	case TypeIO:
		return "Io"
	}
	return "Unknown"
}

// LogAttrer is implemented by errors that can contribute structured logging attributes.
type LogAttrer = errors.LogAttrer

// Error is this framework's error type. It implements github.com/gostdlib/base/errors.E.
type Error = errors.Error

// EOption is an optional argument to E().
type EOption = errors.EOption

// E creates a new classified Error, for build-time call sites that have
// a context: lockfile load/save, schema parse/validate, code emission.
func E(ctx context.Context, c Category, t Type, msg error, options ...EOption) Error {
	opts := make([]EOption, 0, len(options)+1)
	opts = append(opts, errors.WithCallNum(2))
	opts = append(opts, options...)
	return errors.E(ctx, errors.Category(c), errors.Type(t), msg, opts...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// Hot is a lightweight classified error for the codec and pool hot paths, which
// run with no context and must not allocate beyond the error itself. It carries the
// same Category/Type taxonomy as E but skips context propagation and call-stack capture.
type Hot struct {
	Cat Category
	Typ Type
	Msg string
}

func (h *Hot) Error() string { return h.Msg }

// Category implements the LogAttrer-adjacent classification contract used by E.
func (h *Hot) Category() string { return h.Cat.String() }

// Type implements the LogAttrer-adjacent classification contract used by E.
func (h *Hot) Type() string { return h.Typ.String() }

// New builds a Hot error of the given classification.
func New(c Category, t Type, msg string) *Hot {
	return &Hot{Cat: c, Typ: t, Msg: msg}
}
