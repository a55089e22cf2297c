// Package myra implements the MYRA binary codec: encode/decode of a
// language-level record into an Envelope's payload region, backed by a per-type
// layout cache so steady-state encode/decode never re-introspects a type.
//
// The accessor-cache shape follows claw's languages/go/structs.Struct +
// languages/go/mapping.Map pair: a Struct never re-derives its field layout, it
// carries a *mapping.Map built once. Here the same idea is expressed over ordinary Go
// structs via a reflect-built RecordLayout cached by type: per-type reflection once,
// then a layout cache of accessors for every subsequent encode/decode.
package myra

import (
	"reflect"
	"sync"

	"github.com/mvp-express/the-framework/internal/errs"
)

// Registry is a bidirectional mapping of message ID <-> Go type, plus a display
// name, append-only within a process lifetime. The zero value is ready to use.
type Registry struct {
	mu     sync.RWMutex
	byID   map[uint32]entry
	byType map[reflect.Type]entry
}

type entry struct {
	id   uint32
	typ  reflect.Type
	name string
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[uint32]entry),
		byType: make(map[reflect.Type]entry),
	}
}

// Register associates messageID with the type of exemplar and a display name. It is
// an error to register an ID or a type more than once.
//
// Registration establishes a happens-before relationship with any later TypeByID or
// IDByType call that observes it: callers must register all message types before encode/decode is
// invoked concurrently from other goroutines.
func (r *Registry) Register(messageID uint32, exemplar any, name string) error {
	t := reflect.TypeOf(exemplar)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byID == nil {
		r.byID = make(map[uint32]entry)
		r.byType = make(map[reflect.Type]entry)
	}
	if _, ok := r.byID[messageID]; ok {
		return errs.New(errs.CatUser, errs.TypeAlreadyInUse, "myra: message id already registered")
	}
	if _, ok := r.byType[t]; ok {
		return errs.New(errs.CatUser, errs.TypeAlreadyInUse, "myra: type already registered")
	}

	e := entry{id: messageID, typ: t, name: name}
	r.byID[messageID] = e
	r.byType[t] = e
	return nil
}

// TypeByID resolves a message ID to its registered reflect.Type and display name.
func (r *Registry) TypeByID(messageID uint32) (t reflect.Type, name string, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[messageID]
	if !ok {
		return nil, "", false
	}
	return e.typ, e.name, true
}

// IDByType resolves a registered type to its message ID and display name.
func (r *Registry) IDByType(v any) (id uint32, name string, ok bool) {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byType[t]
	if !ok {
		return 0, "", false
	}
	return e.id, e.name, true
}
