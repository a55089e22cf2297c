package myra

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/mvp-express/the-framework/internal/errs"
	"github.com/mvp-express/the-framework/internal/field"
)

// FieldDesc describes one field of a RecordLayout, in declared order.
type FieldDesc struct {
	Name     string
	Type     field.Type
	Optional bool
	// index is the Go struct field index backing this logical field.
	index int
}

// RecordLayout is the cached, per-type field order and accessor descriptor set a
// registered message type resolves to. Built lazily on first use from
// struct tags of the form `myra:"<n>"` or `myra:"<n>,optional"`, where n is the
// declared field position; thereafter read-only.
type RecordLayout struct {
	typ    reflect.Type
	Fields []FieldDesc
}

// get reads field i's value out of a struct value of this layout's type.
func (l *RecordLayout) get(v reflect.Value, i int) reflect.Value {
	return v.Field(l.Fields[i].index)
}

// new constructs a zero-value addressable instance of this layout's record type.
func (l *RecordLayout) new() reflect.Value {
	return reflect.New(l.typ).Elem()
}

var (
	layoutCacheMu sync.RWMutex
	layoutCache   = map[reflect.Type]*RecordLayout{}
)

// layoutFor returns the cached RecordLayout for t, building it via reflection on
// first use. Subsequent encode/decode for the same type never re-introspects.
func layoutFor(t reflect.Type) (*RecordLayout, error) {
	layoutCacheMu.RLock()
	l, ok := layoutCache[t]
	layoutCacheMu.RUnlock()
	if ok {
		return l, nil
	}

	layoutCacheMu.Lock()
	defer layoutCacheMu.Unlock()
	// A second insertion racing us to the write lock is a benign no-op.
	if l, ok := layoutCache[t]; ok {
		return l, nil
	}

	built, err := buildLayout(t)
	if err != nil {
		return nil, err
	}
	layoutCache[t] = built
	return built, nil
}

// clearCache drops all cached layouts. Diagnostic use only; in steady state it is
// never called.
func clearCache() {
	layoutCacheMu.Lock()
	defer layoutCacheMu.Unlock()
	layoutCache = map[reflect.Type]*RecordLayout{}
}

func buildLayout(t reflect.Type) (*RecordLayout, error) {
	type ordered struct {
		desc FieldDesc
		pos  int
	}
	var entries []ordered

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup("myra")
		if !ok {
			continue
		}
		parts := strings.Split(tag, ",")
		pos, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, errs.New(errs.CatInternal, errs.TypeUnsupportedField,
				fmt.Sprintf("myra: field %s has invalid myra tag position %q", sf.Name, parts[0]))
		}
		optional := false
		ft := sf.Type
		if ft.Kind() == reflect.Ptr {
			optional = true
			ft = ft.Elem()
		}
		for _, p := range parts[1:] {
			if strings.TrimSpace(p) == "optional" {
				optional = true
			}
		}

		ltype, err := goKindToFieldType(ft)
		if err != nil {
			return nil, errs.New(errs.CatInternal, errs.TypeUnsupportedField,
				fmt.Sprintf("myra: field %s: %s", sf.Name, err))
		}

		entries = append(entries, ordered{
			desc: FieldDesc{Name: sf.Name, Type: ltype, Optional: optional, index: i},
			pos:  pos,
		})
	}

	// Declared order is the tag position, not Go struct declaration order.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].pos < entries[j-1].pos; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}

	fields := make([]FieldDesc, len(entries))
	for i, e := range entries {
		fields[i] = e.desc
	}

	return &RecordLayout{typ: t, Fields: fields}, nil
}

func goKindToFieldType(t reflect.Type) (field.Type, error) {
	switch t.Kind() {
	case reflect.Bool:
		return field.Bool, nil
	case reflect.Int8:
		return field.Int8, nil
	case reflect.Int16:
		return field.Int16, nil
	case reflect.Int32:
		return field.Int32, nil
	case reflect.Int64:
		return field.Int64, nil
	case reflect.Float32:
		return field.Float32, nil
	case reflect.Float64:
		return field.Float64, nil
	case reflect.String:
		return field.String, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return field.Bytes, nil
		}
	}
	return field.Unknown, fmt.Errorf("unsupported Go type %s for a MYRA field", t)
}
