package myra

import (
	"fmt"
	"hash/fnv"
	"math"
	"reflect"
	"unicode/utf8"

	"github.com/mvp-express/the-framework/envelope"
	ibinary "github.com/mvp-express/the-framework/internal/binary"
	"github.com/mvp-express/the-framework/internal/conversions"
	"github.com/mvp-express/the-framework/internal/errs"
	"github.com/mvp-express/the-framework/internal/field"
)

// lengthPrefixSize is the size of the payload_length prefix.
const lengthPrefixSize = 4

// checksumSize is the size of the trailing checksum.
const checksumSize = 4

// checksum is the wire-version-1 32-bit checksum: FNV-1a, chosen because the
// allocator already pulls in hash/fnv and the exact function is implementation
// defined so long as both sides agree and it never changes for this wire version.
// It covers everything after the reserved length prefix.
func checksum(b []byte) uint32 {
	h := fnv.New32a()
	h.Write(b)
	return h.Sum32()
}

// Encode writes v's registered record into e's payload region.
func Encode(reg *Registry, v any, e *envelope.Envelope) error {
	id, _, ok := reg.IDByType(v)
	if !ok {
		return errs.New(errs.CatUser, errs.TypeUnregisteredMessage, "myra: encoding an unregistered message type")
	}
	e.SetMethodID(uint16(id))

	payload, err := e.Payload()
	if err != nil {
		return err
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	layout, err := layoutFor(rv.Type())
	if err != nil {
		return err
	}

	w := &writer{buf: payload}
	if err := w.advance(lengthPrefixSize); err != nil {
		return err
	}
	fieldsStart := w.off

	for i, f := range layout.Fields {
		fv := layout.get(rv, i)
		if err := encodeField(w, f, fv); err != nil {
			return err
		}
	}

	payloadLength := w.off - fieldsStart
	ibinary.Put(payload[0:lengthPrefixSize], uint32(payloadLength))

	sum := checksum(payload[fieldsStart:w.off])
	if err := w.advance(checksumSize); err != nil {
		return err
	}
	ibinary.Put(payload[w.off-checksumSize:w.off], sum)

	e.SetLength(uint16(envelope.HeaderSize + w.off))
	return nil
}

// Decode reads e's payload region back into a new instance of its registered record
// type.
func Decode(reg *Registry, e *envelope.Envelope) (any, error) {
	t, _, ok := reg.TypeByID(uint32(e.MethodID()))
	if !ok {
		return nil, errs.New(errs.CatUser, errs.TypeUnknownMessageID, fmt.Sprintf("myra: unknown message id %d", e.MethodID()))
	}

	payload, err := e.Payload()
	if err != nil {
		return nil, err
	}
	if len(payload) < lengthPrefixSize {
		return nil, errs.New(errs.CatUser, errs.TypeTruncatedPayload, "myra: payload too small to hold the length prefix")
	}

	payloadLength := ibinary.Get[uint32](payload[0:lengthPrefixSize])
	remaining := len(payload) - lengthPrefixSize
	if int(payloadLength)+checksumSize > remaining {
		return nil, errs.New(errs.CatUser, errs.TypeTruncatedPayload, "myra: payload_length exceeds available bytes")
	}

	fieldsRegion := payload[lengthPrefixSize : lengthPrefixSize+int(payloadLength)]
	checksumRegion := payload[lengthPrefixSize+int(payloadLength) : lengthPrefixSize+int(payloadLength)+checksumSize]

	want := ibinary.Get[uint32](checksumRegion)
	if got := checksum(fieldsRegion); got != want {
		return nil, errs.New(errs.CatUser, errs.TypeCorruptedPayload, "myra: checksum mismatch")
	}

	layout, err := layoutFor(t)
	if err != nil {
		return nil, err
	}

	rv := layout.new()
	r := &reader{buf: fieldsRegion}
	for i, f := range layout.Fields {
		if err := decodeField(r, f, layout.get(rv, i)); err != nil {
			return nil, err
		}
	}

	return rv.Addr().Interface(), nil
}

type writer struct {
	buf []byte
	off int
}

func (w *writer) advance(n int) error {
	if w.off+n > len(w.buf) {
		return errs.New(errs.CatUser, errs.TypeOutOfRange, "myra: record does not fit in the allocated payload")
	}
	w.off += n
	return nil
}

func (w *writer) writeByte(b byte) error {
	if err := w.advance(1); err != nil {
		return err
	}
	w.buf[w.off-1] = b
	return nil
}

func (w *writer) writeBytes(b []byte) error {
	start := w.off
	if err := w.advance(len(b)); err != nil {
		return err
	}
	copy(w.buf[start:w.off], b)
	return nil
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) take(n int) ([]byte, error) {
	if r.off+n > len(r.buf) {
		return nil, errs.New(errs.CatUser, errs.TypeTruncatedPayload, "myra: field extends past the declared payload region")
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func encodeField(w *writer, f FieldDesc, v reflect.Value) error {
	if f.Optional {
		if v.IsNil() {
			return w.writeByte(0)
		}
		if err := w.writeByte(1); err != nil {
			return err
		}
		v = v.Elem()
	}

	switch f.Type {
	case field.Bool:
		b := byte(0)
		if v.Bool() {
			b = 1
		}
		return w.writeByte(b)
	case field.Int8:
		return w.writeByte(byte(int8(v.Int())))
	case field.Int16:
		b := make([]byte, 2)
		ibinary.Put(b, int16(v.Int()))
		return w.writeBytes(b)
	case field.Int32:
		b := make([]byte, 4)
		ibinary.Put(b, int32(v.Int()))
		return w.writeBytes(b)
	case field.Int64:
		b := make([]byte, 8)
		ibinary.Put(b, v.Int())
		return w.writeBytes(b)
	case field.Float32:
		b := make([]byte, 4)
		ibinary.Put(b, math.Float32bits(float32(v.Float())))
		return w.writeBytes(b)
	case field.Float64:
		b := make([]byte, 8)
		ibinary.Put(b, math.Float64bits(v.Float()))
		return w.writeBytes(b)
	case field.Bytes:
		raw := v.Bytes()
		lb := make([]byte, 4)
		ibinary.Put(lb, uint32(len(raw)))
		if err := w.writeBytes(lb); err != nil {
			return err
		}
		return w.writeBytes(raw)
	case field.String:
		s := v.String()
		raw := conversions.UnsafeGetBytes(s)
		lb := make([]byte, 4)
		ibinary.Put(lb, uint32(len(raw)))
		if err := w.writeBytes(lb); err != nil {
			return err
		}
		return w.writeBytes(raw)
	}
	return errs.New(errs.CatInternal, errs.TypeUnsupportedField, fmt.Sprintf("myra: unsupported field type %s", f.Type))
}

func decodeField(r *reader, f FieldDesc, dst reflect.Value) error {
	if f.Optional {
		presence, err := r.take(1)
		if err != nil {
			return err
		}
		if presence[0] == 0 {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		dst.Set(reflect.New(dst.Type().Elem()))
		dst = dst.Elem()
	}

	switch f.Type {
	case field.Bool:
		b, err := r.take(1)
		if err != nil {
			return err
		}
		dst.SetBool(b[0] != 0)
	case field.Int8:
		b, err := r.take(1)
		if err != nil {
			return err
		}
		dst.SetInt(int64(int8(b[0])))
	case field.Int16:
		b, err := r.take(2)
		if err != nil {
			return err
		}
		dst.SetInt(int64(ibinary.Get[int16](b)))
	case field.Int32:
		b, err := r.take(4)
		if err != nil {
			return err
		}
		dst.SetInt(int64(ibinary.Get[int32](b)))
	case field.Int64:
		b, err := r.take(8)
		if err != nil {
			return err
		}
		dst.SetInt(ibinary.Get[int64](b))
	case field.Float32:
		b, err := r.take(4)
		if err != nil {
			return err
		}
		dst.SetFloat(float64(math.Float32frombits(ibinary.Get[uint32](b))))
	case field.Float64:
		b, err := r.take(8)
		if err != nil {
			return err
		}
		dst.SetFloat(math.Float64frombits(ibinary.Get[uint64](b)))
	case field.Bytes:
		lb, err := r.take(4)
		if err != nil {
			return err
		}
		l := ibinary.Get[uint32](lb)
		b, err := r.take(int(l))
		if err != nil {
			return err
		}
		dst.SetBytes(b)
	case field.String:
		lb, err := r.take(4)
		if err != nil {
			return err
		}
		l := ibinary.Get[uint32](lb)
		b, err := r.take(int(l))
		if err != nil {
			return err
		}
		if !utf8.Valid(b) {
			return errs.New(errs.CatUser, errs.TypeInvalidUTF8, "myra: string field is not valid UTF-8")
		}
		dst.SetString(conversions.ByteSlice2String(b))
	default:
		return errs.New(errs.CatInternal, errs.TypeUnsupportedField, fmt.Sprintf("myra: unsupported field type %s", f.Type))
	}
	return nil
}
