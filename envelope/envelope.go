// Package envelope implements the fixed-header frame wrapping a MYRA payload.
// The accessor style follows claw's header.Generic pattern
// (languages/go/structs/header), a thin typed view over a fixed byte prefix of a
// pooled buffer; flag bits reuse claw's internal/bits bit-packing helpers instead
// of its header package's wider bit-packed field layout, since this header is
// byte-aligned rather than bit-packed.
package envelope

import (
	"github.com/mvp-express/the-framework/internal/bits"
	ibinary "github.com/mvp-express/the-framework/internal/binary"
	"github.com/mvp-express/the-framework/internal/errs"
	"github.com/mvp-express/the-framework/pool"
)

// HeaderSize is the fixed frame header size in bytes.
const HeaderSize = 29

const (
	offLength        = 0
	offMethodID      = 2
	offCorrelationID = 4
	offTraceID       = 12
	offFlags         = 28
)

const (
	flagHasTrace   uint8 = 0
	flagIsResponse uint8 = 1
	flagHasError   uint8 = 2
)

// Envelope is a view over a pooled Segment with the first HeaderSize bytes
// interpreted as the header and the remainder as payload. Single-owner,
// non-shared, bounded by the backing Segment's lease.
type Envelope struct {
	seg      *pool.Segment
	released bool
}

// Allocate acquires a segment sized HeaderSize+payloadSize from p and returns an
// Envelope owning that lease.
func Allocate(payloadSize int, p *pool.Pool) (*Envelope, error) {
	seg, err := p.AcquireSize(HeaderSize + payloadSize)
	if err != nil {
		return nil, err
	}
	e := &Envelope{seg: seg}
	e.SetLength(uint16(HeaderSize + payloadSize))
	return e, nil
}

// Wrap views an existing Segment as an Envelope without acquiring anything new; used
// on read paths where bytes were placed by an I/O layer outside this package.
func Wrap(seg *pool.Segment) (*Envelope, error) {
	if seg.Size() < HeaderSize {
		return nil, errs.New(errs.CatUser, errs.TypeTruncatedPayload, "envelope: segment smaller than header size")
	}
	return &Envelope{seg: seg}, nil
}

// Release returns the backing Segment to its owning pool. After Release, all
// header/payload accessors fail.
func (e *Envelope) Release() error {
	if e.released {
		return nil
	}
	e.released = true
	return e.seg.Release()
}

func (e *Envelope) header() []byte {
	if e.released {
		panic("envelope: accessor called after Release")
	}
	return e.seg.Bytes()[:HeaderSize]
}

// Length returns the total frame size in bytes (header + payload).
func (e *Envelope) Length() uint16 {
	return ibinary.Get[uint16](e.header()[offLength : offLength+2])
}

// SetLength sets the total frame size in bytes.
func (e *Envelope) SetLength(v uint16) {
	ibinary.Put(e.header()[offLength:offLength+2], v)
}

// MethodID returns the unsigned method selector.
func (e *Envelope) MethodID() uint16 {
	return ibinary.Get[uint16](e.header()[offMethodID : offMethodID+2])
}

// SetMethodID sets the unsigned method selector.
func (e *Envelope) SetMethodID(v uint16) {
	ibinary.Put(e.header()[offMethodID:offMethodID+2], v)
}

// CorrelationID returns the caller-assigned request/response match token.
func (e *Envelope) CorrelationID() uint64 {
	return ibinary.Get[uint64](e.header()[offCorrelationID : offCorrelationID+8])
}

// SetCorrelationID sets the caller-assigned request/response match token.
func (e *Envelope) SetCorrelationID(v uint64) {
	ibinary.Put(e.header()[offCorrelationID:offCorrelationID+8], v)
}

// TraceID returns the 16-byte trace identifier and whether it is present (HasTrace).
func (e *Envelope) TraceID() (id [16]byte, ok bool) {
	if !e.HasTrace() {
		return id, false
	}
	copy(id[:], e.header()[offTraceID:offTraceID+16])
	return id, true
}

// SetTraceID sets the 16-byte trace identifier and the HasTrace flag.
func (e *Envelope) SetTraceID(id [16]byte) {
	copy(e.header()[offTraceID:offTraceID+16], id[:])
	e.setFlag(flagHasTrace, true)
}

// HasTrace reports flag bit 0.
func (e *Envelope) HasTrace() bool { return bits.GetBit(e.flagsByte(), flagHasTrace) }

// IsResponse reports flag bit 1.
func (e *Envelope) IsResponse() bool { return bits.GetBit(e.flagsByte(), flagIsResponse) }

// SetIsResponse sets flag bit 1.
func (e *Envelope) SetIsResponse(v bool) { e.setFlag(flagIsResponse, v) }

// HasError reports flag bit 2.
func (e *Envelope) HasError() bool { return bits.GetBit(e.flagsByte(), flagHasError) }

// SetHasError sets flag bit 2.
func (e *Envelope) SetHasError(v bool) { e.setFlag(flagHasError, v) }

func (e *Envelope) flagsByte() uint8 { return e.header()[offFlags] }

func (e *Envelope) setFlag(pos uint8, v bool) {
	e.header()[offFlags] = bits.SetBit(e.header()[offFlags], pos, v)
}

// Payload returns a zero-copy view of bytes [HeaderSize, Length). Requires
// Length >= HeaderSize.
func (e *Envelope) Payload() ([]byte, error) {
	l := e.Length()
	if l < HeaderSize {
		return nil, errs.New(errs.CatUser, errs.TypeTruncatedPayload, "envelope: length is smaller than the header")
	}
	return e.seg.Bytes()[HeaderSize:l], nil
}

// Segment returns the backing Segment, for transports outside this package that need
// to write/read raw bytes directly.
func (e *Envelope) Segment() *pool.Segment { return e.seg }
