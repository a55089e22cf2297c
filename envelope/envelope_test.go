package envelope

import (
	"testing"

	"github.com/mvp-express/the-framework/pool"
)

func newPool() *pool.Pool { return pool.New(4, pool.WithSegmentSize(256)) }

func TestHeaderFieldRoundTrip(t *testing.T) {
	p := newPool()
	e, err := Allocate(32, p)
	if err != nil {
		t.Fatalf("Allocate(): %s", err)
	}
	defer e.Release()

	e.SetMethodID(101)
	e.SetCorrelationID(0xDEADBEEF)
	e.SetIsResponse(true)

	if got := e.MethodID(); got != 101 {
		t.Fatalf("MethodID() = %d, want 101", got)
	}
	if got := e.CorrelationID(); got != 0xDEADBEEF {
		t.Fatalf("CorrelationID() = %x, want DEADBEEF", got)
	}
	if !e.IsResponse() {
		t.Fatal("IsResponse() = false, want true")
	}
	if e.HasTrace() || e.HasError() {
		t.Fatal("unrelated flag bits were set")
	}
}

func TestTraceIDSetsFlag(t *testing.T) {
	p := newPool()
	e, err := Allocate(0, p)
	if err != nil {
		t.Fatalf("Allocate(): %s", err)
	}
	defer e.Release()

	if _, ok := e.TraceID(); ok {
		t.Fatal("TraceID() ok before set, want false")
	}

	var id [16]byte
	copy(id[:], []byte("0123456789abcdef"))
	e.SetTraceID(id)

	got, ok := e.TraceID()
	if !ok {
		t.Fatal("TraceID() ok after set, want true")
	}
	if got != id {
		t.Fatalf("TraceID() = %v, want %v", got, id)
	}
}

func TestPayloadIsZeroCopyView(t *testing.T) {
	p := newPool()
	e, err := Allocate(16, p)
	if err != nil {
		t.Fatalf("Allocate(): %s", err)
	}
	defer e.Release()

	payload, err := e.Payload()
	if err != nil {
		t.Fatalf("Payload(): %s", err)
	}
	if len(payload) != 16 {
		t.Fatalf("len(Payload()) = %d, want 16", len(payload))
	}
	payload[0] = 0xFF
	if e.Segment().Bytes()[HeaderSize] != 0xFF {
		t.Fatal("Payload() did not share storage with the backing segment")
	}
}

func TestPayloadFailsWhenLengthBelowHeader(t *testing.T) {
	p := newPool()
	e, err := Allocate(16, p)
	if err != nil {
		t.Fatalf("Allocate(): %s", err)
	}
	defer e.Release()

	e.SetLength(HeaderSize - 1)
	if _, err := e.Payload(); err == nil {
		t.Fatal("Payload() succeeded with length < HeaderSize, want TruncatedPayload")
	}
}

func TestAccessorsFailAfterRelease(t *testing.T) {
	p := newPool()
	e, err := Allocate(16, p)
	if err != nil {
		t.Fatalf("Allocate(): %s", err)
	}
	if err := e.Release(); err != nil {
		t.Fatalf("Release(): %s", err)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("accessing a released envelope's header did not panic on the zeroed/returned segment")
		}
	}()
	_ = e.MethodID()
}
