package myra

import (
	"testing"

	"github.com/kylelemons/godebug/pretty"

	"github.com/mvp-express/the-framework/envelope"
	"github.com/mvp-express/the-framework/pool"
)

type GetBalanceRequest struct {
	AccountID string `myra:"0"`
}

type Opt struct {
	X *int32 `myra:"0"`
}

type Note struct {
	Text string `myra:"0"`
}

func newTestPool() *pool.Pool { return pool.New(4, pool.WithSegmentSize(4096)) }

// simple round-trip.
func TestRoundTripSimple(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(101, GetBalanceRequest{}, "GetBalanceRequest"); err != nil {
		t.Fatalf("Register(): %s", err)
	}

	p := newTestPool()
	e, err := envelope.Allocate(256, p)
	if err != nil {
		t.Fatalf("Allocate(): %s", err)
	}
	defer e.Release()

	req := GetBalanceRequest{AccountID: "acc-1"}
	if err := Encode(reg, req, e); err != nil {
		t.Fatalf("Encode(): %s", err)
	}

	if got, want := e.MethodID(), uint16(101); got != want {
		t.Fatalf("MethodID() = %d, want %d", got, want)
	}
	// HEADER_SIZE + 4 (length prefix) + 4 (string length) + 5 ("acc-1") + 4 (checksum) = 29+17 = 46
	if got, want := e.Length(), uint16(46); got != want {
		t.Fatalf("Length() = %d, want %d", got, want)
	}

	got, err := Decode(reg, e)
	if err != nil {
		t.Fatalf("Decode(): %s", err)
	}
	gotReq, ok := got.(*GetBalanceRequest)
	if !ok {
		t.Fatalf("Decode() returned %T, want *GetBalanceRequest", got)
	}
	if diff := pretty.Compare(req, *gotReq); diff != "" {
		t.Fatalf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

// null field.
func TestRoundTripNullField(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(1, Opt{}, "Opt"); err != nil {
		t.Fatalf("Register(): %s", err)
	}

	p := newTestPool()
	e, err := envelope.Allocate(64, p)
	if err != nil {
		t.Fatalf("Allocate(): %s", err)
	}
	defer e.Release()

	if err := Encode(reg, Opt{X: nil}, e); err != nil {
		t.Fatalf("Encode(): %s", err)
	}

	payload, err := e.Payload()
	if err != nil {
		t.Fatalf("Payload(): %s", err)
	}
	// length prefix(4) + presence byte(1) + checksum(4) == 9 bytes total.
	if len(payload) != 9 {
		t.Fatalf("len(payload) = %d, want 9", len(payload))
	}
	if payload[4] != 0x00 {
		t.Fatalf("presence byte = %#x, want 0x00", payload[4])
	}

	got, err := Decode(reg, e)
	if err != nil {
		t.Fatalf("Decode(): %s", err)
	}
	gotOpt := got.(*Opt)
	if gotOpt.X != nil {
		t.Fatalf("Decode() X = %v, want nil", gotOpt.X)
	}
}

// unicode.
func TestRoundTripUnicode(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(1, Note{}, "Note"); err != nil {
		t.Fatalf("Register(): %s", err)
	}

	p := newTestPool()
	e, err := envelope.Allocate(64, p)
	if err != nil {
		t.Fatalf("Allocate(): %s", err)
	}
	defer e.Release()

	note := Note{Text: "你好😀"}
	if err := Encode(reg, note, e); err != nil {
		t.Fatalf("Encode(): %s", err)
	}

	payload, err := e.Payload()
	if err != nil {
		t.Fatalf("Payload(): %s", err)
	}
	// length prefix(4) + string length(4) + 10 UTF-8 bytes + checksum(4) = 22
	if len(payload) != 22 {
		t.Fatalf("len(payload) = %d, want 22", len(payload))
	}

	got, err := Decode(reg, e)
	if err != nil {
		t.Fatalf("Decode(): %s", err)
	}
	if got.(*Note).Text != note.Text {
		t.Fatalf("Decode() Text = %q, want %q", got.(*Note).Text, note.Text)
	}
}

// unknown method id must fail before any payload read.
func TestDecodeUnknownMessageID(t *testing.T) {
	reg := NewRegistry()
	p := newTestPool()
	e, err := envelope.Allocate(0, p)
	if err != nil {
		t.Fatalf("Allocate(): %s", err)
	}
	defer e.Release()

	e.SetMethodID(9999)
	e.SetLength(envelope.HeaderSize)

	if _, err := Decode(reg, e); err == nil {
		t.Fatal("Decode() with unknown method id succeeded, want UnknownMessageId")
	}
}

// Corrupting a payload byte must fail with CorruptedPayload.
func TestDecodeCorruptedPayload(t *testing.T) {
	reg := NewRegistry()
	reg.Register(1, GetBalanceRequest{}, "GetBalanceRequest")

	p := newTestPool()
	e, _ := envelope.Allocate(64, p)
	defer e.Release()

	Encode(reg, GetBalanceRequest{AccountID: "acc-1"}, e)

	payload, _ := e.Payload()
	payload[5] ^= 0xFF // flip a byte inside the field region

	if _, err := Decode(reg, e); err == nil {
		t.Fatal("Decode() of corrupted payload succeeded, want CorruptedPayload")
	}
}

// Shrinking length below the true encoded size must fail with TruncatedPayload.
func TestDecodeTruncatedPayload(t *testing.T) {
	reg := NewRegistry()
	reg.Register(1, GetBalanceRequest{}, "GetBalanceRequest")

	p := newTestPool()
	e, _ := envelope.Allocate(64, p)
	defer e.Release()

	Encode(reg, GetBalanceRequest{AccountID: "acc-1"}, e)
	e.SetLength(e.Length() - 1)

	if _, err := Decode(reg, e); err == nil {
		t.Fatal("Decode() of truncated payload succeeded, want TruncatedPayload")
	}
}

func TestEncodeUnregisteredType(t *testing.T) {
	reg := NewRegistry()
	p := newTestPool()
	e, _ := envelope.Allocate(64, p)
	defer e.Release()

	if err := Encode(reg, GetBalanceRequest{AccountID: "x"}, e); err == nil {
		t.Fatal("Encode() of an unregistered type succeeded, want UnregisteredMessage")
	}
}

func TestLayoutCacheHitIsBenign(t *testing.T) {
	reg := NewRegistry()
	reg.Register(1, GetBalanceRequest{}, "GetBalanceRequest")

	p := newTestPool()
	for i := 0; i < 3; i++ {
		e, err := envelope.Allocate(64, p)
		if err != nil {
			t.Fatalf("Allocate(): %s", err)
		}
		if err := Encode(reg, GetBalanceRequest{AccountID: "acc-1"}, e); err != nil {
			t.Fatalf("Encode(): %s", err)
		}
		if _, err := Decode(reg, e); err != nil {
			t.Fatalf("Decode(): %s", err)
		}
		e.Release()
	}
}
