package pool

import (
	"testing"
)

func TestAcquireReleaseRoundTrip(t *testing.T) {
	p := New(4, WithSegmentSize(64))

	before := p.Pooled()

	seg, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire(): %s", err)
	}
	if got, want := seg.Size(), 64; got != want {
		t.Fatalf("Size() = %d, want %d", got, want)
	}
	copy(seg.Bytes(), []byte("hello"))

	if err := seg.Release(); err != nil {
		t.Fatalf("Release(): %s", err)
	}

	if got := p.Pooled(); got != before {
		t.Fatalf("Pooled() after round-trip = %d, want %d (pre-acquire state)", got, before)
	}

	// Released pool-sized segments must be zeroed before reuse (invariant b).
	seg2, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire(): %s", err)
	}
	for i, b := range seg2.Bytes() {
		if b != 0 {
			t.Fatalf("byte %d = %d, want 0 (segment not zeroed on reuse)", i, b)
		}
	}
}

func TestAcquireGrowsBeyondInitialCapacity(t *testing.T) {
	p := New(1, WithSegmentSize(32))

	s1, _ := p.Acquire()
	s2, err := p.Acquire()
	if err != nil {
		t.Fatalf("second Acquire(): %s", err)
	}
	if p.Allocated() != 2 {
		t.Fatalf("Allocated() = %d, want 2", p.Allocated())
	}
	_ = s1.Release()
	_ = s2.Release()
}

func TestOversizeSegmentNeverPooled(t *testing.T) {
	p := New(2, WithSegmentSize(16))

	seg, err := p.AcquireSize(1024)
	if err != nil {
		t.Fatalf("AcquireSize(): %s", err)
	}
	if seg.Size() != 1024 {
		t.Fatalf("Size() = %d, want 1024", seg.Size())
	}

	pooledBefore := p.Pooled()
	if err := seg.Release(); err != nil {
		t.Fatalf("Release(): %s", err)
	}
	if p.Pooled() != pooledBefore {
		t.Fatalf("Pooled() changed after releasing an oversize segment, it must never be recycled")
	}
}

func TestReleaseOverflowsIntoArenaPastMaxPooled(t *testing.T) {
	p := New(1, WithSegmentSize(16)) // maxPooled == 2

	segs := make([]*Segment, 0, 3)
	for i := 0; i < 3; i++ {
		seg, err := p.Acquire()
		if err != nil {
			t.Fatalf("Acquire() %d: %s", i, err)
		}
		segs = append(segs, seg)
	}
	for _, seg := range segs {
		if err := seg.Release(); err != nil {
			t.Fatalf("Release(): %s", err)
		}
	}
	if got, want := p.Pooled(), p.maxPooled; got != want {
		t.Fatalf("Pooled() = %d, want %d (free-list capped at maxPooled, overflow went to the arena)", got, want)
	}

	// The arena now holds the overflowed buffer; draining the free-list and
	// acquiring again must still succeed by drawing from the arena via Get.
	for i := int64(0); i < p.maxPooled; i++ {
		if _, err := p.Acquire(); err != nil {
			t.Fatalf("Acquire() while draining free-list: %s", err)
		}
	}
	if _, err := p.Acquire(); err != nil {
		t.Fatalf("Acquire() after free-list exhausted, want fallback to arena.Get(): %s", err)
	}
}

func TestReleaseForeignSegmentFails(t *testing.T) {
	p1 := New(1, WithSegmentSize(16))
	p2 := New(1, WithSegmentSize(16))

	seg, _ := p1.Acquire()
	if err := p2.Release(seg); err == nil {
		t.Fatal("Release() of a foreign segment succeeded, want ForeignSegment error")
	}
}

func TestAcquireAfterCloseFails(t *testing.T) {
	p := New(1, WithSegmentSize(16))
	p.Close()

	if _, err := p.Acquire(); err == nil {
		t.Fatal("Acquire() on a closed pool succeeded, want PoolClosed error")
	}
}

func TestSliceIsZeroCopyView(t *testing.T) {
	p := New(1, WithSegmentSize(16))
	seg, _ := p.Acquire()
	copy(seg.Bytes(), []byte("abcdefgh"))

	inUseBefore := p.InUse()
	view, err := p.Slice(seg, 2, 4)
	if err != nil {
		t.Fatalf("Slice(): %s", err)
	}
	if string(view.Bytes()) != "cdef" {
		t.Fatalf("Slice() view = %q, want %q", view.Bytes(), "cdef")
	}
	if p.InUse() != inUseBefore {
		t.Fatalf("InUse() changed after Slice(), want unchanged")
	}

	view.Bytes()[0] = 'X'
	if seg.Bytes()[2] != 'X' {
		t.Fatal("Slice() did not share storage with the backing segment")
	}
}
