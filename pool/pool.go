// Package pool implements the segment pool: a lock-free, fixed-size byte
// buffer pool with amortized O(1) acquire/release. Segment buffers are reused on the
// steady-state path, but each Acquire allocates a Segment header and each Release
// onto the free-list allocates a list node.
//
// Shaped after claw.go's sync.Pool buffer reuse pattern, generalized from several
// independently-sized pools into a single fixed-size free-list, and after the
// ProgressDB ingest queue's pooled-buffer-with-explicit-release discipline
// (Item.Done()), here expressed as Segment.release via Pool.
package pool

import (
	"sync/atomic"

	"github.com/valyala/bytebufferpool"

	"github.com/mvp-express/the-framework/internal/errs"
)

// DefaultSegmentSize is the default fixed size of a pooled Segment.
const DefaultSegmentSize = 8192

// DefaultInitialPoolSize is the default number of segments a Pool pre-allocates.
const DefaultInitialPoolSize = 1000

// node is one entry of the lock-free free-list (a Treiber stack). Ordering within
// the free-list is irrelevant; a stack gives us simpler CAS logic than a FIFO
// without violating any invariant.
type node struct {
	buf  []byte
	next *node
}

// Pool is a shared provider of fixed-size Segments. The zero value is not
// usable; construct with New.
type Pool struct {
	segmentSize int
	maxPooled   int64
	arena       bytebufferpool.Pool

	free atomic.Pointer[node]

	allocated int64 // segmentsEverAllocated, atomic
	inUse     int64 // atomic
	pooled    int64 // atomic, == free-list depth

	closed atomic.Bool
}

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithSegmentSize overrides DefaultSegmentSize.
func WithSegmentSize(n int) Option {
	return func(p *Pool) { p.segmentSize = n }
}

// New constructs a Pool and pre-allocates initialSize segments onto its free-list.
func New(initialSize int, opts ...Option) *Pool {
	p := &Pool{segmentSize: DefaultSegmentSize}
	for _, o := range opts {
		o(p)
	}
	if initialSize <= 0 {
		initialSize = DefaultInitialPoolSize
	}
	p.maxPooled = int64(initialSize) * 2
	for i := 0; i < initialSize; i++ {
		p.push(make([]byte, p.segmentSize))
		atomic.AddInt64(&p.allocated, 1)
		atomic.AddInt64(&p.pooled, 1)
	}
	return p
}

// SegmentSize returns the fixed size this Pool hands out on Acquire.
func (p *Pool) SegmentSize() int { return p.segmentSize }

// Allocated returns the number of segments ever allocated from the backing arena.
func (p *Pool) Allocated() int64 { return atomic.LoadInt64(&p.allocated) }

// InUse returns the number of segments currently leased out.
func (p *Pool) InUse() int64 { return atomic.LoadInt64(&p.inUse) }

// Pooled returns the current free-list depth.
func (p *Pool) Pooled() int64 { return atomic.LoadInt64(&p.pooled) }

// push adds a buffer onto the lock-free free-list.
func (p *Pool) push(buf []byte) {
	n := &node{buf: buf}
	for {
		old := p.free.Load()
		n.next = old
		if p.free.CompareAndSwap(old, n) {
			return
		}
	}
}

// pop removes a buffer from the lock-free free-list, or returns (nil, false) if empty.
func (p *Pool) pop() ([]byte, bool) {
	for {
		old := p.free.Load()
		if old == nil {
			return nil, false
		}
		if p.free.CompareAndSwap(old, old.next) {
			return old.buf, true
		}
	}
}

// Acquire returns a pool-sized Segment.
func (p *Pool) Acquire() (*Segment, error) {
	return p.AcquireSize(p.segmentSize)
}

// AcquireSize returns a Segment of at least n bytes. If n <= the pool's segment size,
// behavior is identical to Acquire: a free-list pop, or a fresh allocation. Otherwise
// a one-off oversize Segment is allocated directly from the arena and is never
// returned to the free-list on release.
func (p *Pool) AcquireSize(n int) (*Segment, error) {
	if p.closed.Load() {
		return nil, errs.New(errs.CatUser, errs.TypePoolClosed, "pool: acquire on a closed pool")
	}

	if n <= p.segmentSize {
		if buf, ok := p.pop(); ok {
			atomic.AddInt64(&p.pooled, -1)
			atomic.AddInt64(&p.inUse, 1)
			return &Segment{buf: buf[:p.segmentSize], size: p.segmentSize, pool: p, pooled: true}, nil
		}
		// The free-list is empty: draw from the arena, which holds buffers the
		// free-list spilled into Release after it hit maxPooled.
		buf := p.arena.Get().B
		if cap(buf) < p.segmentSize {
			buf = make([]byte, p.segmentSize)
		} else {
			buf = buf[:p.segmentSize]
		}
		atomic.AddInt64(&p.allocated, 1)
		atomic.AddInt64(&p.inUse, 1)
		return &Segment{buf: buf, size: p.segmentSize, pool: p, pooled: true}, nil
	}

	atomic.AddInt64(&p.allocated, 1)
	atomic.AddInt64(&p.inUse, 1)
	return &Segment{buf: make([]byte, n), size: n, pool: p, pooled: false}, nil
}

// Release returns seg to the pool. A pool-sized Segment is zeroed and either
// pushed onto the free-list or, once the free-list has reached maxPooled,
// handed to the arena via Put so the allocation isn't simply dropped; an
// oversize Segment is dropped for the garbage collector to reclaim. Releasing
// a Segment owned by a different Pool returns a ForeignSegment error;
// Segment.Release always routes to the pool that produced the segment, so it
// never hits that case.
func (p *Pool) Release(seg *Segment) error {
	if seg.owner() != p {
		return errs.New(errs.CatInternal, errs.TypeForeignSegment, "pool: release of a segment from a different pool")
	}
	if seg.released.Swap(true) {
		return nil // double-release is a no-op; the segment is already gone.
	}
	atomic.AddInt64(&p.inUse, -1)
	if seg.pooled {
		for i := range seg.buf {
			seg.buf[i] = 0
		}
		if atomic.LoadInt64(&p.pooled) < p.maxPooled {
			p.push(seg.buf)
			atomic.AddInt64(&p.pooled, 1)
		} else {
			p.arena.Put(&bytebufferpool.ByteBuffer{B: seg.buf})
		}
	}
	return nil
}

// Close marks the Pool closed and empties its free-list. After Close, Acquire and
// AcquireSize fail with PoolClosed; Release and Slice do not check for it and
// still succeed.
func (p *Pool) Close() {
	p.closed.Store(true)
	for {
		if _, ok := p.pop(); !ok {
			break
		}
		atomic.AddInt64(&p.pooled, -1)
	}
}

// Slice returns a zero-copy view into seg sharing storage; it does not change the
// in-use counters.
func (p *Pool) Slice(seg *Segment, off, length int) (*Segment, error) {
	if off < 0 || length < 0 || off+length > len(seg.buf) {
		return nil, errs.New(errs.CatUser, errs.TypeOutOfRange, "pool: slice bounds out of range")
	}
	return &Segment{buf: seg.buf[off : off+length], size: length, pool: seg.pool, pooled: false, view: true}, nil
}
