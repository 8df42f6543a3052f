// Package threadcache implements ThreadCache: the lock-free, per-goroutine
// top tier. Go has no first-class thread-local storage for goroutines, so
// unlike the teacher's per-P mcache (wired in by the scheduler) a
// ThreadCache here is an explicit handle: callers keep one per long-lived
// worker goroutine and call Close when that goroutine is done, which drains
// every bucket back to CentralCache exactly like ThreadCache.h's destructor
// and the teacher's freemcache.
package threadcache

import (
	"unsafe"

	"github.com/w2113/ConCurrentMemoryPool/internal/allocerrors"
	"github.com/w2113/ConCurrentMemoryPool/internal/centralcache"
	"github.com/w2113/ConCurrentMemoryPool/internal/objlist"
	"github.com/w2113/ConCurrentMemoryPool/internal/sizeclass"
)

type bucket struct {
	stack   objlist.Stack
	maxSize int // slow-start refill cap, never reset downward
}

// ThreadCache is a single goroutine's free lists. Not safe for concurrent
// use by more than one goroutine at a time — that would defeat the point.
type ThreadCache struct {
	central *centralcache.CentralCache
	lists   [sizeclass.NFreeList]bucket
	closed  bool
}

// New returns a ThreadCache that refills from and overflows to central.
func New(central *centralcache.CentralCache) *ThreadCache {
	tc := &ThreadCache{central: central}
	for i := range tc.lists {
		// ThreadCache.h's FreeList default max_size is 1: the very first
		// refill for any bucket requests exactly one object, then grows by
		// slow start from there.
		tc.lists[i].maxSize = 1
	}
	return tc
}

// Allocate returns one object of the given size, or ErrTooLarge if size
// exceeds sizeclass.MaxBytes (the caller must use the jumbo path instead).
func (tc *ThreadCache) Allocate(size int) (unsafe.Pointer, error) {
	if size > sizeclass.MaxBytes {
		return nil, allocerrors.ErrTooLarge
	}
	aligned := sizeclass.RoundUp(size)
	idx := sizeclass.Index(size)
	b := &tc.lists[idx]

	if !b.stack.Empty() {
		return b.stack.Pop(), nil
	}
	return tc.fetchFromCentralCache(b, idx, aligned)
}

// fetchFromCentralCache implements the slow-start refill: the batch size is
// the smaller of the bucket's max_size and NumMoveSize, and max_size grows
// by one whenever it was the limiting factor (including a tie).
func (tc *ThreadCache) fetchFromCentralCache(b *bucket, idx, aligned int) (unsafe.Pointer, error) {
	originalMax := b.maxSize
	batch := originalMax
	if want := sizeclass.NumMoveSize(aligned); want < batch {
		batch = want
	}
	if batch == originalMax {
		b.maxSize++
	}

	start, end, actual, err := tc.central.FetchRangeObj(idx, aligned, batch)
	if err != nil {
		return nil, err
	}
	if actual == 1 {
		return start, nil
	}

	rest := objlist.Next(start)
	objlist.SetNext(start, nil)
	b.stack.PushRange(rest, end, actual-1)
	return start, nil
}

// Free returns ptr (of the given originally-requested size) to its
// ThreadCache bucket, overflowing to CentralCache once the bucket's length
// reaches its current max_size.
func (tc *ThreadCache) Free(ptr unsafe.Pointer, size int) error {
	aligned := sizeclass.RoundUp(size)
	idx := sizeclass.Index(size)
	b := &tc.lists[idx]

	b.stack.Push(ptr)
	if b.stack.Len() >= b.maxSize {
		return tc.listTooLong(b, aligned)
	}
	return nil
}

// listTooLong pops exactly max_size objects off b and hands them to
// CentralCache's release path in one batch.
func (tc *ThreadCache) listTooLong(b *bucket, aligned int) error {
	n := b.maxSize
	if n > b.stack.Len() {
		n = b.stack.Len()
	}
	start, _ := b.stack.PopRange(n)
	if start == nil {
		return nil
	}
	return tc.central.ReleaseListToSpans(start, aligned)
}

// Close drains every bucket's remaining objects back to CentralCache. It is
// the explicit analogue of a thread exiting: call it when the owning
// goroutine is done allocating. Close is idempotent.
func (tc *ThreadCache) Close() error {
	if tc.closed {
		return nil
	}
	tc.closed = true
	for i := range tc.lists {
		b := &tc.lists[i]
		if b.stack.Empty() {
			continue
		}
		n := b.stack.Len()
		start, _ := b.stack.PopRange(n)
		aligned := sizeclass.SizeOfClass(i)
		if err := tc.central.ReleaseListToSpans(start, aligned); err != nil {
			return err
		}
	}
	return nil
}
