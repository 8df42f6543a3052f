// Package centralcache implements CentralCache: the process-wide, per-size-
// class locked tier that slices PageCache spans into fixed-size objects and
// hands batches of them to ThreadCaches.
package centralcache

import (
	"sync"
	"unsafe"

	"github.com/w2113/ConCurrentMemoryPool/internal/fatal"
	"github.com/w2113/ConCurrentMemoryPool/internal/objlist"
	"github.com/w2113/ConCurrentMemoryPool/internal/pagecache"
	"github.com/w2113/ConCurrentMemoryPool/internal/sizeclass"
	"github.com/w2113/ConCurrentMemoryPool/internal/spanlist"
)

type bucket struct {
	mu   sync.Mutex
	list spanlist.List
}

// CentralCache holds one locked span-list per size class.
type CentralCache struct {
	buckets [sizeclass.NFreeList]bucket
	pages   *pagecache.PageCache
}

// New returns a CentralCache that refills from and reclaims to pages.
func New(pages *pagecache.PageCache) *CentralCache {
	cc := &CentralCache{pages: pages}
	for i := range cc.buckets {
		cc.buckets[i].list.Init()
	}
	return cc
}

func hasFreeObjects(s *spanlist.Span) bool { return !s.Free.Empty() }

// FetchRangeObj fetches up to batch objects of the given aligned size from
// size class class, returning the chain's head, tail, and actual count
// (1 <= actual <= batch).
func (cc *CentralCache) FetchRangeObj(class, aligned, batch int) (start, end unsafe.Pointer, actual int, err error) {
	b := &cc.buckets[class]
	b.mu.Lock()
	defer b.mu.Unlock()

	span, err := cc.getOneSpan(b, aligned)
	if err != nil {
		return nil, nil, 0, err
	}

	n := batch
	if span.Free.Len() < n {
		n = span.Free.Len()
	}
	if n < 1 {
		n = 1
	}
	start, end = span.Free.PopRange(n)
	span.UseCount += n
	return start, end, n, nil
}

// getOneSpan returns a span in bucket b with at least one free object,
// refilling from PageCache if none is found. b.mu must be held on entry and
// is held on return; it is dropped (and reacquired) only around the call
// into PageCache, per the mandatory drop-and-reacquire lock ordering.
func (cc *CentralCache) getOneSpan(b *bucket, aligned int) (*spanlist.Span, error) {
	if s := b.list.First(hasFreeObjects); s != nil {
		return s, nil
	}

	b.mu.Unlock()
	cc.pages.Lock()
	span, err := cc.pages.NewSpanLocked(sizeclass.NumMovePage(aligned))
	if err == nil {
		span.InUse = true
		span.ObjSize = aligned
	}
	cc.pages.Unlock()
	b.mu.Lock()

	if err != nil {
		return nil, err
	}

	// Another goroutine may have refilled this bucket while our lock was
	// dropped; that's fine, our freshly-sliced span is simply pushed in
	// alongside whatever they added instead of discarded.
	sliceSpan(span, aligned)
	b.list.PushFront(span)

	if s := b.list.First(hasFreeObjects); s != nil {
		return s, nil
	}
	fatal.Invariant("centralcache: span sliced for size %d produced no free objects", aligned)
	return nil, nil
}

// sliceSpan writes a fresh singly-linked chain of same-size objects across
// span's whole page range and installs it as the span's free list.
func sliceSpan(span *spanlist.Span, aligned int) {
	base := span.Base()
	count := span.Bytes() / aligned
	for i := 0; i < count; i++ {
		obj := unsafe.Pointer(base + uintptr(i*aligned))
		var next unsafe.Pointer
		if i+1 < count {
			next = unsafe.Pointer(base + uintptr((i+1)*aligned))
		}
		objlist.SetNext(obj, next)
	}
	span.Free.SetHead(unsafe.Pointer(base), count)
}

// ReleaseListToSpans returns a batch of same-size-class objects (the chain
// starting at start) from a ThreadCache back to their owning spans, and
// reclaims any span whose use count drops to zero.
func (cc *CentralCache) ReleaseListToSpans(start unsafe.Pointer, aligned int) error {
	class := sizeclass.Index(aligned)
	b := &cc.buckets[class]
	b.mu.Lock()
	defer b.mu.Unlock()

	for obj := start; obj != nil; {
		next := objlist.Next(obj)

		span, ok := cc.pages.MapObjectToSpan(uintptr(obj))
		if !ok {
			fatal.Invariant("centralcache: release of pointer %p maps to no span", obj)
			return nil
		}

		span.Free.Push(obj)
		span.UseCount--
		if span.UseCount == 0 {
			b.list.Remove(span)
			span.Free = objlist.Stack{}
			b.mu.Unlock()
			err := cc.pages.ReleaseSpanToPageCache(span)
			b.mu.Lock()
			if err != nil {
				return err
			}
		}

		obj = next
	}
	return nil
}
