// Package pagecache implements PageCache: the process-wide, OS-backed
// bottom tier. It owns every span, splitting and coalescing them on demand,
// and is the only tier that talks to the OS memory primitive.
//
// Locked and -Locked method pairs exist because CentralCache's get_one_span
// needs to hold the page-cache mutex across a call into PageCache plus a
// couple of field writes of its own (setting InUse/ObjSize) — see
// CentralCache.getOneSpan; the jumbo allocation path (concpool.AllocateLarge)
// does the same to set InUse. The plain (non-Locked) methods are for callers,
// like CentralCache's release path and the jumbo free path, that don't need
// to extend the critical section.
package pagecache

import (
	"sync"

	"github.com/w2113/ConCurrentMemoryPool/internal/objlist"
	"github.com/w2113/ConCurrentMemoryPool/internal/sizeclass"
	"github.com/w2113/ConCurrentMemoryPool/internal/spanindex"
	"github.com/w2113/ConCurrentMemoryPool/internal/spanlist"
	"github.com/w2113/ConCurrentMemoryPool/internal/spanpool"
	"github.com/w2113/ConCurrentMemoryPool/internal/sysmem"
)

// PageCache is the single process-wide page-level span manager.
type PageCache struct {
	mu    sync.Mutex
	lists [sizeclass.NPages]spanlist.List
	index spanindex.Index
	spans *spanpool.Pool
}

// New returns a ready-to-use PageCache.
func New() *PageCache {
	pc := &PageCache{spans: spanpool.New()}
	for i := range pc.lists {
		pc.lists[i].Init()
	}
	return pc
}

// Lock acquires the page-cache mutex. Paired with Unlock, this lets
// CentralCache extend the critical section across NewSpanLocked plus its
// own InUse/ObjSize bookkeeping, per spec.md §4.3.
func (pc *PageCache) Lock() { pc.mu.Lock() }

// Unlock releases the page-cache mutex.
func (pc *PageCache) Unlock() { pc.mu.Unlock() }

// NewSpan obtains a span of exactly k pages, acquiring the page-cache mutex
// itself.
func (pc *PageCache) NewSpan(k int) (*spanlist.Span, error) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.NewSpanLocked(k)
}

// NewSpanLocked is NewSpan assuming the caller already holds the page-cache
// mutex.
func (pc *PageCache) NewSpanLocked(k int) (*spanlist.Span, error) {
	if k > sizeclass.NPages-1 {
		return pc.newJumboLocked(k)
	}
	if !pc.lists[k].Empty() {
		s := pc.lists[k].PopFront()
		pc.indexInterior(s)
		return s, nil
	}
	for j := k + 1; j < sizeclass.NPages; j++ {
		if pc.lists[j].Empty() {
			continue
		}
		s := pc.lists[j].PopFront()
		return pc.split(s, k, j), nil
	}
	if _, err := pc.growLocked(); err != nil {
		return nil, err
	}
	return pc.NewSpanLocked(k)
}

func (pc *PageCache) newJumboLocked(k int) (*spanlist.Span, error) {
	addr, err := sysmem.Alloc(k)
	if err != nil {
		return nil, err
	}
	s := pc.spans.Get()
	s.PageID = addr >> sizeclass.PageShift
	s.N = k
	pc.index.Set(s.PageID, s)
	return s, nil
}

// growLocked requests one NPages-1 page chunk from the OS and pushes it onto
// span_lists[NPages-1], for NewSpanLocked to then split from by recursing.
func (pc *PageCache) growLocked() (*spanlist.Span, error) {
	addr, err := sysmem.Alloc(sizeclass.NPages - 1)
	if err != nil {
		return nil, err
	}
	chunk := pc.spans.Get()
	chunk.PageID = addr >> sizeclass.PageShift
	chunk.N = sizeclass.NPages - 1
	pc.lists[sizeclass.NPages-1].PushFront(chunk)
	pc.indexBoundary(chunk)
	return chunk, nil
}

// split carves a k-page span off the front of a popped j-page span,
// pushing the (j-k)-page remainder back onto its own bucket.
func (pc *PageCache) split(s *spanlist.Span, k, j int) *spanlist.Span {
	if j == k {
		pc.indexInterior(s)
		return s
	}
	remainder := pc.spans.Get()
	remainder.PageID = s.PageID + uintptr(k)
	remainder.N = j - k
	s.N = k
	pc.lists[j-k].PushFront(remainder)
	pc.indexBoundary(remainder)
	pc.indexInterior(s)
	return s
}

// indexInterior records every page in s (not just the boundary) so that any
// object address inside a live, sliced span maps back to it.
func (pc *PageCache) indexInterior(s *spanlist.Span) {
	for p := s.PageID; p < s.PageID+uintptr(s.N); p++ {
		pc.index.Set(p, s)
	}
}

// indexBoundary records only the first and last page of s, sufficient for a
// free span since coalescing only ever probes immediately adjacent pages.
func (pc *PageCache) indexBoundary(s *spanlist.Span) {
	pc.index.Set(s.PageID, s)
	pc.index.Set(s.PageID+uintptr(s.N)-1, s)
}

// MapObjectToSpan returns the span owning the page containing addr. Lock-free.
func (pc *PageCache) MapObjectToSpan(addr uintptr) (*spanlist.Span, bool) {
	return pc.index.Get(addr >> sizeclass.PageShift)
}

// ReleaseSpanToPageCache returns a fully-reclaimed span to PageCache,
// acquiring the page-cache mutex itself.
func (pc *PageCache) ReleaseSpanToPageCache(s *spanlist.Span) error {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.ReleaseSpanLocked(s)
}

// ReleaseSpanLocked is ReleaseSpanToPageCache assuming the caller already
// holds the page-cache mutex.
func (pc *PageCache) ReleaseSpanLocked(s *spanlist.Span) error {
	if s.N > sizeclass.NPages-1 {
		if err := sysmem.Free(s.Base(), s.N); err != nil {
			return err
		}
		pc.spans.Put(s)
		return nil
	}

	for {
		p := s.PageID - 1
		prev, ok := pc.index.Get(p)
		if !ok || prev.InUse || prev.N+s.N > sizeclass.NPages-1 {
			break
		}
		pc.lists[prev.N].Remove(prev)
		s.PageID = prev.PageID
		s.N += prev.N
		pc.spans.Put(prev)
	}
	for {
		p := s.PageID + uintptr(s.N)
		next, ok := pc.index.Get(p)
		if !ok || next.InUse || next.N+s.N > sizeclass.NPages-1 {
			break
		}
		pc.lists[next.N].Remove(next)
		s.N += next.N
		pc.spans.Put(next)
	}

	s.ObjSize = 0
	s.UseCount = 0
	s.InUse = false
	s.Free = objlist.Stack{}
	pc.lists[s.N].PushFront(s)
	pc.indexBoundary(s)
	return nil
}

// TotalPages sums the page count across every PageCache free-list bucket.
// Used by the conservation invariant check in tests: this plus whatever
// CentralCache and live jumbo spans hold must equal everything sysmem has
// handed out.
func (pc *PageCache) TotalPages() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	total := 0
	for i := range pc.lists {
		pc.lists[i].First(func(s *spanlist.Span) bool {
			total += s.N
			return false
		})
	}
	return total
}
