// Package concpool is the allocator's upward façade: the tiered mechanism
// spec.md describes, wired together into something a caller can actually
// drive. It does not aim to be a general-purpose malloc replacement — no
// global allocate/free, no realloc — it exposes exactly the operations the
// spec names: thread_allocate/thread_deallocate through a ThreadCache
// handle, and page_allocate_large/page_free_large for requests above
// MaxBytes.
package concpool

import (
	"fmt"
	"unsafe"

	"github.com/w2113/ConCurrentMemoryPool/internal/allocerrors"
	"github.com/w2113/ConCurrentMemoryPool/internal/centralcache"
	"github.com/w2113/ConCurrentMemoryPool/internal/pagecache"
	"github.com/w2113/ConCurrentMemoryPool/internal/report"
	"github.com/w2113/ConCurrentMemoryPool/internal/sizeclass"
	"github.com/w2113/ConCurrentMemoryPool/internal/threadcache"
)

// Re-exported sentinel errors; see internal/allocerrors for the canonical
// definitions.
var (
	ErrOutOfMemory = allocerrors.ErrOutOfMemory
	ErrTooLarge    = allocerrors.ErrTooLarge
	ErrInvalidFree = allocerrors.ErrInvalidFree
)

// MaxBytes is the largest size served by a ThreadCache; larger requests must
// go through AllocateLarge/FreeLarge instead.
const MaxBytes = sizeclass.MaxBytes

// Allocator owns one process-wide CentralCache and PageCache. A program
// normally creates exactly one.
type Allocator struct {
	pages   *pagecache.PageCache
	central *centralcache.CentralCache
}

// New returns a ready-to-use Allocator.
func New() *Allocator {
	pages := pagecache.New()
	return &Allocator{
		pages:   pages,
		central: centralcache.New(pages),
	}
}

// NewThreadCache returns a fresh per-goroutine cache. Keep one per
// long-lived worker goroutine and call Close on it when that goroutine
// exits.
func (a *Allocator) NewThreadCache() *threadcache.ThreadCache {
	return threadcache.New(a.central)
}

// AllocateLarge serves a request larger than MaxBytes directly from
// PageCache, bypassing CentralCache and ThreadCache entirely.
func (a *Allocator) AllocateLarge(size int) (unsafe.Pointer, error) {
	if size <= MaxBytes {
		return nil, fmt.Errorf("concpool: AllocateLarge called with size %d <= MaxBytes (%s); use a ThreadCache", size, report.Bytes(MaxBytes))
	}
	pages := (size + sizeclass.PageSize - 1) >> sizeclass.PageShift

	a.pages.Lock()
	span, err := a.pages.NewSpanLocked(pages)
	if err == nil {
		span.InUse = true
	}
	a.pages.Unlock()
	if err != nil {
		return nil, fmt.Errorf("concpool: allocating %s: %w", report.Bytes(size), err)
	}
	return unsafe.Pointer(span.Base()), nil
}

// FreeLarge releases a pointer previously returned by AllocateLarge. The
// page count is recovered from the owning span, not from a caller-supplied
// size, matching the jumbo path's free signature in spec.md §6.
func (a *Allocator) FreeLarge(ptr unsafe.Pointer) error {
	span, ok := a.pages.MapObjectToSpan(uintptr(ptr))
	if !ok {
		return fmt.Errorf("%w: %p", ErrInvalidFree, ptr)
	}
	return a.pages.ReleaseSpanToPageCache(span)
}
