// Package spanindex implements the address→span index: a two-level radix
// map keyed by page id, the same shape the spec's Design Notes recommend
// and the one the teacher's own heap-arena index uses in spirit (a fixed-
// depth table of pointers published with release semantics so readers
// never take a lock).
//
// Writers (PageCache, under its single mutex) call Set; readers (anyone,
// including CentralCache's release path with no lock held) call Get. The
// leaf slots are sync/atomic.Pointer, which gives Get its lock-free
// acquire/release pairing for free.
package spanindex

import (
	"sync"
	"sync/atomic"

	"github.com/w2113/ConCurrentMemoryPool/internal/spanlist"
)

const (
	// l2Bits selects how many page-id bits each leaf table covers.
	l2Bits = 19
	l2Size = 1 << l2Bits

	// l1Bits covers the remaining high bits of a 64-bit address space's
	// page-id range (48-bit virtual addresses, PageShift=13 -> 35 bits of
	// page id; 16+19 = 35).
	l1Bits = 16
	l1Size = 1 << l1Bits
)

type leaf struct {
	spans [l2Size]atomic.Pointer[spanlist.Span]
}

// Index is the address→span map. The zero value is ready to use.
type Index struct {
	l1 [l1Size]atomic.Pointer[leaf]
	mu sync.Mutex // guards lazy leaf creation only; Get never takes it
}

func split(pageID uintptr) (i1, i2 uintptr) {
	return pageID >> l2Bits, pageID & (l2Size - 1)
}

// Get returns the span owning pageID, if any. Lock-free.
func (idx *Index) Get(pageID uintptr) (*spanlist.Span, bool) {
	i1, i2 := split(pageID)
	if i1 >= l1Size {
		return nil, false
	}
	lf := idx.l1[i1].Load()
	if lf == nil {
		return nil, false
	}
	s := lf.spans[i2].Load()
	return s, s != nil
}

// Set records (or, with span == nil, clears) the span owning pageID.
// Callers must serialize calls to Set themselves (PageCache does this under
// its own mutex); Set may run concurrently with any number of Get calls.
func (idx *Index) Set(pageID uintptr, span *spanlist.Span) {
	i1, i2 := split(pageID)
	lf := idx.l1[i1].Load()
	if lf == nil {
		idx.mu.Lock()
		lf = idx.l1[i1].Load()
		if lf == nil {
			lf = &leaf{}
			idx.l1[i1].Store(lf)
		}
		idx.mu.Unlock()
	}
	lf.spans[i2].Store(span)
}
