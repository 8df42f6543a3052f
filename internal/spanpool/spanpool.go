// Package spanpool is a fixed-type object pool for Span control blocks,
// mirroring the teacher's mheap.spanalloc fixalloc pool (allocmcache/
// freemcache use the same pattern for mcache itself). Span control blocks
// must not flow through the allocator they help implement, or growing the
// allocator would recursively need the allocator to grow — so they come
// from Go's own sync.Pool instead of from PageCache/CentralCache.
package spanpool

import (
	"sync"

	"github.com/w2113/ConCurrentMemoryPool/internal/spanlist"
)

// Pool hands out zeroed *spanlist.Span values and recycles them on Put.
type Pool struct {
	pool sync.Pool
}

// New returns a ready-to-use Pool.
func New() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any { return new(spanlist.Span) },
		},
	}
}

// Get returns a zeroed Span control block.
func (p *Pool) Get() *spanlist.Span {
	s := p.pool.Get().(*spanlist.Span)
	*s = spanlist.Span{}
	return s
}

// Put recycles a Span control block no longer referenced by any tier. The
// caller must not use s again after calling Put.
func (p *Pool) Put(s *spanlist.Span) {
	p.pool.Put(s)
}
