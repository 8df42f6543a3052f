// Package spanlist defines Span, the unit of ownership exchanged between
// PageCache and CentralCache, and List, the intrusive doubly-linked,
// sentinel-headed list of spans that both tiers bucket their spans into.
//
// This mirrors original_source/ConCurrentMemoryPool/Common.h's Span and
// SpanList classes, and the teacher runtime's mspan/mSpanList shape, minus
// the garbage-collector bookkeeping neither of those concerns this core.
package spanlist

import (
	"github.com/w2113/ConCurrentMemoryPool/internal/objlist"
	"github.com/w2113/ConCurrentMemoryPool/internal/sizeclass"
)

// Span is a contiguous run of pages. It is in exactly one of: a PageCache
// free-list bucket, a CentralCache size-class list, or in transit on a call
// stack between the two (§3 of the spec this repo implements).
type Span struct {
	PageID uintptr // page id of the first page
	N      int     // page count

	prev, next *Span // sibling pointers within one List

	ObjSize  int          // size of sliced objects; 0 while owned by PageCache
	Free     objlist.Stack // free objects sliced from this span
	UseCount int           // objects handed out to ThreadCaches
	InUse    bool          // true iff owned by CentralCache (or above)
}

// Base returns the span's first byte address.
func (s *Span) Base() uintptr { return s.PageID << sizeclass.PageShift }

// Bytes returns the span's total length in bytes.
func (s *Span) Bytes() int { return s.N << sizeclass.PageShift }

// List is a circular, sentinel-headed, doubly-linked list of spans — the
// same shape as Common.h's SpanList, implemented with a real (non-pointer)
// sentinel node so the empty check never special-cases a nil head.
type List struct {
	head Span
}

// Init prepares an empty list. Every List must be initialized before use;
// CentralCache and PageCache do this once for each of their bucket arrays.
func (l *List) Init() {
	l.head.next = &l.head
	l.head.prev = &l.head
}

// Empty reports whether the list holds no spans.
func (l *List) Empty() bool { return l.head.next == &l.head }

// Front returns the first span, or nil if the list is empty.
func (l *List) Front() *Span {
	if l.Empty() {
		return nil
	}
	return l.head.next
}

func (l *List) insertBefore(pos, s *Span) {
	prev := pos.prev
	prev.next = s
	s.prev = prev
	s.next = pos
	pos.prev = s
}

// PushFront inserts s at the head of the list.
func (l *List) PushFront(s *Span) {
	l.insertBefore(l.head.next, s)
}

// PopFront removes and returns the first span, or nil if the list is empty.
func (l *List) PopFront() *Span {
	front := l.Front()
	if front == nil {
		return nil
	}
	l.Remove(front)
	return front
}

// Remove detaches s from whichever list it currently sits in. s must
// currently be a member of l.
func (l *List) Remove(s *Span) {
	s.prev.next = s.next
	s.next.prev = s.prev
	s.prev = nil
	s.next = nil
}

// First returns the first span for which pred reports true, scanning from
// the front, or nil if none match. CentralCache uses this to find a span
// with a non-empty free list.
func (l *List) First(pred func(*Span) bool) *Span {
	for s := l.head.next; s != &l.head; s = s.next {
		if pred(s) {
			return s
		}
	}
	return nil
}
