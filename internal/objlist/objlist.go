// Package objlist implements the intrusive singly-linked free-object chains
// used throughout the allocator: a span's free_list and a ThreadCache
// bucket's per-size-class free list are both one of these.
//
// The next pointer for a free object is stored in the object's own first
// machine word, exactly like Common.h's NextObj helper and the teacher's
// gclink/gclinkptr pair in mcache.go. Because the slot is reused for
// bookkeeping only while the object is free, this costs nothing once the
// object is handed back out.
package objlist

import "unsafe"

func slot(obj unsafe.Pointer) *unsafe.Pointer {
	return (*unsafe.Pointer)(obj)
}

// Next returns the next-pointer stored in obj's first word.
func Next(obj unsafe.Pointer) unsafe.Pointer {
	return *slot(obj)
}

// SetNext overwrites the next-pointer stored in obj's first word.
func SetNext(obj, next unsafe.Pointer) {
	*slot(obj) = next
}

// Stack is an intrusive LIFO of free objects of uniform size, plus a length
// counter (Common.h's FreeList, minus the max_size cap, which is a
// ThreadCache-level concern layered on top by the threadcache package).
type Stack struct {
	head unsafe.Pointer
	size int
}

// Push inserts obj at the head of the stack.
func (s *Stack) Push(obj unsafe.Pointer) {
	SetNext(obj, s.head)
	s.head = obj
	s.size++
}

// Pop removes and returns the head of the stack, or nil if empty.
func (s *Stack) Pop() unsafe.Pointer {
	obj := s.head
	if obj == nil {
		return nil
	}
	s.head = Next(obj)
	SetNext(obj, nil)
	s.size--
	return obj
}

// PushRange splices in an already-linked chain running from start to end
// (end's next pointer is overwritten), of n objects total.
func (s *Stack) PushRange(start, end unsafe.Pointer, n int) {
	if start == nil {
		return
	}
	SetNext(end, s.head)
	s.head = start
	s.size += n
}

// PopRange detaches the first n objects as a chain and returns its head and
// tail (tail's next pointer is nil). Returns (nil, nil) if n is out of
// [1, Len()].
func (s *Stack) PopRange(n int) (start, end unsafe.Pointer) {
	if n <= 0 || n > s.size {
		return nil, nil
	}
	start = s.head
	end = start
	for i := 0; i < n-1; i++ {
		end = Next(end)
	}
	s.head = Next(end)
	SetNext(end, nil)
	s.size -= n
	return start, end
}

// SetHead replaces the stack's contents wholesale with a chain already built
// elsewhere (CentralCache does this when it slices a fresh span into a run
// of same-size objects).
func (s *Stack) SetHead(head unsafe.Pointer, size int) {
	s.head = head
	s.size = size
}

// Empty reports whether the stack holds no objects.
func (s *Stack) Empty() bool { return s.head == nil }

// Len returns the number of objects currently on the stack.
func (s *Stack) Len() int { return s.size }

// Head returns the current head pointer without removing it (nil if empty).
func (s *Stack) Head() unsafe.Pointer { return s.head }
