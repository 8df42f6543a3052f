package spanlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListEmptyInitially(t *testing.T) {
	var l List
	l.Init()
	assert.True(t, l.Empty())
	assert.Nil(t, l.Front())
	assert.Nil(t, l.PopFront())
}

func TestListPushFrontOrder(t *testing.T) {
	var l List
	l.Init()
	a, b, c := &Span{PageID: 1}, &Span{PageID: 2}, &Span{PageID: 3}

	l.PushFront(a)
	l.PushFront(b)
	l.PushFront(c)

	require.False(t, l.Empty())
	assert.Same(t, c, l.Front())

	assert.Same(t, c, l.PopFront())
	assert.Same(t, b, l.PopFront())
	assert.Same(t, a, l.PopFront())
	assert.True(t, l.Empty())
}

func TestListRemoveMiddle(t *testing.T) {
	var l List
	l.Init()
	a, b, c := &Span{PageID: 1}, &Span{PageID: 2}, &Span{PageID: 3}
	l.PushFront(a)
	l.PushFront(b)
	l.PushFront(c) // order: c, b, a

	l.Remove(b)

	assert.Same(t, c, l.PopFront())
	assert.Same(t, a, l.PopFront())
	assert.True(t, l.Empty())
}

func TestListFirstPredicate(t *testing.T) {
	var l List
	l.Init()
	a := &Span{PageID: 1, UseCount: 5}
	b := &Span{PageID: 2, UseCount: 0}
	l.PushFront(a)
	l.PushFront(b)

	found := l.First(func(s *Span) bool { return s.UseCount == 0 })
	assert.Same(t, b, found)

	assert.Nil(t, l.First(func(s *Span) bool { return s.UseCount > 100 }))
}

func TestSpanBaseAndBytes(t *testing.T) {
	s := &Span{PageID: 4, N: 3}
	assert.Equal(t, uintptr(4<<13), s.Base())
	assert.Equal(t, 3<<13, s.Bytes())
}
