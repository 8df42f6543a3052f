package objlist

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backing gives a slice of addressable "objects" of the given stride, wide
// enough to hold a pointer-sized next field, for exercising Stack without a
// real span behind it.
func backing(t *testing.T, n, stride int) []unsafe.Pointer {
	t.Helper()
	require.GreaterOrEqual(t, stride, int(unsafe.Sizeof(uintptr(0))))
	buf := make([]byte, n*stride)
	objs := make([]unsafe.Pointer, n)
	for i := 0; i < n; i++ {
		objs[i] = unsafe.Pointer(&buf[i*stride])
	}
	return objs
}

func TestStackPushPopLIFO(t *testing.T) {
	objs := backing(t, 3, 8)
	var s Stack
	s.Push(objs[0])
	s.Push(objs[1])
	s.Push(objs[2])
	assert.Equal(t, 3, s.Len())

	assert.Equal(t, objs[2], s.Pop())
	assert.Equal(t, objs[1], s.Pop())
	assert.Equal(t, objs[0], s.Pop())
	assert.True(t, s.Empty())
	assert.Nil(t, s.Pop())
}

func TestStackPushRangePopRange(t *testing.T) {
	objs := backing(t, 5, 8)
	for i := 0; i < len(objs)-1; i++ {
		SetNext(objs[i], objs[i+1])
	}
	SetNext(objs[len(objs)-1], nil)

	var s Stack
	s.PushRange(objs[0], objs[len(objs)-1], len(objs))
	require.Equal(t, len(objs), s.Len())

	start, end := s.PopRange(3)
	require.NotNil(t, start)
	assert.Equal(t, objs[0], start)
	assert.Equal(t, objs[2], end)
	assert.Nil(t, Next(end))
	assert.Equal(t, 2, s.Len())

	// remaining two are still a valid chain
	start2, end2 := s.PopRange(2)
	assert.Equal(t, objs[3], start2)
	assert.Equal(t, objs[4], end2)
	assert.True(t, s.Empty())
}

func TestStackPopRangeOutOfBounds(t *testing.T) {
	objs := backing(t, 2, 8)
	var s Stack
	s.Push(objs[0])
	s.Push(objs[1])

	start, end := s.PopRange(3)
	assert.Nil(t, start)
	assert.Nil(t, end)
	assert.Equal(t, 2, s.Len(), "an out-of-range PopRange must not mutate the stack")

	start, end = s.PopRange(0)
	assert.Nil(t, start)
	assert.Nil(t, end)
}

func TestStackSetHead(t *testing.T) {
	objs := backing(t, 2, 8)
	SetNext(objs[0], objs[1])
	SetNext(objs[1], nil)

	var s Stack
	s.SetHead(objs[0], 2)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, objs[0], s.Head())
	assert.Equal(t, objs[0], s.Pop())
	assert.Equal(t, objs[1], s.Pop())
}
