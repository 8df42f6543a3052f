package pagecache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w2113/ConCurrentMemoryPool/internal/sizeclass"
	"github.com/w2113/ConCurrentMemoryPool/internal/spanlist"
)

func TestNewSpanExactFit(t *testing.T) {
	pc := New()
	s, err := pc.NewSpan(5)
	require.NoError(t, err)
	assert.Equal(t, 5, s.N)
	assert.NotZero(t, s.PageID)
}

func TestNewSpanSplitsLargerFreeSpan(t *testing.T) {
	pc := New()

	big, err := pc.NewSpan(20)
	require.NoError(t, err)
	require.NoError(t, pc.ReleaseSpanToPageCache(big))

	small, err := pc.NewSpan(3)
	require.NoError(t, err)
	assert.Equal(t, 3, small.N)

	// big merged back with the rest of its chunk on release, so the split
	// above leaves a 125-page remainder that must be recorded and servable
	rest, err := pc.NewSpan(17)
	require.NoError(t, err)
	assert.Equal(t, 17, rest.N)
}

func TestJumboSpanBypassesSpanLists(t *testing.T) {
	pc := New()
	k := sizeclass.NPages + 10 // bigger than the largest tracked bucket
	s, err := pc.NewSpan(k)
	require.NoError(t, err)
	assert.Equal(t, k, s.N)

	require.NoError(t, pc.ReleaseSpanToPageCache(s))
	assert.Equal(t, 0, pc.TotalPages(), "jumbo spans never sit in a page-count bucket")
}

func TestReleaseCoalescesAdjacentFreeSpans(t *testing.T) {
	pc := New()

	a, err := pc.NewSpan(4)
	require.NoError(t, err)
	b, err := pc.NewSpan(4)
	require.NoError(t, err)
	a.InUse = true // simulate a and b being owned by CentralCache
	b.InUse = true

	// a and b were carved from the same OS chunk and are adjacent; releasing
	// both must merge them (together with the chunk's unused remainder) back
	// into one span that an 8-page request can be served from.
	require.NoError(t, pc.ReleaseSpanToPageCache(a))
	require.NoError(t, pc.ReleaseSpanToPageCache(b))

	merged, err := pc.NewSpan(8)
	require.NoError(t, err)
	assert.Equal(t, 8, merged.N)
}

func TestReleaseDoesNotCoalesceAcrossInUseSpan(t *testing.T) {
	pc := New()

	a, err := pc.NewSpan(4)
	require.NoError(t, err)
	b, err := pc.NewSpan(4)
	require.NoError(t, err)
	c, err := pc.NewSpan(4)
	require.NoError(t, err)

	b.InUse = true // simulate b being owned by CentralCache
	require.NoError(t, pc.ReleaseSpanToPageCache(a))
	require.NoError(t, pc.ReleaseSpanToPageCache(c))

	// neither a nor c can merge across the still-in-use b: a stays a 4-page
	// span, and c can only merge rightward with the chunk's unused remainder.
	got, err := pc.NewSpan(4)
	require.NoError(t, err)
	assert.Equal(t, 4, got.N)
}

func TestMapObjectToSpanFindsInteriorPages(t *testing.T) {
	pc := New()
	s, err := pc.NewSpan(4)
	require.NoError(t, err)

	for p := s.PageID; p < s.PageID+4; p++ {
		got, ok := pc.MapObjectToSpan(p << sizeclass.PageShift)
		require.True(t, ok)
		assert.Same(t, s, got)
	}
}

func TestTotalPagesConservation(t *testing.T) {
	pc := New()
	spans := make([]*spanlist.Span, 0)
	for i := 0; i < 5; i++ {
		s, err := pc.NewSpan(2)
		require.NoError(t, err)
		s.InUse = true // simulate the span being owned by CentralCache
		spans = append(spans, s)
	}
	for _, s := range spans {
		require.NoError(t, pc.ReleaseSpanToPageCache(s))
	}
	// every 2-page span was carved from the same 128-page OS chunk and
	// adjacent, so releasing all of them collapses back to one bucket.
	assert.Equal(t, 128, pc.TotalPages())
}
