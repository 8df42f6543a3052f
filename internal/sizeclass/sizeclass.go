// Package sizeclass implements the allocator's piecewise size-class policy:
// mapping a request byte count to an aligned size and a free-list bucket
// index, and deriving the batch sizes ThreadCache and CentralCache move
// between tiers.
//
// The table and arithmetic mirror the original ConCurrentMemoryPool's
// Common.h SizeClass exactly (alignment ranges, group_array cumulative
// offsets), translated from the fixed-width C++ constants into Go.
package sizeclass

const (
	// PageShift is log2 of the page size: one page is 8 KiB.
	PageShift = 13
	PageSize  = 1 << PageShift

	// MaxBytes is the largest request served through ThreadCache/CentralCache.
	// Anything larger is a jumbo allocation served directly by PageCache.
	MaxBytes = 256 * 1024

	// NFreeList is the number of size-class buckets (ThreadCache free lists,
	// CentralCache span lists).
	NFreeList = 208

	// NPages is one more than the largest page count PageCache tracks in its
	// own span free lists; spans of NPages-1 pages or fewer live in
	// span_lists[n], larger ones are jumbo and go straight to/from the OS.
	NPages = 129
)

// alignment range boundaries and their group counts, in original_source's
// group_array order: [1,128]/8, [129,1024]/16, [1025,8192]/128,
// [8193,65536]/1024, [65537,262144]/8192.
var groupCounts = [5]int{16, 56, 56, 56, 24}

func roundUp(bytes, align int) int {
	return (bytes + align - 1) &^ (align - 1)
}

// RoundUp returns the aligned object size a request of size bytes is served
// as. Requests beyond MaxBytes are rounded up to whole pages, matching the
// jumbo path's page-granular allocation.
func RoundUp(size int) int {
	switch {
	case size <= 128:
		return roundUp(size, 8)
	case size <= 1024:
		return roundUp(size, 16)
	case size <= 8*1024:
		return roundUp(size, 128)
	case size <= 64*1024:
		return roundUp(size, 1024)
	case size <= MaxBytes:
		return roundUp(size, 8*1024)
	default:
		return roundUp(size, PageSize)
	}
}

func indexWithin(bytes, shift int) int {
	return ((bytes + (1 << shift) - 1) >> shift) - 1
}

// Index returns the free-list bucket for a request of size bytes. size must
// be <= MaxBytes; callers above this layer (ThreadCache.Allocate) are
// responsible for routing larger requests to the jumbo path instead of
// calling Index.
func Index(size int) int {
	switch {
	case size <= 128:
		return indexWithin(size, 3)
	case size <= 1024:
		return indexWithin(size-128, 4) + groupCounts[0]
	case size <= 8*1024:
		return indexWithin(size-1024, 7) + groupCounts[0] + groupCounts[1]
	case size <= 64*1024:
		return indexWithin(size-8*1024, 10) + groupCounts[0] + groupCounts[1] + groupCounts[2]
	case size <= MaxBytes:
		return indexWithin(size-64*1024, 13) + groupCounts[0] + groupCounts[1] + groupCounts[2] + groupCounts[3]
	default:
		// Callers must not reach here; see SizeClassOverflow in the error design.
		panic("sizeclass: size exceeds MaxBytes")
	}
}

// NumMoveSize is the upper bound on objects moved per ThreadCache<->CentralCache
// transfer for a given aligned object size: small objects get bigger batches.
func NumMoveSize(size int) int {
	n := MaxBytes / size
	if n < 2 {
		n = 2
	}
	if n > 512 {
		n = 512
	}
	return n
}

// NumMovePage is how many pages CentralCache requests from PageCache when it
// needs a fresh span to slice for the given aligned object size.
func NumMovePage(size int) int {
	n := NumMoveSize(size)
	pages := (n * size) >> PageShift
	if pages == 0 {
		pages = 1
	}
	return pages
}

// classSize[i] holds a representative aligned object size for bucket i,
// i.e. one whose RoundUp is a fixed point and whose Index is i. Built once
// at init by walking the size domain bucket-boundary to bucket-boundary;
// used to recover an aligned size from a bucket index alone (ThreadCache
// drains a bucket without retaining the original request size).
var classSize [NFreeList]int

func init() {
	for size := 1; size <= MaxBytes; {
		aligned := RoundUp(size)
		idx := Index(aligned)
		if classSize[idx] == 0 {
			classSize[idx] = aligned
		}
		size = aligned + 1
	}
}

// SizeOfClass returns the representative aligned size for bucket index i.
func SizeOfClass(i int) int {
	return classSize[i]
}
