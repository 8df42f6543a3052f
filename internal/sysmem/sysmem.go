// Package sysmem is the allocator's OS memory primitive: reserve/commit N
// pages of anonymous memory, release N pages. It is the concrete Go side of
// the spec's "out of scope" OS collaborator, built on golang.org/x/sys/unix
// the way the teacher's own go.mod already depends on that module.
//
// The one behavior this package is careful to get right is the Design
// Notes' open question: Free always unmaps the whole mapping that Alloc made
// for the page count it is given, never a fixed size, because the span being
// released may be any length up to the largest jumbo allocation.
package sysmem

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/w2113/ConCurrentMemoryPool/internal/allocerrors"
	"github.com/w2113/ConCurrentMemoryPool/internal/sizeclass"
)

var (
	mu       sync.Mutex
	mappings = map[uintptr][]byte{}
)

// Alloc reserves nPages pages (nPages<<PageShift bytes) of anonymous,
// read-write memory and returns its PageSize-aligned base address.
func Alloc(nPages int) (uintptr, error) {
	length := nPages << sizeclass.PageShift
	// mmap only aligns to the OS page, which may be smaller than PageSize;
	// one extra page of slack always leaves room for an aligned base.
	data, err := unix.Mmap(-1, 0, length+sizeclass.PageSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return 0, fmt.Errorf("%w: mmap %d pages: %v", allocerrors.ErrOutOfMemory, nPages, err)
	}
	raw := uintptr(unsafe.Pointer(&data[0]))
	addr := (raw + sizeclass.PageSize - 1) &^ (sizeclass.PageSize - 1)

	mu.Lock()
	mappings[addr] = data
	mu.Unlock()

	return addr, nil
}

// Free releases the nPages-page region previously returned by Alloc at addr.
func Free(addr uintptr, nPages int) error {
	mu.Lock()
	data, ok := mappings[addr]
	if ok {
		delete(mappings, addr)
	}
	mu.Unlock()

	if !ok {
		return fmt.Errorf("sysmem: free of address %#x not tracked as a live mapping", addr)
	}
	want := nPages << sizeclass.PageShift
	if len(data)-sizeclass.PageSize != want {
		return fmt.Errorf("sysmem: free size mismatch at %#x: mapped %d bytes, asked to release %d", addr, len(data)-sizeclass.PageSize, want)
	}
	return unix.Munmap(data)
}
