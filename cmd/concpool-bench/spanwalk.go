package main

import (
	"fmt"
	"math/rand"
	"unsafe"

	"github.com/spf13/cobra"

	"github.com/w2113/ConCurrentMemoryPool/concpool"
	"github.com/w2113/ConCurrentMemoryPool/internal/report"
)

// newSpanWalkCmd mirrors S3/S5: a batch of same-size small allocations plus
// one jumbo allocation; the small ones are checked for aliasing and freed
// back in random order, then the jumbo one is freed.
func newSpanWalkCmd() *cobra.Command {
	var (
		smallCount int
		smallSize  int
		jumboSize  int
		verbose    bool
	)
	cmd := &cobra.Command{
		Use:   "span-walk",
		Short: "Mix small and jumbo allocations, then free them out of order",
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(verbose)
			a := concpool.New()
			tc := a.NewThreadCache()
			defer tc.Close()

			type alloc struct {
				ptr  unsafe.Pointer
				size int
			}
			allocs := make([]alloc, 0, smallCount+1)

			for i := 0; i < smallCount; i++ {
				ptr, err := tc.Allocate(smallSize)
				if err != nil {
					return fmt.Errorf("small allocate %d: %w", i, err)
				}
				allocs = append(allocs, alloc{ptr, smallSize})
			}

			jumboPtr, err := a.AllocateLarge(jumboSize)
			if err != nil {
				return fmt.Errorf("jumbo allocate: %w", err)
			}

			seen := map[uintptr]bool{}
			for _, al := range allocs {
				addr := uintptr(al.ptr)
				if seen[addr] {
					return fmt.Errorf("address %#x aliased", addr)
				}
				seen[addr] = true
			}

			rand.Shuffle(len(allocs), func(i, j int) { allocs[i], allocs[j] = allocs[j], allocs[i] })
			for _, al := range allocs {
				if err := tc.Free(al.ptr, al.size); err != nil {
					return fmt.Errorf("free: %w", err)
				}
			}
			if err := a.FreeLarge(jumboPtr); err != nil {
				return fmt.Errorf("free jumbo: %w", err)
			}

			fmt.Println(report.Count("small allocations", smallCount))
			fmt.Println(report.Bytes(jumboSize) + " jumbo allocation")
			fmt.Println("span-walk: ok")
			return nil
		},
	}
	cmd.Flags().IntVar(&smallCount, "small-count", 4096, "number of small allocations")
	cmd.Flags().IntVar(&smallSize, "small-size", 1024, "small allocation size in bytes")
	cmd.Flags().IntVar(&jumboSize, "jumbo-size", 300*1024, "jumbo allocation size in bytes")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable info-level logging")
	return cmd
}
