package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/w2113/ConCurrentMemoryPool/concpool"
	"github.com/w2113/ConCurrentMemoryPool/internal/report"
)

// newAllocStormCmd mirrors S1/S4: one or more goroutines, each with its own
// ThreadCache, allocate and then free a batch of equally-sized objects.
func newAllocStormCmd() *cobra.Command {
	var (
		workers int
		count   int
		size    int
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "alloc-storm",
		Short: "Allocate then free a batch of same-size objects per worker goroutine",
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(verbose)
			a := concpool.New()

			var wg sync.WaitGroup
			errs := make([]error, workers)
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					errs[w] = runAllocStorm(a, count, size)
				}(w)
			}
			wg.Wait()

			for _, err := range errs {
				if err != nil {
					return err
				}
			}
			fmt.Println(report.Count("workers", workers))
			fmt.Println(report.Count("allocations per worker", count))
			fmt.Println(report.Bytes(size) + " per object")
			fmt.Println("alloc-storm: ok")
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 2, "number of concurrent worker goroutines")
	cmd.Flags().IntVar(&count, "count", 10000, "allocations per worker")
	cmd.Flags().IntVar(&size, "size", 16, "object size in bytes")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable info-level logging")
	return cmd
}

func runAllocStorm(a *concpool.Allocator, count, size int) error {
	tc := a.NewThreadCache()
	defer tc.Close()

	ptrs := make([]uintptr, 0, count)
	seen := make(map[uintptr]struct{}, count)
	for i := 0; i < count; i++ {
		ptr, err := tc.Allocate(size)
		if err != nil {
			return fmt.Errorf("allocate %d/%d: %w", i, count, err)
		}
		addr := ptrAddr(ptr)
		if _, dup := seen[addr]; dup {
			return fmt.Errorf("address %#x aliased by two live allocations", addr)
		}
		seen[addr] = struct{}{}
		ptrs = append(ptrs, addr)
	}
	for _, addr := range ptrs {
		if err := tc.Free(ptrFromAddr(addr), size); err != nil {
			return fmt.Errorf("free: %w", err)
		}
	}
	return nil
}
