package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/w2113/ConCurrentMemoryPool/concpool"
	"github.com/w2113/ConCurrentMemoryPool/internal/report"
)

// newDrainCmd mirrors S6: allocate a batch and let the ThreadCache go out of
// scope via Close without freeing anything explicitly, verifying the drain
// path (CentralCache.ReleaseListToSpans via ThreadCache.Close) runs clean.
func newDrainCmd() *cobra.Command {
	var (
		count   int
		size    int
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Allocate a batch, then drain the ThreadCache without explicit frees",
		RunE: func(cmd *cobra.Command, args []string) error {
			configureLogging(verbose)
			a := concpool.New()
			tc := a.NewThreadCache()

			for i := 0; i < count; i++ {
				if _, err := tc.Allocate(size); err != nil {
					return fmt.Errorf("allocate %d: %w", i, err)
				}
			}
			if err := tc.Close(); err != nil {
				return fmt.Errorf("drain: %w", err)
			}

			fmt.Println(report.Count("allocations left unfreed before drain", count))
			fmt.Println("drain: ok")
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 100, "allocations to drain without freeing")
	cmd.Flags().IntVar(&size, "size", 64, "object size in bytes")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable info-level logging")
	return cmd
}
