// Command concpool-bench drives the allocator through the end-to-end
// scenarios the core's invariants are checked against (spec.md §8,
// S1-S6), printing a pass/fail summary. It is a demonstration and
// diagnostic harness, not a general-purpose allocator façade — the core
// itself exposes no CLI (spec.md §6).
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "concpool-bench",
		Short: "Drive the ConCurrentMemoryPool allocator through sample workloads",
	}
	root.AddCommand(newAllocStormCmd())
	root.AddCommand(newSpanWalkCmd())
	root.AddCommand(newDrainCmd())
	return root
}

func configureLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
