// Package fatal implements the core's only response to an invariant
// violation: log it structurally, then panic. Use-count mismatches, a span
// found in the wrong bucket, or an address index missing an interior page
// are all programming errors inside the allocator itself, never transient
// conditions, so there is nothing to retry and nothing to swallow.
//
// This is the idiomatic analogue of the teacher runtime's throw/fatal pair,
// which abort the process outright; a library can't call os.Exit on its
// caller's behalf, so it logs with slog and panics instead, leaving
// recovery policy to whoever embeds the allocator.
package fatal

import (
	"fmt"
	"log/slog"
)

// Invariant logs msg (formatted like fmt.Sprintf) at error level and panics.
// It never returns; callers still write a trailing return statement after
// calling it because the Go compiler can't see that panic never returns.
func Invariant(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	slog.Error("concpool: invariant violation", "detail", msg)
	panic(msg)
}
