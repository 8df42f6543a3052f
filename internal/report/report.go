// Package report formats allocator byte and object counts for humans:
// out-of-memory error text and the concpool-bench CLI summary both go
// through it. Grounded on the teacher's own golang.org/x/text require —
// this is the one place in the repo with a reason to format grouped
// numbers for a person to read.
package report

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// Bytes formats a byte count with thousands separators, e.g. "1,048,576 B".
func Bytes(n int) string {
	return printer.Sprintf("%v B", number.Decimal(n))
}

// Count formats a labeled integer with thousands separators, e.g.
// "objects: 10,000".
func Count(label string, n int) string {
	return printer.Sprintf("%s: %v", label, number.Decimal(n))
}
