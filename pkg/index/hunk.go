package index

import "fmt"

// EntryLimit is the maximum number of entries the writer accumulates before
// flushing a hunk.
const EntryLimit = 1000

// fanOutGroup is the number of hunks grouped under one <aaaaa> directory.
const fanOutGroup = 10_000

// hunkPath returns the <band>-relative path of hunk number n:
// "i/<aaaaa>/<bbbb>" where <aaaaa> is n/10000 zero-padded to 5 digits and
// <bbbb> is n%10000 zero-padded to 4 digits.
func hunkPath(n int) string {
	return fmt.Sprintf("i/%05d/%04d", n/fanOutGroup, n%fanOutGroup)
}
