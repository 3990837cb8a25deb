// Package band implements BandId, the per-snapshot directory, and its
// open/close lifecycle (BANDHEAD/BANDTAIL).
package band

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yonasBSD/conserve/pkg/archiveerror"
)

// ID is a band identifier: a dotted-decimal path like "b0000" or
// "b0000-0001". Only single-component ids are produced today; the
// multi-component form is reserved for future sub-bands.
type ID []int

// Parse parses a band directory name like "b0042" or "b0000-0001" into an
// ID.
func Parse(s string) (ID, error) {
	if !strings.HasPrefix(s, "b") {
		return nil, archiveerror.InvalidApath("ParseBandID", s, fmt.Errorf("band id must start with 'b'"))
	}
	parts := strings.Split(s[1:], "-")
	id := make(ID, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, archiveerror.InvalidApath("ParseBandID", s, fmt.Errorf("component %q is not numeric", p))
		}
		id[i] = n
	}
	return id, nil
}

// String renders the ID in its canonical "b0000" / "b0000-0001" form, each
// component zero-padded to 4 digits.
func (id ID) String() string {
	var b strings.Builder
	b.WriteByte('b')
	for i, n := range id {
		if i > 0 {
			b.WriteByte('-')
		}
		fmt.Fprintf(&b, "%04d", n)
	}
	return b.String()
}

// Compare returns -1, 0, or 1 as a sorts before, equal to, or after b under
// lexicographic order on the component vectors (numeric compare per
// component).
func Compare(a, b ID) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Less reports whether id sorts strictly before other.
func (id ID) Less(other ID) bool {
	return Compare(id, other) < 0
}

// Next returns the band ID immediately following id at the same depth,
// i.e. id with its last component incremented.
func (id ID) Next() ID {
	next := make(ID, len(id))
	copy(next, id)
	next[len(next)-1]++
	return next
}

// FirstTopLevel is the ID of the first top-level band, "b0000".
var FirstTopLevel = ID{0}
