// Package chunk parses and classifies 4-byte PNG chunk identifiers.
package chunk

import (
	"sort"
	"strings"

	"github.com/ironsheep/pngopt-mcp/internal/pngerr"
)

// Name is a PNG chunk type code such as IHDR or tEXt.
type Name [4]byte

// Well-known chunk names.
var (
	IHDR = Name{'I', 'H', 'D', 'R'}
	PLTE = Name{'P', 'L', 'T', 'E'}
	IDAT = Name{'I', 'D', 'A', 'T'}
	IEND = Name{'I', 'E', 'N', 'D'}
	TRNS = Name{'t', 'R', 'N', 'S'}
	ACTL = Name{'a', 'c', 'T', 'L'}
	FCTL = Name{'f', 'c', 'T', 'L'}
	FDAT = Name{'f', 'd', 'A', 'T'}
)

// DisplayKeyword selects DisplayChunks inside a keep list.
const DisplayKeyword = "display"

// DisplayChunks are the ancillary chunks that affect how an image is shown.
var DisplayChunks = [7]Name{
	{'c', 'I', 'C', 'P'},
	{'i', 'C', 'C', 'P'},
	{'s', 'R', 'G', 'B'},
	{'p', 'H', 'Y', 's'},
	ACTL,
	FCTL,
	FDAT,
}

// Critical lists the chunks that can never be stripped.
var Critical = [5]Name{IHDR, IDAT, TRNS, PLTE, IEND}

// Parse converts s into a Name. Surrounding whitespace is ignored; anything
// other than exactly four bytes fails with KindInvalidChunkName.
func Parse(s string) (Name, error) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) != 4 {
		return Name{}, pngerr.New(pngerr.KindInvalidChunkName, s, "invalid chunk name: %q", s)
	}
	var n Name
	copy(n[:], trimmed)
	return n, nil
}

func (n Name) String() string { return string(n[:]) }

// IsCritical reports whether n is one of the Critical chunks.
func (n Name) IsCritical() bool {
	for _, c := range Critical {
		if n == c {
			return true
		}
	}
	return false
}

// IsDisplay reports whether n is one of the DisplayChunks.
func (n Name) IsDisplay() bool {
	for _, c := range DisplayChunks {
		if n == c {
			return true
		}
	}
	return false
}

// IsAncillary reports whether the ancillary bit (lowercase first letter) is set.
func (n Name) IsAncillary() bool { return n[0]&0x20 != 0 }

// Set is an unordered collection of chunk names.
type Set map[Name]struct{}

// NewSet returns a set holding names.
func NewSet(names ...Name) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Add inserts n.
func (s Set) Add(n Name) { s[n] = struct{}{} }

// Has reports whether n is in the set.
func (s Set) Has(n Name) bool {
	_, ok := s[n]
	return ok
}

// Sorted returns the members as strings in byte order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n.String())
	}
	sort.Strings(out)
	return out
}
