// Package name provides the canonicalized identifiers used as directory
// entry keys.
//
// A Name carries two forms of the same string:
//   - display: the form shown in listings (after display normalization)
//   - canonical: the form used for equality and hashing (after canonical
//     normalization, e.g. case folding on a case-insensitive filesystem)
//
// The two reserved names Self (".") and Parent ("..") are distinguished from
// user-supplied names by their kind, not by their string value. A user name
// can never compare equal to a reserved one, whatever it canonicalizes to.
package name

import (
	"cmp"
	"slices"

	"github.com/cespare/xxhash/v2"
)

type kind uint8

const (
	kindUser kind = iota
	kindSelf
	kindParent
)

// Name is an immutable directory entry name.
//
// Name is a comparable value type. The zero Name is invalid and is never
// produced by a Canonicalizer.
type Name struct {
	kind      kind
	display   string
	canonical string
	hash      uint64
}

var (
	// Self is the reserved name linking a directory to itself (".").
	Self = reserved(kindSelf, ".")

	// Parent is the reserved name linking a directory to its parent ("..").
	Parent = reserved(kindParent, "..")
)

func reserved(k kind, s string) Name {
	return Name{
		kind:      k,
		display:   s,
		canonical: s,
		hash:      xxhash.Sum64String(s) ^ uint64(k),
	}
}

// newUser builds a user-supplied name from already normalized forms.
func newUser(display, canonical string) Name {
	return Name{
		kind:      kindUser,
		display:   display,
		canonical: canonical,
		hash:      xxhash.Sum64String(canonical),
	}
}

// Simple returns a user name whose display and canonical forms are both s,
// with no normalization applied. The strings "." and ".." map to Self and
// Parent.
func Simple(s string) Name {
	switch s {
	case ".":
		return Self
	case "..":
		return Parent
	}
	return newUser(s, s)
}

// String returns the display form.
func (n Name) String() string {
	return n.display
}

// Canonical returns the form used for equality and hashing.
func (n Name) Canonical() string {
	return n.canonical
}

// Hash returns the hash of the canonical form.
func (n Name) Hash() uint64 {
	return n.hash
}

// IsSelf reports whether n is the reserved "." name.
func (n Name) IsSelf() bool {
	return n.kind == kindSelf
}

// IsParent reports whether n is the reserved ".." name.
func (n Name) IsParent() bool {
	return n.kind == kindParent
}

// IsReserved reports whether n is Self or Parent.
func (n Name) IsReserved() bool {
	return n.kind != kindUser
}

// IsZero reports whether n is the zero Name.
func (n Name) IsZero() bool {
	return n.kind == kindUser && n.canonical == "" && n.display == ""
}

// Equal reports whether n and other name the same entry: same kind and same
// canonical form. Display forms may differ.
func (n Name) Equal(other Name) bool {
	return n.kind == other.kind && n.hash == other.hash && n.canonical == other.canonical
}

// Compare implements the display ordering: names sort by display form, ties
// are broken by canonical form and then by kind.
func Compare(a, b Name) int {
	if c := cmp.Compare(a.display, b.display); c != 0 {
		return c
	}
	if c := cmp.Compare(a.canonical, b.canonical); c != 0 {
		return c
	}
	return cmp.Compare(a.kind, b.kind)
}

// Sort sorts names in display ordering and drops duplicates.
func Sort(names []Name) []Name {
	slices.SortFunc(names, Compare)
	return slices.CompactFunc(names, func(a, b Name) bool {
		return Compare(a, b) == 0
	})
}
