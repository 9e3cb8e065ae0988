package tree

// SymbolicLink is the content of a symbolic link: an unresolved target path.
type SymbolicLink struct {
	target string
}

// NewSymbolicLink creates a link to target. The target is stored verbatim.
func NewSymbolicLink(target string) *SymbolicLink {
	return &SymbolicLink{target: target}
}

// Target returns the stored target path.
func (l *SymbolicLink) Target() string {
	return l.target
}

// Copy returns a link with the same target.
func (l *SymbolicLink) Copy() FileContent {
	return NewSymbolicLink(l.target)
}

// Size returns the length of the target in bytes.
func (l *SymbolicLink) Size() int64 {
	return int64(len(l.target))
}

func (l *SymbolicLink) Deleted(int)              {}
func (l *SymbolicLink) Linked(*DirectoryEntry)   {}
func (l *SymbolicLink) Unlinked(*DirectoryEntry) {}
