package tree

import (
	"iter"

	"github.com/marmos91/treefs/pkg/name"
)

// DirectoryTable is the content of a directory: a table of entries.
//
// Every live directory holds exactly one "." entry pointing at its own file
// and one ".." entry pointing at its parent. A root directory is its own
// parent. The entry that links the directory into its parent is owned by the
// parent's table; the child only keeps a reference to it (entryInParent),
// which is cleared when the parent unlinks the child.
//
// Lifecycle:
//  1. NewDirectoryTable, then SetSelf immediately
//  2. SetAsRoot, or Linked when a parent links the directory
//  3. Unlinked when the parent removes the entry
//
// DirectoryTable performs no locking. Callers serialize access.
type DirectoryTable struct {
	entries *EntryMap

	// entryInParent is the entry linking this directory in its parent.
	// nil only for a directory that was unlinked while still referenced.
	entryInParent *DirectoryEntry

	opts Options
}

// NewDirectoryTable creates an empty table.
func NewDirectoryTable(opts Options) *DirectoryTable {
	return &DirectoryTable{
		entries: NewEntryMap(opts.InitialCapacity, opts.LoadFactor),
		opts:    opts,
	}
}

// Copy returns a new empty table. Entries are never copied.
func (t *DirectoryTable) Copy() FileContent {
	return NewDirectoryTable(t.opts)
}

// Size is always 0 for directories.
func (t *DirectoryTable) Size() int64 {
	return 0
}

// Deleted does nothing: directories hold no releasable data.
func (t *DirectoryTable) Deleted(int) {}

// SetSelf installs the "." entry. It must be called exactly once, right after
// the table is created.
func (t *DirectoryTable) SetSelf(self *File) {
	if _, ok := t.entries.Get(name.Self); ok {
		panic("tree: SetSelf called twice")
	}
	t.put(NewDirectoryEntry(self, name.Self, self))
}

// SetAsRoot makes this directory a root: ".." links back to self and the
// entry reported by Entry is (self, n, self).
func (t *DirectoryTable) SetAsRoot(self *File, n name.Name) {
	t.Linked(NewDirectoryEntry(self, n, self))
}

// Linked is called by the parent table when this directory is linked under a
// name. It records entry as the entry in the parent and installs "..".
func (t *DirectoryTable) Linked(entry *DirectoryEntry) {
	t.entryInParent = entry
	t.put(NewDirectoryEntry(entry.File(), name.Parent, entry.Directory()))
}

// Unlinked is called by the parent table after removing the entry linking
// this directory. It removes ".." and forgets the entry in the parent.
func (t *DirectoryTable) Unlinked(*DirectoryEntry) {
	if _, ok := t.entries.Get(name.Parent); !ok {
		panic("tree: Unlinked called on a directory without a parent entry")
	}
	t.remove(name.Parent)
	t.entryInParent = nil
}

// Entry returns the entry linking this directory in its parent, or nil if the
// directory has been unlinked.
func (t *DirectoryTable) Entry() *DirectoryEntry {
	return t.entryInParent
}

// Parent returns the file of the parent directory. It panics on a detached
// directory; check Entry first when that is possible.
func (t *DirectoryTable) Parent() *File {
	if t.entryInParent == nil {
		panic("tree: Parent called on a detached directory")
	}
	return t.entryInParent.Directory()
}

// Self returns the file containing this table.
func (t *DirectoryTable) Self() *File {
	e, ok := t.entries.Get(name.Self)
	if !ok {
		panic("tree: Self called before SetSelf")
	}
	return e.File()
}

// EntryCount returns the number of entries, "." and ".." included.
func (t *DirectoryTable) EntryCount() int {
	return t.entries.Len()
}

// IsEmpty reports whether the directory has no entries besides "." and "..".
func (t *DirectoryTable) IsEmpty() bool {
	return t.EntryCount() == 2
}

// Get returns the entry for n, if any.
func (t *DirectoryTable) Get(n name.Name) (*DirectoryEntry, bool) {
	return t.entries.Get(n)
}

// Link links n to file. It fails with ErrInvalidArgument for "." and "..",
// and with ErrAlreadyExists if n is already linked. On success the content of
// file is notified through Linked.
func (t *DirectoryTable) Link(n name.Name, file *File) (*DirectoryEntry, error) {
	if err := checkNotReserved(n, "link"); err != nil {
		return nil, err
	}
	if _, ok := t.entries.Get(n); ok {
		return nil, &StoreError{
			Code:    ErrAlreadyExists,
			Message: "entry already exists",
			Name:    n.String(),
		}
	}

	entry := t.put(NewDirectoryEntry(t.Self(), n, file))
	file.Content().Linked(entry)
	return entry, nil
}

// Unlink removes the entry for n. It fails with ErrInvalidArgument for "."
// and "..", and with ErrNotFound if n is not linked. On success the content
// of the unlinked file is notified through Unlinked.
func (t *DirectoryTable) Unlink(n name.Name) (*DirectoryEntry, error) {
	if err := checkNotReserved(n, "unlink"); err != nil {
		return nil, err
	}
	if _, ok := t.entries.Get(n); !ok {
		return nil, &StoreError{
			Code:    ErrNotFound,
			Message: "no such entry",
			Name:    n.String(),
		}
	}

	entry, file := t.detach(n)
	file.Content().Unlinked(entry)
	file.decrementLinks()
	return entry, nil
}

// Relabel replaces the entry for n with one displayed as to, which must be
// equal to n (a case-only rename under case folding). The file keeps at least
// one link throughout, and its content sees Unlinked for the old entry then
// Linked for the new one.
func (t *DirectoryTable) Relabel(n, to name.Name) (*DirectoryEntry, error) {
	if err := checkNotReserved(n, "relabel"); err != nil {
		return nil, err
	}
	if !n.Equal(to) {
		return nil, &StoreError{
			Code:    ErrInvalidArgument,
			Message: "relabel to a different name",
			Name:    to.String(),
		}
	}
	old, ok := t.entries.Get(n)
	if !ok {
		return nil, &StoreError{
			Code:    ErrNotFound,
			Message: "no such entry",
			Name:    n.String(),
		}
	}

	file := old.File()
	entry := t.put(NewDirectoryEntry(t.Self(), to, file))
	file.Content().Unlinked(old)
	file.Content().Linked(entry)
	return entry, nil
}

// Snapshot returns the names in this directory, excluding "." and "..",
// sorted in display order.
func (t *DirectoryTable) Snapshot() []name.Name {
	names := make([]name.Name, 0, t.entries.Len())
	for e := range t.entries.All() {
		if !e.Name().IsReserved() {
			names = append(names, e.Name())
		}
	}
	return name.Sort(names)
}

// Entries yields every entry, "." and ".." included, in unspecified order.
// The table must not be modified during iteration.
func (t *DirectoryTable) Entries() iter.Seq[*DirectoryEntry] {
	return t.entries.All()
}

// put inserts entry and counts the new link. A replaced entry loses its link.
func (t *DirectoryTable) put(entry *DirectoryEntry) *DirectoryEntry {
	old, replaced := t.entries.Get(entry.Name())
	t.entries.Put(entry)
	entry.File().incrementLinks()
	if replaced {
		old.File().decrementLinks()
	}
	return entry
}

// remove removes the entry for n and drops its link.
func (t *DirectoryTable) remove(n name.Name) {
	_, file := t.detach(n)
	file.decrementLinks()
}

// detach removes the entry for n from the map, which must contain it.
func (t *DirectoryTable) detach(n name.Name) (*DirectoryEntry, *File) {
	entry, err := t.entries.Remove(n)
	if err != nil {
		panic("tree: " + err.Error())
	}
	return entry, entry.File()
}

func checkNotReserved(n name.Name, action string) error {
	if n.IsZero() {
		return &StoreError{
			Code:    ErrInvalidArgument,
			Message: "cannot " + action + " empty name",
		}
	}
	if n.IsReserved() {
		return &StoreError{
			Code:    ErrInvalidArgument,
			Message: "cannot " + action + " reserved name",
			Name:    n.String(),
		}
	}
	return nil
}
