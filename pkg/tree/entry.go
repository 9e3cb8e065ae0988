package tree

import "github.com/marmos91/treefs/pkg/name"

// DirectoryEntry links a name in a directory to a file.
//
// An entry is immutable once created. It doubles as the chain node of the
// EntryMap that owns it, so inserting an entry allocates nothing beyond the
// entry itself. An entry belongs to at most one map at a time.
type DirectoryEntry struct {
	directory *File
	name      name.Name
	file      *File

	// next is the bucket chain link, owned by the containing EntryMap
	next *DirectoryEntry
}

// NewDirectoryEntry creates an entry linking name in directory to file.
func NewDirectoryEntry(directory *File, n name.Name, file *File) *DirectoryEntry {
	return &DirectoryEntry{directory: directory, name: n, file: file}
}

// Directory returns the file of the directory whose table holds this entry.
func (e *DirectoryEntry) Directory() *File {
	return e.directory
}

// Name returns the entry name.
func (e *DirectoryEntry) Name() name.Name {
	return e.name
}

// File returns the file the entry links to.
func (e *DirectoryEntry) File() *File {
	return e.file
}

func (e *DirectoryEntry) String() string {
	return e.name.String()
}
