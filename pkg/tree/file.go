package tree

import (
	"fmt"

	"github.com/google/uuid"
)

// FileContent is the payload of a File.
//
// Every content variant (directory tables, byte stores, symbolic links, or
// variants defined outside this package) implements it. The directory table
// calls these hooks while holding whatever lock its caller holds; they must
// not block.
type FileContent interface {
	// Copy returns a content of the same kind with an independent identity.
	// Directory tables copy empty.
	Copy() FileContent

	// Size returns the content-defined size in bytes. Directories report 0.
	Size() int64

	// Deleted is called after the owning file lost a link, with the number of
	// links remaining.
	Deleted(linksRemaining int)

	// Linked is called after entry, which targets the owning file, was added
	// to a directory table.
	Linked(entry *DirectoryEntry)

	// Unlinked is called after entry, which targets the owning file, was
	// removed from a directory table.
	Unlinked(entry *DirectoryEntry)
}

// File is an inode: a unique identity, a link count and one content payload.
//
// The link count is the number of directory entries that target the file,
// including "." and ".." entries, so a directory has 2 + (number of
// subdirectories) links, as in POSIX.
type File struct {
	id      uuid.UUID
	links   int
	content FileContent
}

// NewFile creates a file with no links.
func NewFile(id uuid.UUID, content FileContent) *File {
	return &File{id: id, content: content}
}

// ID returns the unique identifier of the file.
func (f *File) ID() uuid.UUID {
	return f.id
}

// Content returns the file payload.
func (f *File) Content() FileContent {
	return f.content
}

// Links returns the current link count.
func (f *File) Links() int {
	return f.links
}

// Size returns the size reported by the content.
func (f *File) Size() int64 {
	return f.content.Size()
}

// Directory returns the directory table if f is a directory.
func (f *File) Directory() (*DirectoryTable, bool) {
	t, ok := f.content.(*DirectoryTable)
	return t, ok
}

// IsDirectory reports whether f holds a directory table.
func (f *File) IsDirectory() bool {
	_, ok := f.content.(*DirectoryTable)
	return ok
}

// IsRegularFile reports whether f holds a byte store.
func (f *File) IsRegularFile() bool {
	_, ok := f.content.(*ByteStore)
	return ok
}

// IsSymbolicLink reports whether f holds a symbolic link.
func (f *File) IsSymbolicLink() bool {
	_, ok := f.content.(*SymbolicLink)
	return ok
}

// Copy returns a new unlinked file with the given id and a structural copy of
// the content.
func (f *File) Copy(id uuid.UUID) *File {
	return NewFile(id, f.content.Copy())
}

func (f *File) String() string {
	return fmt.Sprintf("File{id=%s, links=%d}", f.id, f.links)
}

func (f *File) incrementLinks() {
	f.links++
}

func (f *File) decrementLinks() {
	if f.links == 0 {
		panic(fmt.Sprintf("tree: link count underflow on %s", f))
	}
	f.links--
	f.content.Deleted(f.links)
}
