package tree

import (
	"github.com/google/uuid"
	"github.com/marmos91/treefs/pkg/name"
)

// Options tunes the files created by a Factory.
type Options struct {
	// InitialCapacity is the bucket count of new directory tables
	InitialCapacity int

	// LoadFactor is the size/buckets ratio above which tables grow
	LoadFactor float64

	// MaxFileSize caps the byte store of regular files (0 = unlimited)
	MaxFileSize int64
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		InitialCapacity: DefaultInitialCapacity,
		LoadFactor:      DefaultLoadFactor,
	}
}

// Factory creates files with fresh identities.
type Factory struct {
	opts Options
}

// NewFactory creates a Factory. Zero option fields select the defaults.
func NewFactory(opts Options) *Factory {
	if opts.InitialCapacity <= 0 {
		opts.InitialCapacity = DefaultInitialCapacity
	}
	if opts.LoadFactor <= 0 {
		opts.LoadFactor = DefaultLoadFactor
	}
	return &Factory{opts: opts}
}

// Options returns the effective options.
func (f *Factory) Options() Options {
	return f.opts
}

// NewDirectory creates an unlinked directory with its "." entry installed.
func (f *Factory) NewDirectory() *File {
	table := NewDirectoryTable(f.opts)
	dir := NewFile(uuid.New(), table)
	table.SetSelf(dir)
	return dir
}

// NewRootDirectory creates a root directory named n: its ".." is itself.
func (f *Factory) NewRootDirectory(n name.Name) *File {
	dir := f.NewDirectory()
	table, _ := dir.Directory()
	table.SetAsRoot(dir, n)
	return dir
}

// NewRegularFile creates an unlinked, empty regular file.
func (f *Factory) NewRegularFile() *File {
	return NewFile(uuid.New(), NewByteStore(f.opts.MaxFileSize))
}

// NewSymbolicLink creates an unlinked symbolic link to target.
func (f *Factory) NewSymbolicLink(target string) *File {
	return NewFile(uuid.New(), NewSymbolicLink(target))
}

// Copy creates an unlinked copy of file with a fresh identity. Directories
// copy empty, with their "." entry installed.
func (f *Factory) Copy(file *File) *File {
	c := file.Copy(uuid.New())
	if table, ok := c.Directory(); ok {
		table.SetSelf(c)
	}
	return c
}
