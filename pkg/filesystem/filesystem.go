// Package filesystem is the link-management layer over pkg/tree: it owns the
// root directories, serializes access with a single lock, and implements the
// create/link/remove/move operations in terms of DirectoryTable.Link and
// DirectoryTable.Unlink.
package filesystem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/treefs/internal/logger"
	"github.com/marmos91/treefs/pkg/metrics"
	"github.com/marmos91/treefs/pkg/name"
	"github.com/marmos91/treefs/pkg/tree"
)

// FileSystem is an in-memory directory tree with one or more roots.
//
// Thread Safety:
// All operations are protected by a single read-write mutex (mu). The tree
// package itself never locks; this is the external lock it relies on. Moves
// across directories are atomic because both tables are mutated under mu.
type FileSystem struct {
	// mu protects every directory table reachable from roots.
	mu sync.RWMutex

	canon   *name.Canonicalizer
	factory *tree.Factory
	metrics metrics.TreeMetrics

	// roots maps root names (e.g. "/" or "C:") to root directories.
	// The entries have no owning directory.
	roots *tree.EntryMap
}

// New creates an empty FileSystem. A nil m disables metrics.
func New(canon *name.Canonicalizer, factory *tree.Factory, m metrics.TreeMetrics) *FileSystem {
	if m == nil {
		m = metrics.NewTreeMetrics(nil)
	}
	return &FileSystem{
		canon:   canon,
		factory: factory,
		metrics: m,
		roots:   tree.NewEntryMap(0, 0),
	}
}

// record reports an operation to metrics. Use with defer and a named error.
func (fs *FileSystem) record(operation string, start time.Time, err *error) {
	fs.metrics.RecordOperation(operation, time.Since(start), *err)
}

// parseName canonicalizes s, translating failures into StoreErrors.
func (fs *FileSystem) parseName(s string) (name.Name, error) {
	n, err := fs.canon.Name(s)
	if err != nil {
		return name.Name{}, &tree.StoreError{
			Code:    tree.ErrInvalidArgument,
			Message: err.Error(),
			Name:    s,
		}
	}
	return n, nil
}

// parseEntryName canonicalizes s and rejects "." and "..".
func (fs *FileSystem) parseEntryName(s string) (name.Name, error) {
	n, err := fs.parseName(s)
	if err != nil {
		return name.Name{}, err
	}
	if n.IsReserved() {
		return name.Name{}, &tree.StoreError{
			Code:    tree.ErrInvalidArgument,
			Message: "reserved name",
			Name:    s,
		}
	}
	return n, nil
}

// directory returns the table of dir, failing if dir is not a directory.
func directory(dir *tree.File) (*tree.DirectoryTable, error) {
	if dir == nil {
		return nil, &tree.StoreError{
			Code:    tree.ErrInvalidArgument,
			Message: "nil directory",
		}
	}
	table, ok := dir.Directory()
	if !ok {
		return nil, &tree.StoreError{
			Code:    tree.ErrNotDirectory,
			Message: "not a directory",
		}
	}
	return table, nil
}

// liveDirectory is like directory but also rejects directories that have
// been removed from the tree: nothing new may be linked into them.
func liveDirectory(dir *tree.File) (*tree.DirectoryTable, error) {
	table, err := directory(dir)
	if err != nil {
		return nil, err
	}
	if table.Entry() == nil {
		return nil, &tree.StoreError{
			Code:    tree.ErrNotFound,
			Message: "directory has been removed",
		}
	}
	return table, nil
}

// parseRootName canonicalizes a root name such as "/" or "C:".
func (fs *FileSystem) parseRootName(s string) (name.Name, error) {
	n, err := fs.canon.RootName(s)
	if err != nil {
		return name.Name{}, &tree.StoreError{
			Code:    tree.ErrInvalidArgument,
			Message: err.Error(),
			Name:    s,
		}
	}
	return n, nil
}

// ============================================================================
// Roots
// ============================================================================

// CreateRoot creates a root directory. Creating an existing root returns it.
func (fs *FileSystem) CreateRoot(ctx context.Context, rootName string) (root *tree.File, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer fs.record("create_root", time.Now(), &err)

	n, err := fs.parseRootName(rootName)
	if err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if e, ok := fs.roots.Get(n); ok {
		return e.File(), nil
	}

	root = fs.factory.NewRootDirectory(n)
	fs.roots.Put(tree.NewDirectoryEntry(nil, n, root))

	logger.Debug("CreateRoot: %s (%s)", n, root.ID())
	return root, nil
}

// Root returns the root directory with the given name.
func (fs *FileSystem) Root(rootName string) (*tree.File, error) {
	n, err := fs.parseRootName(rootName)
	if err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	e, ok := fs.roots.Get(n)
	if !ok {
		return nil, &tree.StoreError{
			Code:    tree.ErrNotFound,
			Message: "no such root",
			Name:    rootName,
		}
	}
	return e.File(), nil
}

// Roots returns the root names in display order.
func (fs *FileSystem) Roots() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	names := make([]name.Name, 0, fs.roots.Len())
	for e := range fs.roots.All() {
		names = append(names, e.Name())
	}
	return displayStrings(name.Sort(names))
}

func displayStrings(names []name.Name) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.String()
	}
	return out
}

// ============================================================================
// Queries
// ============================================================================

// Lookup resolves a single name in dir. "." and ".." are supported.
func (fs *FileSystem) Lookup(ctx context.Context, dir *tree.File, entryName string) (*tree.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n, err := fs.parseName(entryName)
	if err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	table, err := directory(dir)
	if err != nil {
		return nil, err
	}

	e, ok := table.Get(n)
	if !ok {
		return nil, &tree.StoreError{
			Code:    tree.ErrNotFound,
			Message: "no such entry",
			Name:    entryName,
		}
	}
	return e.File(), nil
}

// List returns the names in dir, excluding "." and "..", in display order.
func (fs *FileSystem) List(ctx context.Context, dir *tree.File) (names []string, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer fs.record("list", time.Now(), &err)

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	table, err := directory(dir)
	if err != nil {
		return nil, err
	}
	return displayStrings(table.Snapshot()), nil
}

// NameOf returns the name under which dir is linked in its parent, and
// whether dir is still linked.
func (fs *FileSystem) NameOf(dir *tree.File) (string, bool) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	table, ok := dir.Directory()
	if !ok || table.Entry() == nil {
		return "", false
	}
	return table.Entry().Name().String(), true
}

func (fs *FileSystem) String() string {
	return fmt.Sprintf("FileSystem{roots=%v}", fs.Roots())
}
