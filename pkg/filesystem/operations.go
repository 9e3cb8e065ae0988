package filesystem

import (
	"context"
	"time"

	"github.com/marmos91/treefs/internal/logger"
	"github.com/marmos91/treefs/pkg/tree"
)

// ============================================================================
// File/Directory Operations
// ============================================================================

// CreateDirectory creates an empty directory named entryName in dir.
func (fs *FileSystem) CreateDirectory(ctx context.Context, dir *tree.File, entryName string) (*tree.File, error) {
	return fs.create(ctx, "create_directory", dir, entryName, fs.factory.NewDirectory)
}

// CreateFile creates an empty regular file named entryName in dir.
func (fs *FileSystem) CreateFile(ctx context.Context, dir *tree.File, entryName string) (*tree.File, error) {
	return fs.create(ctx, "create_file", dir, entryName, fs.factory.NewRegularFile)
}

// CreateSymlink creates a symbolic link named entryName in dir. The target is
// stored as given and never resolved.
func (fs *FileSystem) CreateSymlink(ctx context.Context, dir *tree.File, entryName, target string) (*tree.File, error) {
	return fs.create(ctx, "create_symlink", dir, entryName, func() *tree.File {
		return fs.factory.NewSymbolicLink(target)
	})
}

func (fs *FileSystem) create(
	ctx context.Context,
	operation string,
	dir *tree.File,
	entryName string,
	newFile func() *tree.File,
) (file *tree.File, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer fs.record(operation, time.Now(), &err)

	n, err := fs.parseEntryName(entryName)
	if err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	table, err := liveDirectory(dir)
	if err != nil {
		return nil, err
	}

	file = newFile()
	if _, err := table.Link(n, file); err != nil {
		return nil, err
	}

	logger.Debug("%s: %s (%s)", operation, n, file.ID())
	return file, nil
}

// Link creates a hard link named entryName in dir to file. Directories cannot
// be hard linked.
func (fs *FileSystem) Link(ctx context.Context, dir *tree.File, entryName string, file *tree.File) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer fs.record("link", time.Now(), &err)

	n, err := fs.parseEntryName(entryName)
	if err != nil {
		return err
	}
	if file == nil {
		return &tree.StoreError{
			Code:    tree.ErrInvalidArgument,
			Message: "nil file",
		}
	}
	if file.IsDirectory() {
		return &tree.StoreError{
			Code:    tree.ErrIsDirectory,
			Message: "cannot hard link a directory",
			Name:    entryName,
		}
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	table, err := liveDirectory(dir)
	if err != nil {
		return err
	}
	// An unlinked file cannot be brought back, even while a handle keeps
	// its data alive.
	if file.Links() == 0 {
		return &tree.StoreError{
			Code:    tree.ErrNotFound,
			Message: "file has no links",
			Name:    entryName,
		}
	}
	if _, err := table.Link(n, file); err != nil {
		return err
	}

	logger.Debug("Link: %s -> %s (links=%d)", n, file.ID(), file.Links())
	return nil
}

// Remove unlinks entryName from dir. Directories must be empty.
func (fs *FileSystem) Remove(ctx context.Context, dir *tree.File, entryName string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer fs.record("remove", time.Now(), &err)

	n, err := fs.parseEntryName(entryName)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	table, err := directory(dir)
	if err != nil {
		return err
	}

	e, ok := table.Get(n)
	if !ok {
		return &tree.StoreError{
			Code:    tree.ErrNotFound,
			Message: "no such entry",
			Name:    entryName,
		}
	}
	if child, ok := e.File().Directory(); ok && !child.IsEmpty() {
		return &tree.StoreError{
			Code:    tree.ErrNotEmpty,
			Message: "directory not empty",
			Name:    entryName,
		}
	}

	if _, err := table.Unlink(n); err != nil {
		return err
	}

	logger.Debug("Remove: %s (%s, links=%d)", n, e.File().ID(), e.File().Links())
	return nil
}

// Move renames srcName in srcDir to dstName in dstDir. The destination must
// not exist, and a directory cannot be moved into its own subtree. Moving an
// entry onto a name equal to its own only changes how it is displayed (e.g.
// "readme" to "README" under case folding).
//
// Regular files and symlinks are linked at the destination before being
// unlinked at the source, so their link count never drops to zero and their
// content is never released mid-move. A directory can be linked under only
// one parent at a time, so it is unlinked first.
func (fs *FileSystem) Move(
	ctx context.Context,
	srcDir *tree.File,
	srcName string,
	dstDir *tree.File,
	dstName string,
) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	defer fs.record("move", time.Now(), &err)

	from, err := fs.parseEntryName(srcName)
	if err != nil {
		return err
	}
	to, err := fs.parseEntryName(dstName)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	srcTable, err := directory(srcDir)
	if err != nil {
		return err
	}
	dstTable, err := liveDirectory(dstDir)
	if err != nil {
		return err
	}

	e, ok := srcTable.Get(from)
	if !ok {
		return &tree.StoreError{
			Code:    tree.ErrNotFound,
			Message: "source not found",
			Name:    srcName,
		}
	}

	// Same entry: only the display form can change.
	if srcTable == dstTable && from.Equal(to) {
		if e.Name().String() == to.String() {
			return nil
		}
		if _, err := srcTable.Relabel(from, to); err != nil {
			return err
		}
		logger.Debug("Move: %s -> %s (%s)", e.Name(), to, e.File().ID())
		return nil
	}
	if _, exists := dstTable.Get(to); exists {
		return &tree.StoreError{
			Code:    tree.ErrAlreadyExists,
			Message: "destination already exists",
			Name:    dstName,
		}
	}

	file := e.File()
	if !file.IsDirectory() {
		if _, err := dstTable.Link(to, file); err != nil {
			return err
		}
		if _, err := srcTable.Unlink(from); err != nil {
			return err
		}
		logger.Debug("Move: %s -> %s (%s)", from, to, file.ID())
		return nil
	}

	if isAncestorOrSelf(file, dstDir) {
		return &tree.StoreError{
			Code:    tree.ErrInvalidArgument,
			Message: "cannot move a directory into itself",
			Name:    srcName,
		}
	}

	if _, err := srcTable.Unlink(from); err != nil {
		return err
	}
	// to is neither reserved nor present, so this cannot fail
	if _, err := dstTable.Link(to, file); err != nil {
		panic("filesystem: relinking moved directory: " + err.Error())
	}

	logger.Debug("Move: %s -> %s (%s)", from, to, file.ID())
	return nil
}

// isAncestorOrSelf reports whether ancestor is dir or one of its parents.
func isAncestorOrSelf(ancestor, dir *tree.File) bool {
	for d := dir; ; {
		if d == ancestor {
			return true
		}
		table, ok := d.Directory()
		if !ok || table.Entry() == nil {
			return false
		}
		parent := table.Parent()
		if parent == d {
			return false
		}
		d = parent
	}
}
