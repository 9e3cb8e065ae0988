package filesystem

import (
	"context"
	"testing"

	"github.com/marmos91/treefs/pkg/metrics"
	"github.com/marmos91/treefs/pkg/name"
	"github.com/marmos91/treefs/pkg/tree"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileSystem(t *testing.T, canonical ...name.Normalization) (*FileSystem, *tree.File) {
	t.Helper()
	canon, err := name.NewCanonicalizer(nil, canonical)
	require.NoError(t, err)

	fs := New(canon, tree.NewFactory(tree.Options{}), nil)
	root, err := fs.CreateRoot(context.Background(), "/")
	require.NoError(t, err)
	return fs, root
}

func requireValid(t *testing.T, fs *FileSystem) Stats {
	t.Helper()
	stats, err := fs.Verify(context.Background())
	require.NoError(t, err)
	return stats
}

func TestCreateRoot(t *testing.T) {
	ctx := context.Background()
	fs, root := newFileSystem(t)

	again, err := fs.CreateRoot(ctx, "/")
	require.NoError(t, err)
	assert.Same(t, root, again)

	_, err = fs.CreateRoot(ctx, "C:")
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "C:"}, fs.Roots())

	got, err := fs.Root("C:")
	require.NoError(t, err)
	assert.True(t, got.IsDirectory())

	_, err = fs.Root("D:")
	assert.True(t, tree.IsCode(err, tree.ErrNotFound))

	_, err = fs.CreateRoot(ctx, "..")
	assert.True(t, tree.IsCode(err, tree.ErrInvalidArgument))

	stats := requireValid(t, fs)
	assert.Equal(t, int64(2), stats.Directories)
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	fs, root := newFileSystem(t)

	_, err := fs.CreateFile(ctx, root, "b.txt")
	require.NoError(t, err)
	sub, err := fs.CreateDirectory(ctx, root, "a")
	require.NoError(t, err)
	link, err := fs.CreateSymlink(ctx, sub, "up", "../b.txt")
	require.NoError(t, err)

	names, err := fs.List(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b.txt"}, names)

	names, err = fs.List(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, []string{"up"}, names)

	assert.True(t, link.IsSymbolicLink())
	assert.Equal(t, 3, root.Links())
	assert.Equal(t, 2, sub.Links())

	_, err = fs.CreateFile(ctx, root, "a")
	assert.True(t, tree.IsCode(err, tree.ErrAlreadyExists))

	_, err = fs.CreateFile(ctx, root, "x/y")
	assert.True(t, tree.IsCode(err, tree.ErrInvalidArgument))

	_, err = fs.CreateFile(ctx, link, "z")
	assert.True(t, tree.IsCode(err, tree.ErrNotDirectory))

	stats := requireValid(t, fs)
	assert.Equal(t, int64(2), stats.Directories)
	assert.Equal(t, int64(2), stats.Files)
	assert.Equal(t, int64(1), stats.Symlinks)

	subName, ok := fs.NameOf(sub)
	assert.True(t, ok)
	assert.Equal(t, "a", subName)
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	fs, root := newFileSystem(t)

	sub, err := fs.CreateDirectory(ctx, root, "sub")
	require.NoError(t, err)

	got, err := fs.Lookup(ctx, root, "sub")
	require.NoError(t, err)
	assert.Same(t, sub, got)

	got, err = fs.Lookup(ctx, sub, "..")
	require.NoError(t, err)
	assert.Same(t, root, got)

	got, err = fs.Lookup(ctx, sub, ".")
	require.NoError(t, err)
	assert.Same(t, sub, got)

	got, err = fs.Lookup(ctx, root, "..")
	require.NoError(t, err)
	assert.Same(t, root, got)

	_, err = fs.Lookup(ctx, root, "missing")
	assert.True(t, tree.IsCode(err, tree.ErrNotFound))
}

func TestCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	fs, root := newFileSystem(t, name.NormalizationCaseFoldUnicode)

	f, err := fs.CreateFile(ctx, root, "Readme.MD")
	require.NoError(t, err)

	got, err := fs.Lookup(ctx, root, "README.md")
	require.NoError(t, err)
	assert.Same(t, f, got)

	_, err = fs.CreateFile(ctx, root, "readme.md")
	assert.True(t, tree.IsCode(err, tree.ErrAlreadyExists))

	names, err := fs.List(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"Readme.MD"}, names)
}

func TestHardLinks(t *testing.T) {
	ctx := context.Background()
	fs, root := newFileSystem(t)

	sub, err := fs.CreateDirectory(ctx, root, "sub")
	require.NoError(t, err)
	f, err := fs.CreateFile(ctx, root, "orig")
	require.NoError(t, err)

	require.NoError(t, fs.Link(ctx, sub, "alias", f))
	assert.Equal(t, 2, f.Links())
	requireValid(t, fs)

	err = fs.Link(ctx, root, "dirlink", sub)
	assert.True(t, tree.IsCode(err, tree.ErrIsDirectory))

	err = fs.Link(ctx, root, "orig", f)
	assert.True(t, tree.IsCode(err, tree.ErrAlreadyExists))
	assert.Equal(t, 2, f.Links())

	require.NoError(t, fs.Remove(ctx, root, "orig"))
	assert.Equal(t, 1, f.Links())

	got, err := fs.Lookup(ctx, sub, "alias")
	require.NoError(t, err)
	assert.Same(t, f, got)
	requireValid(t, fs)
}

func TestLinkUnlinkedFile(t *testing.T) {
	ctx := context.Background()
	fs, root := newFileSystem(t)

	f, err := fs.CreateFile(ctx, root, "gone")
	require.NoError(t, err)
	require.NoError(t, fs.Remove(ctx, root, "gone"))
	assert.True(t, f.Content().(*tree.ByteStore).Released())

	err = fs.Link(ctx, root, "back", f)
	assert.True(t, tree.IsCode(err, tree.ErrNotFound))
	assert.Equal(t, 0, f.Links())

	// an open handle keeps the data but does not make the file linkable
	open, err := fs.CreateFile(ctx, root, "open")
	require.NoError(t, err)
	store := open.Content().(*tree.ByteStore)
	_, err = store.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)
	store.Opened()
	require.NoError(t, fs.Remove(ctx, root, "open"))

	err = fs.Link(ctx, root, "b", open)
	assert.True(t, tree.IsCode(err, tree.ErrNotFound))
	assert.Equal(t, int64(5), store.Size())

	store.Closed()
	assert.True(t, store.Released())

	names, err := fs.List(ctx, root)
	require.NoError(t, err)
	assert.Empty(t, names)
	requireValid(t, fs)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	fs, root := newFileSystem(t)

	sub, err := fs.CreateDirectory(ctx, root, "sub")
	require.NoError(t, err)
	_, err = fs.CreateFile(ctx, sub, "f")
	require.NoError(t, err)

	err = fs.Remove(ctx, root, "sub")
	assert.True(t, tree.IsCode(err, tree.ErrNotEmpty))

	require.NoError(t, fs.Remove(ctx, sub, "f"))
	require.NoError(t, fs.Remove(ctx, root, "sub"))

	err = fs.Remove(ctx, root, "sub")
	assert.True(t, tree.IsCode(err, tree.ErrNotFound))

	err = fs.Remove(ctx, root, ".")
	assert.True(t, tree.IsCode(err, tree.ErrInvalidArgument))

	// the removed directory is detached and accepts no new entries
	_, ok := fs.NameOf(sub)
	assert.False(t, ok)
	_, err = fs.CreateFile(ctx, sub, "late")
	assert.True(t, tree.IsCode(err, tree.ErrNotFound))

	assert.Equal(t, 2, root.Links())
	requireValid(t, fs)
}

func TestMoveFile(t *testing.T) {
	ctx := context.Background()
	fs, root := newFileSystem(t)

	sub, err := fs.CreateDirectory(ctx, root, "sub")
	require.NoError(t, err)
	f, err := fs.CreateFile(ctx, root, "f")
	require.NoError(t, err)
	store := f.Content().(*tree.ByteStore)
	_, err = store.WriteAt([]byte("payload"), 0)
	require.NoError(t, err)

	require.NoError(t, fs.Move(ctx, root, "f", sub, "g"))

	assert.False(t, store.Released())
	assert.Equal(t, int64(7), f.Size())
	assert.Equal(t, 1, f.Links())

	got, err := fs.Lookup(ctx, sub, "g")
	require.NoError(t, err)
	assert.Same(t, f, got)
	_, err = fs.Lookup(ctx, root, "f")
	assert.True(t, tree.IsCode(err, tree.ErrNotFound))

	// rename in place
	require.NoError(t, fs.Move(ctx, sub, "g", sub, "h"))
	names, err := fs.List(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, []string{"h"}, names)

	// no-op
	require.NoError(t, fs.Move(ctx, sub, "h", sub, "h"))
	requireValid(t, fs)
}

func TestMoveDirectory(t *testing.T) {
	ctx := context.Background()
	fs, root := newFileSystem(t)

	a, err := fs.CreateDirectory(ctx, root, "a")
	require.NoError(t, err)
	b, err := fs.CreateDirectory(ctx, root, "b")
	require.NoError(t, err)
	c, err := fs.CreateDirectory(ctx, a, "c")
	require.NoError(t, err)

	require.NoError(t, fs.Move(ctx, a, "c", b, "c2"))

	table, _ := c.Directory()
	assert.Same(t, b, table.Parent())
	assert.Equal(t, "c2", table.Entry().Name().String())
	assert.Equal(t, 2, a.Links())
	assert.Equal(t, 3, b.Links())
	requireValid(t, fs)

	err = fs.Move(ctx, root, "b", c, "loop")
	assert.True(t, tree.IsCode(err, tree.ErrInvalidArgument))

	err = fs.Move(ctx, root, "b", b, "self")
	assert.True(t, tree.IsCode(err, tree.ErrInvalidArgument))

	err = fs.Move(ctx, root, "a", root, "b")
	assert.True(t, tree.IsCode(err, tree.ErrAlreadyExists))

	err = fs.Move(ctx, root, "nope", root, "x")
	assert.True(t, tree.IsCode(err, tree.ErrNotFound))
	requireValid(t, fs)
}

func TestMoveCaseOnly(t *testing.T) {
	ctx := context.Background()
	fs, root := newFileSystem(t, name.NormalizationCaseFoldUnicode)

	f, err := fs.CreateFile(ctx, root, "readme")
	require.NoError(t, err)
	store := f.Content().(*tree.ByteStore)
	_, err = store.WriteAt([]byte("text"), 0)
	require.NoError(t, err)
	docs, err := fs.CreateDirectory(ctx, root, "docs")
	require.NoError(t, err)

	require.NoError(t, fs.Move(ctx, root, "readme", root, "README"))
	require.NoError(t, fs.Move(ctx, root, "DOCS", root, "Docs"))

	names, err := fs.List(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"Docs", "README"}, names)

	got, err := fs.Lookup(ctx, root, "readme")
	require.NoError(t, err)
	assert.Same(t, f, got)
	assert.Equal(t, 1, f.Links())
	assert.False(t, store.Released())
	assert.Equal(t, int64(4), f.Size())

	docsName, ok := fs.NameOf(docs)
	assert.True(t, ok)
	assert.Equal(t, "Docs", docsName)
	assert.Equal(t, 3, root.Links())

	err = fs.Move(ctx, root, "missing", root, "MISSING")
	assert.True(t, tree.IsCode(err, tree.ErrNotFound))
	requireValid(t, fs)
}

func TestCancelledContext(t *testing.T) {
	fs, root := newFileSystem(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fs.CreateFile(ctx, root, "f")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = fs.Verify(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	names, err := fs.List(context.Background(), root)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestVerifyDetectsCorruption(t *testing.T) {
	ctx := context.Background()
	fs, root := newFileSystem(t)

	sub, err := fs.CreateDirectory(ctx, root, "sub")
	require.NoError(t, err)

	// Detach sub behind the filesystem's back: its ".." disappears while
	// the parent still links it.
	table, _ := sub.Directory()
	table.Unlinked(nil)

	_, err = fs.Verify(ctx)
	assert.Error(t, err)
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	canon, err := name.NewCanonicalizer(nil, nil)
	require.NoError(t, err)

	fs := New(canon, tree.NewFactory(tree.Options{}), metrics.NewTreeMetrics(reg))
	root, err := fs.CreateRoot(ctx, "/")
	require.NoError(t, err)

	_, err = fs.CreateFile(ctx, root, "f")
	require.NoError(t, err)
	_, err = fs.CreateFile(ctx, root, "f")
	require.Error(t, err)
	_, err = fs.Verify(ctx)
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "treefs_operations_total")
	require.NoError(t, err)
	assert.Positive(t, count)

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "treefs_files" {
			assert.Equal(t, 1.0, mf.GetMetric()[0].GetGauge().GetValue())
		}
	}
}
