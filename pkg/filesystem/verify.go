package filesystem

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marmos91/treefs/internal/logger"
	"github.com/marmos91/treefs/pkg/name"
	"github.com/marmos91/treefs/pkg/tree"
)

// Stats summarizes the tree reachable from the roots.
type Stats struct {
	Directories int64

	// Files counts every non-directory, symlinks included
	Files    int64
	Symlinks int64

	// Bytes is the total size of regular file contents
	Bytes int64
}

// Verify walks every directory reachable from the roots and checks the
// structural invariants:
//   - "." links each directory to itself
//   - ".." links each directory to the directory of its entry in the parent
//   - every child directory reports the very entry that links it
//   - every link count equals the number of entries targeting the file
//
// All violations found are returned joined. Verify also refreshes the file
// and directory gauges.
func (fs *FileSystem) Verify(ctx context.Context) (stats Stats, err error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	defer fs.record("verify", time.Now(), &err)

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	v := &verifier{
		expected: make(map[*tree.File]int),
		visited:  make(map[*tree.File]bool),
	}

	for rootEntry := range fs.roots.All() {
		root := rootEntry.File()
		table, _ := root.Directory()
		if table.Entry() == nil || table.Parent() != root {
			v.fail("root %s is not its own parent", rootEntry.Name())
		}
		v.queue = append(v.queue, root)
	}

	for len(v.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return Stats{}, err
		}
		dir := v.queue[0]
		v.queue = v.queue[1:]
		v.checkDirectory(dir)
	}

	for file, want := range v.expected {
		if got := file.Links(); got != want {
			v.fail("file %s has %d links, %d entries target it", file.ID(), got, want)
		}
		switch {
		case file.IsDirectory():
			v.stats.Directories++
		case file.IsSymbolicLink():
			v.stats.Symlinks++
			v.stats.Files++
		default:
			v.stats.Files++
			v.stats.Bytes += file.Size()
		}
	}

	fs.metrics.SetDirectoryCount(v.stats.Directories)
	fs.metrics.SetFileCount(v.stats.Files)

	if len(v.problems) > 0 {
		logger.Warn("Verify: %d problems found", len(v.problems))
	}
	return v.stats, errors.Join(v.problems...)
}

type verifier struct {
	queue    []*tree.File
	expected map[*tree.File]int
	visited  map[*tree.File]bool
	problems []error
	stats    Stats
}

func (v *verifier) fail(format string, args ...any) {
	v.problems = append(v.problems, fmt.Errorf(format, args...))
}

func (v *verifier) checkDirectory(dir *tree.File) {
	if v.visited[dir] {
		return
	}
	v.visited[dir] = true

	table, _ := dir.Directory()

	self, ok := table.Get(name.Self)
	if !ok || self.File() != dir {
		v.fail("directory %s: bad \".\" entry", dir.ID())
	}

	parent, ok := table.Get(name.Parent)
	switch {
	case !ok:
		v.fail("directory %s: missing \"..\" entry", dir.ID())
	case table.Entry() == nil:
		v.fail("directory %s: reachable but detached", dir.ID())
	case parent.File() != table.Entry().Directory():
		v.fail("directory %s: \"..\" disagrees with its entry in the parent", dir.ID())
	}

	for e := range table.Entries() {
		v.expected[e.File()]++

		if e.Directory() != dir {
			v.fail("directory %s: entry %s owned by another directory", dir.ID(), e.Name())
		}
		if e.Name().IsReserved() {
			continue
		}
		if child, ok := e.File().Directory(); ok {
			if child.Entry() != e {
				v.fail("directory %s: child %s does not point back at its entry", dir.ID(), e.Name())
			}
			v.queue = append(v.queue, e.File())
		}
	}
}
