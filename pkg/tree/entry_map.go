package tree

import (
	"iter"
	"math/bits"

	"github.com/marmos91/treefs/pkg/name"
)

const (
	// DefaultInitialCapacity is the bucket count of a new EntryMap.
	DefaultInitialCapacity = 16

	// DefaultLoadFactor is the size/buckets ratio above which the map grows.
	DefaultLoadFactor = 0.75
)

// EntryMap is a hash table from Name to DirectoryEntry.
//
// Entries are chained directly through their next field, so the map needs no
// per-insertion node allocation. The bucket count is always a power of two.
//
// EntryMap is not safe for concurrent use.
type EntryMap struct {
	buckets    []*DirectoryEntry
	size       int
	loadFactor float64
	threshold  int
}

// NewEntryMap creates a map with at least capacity buckets (rounded up to a
// power of two) that grows when its size exceeds buckets*loadFactor.
// Non-positive arguments select the defaults.
func NewEntryMap(capacity int, loadFactor float64) *EntryMap {
	if capacity <= 0 {
		capacity = DefaultInitialCapacity
	}
	if loadFactor <= 0 {
		loadFactor = DefaultLoadFactor
	}
	capacity = nextPowerOfTwo(capacity)

	m := &EntryMap{loadFactor: loadFactor}
	m.allocate(capacity)
	return m
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

func (m *EntryMap) allocate(capacity int) {
	m.buckets = make([]*DirectoryEntry, capacity)
	m.threshold = int(float64(capacity) * m.loadFactor)
}

func (m *EntryMap) bucket(n name.Name) int {
	return int(n.Hash() & uint64(len(m.buckets)-1))
}

// Len returns the number of entries in the map.
func (m *EntryMap) Len() int {
	return m.size
}

// Get returns the entry for n, if any.
func (m *EntryMap) Get(n name.Name) (*DirectoryEntry, bool) {
	for e := m.buckets[m.bucket(n)]; e != nil; e = e.next {
		if e.name.Equal(n) {
			return e, true
		}
	}
	return nil, false
}

// Put inserts entry, replacing any entry with an equal name, and returns it.
// Uniqueness, where it matters, is the caller's responsibility.
func (m *EntryMap) Put(entry *DirectoryEntry) *DirectoryEntry {
	i := m.bucket(entry.name)

	var prev *DirectoryEntry
	for e := m.buckets[i]; e != nil; prev, e = e, e.next {
		if e.name.Equal(entry.name) {
			entry.next = e.next
			e.next = nil
			if prev == nil {
				m.buckets[i] = entry
			} else {
				prev.next = entry
			}
			return entry
		}
	}

	entry.next = m.buckets[i]
	m.buckets[i] = entry
	m.size++

	if m.size > m.threshold {
		m.grow()
	}
	return entry
}

// Remove unlinks and returns the entry for n. It fails with ErrNotFound if
// there is none: callers are expected to know the entry exists.
func (m *EntryMap) Remove(n name.Name) (*DirectoryEntry, error) {
	i := m.bucket(n)

	var prev *DirectoryEntry
	for e := m.buckets[i]; e != nil; prev, e = e, e.next {
		if e.name.Equal(n) {
			if prev == nil {
				m.buckets[i] = e.next
			} else {
				prev.next = e.next
			}
			e.next = nil
			m.size--
			return e, nil
		}
	}

	return nil, &StoreError{
		Code:    ErrNotFound,
		Message: "no entry",
		Name:    n.String(),
	}
}

// grow doubles the bucket array and rehashes every entry.
func (m *EntryMap) grow() {
	old := m.buckets
	m.allocate(len(old) * 2)

	for _, head := range old {
		for e := head; e != nil; {
			next := e.next
			i := m.bucket(e.name)
			e.next = m.buckets[i]
			m.buckets[i] = e
			e = next
		}
	}
}

// All yields every entry in unspecified order. The map must not be modified
// during iteration.
func (m *EntryMap) All() iter.Seq[*DirectoryEntry] {
	return func(yield func(*DirectoryEntry) bool) {
		for _, head := range m.buckets {
			for e := head; e != nil; e = e.next {
				if !yield(e) {
					return
				}
			}
		}
	}
}
