package tree

import (
	"fmt"
	"io"
	"math"
)

// ByteStore is the content of a regular file: an in-memory byte slice.
//
// Its data is released once the file has no links left and no open handle.
// Open handles are tracked through Opened and Closed by the caller.
type ByteStore struct {
	data     []byte
	maxSize  int64
	open     int
	deleted  bool
	released bool
}

// NewByteStore creates an empty store. A maxSize of 0 means unlimited.
func NewByteStore(maxSize int64) *ByteStore {
	return &ByteStore{maxSize: maxSize}
}

// Copy returns a store holding a copy of the data.
func (s *ByteStore) Copy() FileContent {
	c := NewByteStore(s.maxSize)
	c.data = append([]byte(nil), s.data...)
	return c
}

// Size returns the number of bytes stored.
func (s *ByteStore) Size() int64 {
	return int64(len(s.data))
}

// Linked clears a pending deletion: the file is reachable again.
func (s *ByteStore) Linked(*DirectoryEntry) {
	s.deleted = false
}

// Unlinked does nothing: the link count is kept on the File.
func (s *ByteStore) Unlinked(*DirectoryEntry) {}

// Deleted releases the data once no link and no handle remain. A file that
// regained a link while still open is no longer considered deleted.
func (s *ByteStore) Deleted(linksRemaining int) {
	s.deleted = linksRemaining == 0
	s.maybeRelease()
}

// Opened records a new open handle.
func (s *ByteStore) Opened() {
	s.open++
}

// Closed records a closed handle and releases the data if the file was
// deleted meanwhile.
func (s *ByteStore) Closed() {
	if s.open == 0 {
		panic("tree: ByteStore closed more times than opened")
	}
	s.open--
	s.maybeRelease()
}

// Released reports whether the data has been discarded.
func (s *ByteStore) Released() bool {
	return s.released
}

func (s *ByteStore) maybeRelease() {
	if s.deleted && s.open == 0 {
		s.data = nil
		s.released = true
	}
}

// ReadAt implements io.ReaderAt.
func (s *ByteStore) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements io.WriterAt. Writing past the end zero-fills the gap.
func (s *ByteStore) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("negative offset %d", off)
	}
	if int64(len(p)) > math.MaxInt64-off {
		return 0, &StoreError{
			Code:    ErrInvalidArgument,
			Message: fmt.Sprintf("write of %d bytes at offset %d overflows", len(p), off),
		}
	}
	end := off + int64(len(p))
	if err := s.checkSize(end); err != nil {
		return 0, err
	}
	if end > int64(len(s.data)) {
		s.grow(end)
	}
	return copy(s.data[off:], p), nil
}

// Truncate sets the size, dropping or zero-filling data.
func (s *ByteStore) Truncate(size int64) error {
	if size < 0 {
		return fmt.Errorf("negative size %d", size)
	}
	if err := s.checkSize(size); err != nil {
		return err
	}
	if size <= int64(len(s.data)) {
		clear(s.data[size:])
		s.data = s.data[:size]
		return nil
	}
	s.grow(size)
	return nil
}

func (s *ByteStore) checkSize(size int64) error {
	if s.maxSize > 0 && size > s.maxSize {
		return &StoreError{
			Code:    ErrNoSpace,
			Message: fmt.Sprintf("size %d exceeds limit %d", size, s.maxSize),
		}
	}
	return nil
}

func (s *ByteStore) grow(size int64) {
	if int64(cap(s.data)) >= size {
		s.data = s.data[:size]
		return
	}
	data := make([]byte, size, max(size, 2*int64(cap(s.data))))
	copy(data, s.data)
	s.data = data
}
