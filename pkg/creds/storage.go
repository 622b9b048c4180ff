package creds

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Storage is the persistence medium for the credential namespace. Reads and
// writes address the fixed layout described by the package constants; Commit
// is the durability barrier and must not return before buffered writes have
// reached durable media.
type Storage interface {
	io.ReaderAt
	io.WriterAt
	Commit() error
}

// FileStorage backs the credential namespace with a single pre-sized file.
type FileStorage struct {
	f *os.File
}

var _ Storage = (*FileStorage)(nil)

// OpenFileStorage opens or creates the credential file at path and sizes it
// to the full namespace. Credentials are secrets, so the file is owner-only.
func OpenFileStorage(path string) (*FileStorage, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening credential storage: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("credential storage stat: %w", err)
	}
	if info.Size() < StorageSize {
		if err := f.Truncate(StorageSize); err != nil {
			f.Close()
			return nil, fmt.Errorf("sizing credential storage: %w", err)
		}
	}

	return &FileStorage{f: f}, nil
}

// ReadAt implements Storage.
func (s *FileStorage) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

// WriteAt implements Storage.
func (s *FileStorage) WriteAt(p []byte, off int64) (int, error) {
	return s.f.WriteAt(p, off)
}

// Commit flushes written data to durable media.
func (s *FileStorage) Commit() error {
	return s.f.Sync()
}

// Close closes the underlying file.
func (s *FileStorage) Close() error {
	return s.f.Close()
}

// MemStorage is an in-memory Storage for tests and the device simulator.
// The zero value is not usable; create it with NewMemStorage.
type MemStorage struct {
	mu   sync.Mutex
	data []byte

	commits int

	// FailWrite, when non-nil, is returned by every WriteAt call.
	FailWrite error

	// FailCommit, when non-nil, is returned by every Commit call.
	FailCommit error
}

var _ Storage = (*MemStorage)(nil)

// NewMemStorage returns an empty in-memory credential namespace.
func NewMemStorage() *MemStorage {
	return &MemStorage{data: make([]byte, StorageSize)}
}

// ReadAt implements Storage.
func (m *MemStorage) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt implements Storage.
func (m *MemStorage) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailWrite != nil {
		return 0, m.FailWrite
	}
	if off < 0 || off > int64(len(m.data)) {
		return 0, fmt.Errorf("write at offset %d outside namespace", off)
	}
	n := copy(m.data[off:], p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// Commit implements Storage.
func (m *MemStorage) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailCommit != nil {
		return m.FailCommit
	}
	m.commits++
	return nil
}

// Commits returns how many commits have succeeded.
func (m *MemStorage) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// Bytes returns a copy of the raw namespace contents.
func (m *MemStorage) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}
