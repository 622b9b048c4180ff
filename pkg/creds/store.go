package creds

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/wisp-protocol/wisp-go/pkg/state"
)

// ErrCommitFailed indicates a save did not reach durable media. The store's
// in-memory credentials are unchanged when this is returned.
var ErrCommitFailed = errors.New("credential commit failed")

// Store manages the durable credential namespace and an in-memory copy of
// its contents. Call Load once at startup to populate the copy; Save keeps
// durable and in-memory state in step from then on.
type Store struct {
	mu      sync.Mutex
	storage Storage
	cached  state.Credentials
}

// NewStore creates a store over the given storage. The in-memory copy is
// empty until Load is called.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage}
}

// Load reads both regions from storage and replaces the in-memory copy.
// Storage that was never written loads as empty credentials, not an error.
func (s *Store) Load() (state.Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := s.readRegion(NameOffset)
	if err != nil {
		return state.Credentials{}, fmt.Errorf("loading %s: %w", FieldNetworkName, err)
	}
	secret, err := s.readRegion(SecretOffset)
	if err != nil {
		return state.Credentials{}, fmt.Errorf("loading %s: %w", FieldNetworkSecret, err)
	}

	s.cached = state.Credentials{NetworkName: name, NetworkSecret: secret}
	return s.cached, nil
}

// Save writes one field's region and commits before returning. Values longer
// than MaxValueLen are clipped. On write or commit failure the in-memory
// copy keeps its previous value and the returned error wraps ErrCommitFailed.
// The other field's region is never touched.
func (s *Store) Save(field Field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, _ = clip(value)
	if _, err := s.storage.WriteAt(encodeRegion(value), field.offset()); err != nil {
		return fmt.Errorf("%w: %s region write: %v", ErrCommitFailed, field, err)
	}
	if err := s.storage.Commit(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCommitFailed, field, err)
	}

	switch field {
	case FieldNetworkName:
		s.cached.NetworkName = value
	case FieldNetworkSecret:
		s.cached.NetworkSecret = value
	}
	return nil
}

// Erase zeroes both regions and commits, then clears the in-memory copy.
func (s *Store) Erase() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	zero := make([]byte, StorageSize)
	if _, err := s.storage.WriteAt(zero, 0); err != nil {
		return fmt.Errorf("%w: erase: %v", ErrCommitFailed, err)
	}
	if err := s.storage.Commit(); err != nil {
		return fmt.Errorf("%w: erase: %v", ErrCommitFailed, err)
	}

	s.cached = state.Credentials{}
	return nil
}

// Credentials returns a copy of the in-memory credentials.
func (s *Store) Credentials() state.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cached
}

// readRegion reads one region image and decodes it. Short reads are filled
// with unwritten (zero) bytes, which decode the same as real storage would.
func (s *Store) readRegion(off int64) (string, error) {
	region := make([]byte, RegionSize)
	n, err := s.storage.ReadAt(region, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return decodeRegion(region[:n]), nil
}
