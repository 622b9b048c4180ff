package state

import "sync"

// Link represents the network link state driven by the connection
// supervisor.
type Link uint8

const (
	// LinkIdle indicates no join attempt is in progress and none is
	// scheduled, typically because no credentials are configured.
	LinkIdle Link = iota

	// LinkConnecting indicates a join attempt is in progress.
	LinkConnecting

	// LinkConnected indicates the device holds an established link.
	LinkConnected

	// LinkBackoff indicates the last attempt failed and the supervisor is
	// waiting out the retry cooldown.
	LinkBackoff
)

// String returns a human-readable link state name.
func (l Link) String() string {
	switch l {
	case LinkIdle:
		return "IDLE"
	case LinkConnecting:
		return "CONNECTING"
	case LinkConnected:
		return "CONNECTED"
	case LinkBackoff:
		return "BACKOFF"
	default:
		return "UNKNOWN"
	}
}

// Credentials is the network name and secret pair a device joins with.
// It is a plain value type; the durable copy lives in the credential store.
type Credentials struct {
	NetworkName   string
	NetworkSecret string
}

// Configured reports whether the credentials identify a network to join.
// A secret without a name is not joinable.
func (c Credentials) Configured() bool {
	return c.NetworkName != ""
}

// Equal reports whether both fields match.
func (c Credentials) Equal(other Credentials) bool {
	return c.NetworkName == other.NetworkName && c.NetworkSecret == other.NetworkSecret
}

// Snapshot is a consistent copy of the shared state, taken under the lock.
type Snapshot struct {
	Link          Link
	ClientPresent bool
	Credentials   Credentials
	Address       string
}

// Shared is the mutable state shared across device activities.
// The zero value is ready to use.
type Shared struct {
	mu sync.RWMutex

	link          Link
	clientPresent bool
	credentials   Credentials
	address       string
}

// New returns an empty Shared in the idle state.
func New() *Shared {
	return &Shared{}
}

// Link returns the current link state.
func (s *Shared) Link() Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.link
}

// SetLink stores the link state and returns the previous one.
func (s *Shared) SetLink(l Link) Link {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.link
	s.link = l
	return old
}

// ClientPresent reports whether a provisioning client is connected.
func (s *Shared) ClientPresent() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientPresent
}

// SetClientPresent stores the client-present flag and returns the previous
// value.
func (s *Shared) SetClientPresent(present bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.clientPresent
	s.clientPresent = present
	return old
}

// Credentials returns a copy of the live credentials.
func (s *Shared) Credentials() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credentials
}

// SetCredentials replaces the live credentials.
func (s *Shared) SetCredentials(c Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = c
}

// SetNetworkName replaces only the network name field.
func (s *Shared) SetNetworkName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials.NetworkName = name
}

// SetNetworkSecret replaces only the network secret field.
func (s *Shared) SetNetworkSecret(secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials.NetworkSecret = secret
}

// Address returns the assigned network address, empty when not connected.
func (s *Shared) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address
}

// SetAddress stores the assigned network address.
func (s *Shared) SetAddress(addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = addr
}

// Snapshot returns a consistent copy of all fields.
func (s *Shared) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Link:          s.link,
		ClientPresent: s.clientPresent,
		Credentials:   s.credentials,
		Address:       s.address,
	}
}
