package station

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// simNetwork is one network visible to the simulated radio.
type simNetwork struct {
	secret   string
	joinable bool
	latency  time.Duration
	address  string
}

// SimRadio is a deterministic in-memory Radio for tests and the device
// simulator. Networks are registered with AddNetwork; a join succeeds when
// the target network exists, is joinable, the secret matches, and the
// network's join latency has elapsed.
type SimRadio struct {
	mu sync.Mutex

	networks map[string]*simNetwork

	// Pending attempt. Cleared when it resolves or the link drops.
	target       string
	targetSecret string
	joinStarted  time.Time

	connected bool
	address   string

	joins    int
	nextAddr int
}

var _ Radio = (*SimRadio)(nil)

// NewSimRadio returns a radio with no visible networks.
func NewSimRadio() *SimRadio {
	return &SimRadio{
		networks: make(map[string]*simNetwork),
		nextAddr: 2,
	}
}

// AddNetwork makes a joinable network visible to the radio and returns the
// address a successful join will be assigned.
func (r *SimRadio) AddNetwork(name, secret string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	addr := fmt.Sprintf("10.0.0.%d", r.nextAddr)
	r.nextAddr++
	r.networks[name] = &simNetwork{secret: secret, joinable: true, address: addr}
	return addr
}

// SetJoinable flips whether a registered network accepts joins. Unknown
// names are ignored.
func (r *SimRadio) SetJoinable(name string, joinable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if net, ok := r.networks[name]; ok {
		net.joinable = joinable
	}
}

// SetLatency sets how long a join against the network takes to complete.
// Unknown names are ignored.
func (r *SimRadio) SetLatency(name string, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if net, ok := r.networks[name]; ok {
		net.latency = latency
	}
}

// Drop severs the current link and discards any pending attempt, as an
// access point going away would.
func (r *SimRadio) Drop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connected = false
	r.address = ""
	r.target = ""
	r.targetSecret = ""
}

// Joins returns how many association attempts were started.
func (r *SimRadio) Joins() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joins
}

// Join implements Radio. It replaces any current link or pending attempt.
func (r *SimRadio) Join(_ context.Context, name, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.connected = false
	r.address = ""
	r.target = name
	r.targetSecret = secret
	r.joinStarted = time.Now()
	r.joins++
	return nil
}

// Connected implements Radio. A pending attempt resolves here once its
// network's latency has elapsed.
func (r *SimRadio) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connected {
		return true
	}
	if r.target == "" {
		return false
	}

	net, ok := r.networks[r.target]
	if !ok || !net.joinable || net.secret != r.targetSecret {
		return false
	}
	if time.Since(r.joinStarted) < net.latency {
		return false
	}

	r.connected = true
	r.address = net.address
	r.target = ""
	r.targetSecret = ""
	return true
}

// Address implements Radio.
func (r *SimRadio) Address() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.address
}
