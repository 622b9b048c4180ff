package discovery

import (
	"sync"
	"time"
)

// Advertiser publishes the device presence announcement. Implementations
// carry at most one live announcement at a time.
type Advertiser interface {
	// Announce starts the announcement. Announcing while one is already
	// live returns ErrAlreadyAnnounced.
	Announce(info *Info) error

	// Update replaces the TXT records of the live announcement.
	// Returns ErrNotAnnounced when nothing is live.
	Update(info *Info) error

	// Withdraw removes the live announcement.
	// Returns ErrNotAnnounced when nothing is live.
	Withdraw() error
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		Interface: "",
		TTL:       120 * time.Second,
	}
}

// Presence manages the device's announcement lifecycle over an Advertiser.
// Announce is idempotent: re-announcing refreshes the TXT records of the
// live announcement. Withdraw of a presence that was never raised is a
// no-op. Presence is safe for concurrent use.
type Presence struct {
	mu sync.Mutex

	advertiser Advertiser
	announced  bool
	info       *Info
}

// NewPresence creates a presence manager over the given advertiser.
func NewPresence(advertiser Advertiser) *Presence {
	return &Presence{advertiser: advertiser}
}

// Announce raises the announcement, or refreshes it if already live.
func (p *Presence) Announce(info *Info) error {
	if err := info.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.announced {
		if err := p.advertiser.Update(info); err != nil {
			return err
		}
		p.info = info
		return nil
	}

	if err := p.advertiser.Announce(info); err != nil {
		return err
	}

	p.announced = true
	p.info = info
	return nil
}

// Withdraw removes the announcement. Withdrawing a presence that is not
// live returns nil.
func (p *Presence) Withdraw() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.announced {
		return nil
	}

	if err := p.advertiser.Withdraw(); err != nil {
		return err
	}

	p.announced = false
	p.info = nil
	return nil
}

// Announced reports whether the announcement is currently live.
func (p *Presence) Announced() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.announced
}

// Info returns the live announcement, or nil when none is live.
func (p *Presence) Info() *Info {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.info == nil {
		return nil
	}
	cp := *p.info
	return &cp
}
