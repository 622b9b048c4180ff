package discovery

import (
	"fmt"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// MDNSAdvertiser implements the Advertiser interface using zeroconf.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) (*MDNSAdvertiser, error) {
	return &MDNSAdvertiser{config: config}, nil
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *MDNSAdvertiser) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// Announce registers the presence service.
func (a *MDNSAdvertiser) Announce(info *Info) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		return ErrAlreadyAnnounced
	}

	if err := info.Validate(); err != nil {
		return err
	}

	// Build TXT records
	txtRecords := EncodeTXT(info)
	txtStrings := TXTRecordsToStrings(txtRecords)

	// Determine port
	port := info.Port
	if port == 0 {
		port = DefaultPort
	}

	// Register service
	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	// Get interfaces (nil means all interfaces)
	ifaces := a.getInterfaces()

	server, err := zeroconf.Register(
		info.InstanceName,
		ServiceTypeWisp,
		Domain,
		port,
		txtStrings,
		ifaces,
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register presence service: %w", err)
	}

	a.server = server
	return nil
}

// Update replaces the TXT records of the live announcement.
func (a *MDNSAdvertiser) Update(info *Info) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return ErrNotAnnounced
	}

	txtRecords := EncodeTXT(info)
	txtStrings := TXTRecordsToStrings(txtRecords)
	a.server.SetText(txtStrings)

	return nil
}

// Withdraw removes the live announcement.
func (a *MDNSAdvertiser) Withdraw() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return ErrNotAnnounced
	}

	a.server.Shutdown()
	a.server = nil
	return nil
}

// Compile-time interface satisfaction check.
var _ Advertiser = (*MDNSAdvertiser)(nil)
