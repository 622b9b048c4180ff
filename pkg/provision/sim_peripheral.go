package provision

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// SimPeripheral is an in-process Peripheral for tests and the device
// simulator. Test drivers act as the provisioning client through
// ConnectClient, WriteAttr, ReadAttr, and DisconnectClient.
//
// Like a real peripheral it stops advertising while a client is connected;
// a new client can only connect once advertising has been resumed.
type SimPeripheral struct {
	mu sync.Mutex

	svc        Service
	handler    Handler
	configured bool

	advertising bool
	connected   bool
	closed      bool

	values map[uuid.UUID][]byte
	starts int

	// FailConfigure, FailAdvertise, and FailSetValue make the next call to
	// the corresponding method return the given error.
	FailConfigure error
	FailAdvertise error
	FailSetValue  error
}

// Compile-time interface satisfaction check.
var _ Peripheral = (*SimPeripheral)(nil)

// NewSimPeripheral creates an idle, unconfigured sim peripheral.
func NewSimPeripheral() *SimPeripheral {
	return &SimPeripheral{values: make(map[uuid.UUID][]byte)}
}

// Configure implements Peripheral.
func (sp *SimPeripheral) Configure(svc Service, handler Handler) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if sp.closed {
		return errors.New("peripheral closed")
	}
	if sp.FailConfigure != nil {
		return sp.FailConfigure
	}

	sp.svc = svc
	sp.handler = handler
	sp.configured = true
	return nil
}

// Advertise implements Peripheral. Advertising while already advertising is
// a no-op.
func (sp *SimPeripheral) Advertise() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if sp.closed {
		return errors.New("peripheral closed")
	}
	if !sp.configured {
		return errors.New("peripheral not configured")
	}
	if sp.FailAdvertise != nil {
		return sp.FailAdvertise
	}
	if sp.advertising {
		return nil
	}

	sp.advertising = true
	sp.starts++
	return nil
}

// StopAdvertising implements Peripheral.
func (sp *SimPeripheral) StopAdvertising() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if sp.closed {
		return errors.New("peripheral closed")
	}
	sp.advertising = false
	return nil
}

// SetValue implements Peripheral. The attribute must exist in the
// configured service table.
func (sp *SimPeripheral) SetValue(attr uuid.UUID, value []byte) error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if sp.closed {
		return errors.New("peripheral closed")
	}
	if !sp.configured {
		return errors.New("peripheral not configured")
	}
	if sp.FailSetValue != nil {
		return sp.FailSetValue
	}
	if _, ok := sp.svc.Attribute(attr); !ok {
		return errors.New("unknown attribute " + attr.String())
	}

	buf := make([]byte, len(value))
	copy(buf, value)
	sp.values[attr] = buf
	return nil
}

// Close implements Peripheral. Closing twice is a no-op.
func (sp *SimPeripheral) Close() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	sp.closed = true
	sp.advertising = false
	sp.connected = false
	return nil
}

// ConnectClient simulates a provisioning client connecting. The peripheral
// must be advertising; the connection claims the advertiser.
func (sp *SimPeripheral) ConnectClient() error {
	sp.mu.Lock()
	if sp.closed {
		sp.mu.Unlock()
		return errors.New("peripheral closed")
	}
	if !sp.advertising {
		sp.mu.Unlock()
		return errors.New("peripheral not advertising")
	}
	if sp.connected {
		sp.mu.Unlock()
		return errors.New("client already connected")
	}
	sp.connected = true
	sp.advertising = false
	handler := sp.handler
	sp.mu.Unlock()

	handler.HandleConnect()
	return nil
}

// DisconnectClient simulates the connected client going away.
func (sp *SimPeripheral) DisconnectClient() error {
	sp.mu.Lock()
	if !sp.connected {
		sp.mu.Unlock()
		return errors.New("no client connected")
	}
	sp.connected = false
	handler := sp.handler
	sp.mu.Unlock()

	handler.HandleDisconnect()
	return nil
}

// WriteAttr simulates the connected client writing an attribute. The
// returned error is the write response the client would see.
func (sp *SimPeripheral) WriteAttr(attr uuid.UUID, value []byte) error {
	sp.mu.Lock()
	if !sp.connected {
		sp.mu.Unlock()
		return errors.New("no client connected")
	}
	handler := sp.handler
	sp.mu.Unlock()

	// Outside the lock: the handler may call back into the peripheral.
	return handler.HandleWrite(attr, value)
}

// ReadAttr simulates the connected client reading an attribute. Reads of
// non-readable attributes fail as the radio stack would reject them.
func (sp *SimPeripheral) ReadAttr(attr uuid.UUID) ([]byte, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if !sp.connected {
		return nil, errors.New("no client connected")
	}
	a, ok := sp.svc.Attribute(attr)
	if !ok {
		return nil, errors.New("unknown attribute " + attr.String())
	}
	if !a.Readable {
		return nil, errors.New("attribute not readable")
	}

	buf := make([]byte, len(sp.values[attr]))
	copy(buf, sp.values[attr])
	return buf, nil
}

// Advertising reports whether the peripheral is currently advertising.
func (sp *SimPeripheral) Advertising() bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.advertising
}

// ClientConnected reports whether a client is currently connected.
func (sp *SimPeripheral) ClientConnected() bool {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.connected
}

// AdvertisingStarts returns how many times advertising went from stopped to
// started.
func (sp *SimPeripheral) AdvertisingStarts() int {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.starts
}

// Value returns a copy of an attribute's current value regardless of its
// readability, for test assertions.
func (sp *SimPeripheral) Value(attr uuid.UUID) []byte {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	buf := make([]byte, len(sp.values[attr]))
	copy(buf, sp.values[attr])
	return buf
}
