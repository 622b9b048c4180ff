package provision

import "github.com/google/uuid"

// Handler receives peripheral events. The provisioner implements it; drivers
// call it from their radio callbacks. HandleConnect and HandleDisconnect
// return quickly; HandleWrite blocks until the write has been processed so
// the driver can answer the client.
type Handler interface {
	// HandleConnect is called when a client connects to the peripheral.
	HandleConnect()

	// HandleDisconnect is called when the connected client goes away.
	HandleDisconnect()

	// HandleWrite is called when a client writes an attribute value. The
	// returned error becomes the write response; nil accepts the write.
	HandleWrite(attr uuid.UUID, value []byte) error
}

// Peripheral is the radio-stack seam. Real implementations wrap a BLE
// stack; SimPeripheral implements it in-process for tests and the device
// simulator.
type Peripheral interface {
	// Configure registers the service table and the event handler. Must be
	// called before Advertise.
	Configure(svc Service, handler Handler) error

	// Advertise makes the device discoverable and connectable. Advertising
	// an already-advertising peripheral is a no-op.
	Advertise() error

	// StopAdvertising stops advertising. The peripheral remains configured.
	StopAdvertising() error

	// SetValue seeds the value clients read from a readable attribute.
	SetValue(attr uuid.UUID, value []byte) error

	// Close releases the radio. The peripheral cannot be reused afterwards.
	Close() error
}
