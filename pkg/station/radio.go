package station

import "context"

// Radio is the wireless station interface the supervisor drives. Real
// implementations wrap the platform's Wi-Fi stack; SimRadio implements it
// in-process for tests and the device simulator.
type Radio interface {
	// Join starts a fresh association attempt with the given network,
	// replacing any current link. The supervisor polls Connected for the
	// outcome; Join returns an error only when the attempt cannot be
	// started at all.
	Join(ctx context.Context, name, secret string) error

	// Connected reports whether the radio holds an established link.
	Connected() bool

	// Address returns the assigned network address, empty when there is no
	// established link.
	Address() string
}
