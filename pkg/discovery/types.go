package discovery

import "errors"

// Service constants for mDNS.
const (
	// ServiceTypeWisp is the DNS-SD service type announced by provisioned
	// devices.
	ServiceTypeWisp = "_wisp._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default application port. The announcement only
	// names the port; nothing in this package listens on it.
	DefaultPort = 8442
)

// TXT record key constants.
const (
	TXTKeySerial     = "id" // Serial number
	TXTKeyModel      = "md" // Model name
	TXTKeyFirmware   = "fw" // Firmware version (optional)
	TXTKeyDeviceName = "dn" // User-facing device name (optional)
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63

	// MaxTXTRecordSize is the maximum total TXT record size.
	MaxTXTRecordSize = 400
)

// Discovery errors.
var (
	ErrNoInstanceName      = errors.New("instance name is empty")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrNotAnnounced        = errors.New("service not announced")
	ErrAlreadyAnnounced    = errors.New("service already announced")
)

// Info describes the device presence announcement. The instance name is the
// user-facing device name; credential material never appears here.
type Info struct {
	// InstanceName is the mDNS instance label, typically the device name.
	InstanceName string

	// Serial is the device serial number.
	Serial string

	// Model is the device model name.
	Model string

	// Firmware is the firmware version. Optional.
	Firmware string

	// Port is the application port named in the SRV record.
	// Zero falls back to DefaultPort.
	Port int
}

// Validate checks that the announcement is complete enough to register.
func (i *Info) Validate() error {
	if err := ValidateInstanceName(i.InstanceName); err != nil {
		return err
	}
	if i.Serial == "" {
		return ErrMissingRequired
	}
	return nil
}

// ValidateInstanceName checks an instance name against DNS label limits.
func ValidateInstanceName(name string) error {
	if name == "" {
		return ErrNoInstanceName
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
