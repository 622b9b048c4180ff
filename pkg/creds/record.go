package creds

import "bytes"

// Storage layout. Two fixed regions, one per field, in a namespace small
// enough for EEPROM-class media.
const (
	// RegionSize is the size of one credential region in bytes.
	RegionSize = 64

	// MaxValueLen is the longest storable value. One byte of each region is
	// reserved for the terminator.
	MaxValueLen = RegionSize - 1

	// NameOffset is the byte offset of the network name region.
	NameOffset = 0

	// SecretOffset is the byte offset of the network secret region.
	SecretOffset = RegionSize

	// StorageSize is the total size of the credential namespace.
	StorageSize = 2 * RegionSize
)

// terminator marks the end of a stored value within its region.
const terminator = 0x00

// Field identifies one of the two stored credential fields.
type Field uint8

const (
	// FieldNetworkName is the network name (SSID) field.
	FieldNetworkName Field = iota

	// FieldNetworkSecret is the network secret (passphrase) field.
	FieldNetworkSecret
)

// String returns a human-readable field name.
func (f Field) String() string {
	switch f {
	case FieldNetworkName:
		return "network-name"
	case FieldNetworkSecret:
		return "network-secret"
	default:
		return "unknown"
	}
}

// offset returns the region offset for the field.
func (f Field) offset() int64 {
	if f == FieldNetworkSecret {
		return SecretOffset
	}
	return NameOffset
}

// clip truncates value to MaxValueLen bytes and reports whether it did.
func clip(value string) (string, bool) {
	if len(value) > MaxValueLen {
		return value[:MaxValueLen], true
	}
	return value, false
}

// encodeRegion builds the full region image for a value: the value bytes,
// a terminator, then zero padding to RegionSize. Values longer than
// MaxValueLen are clipped first.
func encodeRegion(value string) []byte {
	value, _ = clip(value)
	region := make([]byte, RegionSize)
	copy(region, value)
	return region
}

// decodeRegion extracts the value from a region image. The value runs up to
// the first terminator; a region with no terminator is uninitialized storage
// and decodes as the empty value.
func decodeRegion(region []byte) string {
	if i := bytes.IndexByte(region, terminator); i >= 0 {
		return string(region[:i])
	}
	return ""
}
