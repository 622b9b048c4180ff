// Package creds provides durable storage for the device's network
// credentials.
//
// Credentials live in a tiny fixed-layout namespace sized for EEPROM-class
// media: two 64-byte regions, the network name at offset 0 and the network
// secret at offset 64. A value occupies the leading bytes of its region and
// is terminated by a zero byte, which caps values at 63 bytes. A region
// without a terminator decodes as the empty value, so factory-fresh storage
// reads back as "not provisioned" rather than garbage.
//
// # Durability
//
// Store.Save writes the full region image and then calls Commit on the
// Storage before returning, so a successful save has reached durable media.
// When the write or the commit fails the store keeps its previous in-memory
// value and reports an error wrapping ErrCommitFailed.
//
// # Storage drivers
//
// FileStorage backs the namespace with a pre-sized file and fsync, the
// normal choice on embedded Linux. MemStorage is an in-memory driver with
// fault injection for tests and the device simulator.
package creds
