// Package provision exposes the credential provisioning surface of a
// device: one GATT-style service with two writable attributes a client
// writes network credentials into.
//
// This package handles:
//   - The provisioning service and attribute table (generated from
//     docs/gatt/provisioning.yaml, see gatt_gen.go)
//   - Serialized processing of peripheral events (connect, disconnect,
//     attribute writes)
//   - Write validation, durable credential saves, and supervisor kicks
//   - Advertising lifecycle, including the restart after a client
//     disconnects so the device stays provisionable
//
// # Attribute Semantics
//
// The network name attribute is readable and writable; a client can confirm
// which network the device is provisioned for. The network secret attribute
// is write only and its value never leaves the device, appears in logs, or
// is echoed back over the radio.
//
// Writes longer than the attribute's maximum length are rejected before any
// storage call with ErrValueTooLong. A write that fails the durable commit
// surfaces the storage error as the write response and does not trigger a
// reconnect.
//
// # Drivers
//
// Peripheral is the seam to the radio stack. SimPeripheral implements it
// in-process for tests and the device simulator; real BLE bindings live
// out of tree.
package provision
