// Package discovery announces provisioned devices on the LAN over
// mDNS/DNS-SD.
//
// A device raises its announcement once it holds a network address and
// withdraws it when the link drops, so controllers on the same network can
// find it without a serial console.
//
// # Presence Announcement (_wisp._tcp)
//
// The instance name is the user-facing device name. TXT records carry
// identity metadata only: id (serial number), md (model), fw (firmware
// version), dn (device name). Network credentials are never announced.
//
// The Advertiser interface is the transport seam; MDNSAdvertiser implements
// it over zeroconf. The Presence manager adds lifecycle bookkeeping on top:
// idempotent announce, tolerated withdraw, and an Announced query for the
// console.
package discovery
