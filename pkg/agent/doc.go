// Package agent wires the wisp device together.
//
// An Agent owns the credential store, the provisioning surface, the
// connection supervisor, the status indicator, and the LAN presence. Start
// loads the stored credentials, seeds the shared state, begins advertising
// the provisioning service, and runs the supervisor and indicator on their
// own goroutines; a device that boots with configured credentials starts
// connecting on the first supervisor cycle.
//
// Component callbacks fan into a single typed event stream (OnEvent) and
// into the structured event log. Event handlers run synchronously in
// registration order on the goroutine that produced the event, so an
// application sees transitions in the order they happened.
//
// The hardware seams (Peripheral, Radio, Output, Advertiser, Storage) come
// in through Deps; the in-tree sim implementations make the whole device
// runnable in-process.
package agent
