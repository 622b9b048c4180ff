// Package state holds the runtime state shared between the concurrent
// activities of a wisp device.
//
// The provisioning surface, the connection supervisor and the status
// indicator all run on their own goroutines and exchange information only
// through a Shared value: the link state, the client-present flag, the live
// credentials and the assigned network address. Every accessor takes the
// lock and works on copies, so callers never observe torn values and never
// hold a reference into guarded memory.
package state
