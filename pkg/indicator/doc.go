// Package indicator drives the device's status LED.
//
// The LED encodes two facts at a glance: whether the device holds a network
// link, and whether a provisioning client is connected while it does not.
//
//	CONNECTED                 steady on
//	not connected, client     fast blink (300ms cycle)
//	not connected, no client  slow blink (2s cycle)
//
// The Indicator polls the shared state every PollInterval and derives the
// output level from the wall clock, so a state change becomes visible within
// one poll. Output writes are suppressed while the level is unchanged.
package indicator
