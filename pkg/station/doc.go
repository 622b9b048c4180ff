// Package station supervises the device's network link.
//
// The Supervisor owns the link state machine and drives a Radio through it:
//
//	IDLE        no credentials configured, nothing scheduled
//	CONNECTING  a join attempt is in progress
//	CONNECTED   the link is up, health-checked periodically
//	BACKOFF     the last attempt failed, waiting out the cooldown
//
// # Join attempts
//
// A join starts the radio's association and then polls Connected every
// PollInterval, sleeping cooperatively between polls. An attempt that has
// not succeeded within JoinTimeout moves to BACKOFF. The cooldown is a
// fixed Cooldown long - retries continue forever and the interval does not
// grow. While CONNECTED the supervisor re-checks the radio every
// HealthInterval and starts a fresh attempt when the link has dropped.
//
// # Re-provisioning
//
// Kick interrupts whatever the supervisor is doing - an idle wait, a join
// poll, the cooldown, or the health wait - and re-enters CONNECTING with
// freshly read credentials. A kick with unconfigured credentials resolves
// to IDLE instead.
//
// The supervisor publishes its state through a state.Shared and reports
// every transition through an optional callback.
package station
