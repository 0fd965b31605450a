// Package actuation notifies cameras that their rule configuration changed.
//
// A device with remote-shell details gets a single SSH session running the
// configured restart command. Every other device is reached by publishing a
// fixed restart message to the broker. Failures come back as
// ErrActuationFailed; callers attach them to an otherwise successful save
// as a warning.
package actuation
