package actuation

import "errors"

var (
	// ErrActuationFailed is returned when the device could not be notified.
	// Callers treat it as a warning: the configuration is already saved.
	ErrActuationFailed = errors.New("actuation: device notification failed")

	// ErrNoDevice is returned when RestartDevice is called without a device.
	ErrNoDevice = errors.New("actuation: device is required")

	// ErrNoRestartCommand is returned when an SSH target exists but no
	// restart command is configured.
	ErrNoRestartCommand = errors.New("actuation: restart command not configured")
)
