package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrExternalDeviceReadOnly) {
//	    // tell the caller the device is managed upstream
//	}
var (
	// ErrDeviceNotFound is returned when a device ID exists neither upstream nor locally.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when creating a device with an ID that already exists.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrExternalDeviceReadOnly is returned when a caller tries to change or
	// remove a device that is sourced from an upstream schema.
	ErrExternalDeviceReadOnly = errors.New("device: external device is read-only")

	// ErrInvalidDevice is returned when device validation fails.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrUpstreamSchemaQueryFailed is logged for a tenant schema whose camera
	// rows could not be read. It is never returned from a listing.
	ErrUpstreamSchemaQueryFailed = errors.New("device: upstream schema query failed")
)
