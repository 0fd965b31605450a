// Package device provides the camera directory for the ROI core.
//
// Cameras come from two places. External cameras are read live from
// upstream tenant databases attached to the local SQLite handle; they are
// read-only here. Local cameras are owned by a tenant and stored in
// main.devices.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                          Directory                           │
//	│                                                              │
//	│  ┌────────────────────┐           ┌────────────────────┐     │
//	│  │  TTL cache (30s)   │           │     Repository     │     │
//	│  │  singleflight      │           │  (repository.go)   │     │
//	│  │  circuit breaker   │           │  main.devices      │     │
//	│  └─────────┬──────────┘           └─────────┬──────────┘     │
//	│            │                                │                │
//	└────────────│────────────────────────────────│────────────────┘
//	             ▼                                ▼
//	┌────────────────────────┐         ┌──────────────────────┐
//	│   Remote (remote.go)   │         │   SQLite (main)      │
//	│ pragma_database_list   │         └──────────────────────┘
//	│ <schema>.cameras       │
//	└────────────────────────┘
//
// # Lookup order
//
// FindAll and FindByID consult external rows first, then local devices.
// When both hold the same ID the external record wins. Update and Delete
// return ErrExternalDeviceReadOnly for an ID that only exists upstream, so
// callers can tell it apart from ErrDeviceNotFound.
//
// # Degradation
//
// A schema whose camera query fails is logged and skipped. When the whole
// scan fails the last good rows are served; when there are none the
// listing holds only local devices.
//
// # Actuation targets
//
// Each device carries an ActuationTarget decided when its row is read: SSH
// when the row has a host, MQTT otherwise.
package device
