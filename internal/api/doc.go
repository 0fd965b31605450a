// Package api provides the HTTP REST API for the ROI core.
//
// It exposes the device directory, rule editing, next-slot lookup, live
// snapshots and the audit log to the monitoring UI.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
//
// # Routes
//
// Everything lives under /api/v1. /health and /metrics are open; every
// other route needs a bearer token whose claims name the caller's tenant
// and role:
//
//	GET    /devices                             device:read
//	POST   /devices                             device:manage
//	GET    /devices/{id}                        device:read
//	PATCH  /devices/{id}                        device:manage
//	DELETE /devices/{id}                        device:manage
//	GET    /devices/{id}/roi                    rule:read
//	PUT    /devices/{id}/roi                    rule:write
//	GET    /devices/{id}/roi/{roiID}/next-slot  rule:read
//	GET    /devices/{id}/snapshot               snapshot:capture
//	GET    /audit                               audit:read
//
// Upstream devices are read-only: PATCH and DELETE on them answer 409 with
// code "read_only". A rule save whose device notification failed still
// answers 200, with the failure in the "warning" field.
package api
