// Package storage archives captured snapshots in MinIO.
//
// Archiving is optional. When minio.enabled is false, Connect returns
// ErrDisabled and the API serves frames without storing them.
package storage
