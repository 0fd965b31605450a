// Package influxdb provides optional InfluxDB telemetry for the ROI core.
//
// It wraps the official influxdb-client-go v2 library and records one point
// per snapshot capture and per device actuation, so slow cameras and
// unreachable AI engines show up as trends rather than single log lines.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    client = nil // writes on a nil client are dropped
//	}
//	defer client.Close()
//
//	client.WriteSnapshotCapture("cam-01", "ok", 840*time.Millisecond, 48213)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes; write errors are
// delivered to the SetOnError callback.
package influxdb
