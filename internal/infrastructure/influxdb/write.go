package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the ROI core.
const (
	MeasurementSnapshotCapture = "snapshot_capture"
	MeasurementActuation       = "actuation"
)

// WriteSnapshotCapture records one frame-grab attempt.
//
// Parameters:
//   - deviceID: device the frame was requested for (may be empty for ad hoc URLs)
//   - outcome: "ok", "timeout", "empty", "missing" or "error"
//   - duration: wall time from process start to result
//   - size: bytes returned to the caller (0 on failure)
func (c *Client) WriteSnapshotCapture(deviceID, outcome string, duration time.Duration, size int) {
	if !c.IsConnected() {
		return
	}

	tags := map[string]string{"outcome": outcome}
	if deviceID != "" {
		tags["device_id"] = deviceID
	}

	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementSnapshotCapture,
		tags,
		map[string]interface{}{
			"duration_ms": duration.Milliseconds(),
			"bytes":       size,
		},
		time.Now(),
	))
}

// WriteActuation records one device notification.
//
// Parameters:
//   - deviceID: notified device
//   - channel: "ssh" or "mqtt"
//   - ok: whether the channel reported success
//   - duration: wall time of the connect/execute or connect/publish sequence
func (c *Client) WriteActuation(deviceID, channel string, ok bool, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementActuation,
		map[string]string{
			"device_id": deviceID,
			"channel":   channel,
		},
		map[string]interface{}{
			"ok":          ok,
			"duration_ms": duration.Milliseconds(),
		},
		time.Now(),
	))
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Example:
//
//	client.WritePoint("directory_refresh",
//	    map[string]string{"result": "partial"},
//	    map[string]interface{}{"schemas": 4, "failed": 1})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
