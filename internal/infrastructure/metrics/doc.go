// Package metrics registers the ROI core's Prometheus collectors.
//
// Collectors are created with promauto on the default registry and exposed
// by the API at /api/v1/metrics. Record* helpers keep label values
// consistent between callers.
package metrics
