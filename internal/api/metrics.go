package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metricsHandler serves the default Prometheus registry, which holds every
// collector registered by the metrics package plus the Go runtime and
// process collectors.
func metricsHandler() http.Handler {
	return promhttp.Handler()
}
