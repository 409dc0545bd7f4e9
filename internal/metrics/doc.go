// Package metrics declares the Prometheus collectors for the transcode
// service: queue depths, job outcomes and durations, published results and
// shutdown loss accounting.
//
// All metrics are registered with the default registry using promauto.
// To expose them, mount promhttp.Handler() on the metrics listener:
//
//	import "github.com/prometheus/client_golang/prometheus/promhttp"
//
//	mux.Handle("/metrics", promhttp.Handler())
package metrics
