// Package prometheus renders engine metrics in Prometheus text exposition
// format.
//
// [NewPrometheusExporter] accepts an [authgate.Engine] and exposes an
// [net/http.Handler] that renders every counter and histogram on each scrape.
// Counter names are prefixed authgate_*_total; the single histogram is
// authgate_authenticate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount the
//     Handler where they want it.
//   - Mutate engine state.
package prometheus
