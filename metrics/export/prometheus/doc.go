// Package prometheus provides a Prometheus collector for authkit metrics.
//
// [NewExporter] accepts an [authkit.Service] and implements
// prometheus.Collector over its metrics snapshot. Counter names are
// prefixed authkit_*_total; the single histogram is
// authkit_sign_in_latency_seconds. [Exporter.Handler] mounts the collector
// on a private registry.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry; callers mount
//     the Handler or register the collector themselves.
//   - Mutate service state.
package prometheus
