// Package metric exposes Prometheus metrics for the control plane.
//
// Metrics implements registry.Observer so graph drivers report their
// lifecycle and iteration counts, and records the outcome and latency of
// every control operation the service layer performs. Handler serves the
// private prometheus.Registry on /metrics together with Go runtime and
// process collectors.
package metric
