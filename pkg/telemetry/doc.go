// Package telemetry wires observability: the process root logger
// (zerolog, console or JSON) and an optional Prometheus endpoint with
// run, action, and plan metrics.
package telemetry
