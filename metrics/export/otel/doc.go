// Package otel publishes authtoken engine counters as OpenTelemetry
// observable instruments.
//
// [NewExporter] registers one Int64ObservableCounter per engine counter and
// one Int64ObservableGauge per verify-latency bucket. A single callback reads
// [authtoken.Engine.MetricsSnapshot] on each collection cycle. Callers own the
// MeterProvider.
package otel
