// Package observability sets up OpenTelemetry tracing and metrics for
// chatstream and defines the instruments the stream controller records.
//
// Setup installs global providers exporting over OTLP/HTTP. When telemetry
// is disabled nothing is installed and the otel globals stay no-ops, so
// instrumented code needs no checks of its own.
package observability
