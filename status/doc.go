// Package status holds diagnostic counters for the terminal adapter.
// Registry keeps them in process for display; Prometheus exports them;
// Fanout feeds several sinks from one terminal.WithMetrics hook, and
// StatusService runs the lot as a service.Service.
package status
