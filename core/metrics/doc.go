// Package metrics defines the sinks that mirror the session state to
// observability backends. A sink must implement MetricsSink; the optional
// PlanRecorder and EstimateRecorder interfaces are detected at runtime so a
// backend only implements what it can store.
package metrics
