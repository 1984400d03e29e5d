package metrics

import "github.com/kilianp07/chargeplan/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusPort is the listen address of the /metrics endpoint. Empty disables it.
	PrometheusPort string `json:"prometheus_port"`
	// SnapshotIntervalSeconds records a snapshot on a fixed period in addition
	// to the ones triggered by session changes. Zero disables sampling.
	SnapshotIntervalSeconds int `json:"snapshot_interval_seconds"`
}
