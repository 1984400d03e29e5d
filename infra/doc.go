// Package infra contains the technical adapters of the service: the Paho
// MQTT notifier, the Prometheus and InfluxDB sinks, Sentry monitoring, the
// zerolog logger and the periodic session sampler. These packages depend
// only on the interfaces defined in the core packages.
package infra
