// Package telemetry samples the session on a fixed interval so time-series
// sinks keep a continuous record even when nobody edits the accounts.
package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/monitoring"
	"github.com/kilianp07/chargeplan/core/session"
	"github.com/kilianp07/chargeplan/infra/logger"
	"github.com/kilianp07/chargeplan/infra/metrics"
)

// Manager periodically records session snapshots into a sink.
type Manager struct {
	sess     *session.Session
	sink     coremetrics.MetricsSink
	interval time.Duration
	log      logger.Logger
	now      func() time.Time

	samples     prometheus.Counter
	failures    prometheus.Counter
	lastCollect prometheus.Gauge
	latency     prometheus.Histogram
}

// NewManager prepares sampling every interval. Its own metrics are registered
// on reg, or the default registerer when reg is nil.
func NewManager(sess *session.Session, sink coremetrics.MetricsSink, interval time.Duration, reg prometheus.Registerer, log logger.Logger) (*Manager, error) {
	if interval <= 0 {
		return nil, errors.New("telemetry interval must be positive")
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Manager{
		sess:     sess,
		sink:     sink,
		interval: interval,
		log:      logger.OrNop(log),
		now:      time.Now,
	}
	var err error
	if m.samples, err = metrics.Register(reg, prometheus.NewCounter(prometheus.CounterOpts{Name: "chargeplan_telemetry_samples_total", Help: "Number of session snapshots recorded by the sampler"})); err != nil {
		return nil, err
	}
	if m.failures, err = metrics.Register(reg, prometheus.NewCounter(prometheus.CounterOpts{Name: "chargeplan_telemetry_failures_total", Help: "Number of session snapshots the sink rejected"})); err != nil {
		return nil, err
	}
	if m.lastCollect, err = metrics.Register(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: "chargeplan_telemetry_last_sample_timestamp_seconds", Help: "Unix timestamp of the last sample"})); err != nil {
		return nil, err
	}
	if m.latency, err = metrics.Register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{Name: "chargeplan_telemetry_sample_latency_seconds", Help: "Time spent recording one sample", Buckets: prometheus.DefBuckets})); err != nil {
		return nil, err
	}
	return m, nil
}

// Start samples until ctx is done.
func (m *Manager) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sample()
		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) sample() {
	start := m.now()
	snap := coremetrics.NewSnapshot(m.sess.Scheduler(), m.sess.List(), start)
	if err := m.sink.RecordSnapshot(snap); err != nil {
		m.failures.Inc()
		m.log.Warnf("record sample: %v", err)
		monitoring.CaptureException(err, map[string]string{"component": "telemetry"})
		return
	}
	m.samples.Inc()
	m.latency.Observe(time.Since(start).Seconds())
	m.lastCollect.Set(float64(start.Unix()))
}
