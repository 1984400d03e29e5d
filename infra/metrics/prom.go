package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
)

// PromSink exposes the session state as Prometheus gauges.
type PromSink struct {
	current    *prometheus.GaugeVec
	max        *prometheus.GaugeVec
	timeToFull *prometheus.GaugeVec
	useNow     *prometheus.GaugeVec

	allFull   prometheus.Gauge
	fill      prometheus.Gauge
	spread    prometheus.Gauge
	target    prometheus.Gauge
	estimate  prometheus.Gauge
	unbounded prometheus.Gauge
	plans     prometheus.Counter
}

var accountLabels = []string{"account_id", "account"}

// NewPromSink registers the gauges on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on reg. A nil registerer defaults
// to the global one. Collectors already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	var err error
	s := &PromSink{}
	if s.current, err = Register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chargeplan_account_charges",
		Help: "Charges currently available on the account",
	}, accountLabels)); err != nil {
		return nil, err
	}
	if s.max, err = Register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chargeplan_account_charges_max",
		Help: "Charge capacity of the account",
	}, accountLabels)); err != nil {
		return nil, err
	}
	if s.timeToFull, err = Register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chargeplan_account_time_to_full_seconds",
		Help: "Seconds until the account is fully recharged",
	}, accountLabels)); err != nil {
		return nil, err
	}
	if s.useNow, err = Register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chargeplan_plan_use_now",
		Help: "Charges the last equalization plan recommends spending now",
	}, accountLabels)); err != nil {
		return nil, err
	}
	if s.allFull, err = Register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargeplan_all_full_seconds",
		Help: "Seconds until every account is full",
	})); err != nil {
		return nil, err
	}
	if s.fill, err = Register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargeplan_fill_ratio",
		Help: "Total current charges divided by total capacity",
	})); err != nil {
		return nil, err
	}
	if s.spread, err = Register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargeplan_time_to_full_spread_seconds",
		Help: "Standard deviation of the per-account time to full",
	})); err != nil {
		return nil, err
	}
	if s.target, err = Register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargeplan_plan_target_seconds",
		Help: "Common deadline of the last equalization plan",
	})); err != nil {
		return nil, err
	}
	if s.estimate, err = Register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargeplan_estimate_finish_seconds",
		Help: "Last estimated time to paint the image",
	})); err != nil {
		return nil, err
	}
	if s.unbounded, err = Register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chargeplan_estimate_unbounded",
		Help: "1 when the last estimate could never finish",
	})); err != nil {
		return nil, err
	}
	if s.plans, err = Register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chargeplan_plans_total",
		Help: "Number of equalization plans computed",
	})); err != nil {
		return nil, err
	}
	return s, nil
}

// Register adds c to reg, returning the collector already registered under the
// same descriptor when there is one.
func Register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSnapshot replaces the per-account gauges so removed accounts disappear.
func (s *PromSink) RecordSnapshot(snap coremetrics.Snapshot) error {
	s.current.Reset()
	s.max.Reset()
	s.timeToFull.Reset()
	for _, st := range snap.Accounts {
		labels := []string{strconv.Itoa(st.Account.ID), st.Account.Name}
		s.current.WithLabelValues(labels...).Set(float64(st.Account.Current))
		s.max.WithLabelValues(labels...).Set(float64(st.Account.Max))
		s.timeToFull.WithLabelValues(labels...).Set(float64(st.TimeToFull))
	}
	s.allFull.Set(float64(snap.Summary.AllFullSeconds))
	s.fill.Set(snap.Summary.FillRatio)
	s.spread.Set(snap.Summary.SpreadSeconds)
	return nil
}

// RecordPlan stores the recommendation of the last plan.
func (s *PromSink) RecordPlan(ev coremetrics.PlanEvent) error {
	s.plans.Inc()
	s.useNow.Reset()
	for _, r := range ev.Plan.Rows {
		s.useNow.WithLabelValues(strconv.Itoa(r.ID), r.Name).Set(float64(r.UseNow))
	}
	s.target.Set(float64(ev.Plan.TargetSeconds))
	return nil
}

// RecordEstimate stores the last finish-time estimate.
func (s *PromSink) RecordEstimate(ev coremetrics.EstimateEvent) error {
	if ev.Estimate.Unbounded {
		s.unbounded.Set(1)
		s.estimate.Set(0)
		return nil
	}
	s.unbounded.Set(0)
	s.estimate.Set(float64(ev.Estimate.Seconds))
	return nil
}
