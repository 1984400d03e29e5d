package metrics

import "errors"

// MultiSink fans out records to several sinks. Every sink is tried; the
// returned error joins all failures.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) RecordSnapshot(s Snapshot) error {
	var errs []error
	for _, sink := range m.Sinks {
		if err := sink.RecordSnapshot(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordPlan(ev PlanEvent) error {
	var errs []error
	for _, sink := range m.Sinks {
		if err := RecordPlan(sink, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordEstimate(ev EstimateEvent) error {
	var errs []error
	for _, sink := range m.Sinks {
		if err := RecordEstimate(sink, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() {
	for _, sink := range m.Sinks {
		if c, ok := sink.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
