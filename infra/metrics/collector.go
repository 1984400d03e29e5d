package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/monitoring"
	"github.com/kilianp07/chargeplan/core/session"
	"github.com/kilianp07/chargeplan/infra/logger"
	"github.com/kilianp07/chargeplan/internal/eventbus"
)

// RecordSession writes a snapshot of sess to sink.
func RecordSession(sess *session.Session, sink coremetrics.MetricsSink) error {
	snap := coremetrics.NewSnapshot(sess.Scheduler(), sess.List(), sessionNow())
	return sink.RecordSnapshot(snap)
}

// StartEventCollector records a fresh snapshot after every session event. It
// returns once the subscription is registered and stops when ctx is done or
// the bus is closed. The returned channel is closed when the collector exits.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[session.Event], sess *session.Session, sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log = logger.OrNop(log)
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := RecordSession(sess, sink); err != nil {
					log.Warnf("record snapshot after %s: %v", ev.Type, err)
					monitoring.CaptureException(err, map[string]string{"component": "metrics", "event": string(ev.Type)})
				}
			}
		}
	}()
	return done
}
