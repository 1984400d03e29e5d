package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/session"
	"github.com/kilianp07/chargeplan/infra/logger"
	"github.com/kilianp07/chargeplan/internal/eventbus"
)

type chanSink struct {
	mu    sync.Mutex
	snaps []coremetrics.Snapshot
	ch    chan struct{}
}

func (c *chanSink) RecordSnapshot(s coremetrics.Snapshot) error {
	c.mu.Lock()
	c.snaps = append(c.snaps, s)
	c.mu.Unlock()
	c.ch <- struct{}{}
	return nil
}

func TestEventCollectorRecordsSnapshots(t *testing.T) {
	bus := eventbus.New[session.Event](8)
	sess, err := session.New(30, session.WithBus(bus))
	require.NoError(t, err)
	sink := &chanSink{ch: make(chan struct{}, 8)}

	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, sess, sink, logger.NopLogger{})

	_, err = sess.Add("a", 10, 100)
	require.NoError(t, err)
	select {
	case <-sink.ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("snapshot not recorded")
	}
	sink.mu.Lock()
	assert.Len(t, sink.snaps[0].Accounts, 1)
	assert.Equal(t, 2700, sink.snaps[0].Accounts[0].TimeToFull)
	sink.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("collector did not stop")
	}
}

func TestEventCollectorNilBus(t *testing.T) {
	done := StartEventCollector(context.Background(), nil, nil, coremetrics.NopSink{}, nil)
	select {
	case <-done:
	default:
		t.Fatalf("expected closed channel")
	}
}
