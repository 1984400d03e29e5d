package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/kilianp07/chargeplan/core/format"
	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/core/scheduler"
	"github.com/kilianp07/chargeplan/infra/logger"
)

// Notifier publishes session state as JSON on retained topics so that home
// automation dashboards can show charge timers:
//
//	<prefix>/accounts/<id>  per-account state
//	<prefix>/summary        fleet summary
//	<prefix>/plan           latest equalization plan
//	<prefix>/estimate       latest finish-time estimate
//
// It implements the metrics recorder interfaces so it can sit in a MultiSink.
type Notifier struct {
	pub    Publisher
	prefix string
	log    logger.Logger

	mu    sync.Mutex
	known map[int]bool
}

// NewNotifier creates a Notifier publishing under prefix.
func NewNotifier(pub Publisher, prefix string, log logger.Logger) *Notifier {
	if prefix == "" {
		prefix = "chargeplan"
	}
	return &Notifier{pub: pub, prefix: prefix, log: logger.OrNop(log), known: make(map[int]bool)}
}

type accountPayload struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Current    int     `json:"current"`
	Max        int     `json:"max"`
	FillRatio  float64 `json:"fill_ratio"`
	TimeToFull int     `json:"time_to_full"`
	HMS        string  `json:"hms"`
	Full       bool    `json:"full"`
	Time       int64   `json:"timestamp"`
}

type planPayload struct {
	ID            string              `json:"id"`
	TargetSeconds int                 `json:"target_seconds"`
	TargetHMS     string              `json:"target_hms"`
	Optimal       bool                `json:"optimal"`
	Rows          []scheduler.PlanRow `json:"rows"`
	Actions       []scheduler.PlanRow `json:"actions"`
	Time          int64               `json:"timestamp"`
}

type estimatePayload struct {
	Pixels    int    `json:"pixels"`
	Seconds   int    `json:"seconds"`
	HMS       string `json:"hms"`
	Unbounded bool   `json:"unbounded"`
	Time      int64  `json:"timestamp"`
}

// AccountTopic returns the topic of one account.
func (n *Notifier) AccountTopic(id int) string {
	return n.prefix + "/accounts/" + strconv.Itoa(id)
}

// RecordSnapshot publishes every account and the summary. Accounts published
// earlier but absent from s get an empty payload to clear their retained state.
func (n *Notifier) RecordSnapshot(s coremetrics.Snapshot) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	var errs []error
	seen := make(map[int]bool, len(s.Accounts))
	for _, st := range s.Accounts {
		a := st.Account
		seen[a.ID] = true
		err := n.publishJSON(n.AccountTopic(a.ID), accountPayload{
			ID:         a.ID,
			Name:       a.Name,
			Current:    a.Current,
			Max:        a.Max,
			FillRatio:  a.FillRatio(),
			TimeToFull: st.TimeToFull,
			HMS:        format.Seconds(st.TimeToFull),
			Full:       a.Full(),
			Time:       s.Time.UnixMilli(),
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	for id := range n.known {
		if !seen[id] {
			if err := n.pub.Publish(n.AccountTopic(id), nil); err != nil {
				errs = append(errs, err)
				continue
			}
			n.log.Debugf("cleared account %d", id)
		}
	}
	n.known = seen
	if err := n.publishJSON(n.prefix+"/summary", s.Summary); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RecordPlan publishes the latest plan.
func (n *Notifier) RecordPlan(ev coremetrics.PlanEvent) error {
	return n.publishJSON(n.prefix+"/plan", planPayload{
		ID:            ev.ID,
		TargetSeconds: ev.Plan.TargetSeconds,
		TargetHMS:     format.Seconds(ev.Plan.TargetSeconds),
		Optimal:       ev.Plan.Optimal(),
		Rows:          ev.Plan.Rows,
		Actions:       nonNilRows(ev.Plan.Actions()),
		Time:          stamp(ev.Time),
	})
}

// RecordEstimate publishes the latest estimate.
func (n *Notifier) RecordEstimate(ev coremetrics.EstimateEvent) error {
	p := estimatePayload{
		Pixels:    ev.Pixels,
		Seconds:   ev.Estimate.Seconds,
		HMS:       ev.Estimate.String(),
		Unbounded: ev.Estimate.Unbounded,
		Time:      stamp(ev.Time),
	}
	if !ev.Estimate.Unbounded {
		p.HMS = format.Seconds(ev.Estimate.Seconds)
	}
	return n.publishJSON(n.prefix+"/estimate", p)
}

func (n *Notifier) publishJSON(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", topic, err)
	}
	if err := n.pub.Publish(topic, payload); err != nil {
		n.log.Warnf("publish %s: %v", topic, err)
		return err
	}
	return nil
}

func nonNilRows(rows []scheduler.PlanRow) []scheduler.PlanRow {
	if rows == nil {
		return []scheduler.PlanRow{}
	}
	return rows
}

func stamp(t time.Time) int64 {
	if t.IsZero() {
		return time.Now().UnixMilli()
	}
	return t.UnixMilli()
}
