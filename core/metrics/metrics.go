package metrics

import (
	"time"

	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/scheduler"
)

// AccountState is an account together with its derived timer.
type AccountState struct {
	Account    model.Account `json:"account"`
	TimeToFull int           `json:"time_to_full"`
}

// Snapshot is the full charge state of a session at one instant.
type Snapshot struct {
	Time     time.Time         `json:"time"`
	Cooldown int               `json:"cooldown"`
	Accounts []AccountState    `json:"accounts"`
	Summary  scheduler.Summary `json:"summary"`
}

// NewSnapshot derives timers and summary for accounts.
func NewSnapshot(s *scheduler.Scheduler, accounts []model.Account, at time.Time) Snapshot {
	states := make([]AccountState, len(accounts))
	for i, a := range accounts {
		states[i] = AccountState{Account: a, TimeToFull: s.TimeToFull(a)}
	}
	return Snapshot{
		Time:     at,
		Cooldown: s.Cooldown(),
		Accounts: states,
		Summary:  s.Summary(accounts),
	}
}

// PlanEvent records one computed equalization plan.
type PlanEvent struct {
	ID   string         `json:"id"`
	Time time.Time      `json:"time"`
	Plan scheduler.Plan `json:"plan"`
}

// EstimateEvent records one finish-time estimate.
type EstimateEvent struct {
	Time     time.Time          `json:"time"`
	Pixels   int                `json:"pixels"`
	Estimate scheduler.Estimate `json:"estimate"`
}

// MetricsSink records session snapshots.
type MetricsSink interface {
	RecordSnapshot(Snapshot) error
}

// PlanRecorder records computed plans.
type PlanRecorder interface {
	RecordPlan(PlanEvent) error
}

// EstimateRecorder records finish-time estimates.
type EstimateRecorder interface {
	RecordEstimate(EstimateEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordSnapshot(Snapshot) error      { return nil }
func (NopSink) RecordPlan(PlanEvent) error         { return nil }
func (NopSink) RecordEstimate(EstimateEvent) error { return nil }

// RecordPlan forwards ev when sink supports plans.
func RecordPlan(sink MetricsSink, ev PlanEvent) error {
	if r, ok := sink.(PlanRecorder); ok {
		return r.RecordPlan(ev)
	}
	return nil
}

// RecordEstimate forwards ev when sink supports estimates.
func RecordEstimate(sink MetricsSink, ev EstimateEvent) error {
	if r, ok := sink.(EstimateRecorder); ok {
		return r.RecordEstimate(ev)
	}
	return nil
}
