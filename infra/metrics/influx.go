package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	"github.com/kilianp07/chargeplan/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket receiving the points.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes session snapshots, plans and estimates to InfluxDB.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given endpoint. The URL may include the
// /api/v2/write suffix.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the instance and returns a NopSink when the
// health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordSnapshot writes one account_state point per account and a fleet_summary point.
func (s *InfluxSink) RecordSnapshot(snap coremetrics.Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(snap.Accounts)+1)
	for _, st := range snap.Accounts {
		points = append(points, write.NewPointWithMeasurement("account_state").
			AddTag("account", st.Account.Name).
			AddTag("account_id", strconv.Itoa(st.Account.ID)).
			AddField("current", st.Account.Current).
			AddField("max", st.Account.Max).
			AddField("time_to_full", st.TimeToFull).
			SetTime(snap.Time))
	}
	sum := snap.Summary
	points = append(points, write.NewPointWithMeasurement("fleet_summary").
		AddTag("component", "session").
		AddField("accounts", sum.Accounts).
		AddField("total_current", sum.TotalCurrent).
		AddField("total_max", sum.TotalMax).
		AddField("all_full_seconds", sum.AllFullSeconds).
		AddField("fill_ratio", round3(sum.FillRatio)).
		AddField("spread_seconds", round3(sum.SpreadSeconds)).
		SetTime(snap.Time))
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordPlan writes one plan_row point per account of the plan.
func (s *InfluxSink) RecordPlan(ev coremetrics.PlanEvent) error {
	if len(ev.Plan.Rows) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	points := make([]*write.Point, 0, len(ev.Plan.Rows))
	for _, r := range ev.Plan.Rows {
		points = append(points, write.NewPointWithMeasurement("plan_row").
			AddTag("account_id", strconv.Itoa(r.ID)).
			AddTag("plan_id", ev.ID).
			AddField("use_now", r.UseNow).
			AddField("target_current", r.TargetCurrent).
			AddField("target_seconds", ev.Plan.TargetSeconds).
			SetTime(ev.Time))
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// RecordEstimate writes a finish_estimate point.
func (s *InfluxSink) RecordEstimate(ev coremetrics.EstimateEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("finish_estimate").
		AddTag("unbounded", strconv.FormatBool(ev.Estimate.Unbounded)).
		AddField("pixels", ev.Pixels).
		AddField("seconds", ev.Estimate.Seconds).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
