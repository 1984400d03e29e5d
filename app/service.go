package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kilianp07/chargeplan/api/accounts"
	apiadvice "github.com/kilianp07/chargeplan/api/advice"
	"github.com/kilianp07/chargeplan/config"
	"github.com/kilianp07/chargeplan/core/advice"
	"github.com/kilianp07/chargeplan/core/imagestats"
	coremetrics "github.com/kilianp07/chargeplan/core/metrics"
	coremon "github.com/kilianp07/chargeplan/core/monitoring"
	"github.com/kilianp07/chargeplan/core/session"
	"github.com/kilianp07/chargeplan/infra/logger"
	"github.com/kilianp07/chargeplan/infra/metrics"
	inframon "github.com/kilianp07/chargeplan/infra/monitoring"
	"github.com/kilianp07/chargeplan/infra/mqtt"
	"github.com/kilianp07/chargeplan/infra/telemetry"
	"github.com/kilianp07/chargeplan/internal/eventbus"
)

// eventBuffer is the per-subscriber queue of session events.
const eventBuffer = 64

// Service wires the session, the HTTP API and the metrics and notification
// outputs.
type Service struct {
	Session *session.Session

	cfg     *config.Config
	bus     *eventbus.Bus[session.Event]
	sink    coremetrics.MetricsSink
	store   advice.Store
	client  *mqtt.PahoClient
	handler http.Handler
	log     logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	bus := eventbus.New[session.Event](eventBuffer)
	sess, err := session.New(cfg.Session.CooldownSeconds, session.WithBus(bus))
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	mon, err := inframon.NewSentryMonitor(cfg.Sentry, inframon.WithSession(sess))
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	if err := sess.Seed(cfg.Session.Accounts); err != nil {
		return nil, fmt.Errorf("seed accounts: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	var client *mqtt.PahoClient
	if cfg.MQTT.Enabled {
		client, err = mqtt.NewPahoClient(cfg.MQTT, logger.New("mqtt"))
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		sink = coremetrics.NewMultiSink(sink, mqtt.NewNotifier(client, cfg.MQTT.TopicPrefix, logger.New("notifier")))
	}

	store, err := advice.NewStore(cfg.AdviceLog)
	if err != nil {
		if client != nil {
			client.Disconnect()
		}
		return nil, fmt.Errorf("advice log: %w", err)
	}

	svc := &Service{
		Session: sess,
		cfg:     cfg,
		bus:     bus,
		sink:    sink,
		store:   store,
		client:  client,
		log:     logg,
	}
	svc.handler = svc.routes()
	return svc, nil
}

func (s *Service) routes() http.Handler {
	mux := http.NewServeMux()
	opts := []accounts.Option{
		accounts.WithAdviceStore(s.store),
		accounts.WithSink(s.sink),
		accounts.WithCounter(imagestats.Counter{MaxPixels: s.cfg.HTTP.MaxImagePixels}),
		accounts.WithLogger(logger.New("api")),
	}
	if s.cfg.HTTP.MaxUploadBytes > 0 {
		opts = append(opts, accounts.WithMaxUploadBytes(s.cfg.HTTP.MaxUploadBytes))
	}
	accounts.New(s.Session, opts...).Register(mux)
	mux.Handle("GET /api/advice/logs", apiadvice.NewLogHandler(s.store))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// Handler returns the API handler.
func (s *Service) Handler() http.Handler { return s.handler }

// Run serves the API until the context is cancelled. Session events refresh
// the metrics sinks in the background.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	collected := metrics.StartEventCollector(ctx, s.bus, s.Session, s.sink, logger.New("collector"))
	if err := metrics.RecordSession(s.Session, s.sink); err != nil {
		s.log.Warnf("initial snapshot: %v", err)
	}
	if secs := s.cfg.Metrics.SnapshotIntervalSeconds; secs > 0 {
		sampler, err := telemetry.NewManager(s.Session, s.sink, time.Duration(secs)*time.Second, nil, logger.New("telemetry"))
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		go sampler.Start(ctx)
	}
	if port := s.cfg.Metrics.PrometheusPort; port != "" {
		go func() {
			defer coremon.Recover()
			if err := metrics.StartPromServer(ctx, port); err != nil {
				s.log.Errorf("prom server: %v", err)
				coremon.CaptureException(err, map[string]string{"component": "prometheus"})
			}
		}()
	}

	srv := &http.Server{
		Addr:              s.cfg.HTTP.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(s.cfg.HTTP.ReadTimeout()) * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), time.Duration(s.cfg.HTTP.ShutdownTimeout())*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("http shutdown: %v", err)
	}
	cancel()
	<-collected
	return runErr
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.client != nil {
		s.client.Disconnect()
	}
	var errs []error
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("advice log: %w", err))
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
