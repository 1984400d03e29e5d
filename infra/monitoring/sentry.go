package monitoring

import (
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/kilianp07/chargeplan/config"
	coremon "github.com/kilianp07/chargeplan/core/monitoring"
	"github.com/kilianp07/chargeplan/core/session"
)

// Option configures the Sentry monitor.
type Option func(*sentryMonitor, *sentry.ClientOptions)

// WithSession tags every captured event with the session cooldown and the
// number of tracked accounts at capture time.
func WithSession(sess *session.Session) Option {
	return func(m *sentryMonitor, _ *sentry.ClientOptions) {
		m.session = sess
	}
}

// WithBeforeSend installs a hook run on every event before it is sent.
// Returning nil drops the event.
func WithBeforeSend(fn func(*sentry.Event, *sentry.EventHint) *sentry.Event) Option {
	return func(_ *sentryMonitor, o *sentry.ClientOptions) {
		o.BeforeSend = fn
	}
}

// NewSentryMonitor creates a Sentry-backed monitor from cfg. Without a DSN it
// returns a NopMonitor so local runs never reach the network.
func NewSentryMonitor(cfg config.SentryConfig, opts ...Option) (coremon.Monitor, error) {
	if !cfg.Enabled() {
		return coremon.NopMonitor{}, nil
	}
	m := &sentryMonitor{}
	co := sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
		ServerName:       "chargeplan",
	}
	for _, o := range opts {
		o(m, &co)
	}
	client, err := sentry.NewClient(co)
	if err != nil {
		return nil, err
	}
	m.hub = sentry.NewHub(client, sentry.NewScope())
	return m, nil
}

type sentryMonitor struct {
	hub     *sentry.Hub
	session *session.Session
}

func (s *sentryMonitor) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		if s.session != nil {
			scope.SetTag("cooldown_seconds", strconv.Itoa(s.session.Cooldown()))
			scope.SetTag("accounts", strconv.Itoa(len(s.session.List())))
		}
		scope.SetTags(tags)
		s.hub.CaptureException(err)
	})
}

func (s *sentryMonitor) Recover() {
	if r := recover(); r != nil {
		s.hub.Recover(r)
		s.hub.Flush(2 * time.Second)
		panic(r)
	}
}

func (s *sentryMonitor) Flush(timeout time.Duration) { s.hub.Flush(timeout) }
