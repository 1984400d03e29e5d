package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kilianp07/chargeplan/core/scheduler"
)

//nolint:gocyclo
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `session:
  cooldown_seconds: 45
  accounts:
    - name: "main"
      current: 10
      max: 20
    - current: 3
      max: 3
http:
  address: ":9000"
metrics:
  prometheus_port: ":9100"
  sinks:
    - type: "nop"
advice_log:
  backend: "sqlite"
  path: "advice.db"
mqtt:
  enabled: true
  broker: "tcp://localhost:1883"
  client_id: "cli"
  username: "user"
  password: "pass"
  topic_prefix: "home/pixels"
sentry:
  environment: "test"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"cooldown", cfg.Session.CooldownSeconds, 45},
		{"accounts", len(cfg.Session.Accounts), 2},
		{"account name", cfg.Session.Accounts[0].Name, "main"},
		{"account max", cfg.Session.Accounts[1].Max, 3},
		{"http", cfg.HTTP.Addr(), ":9000"},
		{"prometheus_port", cfg.Metrics.PrometheusPort, ":9100"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"advice backend", cfg.AdviceLog.Backend, "sqlite"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "cli"},
		{"username", cfg.MQTT.Username, "user"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "home/pixels"},
		{"sentry", cfg.Sentry.Enabled(), false},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadJSONWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"session":{"cooldown_seconds":30}}`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("K_SESSION__COOLDOWN_SECONDS", "60")
	t.Setenv("K_HTTP__ADDRESS", ":7000")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Session.CooldownSeconds != 60 {
		t.Fatalf("env override not applied: %d", cfg.Session.CooldownSeconds)
	}
	if cfg.HTTP.Addr() != ":7000" {
		t.Fatalf("env override not applied: %s", cfg.HTTP.Addr())
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Session.CooldownSeconds != 30 {
		t.Fatalf("expected default cooldown 30, got %d", cfg.Session.CooldownSeconds)
	}
	if cfg.AdviceLog.Backend != "memory" {
		t.Fatalf("expected memory advice log, got %s", cfg.AdviceLog.Backend)
	}
	if cfg.HTTP.Addr() != ":8080" || cfg.HTTP.ReadTimeout() != 15 || cfg.HTTP.ShutdownTimeout() != 5 {
		t.Fatalf("unexpected http defaults: %+v", cfg.HTTP)
	}
	if cfg.MQTT.Enabled {
		t.Fatalf("mqtt should be disabled by default")
	}
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]struct {
		file string
		data string
		is   error
	}{
		"unsupported":    {"config.toml", "", nil},
		"bad cooldown":   {"config.yaml", "session:\n  cooldown_seconds: -5\n", scheduler.ErrInvalidCooldown},
		"bad account":    {"config.yaml", "session:\n  accounts:\n    - current: 5\n      max: 2\n", nil},
		"bad backend":    {"config.yaml", "advice_log:\n  backend: redis\n", nil},
		"mqtt no broker": {"config.yaml", "mqtt:\n  enabled: true\n", nil},
		"sentry rate":    {"config.yaml", "sentry:\n  traces_sample_rate: 2\n", nil},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, tc.file)
			if err := os.WriteFile(path, []byte(tc.data), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Fatalf("expected %v, got %v", tc.is, err)
			}
		})
	}
}
