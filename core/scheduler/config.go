package scheduler

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/chargeplan/core/model"
)

// Config holds the cooldown shared by all accounts and an optional list of
// accounts used to seed a session.
type Config struct {
	CooldownSeconds int             `json:"cooldown_seconds" yaml:"cooldown_seconds"`
	Accounts        []model.Account `json:"accounts" yaml:"accounts"`
}

// SetDefaults applies the game's cooldown when none is configured.
func (c *Config) SetDefaults() {
	if c.CooldownSeconds == 0 {
		c.CooldownSeconds = model.DefaultCooldownSeconds
	}
}

// Validate checks the cooldown and every seed account.
func (c Config) Validate() error {
	if c.CooldownSeconds <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCooldown, c.CooldownSeconds)
	}
	for i, a := range c.Accounts {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("account %d: %w", i, err)
		}
	}
	return nil
}

// LoadConfig loads a Config from a JSON or YAML file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return DecodeConfig(f, ext)
}

// DecodeConfig reads a Config from r. Defaults are applied and the result is
// validated.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
