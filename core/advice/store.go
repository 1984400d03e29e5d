// Package advice keeps an audit trail of the equalization plans handed out by
// the service. Records are append-only; the session state itself is never
// restored from them.
package advice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/chargeplan/core/scheduler"
)

// Record captures one computed plan.
type Record struct {
	ID            string              `json:"id"`
	Timestamp     time.Time           `json:"timestamp"`
	Cooldown      int                 `json:"cooldown"`
	TargetSeconds int                 `json:"target_seconds"`
	Optimal       bool                `json:"optimal"`
	Rows          []scheduler.PlanRow `json:"rows"`
}

// NewRecord wraps plan in a Record with a fresh id.
func NewRecord(plan scheduler.Plan, cooldown int, at time.Time) Record {
	return Record{
		ID:            uuid.NewString(),
		Timestamp:     at.UTC(),
		Cooldown:      cooldown,
		TargetSeconds: plan.TargetSeconds,
		Optimal:       plan.Optimal(),
		Rows:          plan.Rows,
	}
}

// Query defines filters for retrieving records. Zero values disable a filter.
type Query struct {
	Start     time.Time
	End       time.Time
	AccountID int
	// ActionsOnly keeps records recommending at least one spend.
	ActionsOnly bool
	// Limit keeps the most recent records when positive.
	Limit int
}

// Match reports whether r passes the filters of q, ignoring Limit.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.ActionsOnly && r.Optimal {
		return false
	}
	if q.AccountID != 0 {
		for _, row := range r.Rows {
			if row.ID == q.AccountID {
				return true
			}
		}
		return false
	}
	return true
}

func (q Query) apply(recs []Record) []Record {
	if q.Limit > 0 && len(recs) > q.Limit {
		return recs[len(recs)-q.Limit:]
	}
	return recs
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// Config selects and tunes the store backend.
type Config struct {
	// Backend is one of "memory", "jsonl" or "sqlite".
	Backend string `json:"backend"`
	Path    string `json:"path"`
	// MaxSizeMB enables rotation of the jsonl backend when positive.
	MaxSizeMB  int `json:"max_size_mb"`
	MaxBackups int `json:"max_backups"`
	MaxAgeDays int `json:"max_age_days"`
	// MaxRecords caps the memory backend.
	MaxRecords int `json:"max_records"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Path == "" {
		switch c.Backend {
		case "jsonl":
			c.Path = "advice.jsonl"
		case "sqlite":
			c.Path = "advice.db"
		}
	}
	if c.MaxRecords <= 0 {
		c.MaxRecords = 1000
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	switch c.Backend {
	case "memory":
		return nil
	case "jsonl", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("advice log path is required for backend %s", c.Backend)
		}
		return nil
	default:
		return fmt.Errorf("unknown advice log backend %q", c.Backend)
	}
}

// NewStore opens the backend described by cfg.
func NewStore(cfg Config) (Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Backend {
	case "jsonl":
		if cfg.MaxSizeMB > 0 {
			return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
		}
		return NewJSONLStore(cfg.Path)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return NewMemoryStore(cfg.MaxRecords), nil
	}
}
