package model

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultCooldownSeconds is the regeneration time of one charge used by the game.
	DefaultCooldownSeconds = 30
	// MaxNameLength caps account names, in runes.
	MaxNameLength = 40
)

// ErrInvalidAccount is returned when charge counts break the account invariants.
var ErrInvalidAccount = errors.New("invalid account")

// Account is one player account with a pool of pixel charges.
type Account struct {
	ID      int    `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Current int    `json:"current" yaml:"current"` // charges available now
	Max     int    `json:"max" yaml:"max"`         // charge capacity
}

// DefaultName returns the display name used for accounts created without one.
func DefaultName(id int) string {
	return fmt.Sprintf("Account %d", id)
}

// NormalizeName trims name and cuts it to MaxNameLength runes. An empty
// result falls back to DefaultName(id).
func NormalizeName(name string, id int) string {
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > MaxNameLength {
		name = strings.TrimSpace(string(r[:MaxNameLength]))
	}
	if name == "" {
		return DefaultName(id)
	}
	return name
}

// Validate checks 0 <= Current <= Max and Max >= 1.
func (a Account) Validate() error {
	return ValidateCharges(a.Current, a.Max)
}

// ValidateCharges checks a current/max pair before it is stored on an account.
func ValidateCharges(current, max int) error {
	if max < 1 {
		return fmt.Errorf("%w: max charges must be at least 1, got %d", ErrInvalidAccount, max)
	}
	if current < 0 {
		return fmt.Errorf("%w: current charges must not be negative, got %d", ErrInvalidAccount, current)
	}
	if current > max {
		return fmt.Errorf("%w: current charges %d exceed max %d", ErrInvalidAccount, current, max)
	}
	return nil
}

// Missing returns how many charges the account lacks to be full. Never negative.
func (a Account) Missing() int {
	if a.Current >= a.Max {
		return 0
	}
	return a.Max - a.Current
}

// Full reports whether the account has no charge left to regenerate.
func (a Account) Full() bool {
	return a.Missing() == 0
}

// FillRatio returns Current/Max, or 0 for an account without capacity.
func (a Account) FillRatio() float64 {
	if a.Max <= 0 {
		return 0
	}
	return float64(a.Current) / float64(a.Max)
}

// ImageStats caches the result of the last successful pixel count.
type ImageStats struct {
	Pixels int `json:"pixels"`
}
