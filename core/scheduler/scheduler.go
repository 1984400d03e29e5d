package scheduler

import (
	"errors"
	"fmt"
	"math"
	"math/bits"

	"github.com/kilianp07/chargeplan/core/model"
)

// ErrInvalidCooldown is returned when the cooldown is not strictly positive.
var ErrInvalidCooldown = errors.New("cooldown must be positive")

// PlanRow is the spending recommendation for one account.
type PlanRow struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Current       int    `json:"current"`
	Max           int    `json:"max"`
	TargetCurrent int    `json:"target_current"`
	UseNow        int    `json:"use_now"`
	TimeToFullNow int    `json:"time_to_full_now"`
}

// Plan groups the rows of an equalization plan with the common deadline.
type Plan struct {
	Rows          []PlanRow `json:"rows"`
	TargetSeconds int       `json:"target_seconds"`
}

// Optimal reports whether no account needs to spend anything.
func (p Plan) Optimal() bool {
	for _, r := range p.Rows {
		if r.UseNow > 0 {
			return false
		}
	}
	return true
}

// Actions returns the rows recommending to spend at least one charge.
func (p Plan) Actions() []PlanRow {
	var out []PlanRow
	for _, r := range p.Rows {
		if r.UseNow > 0 {
			out = append(out, r)
		}
	}
	return out
}

// TimeToFull returns the seconds needed for the account to regenerate up to
// its max. Results that do not fit an int saturate at math.MaxInt.
func TimeToFull(acc model.Account, cooldown int) int {
	return mulCeilDiv(acc.Missing(), cooldown, 1)
}

// Totals sums current and max charges over all accounts, saturating at math.MaxInt.
func Totals(accounts []model.Account) (current, max int) {
	for _, a := range accounts {
		current = addSat(current, a.Current)
		max = addSat(max, a.Max)
	}
	return current, max
}

// AllFull returns the longest time to full across accounts, 0 when empty.
func AllFull(accounts []model.Account, cooldown int) int {
	longest := 0
	for _, a := range accounts {
		if t := TimeToFull(a, cooldown); t > longest {
			longest = t
		}
	}
	return longest
}

// EqualizePlan aligns every account on the slowest one. Charges cannot be
// added, so faster accounts are told to spend down until their time to full
// matches the slowest account's. Rows keep the input order.
func EqualizePlan(accounts []model.Account, cooldown int) ([]PlanRow, int) {
	if len(accounts) == 0 {
		return []PlanRow{}, 0
	}
	target := AllFull(accounts, cooldown)
	rows := make([]PlanRow, 0, len(accounts))
	for _, a := range accounts {
		targetCurrent := a.Max - target/cooldown
		if targetCurrent < 0 {
			targetCurrent = 0
		}
		useNow := a.Current - targetCurrent
		if useNow < 0 {
			useNow = 0
		}
		rows = append(rows, PlanRow{
			ID:            a.ID,
			Name:          a.Name,
			Current:       a.Current,
			Max:           a.Max,
			TargetCurrent: targetCurrent,
			UseNow:        useNow,
			TimeToFullNow: TimeToFull(a, cooldown),
		})
	}
	return rows, target
}

// Estimate is the projected time to place a number of pixels. Unbounded means
// the pixels can never be placed because nothing regenerates.
type Estimate struct {
	Seconds   int  `json:"seconds"`
	Unbounded bool `json:"unbounded"`
}

// FiniteEstimate returns an estimate of s seconds.
func FiniteEstimate(s int) Estimate { return Estimate{Seconds: s} }

// UnboundedEstimate returns the estimate used when no account can regenerate.
func UnboundedEstimate() Estimate { return Estimate{Unbounded: true} }

func (e Estimate) String() string {
	if e.Unbounded {
		return "unbounded"
	}
	return fmt.Sprintf("%ds", e.Seconds)
}

// EstimateFinishTime models an auto-placer that spends every banked charge at
// once and then keeps up with regeneration, len(accounts) charges every
// cooldown seconds. Per-account caps during the draining phase are ignored.
func EstimateFinishTime(pixels int, accounts []model.Account, cooldown int) Estimate {
	current, _ := Totals(accounts)
	if pixels <= current {
		return FiniteEstimate(0)
	}
	remaining := pixels - current
	n := len(accounts)
	if n == 0 {
		return UnboundedEstimate()
	}
	// ceil(remaining / (n / cooldown)) without going through floats.
	return FiniteEstimate(mulCeilDiv(remaining, cooldown, n))
}

// mulCeilDiv returns ceil(a*b/d) for non-negative a, b and positive d using a
// 128-bit intermediate product. Results above math.MaxInt saturate.
func mulCeilDiv(a, b, d int) int {
	if a <= 0 || b <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	var carry uint64
	lo, carry = bits.Add64(lo, uint64(d-1), 0)
	hi += carry
	if hi >= uint64(d) {
		return math.MaxInt
	}
	q, _ := bits.Div64(hi, lo, uint64(d))
	if q > math.MaxInt {
		return math.MaxInt
	}
	return int(q)
}

func addSat(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// Scheduler binds the calculations to a validated cooldown.
type Scheduler struct {
	cooldown int
}

// New returns a Scheduler using cooldown seconds per charge.
func New(cooldown int) (*Scheduler, error) {
	if cooldown <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCooldown, cooldown)
	}
	return &Scheduler{cooldown: cooldown}, nil
}

// Cooldown returns the seconds needed to regenerate one charge.
func (s *Scheduler) Cooldown() int { return s.cooldown }

// TimeToFull returns the seconds until acc is full.
func (s *Scheduler) TimeToFull(acc model.Account) int { return TimeToFull(acc, s.cooldown) }

// Plan builds the equalization plan for accounts.
func (s *Scheduler) Plan(accounts []model.Account) Plan {
	rows, target := EqualizePlan(accounts, s.cooldown)
	return Plan{Rows: rows, TargetSeconds: target}
}

// Estimate projects the time needed to place pixels with accounts.
func (s *Scheduler) Estimate(pixels int, accounts []model.Account) Estimate {
	return EstimateFinishTime(pixels, accounts, s.cooldown)
}

// Summary aggregates the fleet state.
func (s *Scheduler) Summary(accounts []model.Account) Summary {
	return Summarize(accounts, s.cooldown)
}
