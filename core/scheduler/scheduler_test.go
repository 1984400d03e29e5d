package scheduler

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargeplan/core/model"
)

func twoAccounts() []model.Account {
	return []model.Account{
		{ID: 1, Name: "a", Current: 50, Max: 100},
		{ID: 2, Name: "b", Current: 10, Max: 100},
	}
}

func TestTimeToFull(t *testing.T) {
	cases := []struct {
		acc  model.Account
		want int
	}{
		{model.Account{Current: 50, Max: 100}, 1500},
		{model.Account{Current: 10, Max: 100}, 2700},
		{model.Account{Current: 100, Max: 100}, 0},
		{model.Account{Current: 150, Max: 100}, 0},
	}
	for _, c := range cases {
		if got := TimeToFull(c.acc, 30); got != c.want {
			t.Fatalf("time to full %+v: expected %d got %d", c.acc, c.want, got)
		}
	}
}

func TestTotals(t *testing.T) {
	cur, max := Totals(nil)
	if cur != 0 || max != 0 {
		t.Fatalf("expected (0,0) got (%d,%d)", cur, max)
	}
	accs := twoAccounts()
	cur, max = Totals(accs)
	if cur != 60 || max != 200 {
		t.Fatalf("expected (60,200) got (%d,%d)", cur, max)
	}
	accs[0], accs[1] = accs[1], accs[0]
	cur2, max2 := Totals(accs)
	if cur2 != cur || max2 != max {
		t.Fatalf("totals depend on order")
	}
}

func TestEqualizePlanScenario(t *testing.T) {
	rows, target := EqualizePlan(twoAccounts(), 30)
	require.Len(t, rows, 2)
	assert.Equal(t, 2700, target)
	assert.Equal(t, PlanRow{ID: 1, Name: "a", Current: 50, Max: 100, TargetCurrent: 10, UseNow: 40, TimeToFullNow: 1500}, rows[0])
	assert.Equal(t, PlanRow{ID: 2, Name: "b", Current: 10, Max: 100, TargetCurrent: 10, UseNow: 0, TimeToFullNow: 2700}, rows[1])
}

func TestEqualizePlanEmpty(t *testing.T) {
	rows, target := EqualizePlan(nil, 30)
	if len(rows) != 0 || target != 0 {
		t.Fatalf("expected empty plan, got %v %d", rows, target)
	}
	if rows == nil {
		t.Fatalf("expected non-nil rows for JSON encoding")
	}
}

func TestEqualizePlanAlreadyOptimal(t *testing.T) {
	accs := []model.Account{{ID: 1, Current: 20, Max: 50}, {ID: 2, Current: 70, Max: 100}}
	s, err := New(30)
	require.NoError(t, err)
	plan := s.Plan(accs)
	assert.True(t, plan.Optimal())
	assert.Empty(t, plan.Actions())
	assert.Equal(t, 900, plan.TargetSeconds)
}

func TestEqualizePlanClampsTargetAtZero(t *testing.T) {
	// A large empty account forces a deadline longer than a small account can cover.
	accs := []model.Account{{ID: 1, Current: 0, Max: 500}, {ID: 2, Current: 8, Max: 10}}
	rows, target := EqualizePlan(accs, 30)
	assert.Equal(t, 15000, target)
	assert.Equal(t, 0, rows[1].TargetCurrent)
	assert.Equal(t, 8, rows[1].UseNow)
}

func TestEqualizePlanProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 200; iter++ {
		n := 1 + rng.Intn(6)
		cooldown := 1 + rng.Intn(60)
		accs := make([]model.Account, n)
		for i := range accs {
			max := 1 + rng.Intn(300)
			accs[i] = model.Account{ID: i + 1, Current: rng.Intn(max + 1), Max: max}
		}
		rows, target := EqualizePlan(accs, cooldown)
		for i, r := range rows {
			if r.ID != accs[i].ID {
				t.Fatalf("order not preserved")
			}
			if r.TargetCurrent < 0 || r.TargetCurrent > r.Current {
				t.Fatalf("target out of range: %+v", r)
			}
			if r.UseNow < 0 {
				t.Fatalf("negative use: %+v", r)
			}
			after := TimeToFull(model.Account{Current: r.TargetCurrent, Max: r.Max}, cooldown)
			if after > target {
				t.Fatalf("target time %d exceeds deadline %d", after, target)
			}
			if r.TimeToFullNow == target && after != target {
				t.Fatalf("slowest account moved: %+v", r)
			}
		}
	}
}

func TestEstimateFinishTime(t *testing.T) {
	accs := []model.Account{{Current: 30, Max: 100}, {Current: 30, Max: 100}}
	assert.Equal(t, FiniteEstimate(14100), EstimateFinishTime(1000, accs, 30))
	assert.Equal(t, FiniteEstimate(0), EstimateFinishTime(60, accs, 30))
	assert.Equal(t, FiniteEstimate(0), EstimateFinishTime(0, nil, 30))
	assert.Equal(t, UnboundedEstimate(), EstimateFinishTime(1, nil, 30))
	// ceil: 1 remaining pixel with 2 accounts needs 15s
	assert.Equal(t, 15, EstimateFinishTime(61, accs, 30).Seconds)
	// ceil on a non-integral rate
	three := []model.Account{{Max: 1}, {Max: 1}, {Max: 1}}
	assert.Equal(t, 10, EstimateFinishTime(1, three, 30).Seconds)
	assert.Equal(t, 4, EstimateFinishTime(2, three, 5).Seconds)
}

func TestEstimateFinishTimeSaturates(t *testing.T) {
	accs := []model.Account{{Current: 0, Max: 10}, {Current: 0, Max: 10}}
	assert.Equal(t, math.MaxInt64/20*15, EstimateFinishTime(math.MaxInt64/20, accs, 30).Seconds)
	assert.Equal(t, FiniteEstimate(math.MaxInt), EstimateFinishTime(math.MaxInt, accs, 30))
	assert.Equal(t, math.MaxInt, EstimateFinishTime(math.MaxInt, accs[:1], math.MaxInt).Seconds)
	// exact near the boundary: (MaxInt-1)*2/2
	assert.Equal(t, math.MaxInt-1, EstimateFinishTime(math.MaxInt-1, accs, 2).Seconds)
}

func TestTimeToFullSaturates(t *testing.T) {
	acc := model.Account{Current: 0, Max: math.MaxInt}
	assert.Equal(t, math.MaxInt, TimeToFull(acc, 30))
	cur, max := Totals([]model.Account{acc, acc})
	assert.Equal(t, 0, cur)
	assert.Equal(t, math.MaxInt, max)

	rows, target := EqualizePlan([]model.Account{acc, {Current: 5, Max: 5}}, 30)
	assert.Equal(t, math.MaxInt, target)
	for _, r := range rows {
		assert.GreaterOrEqual(t, r.TimeToFullNow, 0)
		assert.GreaterOrEqual(t, r.TargetCurrent, 0)
		assert.GreaterOrEqual(t, r.UseNow, 0)
	}
}

func TestEstimateString(t *testing.T) {
	if UnboundedEstimate().String() != "unbounded" {
		t.Fatalf("unexpected string")
	}
	if FiniteEstimate(12).String() != "12s" {
		t.Fatalf("unexpected string %s", FiniteEstimate(12))
	}
}

func TestNewRejectsCooldown(t *testing.T) {
	_, err := New(0)
	if !errors.Is(err, ErrInvalidCooldown) {
		t.Fatalf("expected ErrInvalidCooldown got %v", err)
	}
	s, err := New(30)
	require.NoError(t, err)
	assert.Equal(t, 30, s.Cooldown())
	assert.Equal(t, 1500, s.TimeToFull(twoAccounts()[0]))
	assert.Equal(t, FiniteEstimate(14100), s.Estimate(1000, []model.Account{{Current: 60, Max: 100}, {Max: 100}}))
}

func TestSummarize(t *testing.T) {
	sum := Summarize(twoAccounts(), 30)
	assert.Equal(t, 2, sum.Accounts)
	assert.Equal(t, 60, sum.TotalCurrent)
	assert.Equal(t, 200, sum.TotalMax)
	assert.Equal(t, 2700, sum.AllFullSeconds)
	assert.InDelta(t, 0.3, sum.FillRatio, 1e-9)
	assert.InDelta(t, 2100, sum.MeanTimeToFull, 1e-9)
	assert.InDelta(t, 600, sum.SpreadSeconds, 1e-9)

	empty := Summarize(nil, 30)
	assert.Equal(t, Summary{}, empty)
}

func TestDecodeConfig(t *testing.T) {
	data := "cooldown_seconds: 45\naccounts:\n  - name: main\n    current: 10\n    max: 100\n"
	cfg, err := DecodeConfig(bytes.NewBufferString(data), "yaml")
	require.NoError(t, err)
	assert.Equal(t, 45, cfg.CooldownSeconds)
	require.Len(t, cfg.Accounts, 1)
	assert.Equal(t, "main", cfg.Accounts[0].Name)

	cfg, err = DecodeConfig(bytes.NewBufferString(`{"accounts":[{"current":1,"max":2}]}`), "json")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultCooldownSeconds, cfg.CooldownSeconds)
}

func TestDecodeConfigErrors(t *testing.T) {
	if _, err := DecodeConfig(bytes.NewBufferString("{}"), "toml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := DecodeConfig(bytes.NewBufferString(`{"cooldown_seconds":-1}`), "json"); !errors.Is(err, ErrInvalidCooldown) {
		t.Fatalf("expected cooldown error got %v", err)
	}
	if _, err := DecodeConfig(bytes.NewBufferString(`{"accounts":[{"current":5,"max":2}]}`), "json"); !errors.Is(err, model.ErrInvalidAccount) {
		t.Fatalf("expected account error got %v", err)
	}
	if _, err := DecodeConfig(bytes.NewBufferString(":"), "yaml"); err == nil {
		t.Fatalf("expected yaml error")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.json")
	if err := os.WriteFile(path, []byte(`{"cooldown_seconds":30,"accounts":[{"name":"x","current":3,"max":9}]}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Accounts[0].Max)

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
