package scheduler

import (
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/chargeplan/core/model"
)

// Summary describes the charge state of all accounts together.
type Summary struct {
	Accounts       int     `json:"accounts"`
	TotalCurrent   int     `json:"total_current"`
	TotalMax       int     `json:"total_max"`
	AllFullSeconds int     `json:"all_full_seconds"`
	FillRatio      float64 `json:"fill_ratio"`
	// MeanTimeToFull and SpreadSeconds are the population mean and standard
	// deviation of the per-account time to full. A zero spread means the
	// accounts are already synchronized.
	MeanTimeToFull float64 `json:"mean_time_to_full"`
	SpreadSeconds  float64 `json:"spread_seconds"`
}

// Summarize computes totals and timer statistics for accounts.
func Summarize(accounts []model.Account, cooldown int) Summary {
	current, max := Totals(accounts)
	sum := Summary{
		Accounts:       len(accounts),
		TotalCurrent:   current,
		TotalMax:       max,
		AllFullSeconds: AllFull(accounts, cooldown),
	}
	if max > 0 {
		sum.FillRatio = float64(current) / float64(max)
	}
	if len(accounts) == 0 {
		return sum
	}
	times := make([]float64, len(accounts))
	for i, a := range accounts {
		times[i] = float64(TimeToFull(a, cooldown))
	}
	sum.MeanTimeToFull, sum.SpreadSeconds = stat.PopMeanStdDev(times, nil)
	return sum
}
