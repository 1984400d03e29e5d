package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeplan/core/model"
	"github.com/kilianp07/chargeplan/core/scheduler"
	"github.com/kilianp07/chargeplan/pkg/export"
)

type calcOptions struct {
	seed     string
	cooldown int
}

func (c *calcOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.seed, "seed", "", "seed file with cooldown_seconds and accounts (overrides the config session)")
	cmd.Flags().IntVar(&c.cooldown, "cooldown", 0, "cooldown in seconds per charge (overrides the seed)")
}

// accounts resolves the accounts and cooldown from the seed file or the
// configuration session section.
func (c *calcOptions) accounts(opts *options) (*scheduler.Scheduler, []model.Account, error) {
	var sc scheduler.Config
	if c.seed != "" {
		loaded, err := scheduler.LoadConfig(c.seed)
		if err != nil {
			return nil, nil, fmt.Errorf("load seed: %w", err)
		}
		sc = loaded
	} else {
		cfg, err := opts.load()
		if err != nil {
			return nil, nil, err
		}
		sc = cfg.Session
	}
	if c.cooldown != 0 {
		sc.CooldownSeconds = c.cooldown
	}
	sched, err := scheduler.New(sc.CooldownSeconds)
	if err != nil {
		return nil, nil, err
	}
	accs := make([]model.Account, len(sc.Accounts))
	for i, a := range sc.Accounts {
		a.ID = i + 1
		a.Name = model.NormalizeName(a.Name, a.ID)
		accs[i] = a
	}
	return sched, accs, nil
}

func newPlanCmd(opts *options) *cobra.Command {
	var (
		calc   calcOptions
		format string
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the equalization plan for the configured accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sched, accs, err := calc.accounts(opts)
			if err != nil {
				return err
			}
			return export.Write(cmd.OutOrStdout(), sched.Plan(accs), format)
		},
	}
	calc.bind(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, json or csv")
	return cmd
}
