package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/chargeplan/core/format"
	"github.com/kilianp07/chargeplan/core/imagestats"
)

func newEstimateCmd(opts *options) *cobra.Command {
	var (
		calc   calcOptions
		pixels int
		image  string
	)
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate how long painting a number of pixels takes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (pixels < 0) == (image == "") {
				return errors.New("exactly one of --pixels or --image is required")
			}
			if image != "" {
				res, err := countFile(image)
				if err != nil {
					return err
				}
				pixels = res.Pixels
			}
			sched, accs, err := calc.accounts(opts)
			if err != nil {
				return err
			}
			est := sched.Estimate(pixels, accs)
			out := cmd.OutOrStdout()
			if est.Unbounded {
				_, err = fmt.Fprintf(out, "%d pixels: never finishes without accounts\n", pixels)
				return err
			}
			_, err = fmt.Fprintf(out, "%d pixels with %d accounts: %s (%d s)\n", pixels, len(accs), format.Seconds(est.Seconds), est.Seconds)
			return err
		},
	}
	calc.bind(cmd)
	cmd.Flags().IntVarP(&pixels, "pixels", "p", -1, "number of pixels to paint")
	cmd.Flags().StringVarP(&image, "image", "i", "", "image whose visible pixels are painted")
	return cmd
}

func newPixelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pixels <file>",
		Short: "Count the visible pixels of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := countFile(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %dx%d: %d visible pixels\n", res.Format, res.Width, res.Height, res.Pixels)
			return err
		},
	}
}

func countFile(path string) (imagestats.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return imagestats.Result{}, err
	}
	defer func() { _ = f.Close() }()
	res, err := imagestats.Count(f)
	if err != nil {
		return imagestats.Result{}, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}
