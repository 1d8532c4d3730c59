package main

import (
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/cloudx-io/resourceauction/bidsource"
	"github.com/cloudx-io/resourceauction/core"
	"github.com/cloudx-io/resourceauction/report"
)

var allocateCmd = &cli.Command{
	Name:    "allocate",
	Usage:   "Allocate resources for a recorded bid matrix",
	Aliases: []string{"a"},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "bids",
			Required: true,
			Usage:    "specify the input auction file (YAML or JSON)",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "auction resources in parallel on this many workers",
		},
		&cli.StringFlag{
			Name:  "format",
			Value: "text",
			Usage: "output format: text or json",
		},
	},
	Action: func(ctx *cli.Context) error {
		if err := checkFormat(ctx.String("format")); err != nil {
			return err
		}

		in, err := bidsource.LoadInput(ctx.String("bids"))
		if err != nil {
			return err
		}

		allocator := in.Allocator()
		var result *core.Result
		if workers := ctx.Int("workers"); workers > 1 {
			result, err = allocator.AllocateConcurrent(in.Resources, in.Bidders, in.Matrix, workers)
		} else {
			result, err = allocator.Allocate(in.Resources, in.Bidders, in.Matrix)
		}
		if err != nil {
			return err
		}

		trial := &report.Trial{
			ID:        uuid.NewString(),
			Resources: in.Resources,
			Bidders:   in.Bidders,
			Bids:      in.Matrix,
			Result:    result,

			AdjustmentFactors: in.AdjustmentFactors,
			ReservePrices:     allocator.Reserves(in.Resources),
		}

		if ctx.String("format") == "json" {
			return outputJSON(newAllocationOutput(trial))
		}
		text := &report.Text{W: os.Stdout, ShowBids: true}
		return text.Report(ctx.Context, trial)
	},
}

type allocationOutput struct {
	Allocation   core.Allocation                 `json:"allocation"`
	Payments     core.PaymentLedger              `json:"payments"`
	Outcomes     []core.Outcome                  `json:"outcomes"`
	AdjustedBids core.BidMatrix                  `json:"adjusted_bids,omitempty"`
	BelowReserve map[core.Resource][]core.Bidder `json:"below_reserve,omitempty"`
}

func newAllocationOutput(trial *report.Trial) allocationOutput {
	out := allocationOutput{
		Allocation:   trial.Result.Allocation(),
		Payments:     trial.Result.Payments(),
		Outcomes:     trial.Result.Outcomes(),
		BelowReserve: trial.BelowReserve(),
	}
	if len(trial.AdjustmentFactors) > 0 {
		out.AdjustedBids = trial.AdjustedBids()
	}
	return out
}
