package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cloudx-io/resourceauction/core"
)

// Text writes a plain-text report of each trial.
type Text struct {
	W io.Writer

	// ShowBids includes the full bid table
	ShowBids bool
}

// Report writes the bid table (optional), allocations and payments of the trial.
func (s *Text) Report(_ context.Context, trial *Trial) error {
	tw := tabwriter.NewWriter(s.W, 0, 8, 1, '\t', 0)

	fmt.Fprintf(tw, "===== Trial %d (%s) =====\n", trial.Index, trial.ID)

	if s.ShowBids {
		fmt.Fprintln(tw, "\nBid values:")
		fmt.Fprint(tw, "Bidder")
		for _, resource := range trial.Resources {
			fmt.Fprintf(tw, "\t%s", resource)
		}
		fmt.Fprintln(tw)
		writeBidRows(tw, trial.Bidders, trial.Bids)

		if len(trial.AdjustmentFactors) > 0 {
			fmt.Fprintln(tw, "\nAdjusted bid values:")
			writeBidRows(tw, trial.Bidders, trial.AdjustedBids())
		}
	}

	if below := trial.BelowReserve(); len(below) > 0 {
		fmt.Fprintln(tw, "\nBelow reserve:")
		for _, resource := range trial.Resources {
			rejected, ok := below[resource]
			if !ok {
				continue
			}
			fmt.Fprintf(tw, "Resource %s\treserve %.2f\t%s\n", resource, trial.ReservePrices[resource], joinBidders(rejected))
		}
	}

	fmt.Fprintln(tw, "\nResource Allocations:")
	for _, outcome := range trial.Result.Outcomes() {
		if !outcome.Allocated() {
			fmt.Fprintf(tw, "Resource %s\tnot allocated\n", outcome.Resource)
			continue
		}
		fmt.Fprintf(tw, "Resource %s\tis allocated to Bidder %s\tprice %s\n",
			outcome.Resource, *outcome.Winner, outcome.Price.StringFixed(2))
	}

	payments := trial.Result.Payments()
	fmt.Fprintln(tw, "\nBidder Payments:")
	for _, bidder := range trial.Result.Bidders() {
		fmt.Fprintf(tw, "Bidder %s\tpays %s\n", bidder, payments[bidder].StringFixed(2))
	}

	return tw.Flush()
}

func writeBidRows(w io.Writer, bidders []core.Bidder, bids core.BidMatrix) {
	for _, bidder := range bidders {
		fmt.Fprint(w, bidder)
		for _, bid := range bids[bidder] {
			if bid < 0 {
				fmt.Fprint(w, "\t-")
			} else {
				fmt.Fprintf(w, "\t%.1f", bid)
			}
		}
		fmt.Fprintln(w)
	}
}

func joinBidders(bidders []core.Bidder) string {
	names := make([]string, len(bidders))
	for i, bidder := range bidders {
		names[i] = string(bidder)
	}
	return strings.Join(names, ", ")
}

var _ Sink = (*Text)(nil)
