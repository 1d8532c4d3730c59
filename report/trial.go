// Package report renders auction results as text, charts and statistics.
package report

import (
	"context"
	"errors"

	"github.com/cloudx-io/resourceauction/core"
)

// Trial is one auction run handed to reporting sinks.
type Trial struct {
	ID        string
	Index     int
	Resources []core.Resource
	Bidders   []core.Bidder
	Bids      core.BidMatrix
	Result    *core.Result

	// AdjustmentFactors used by the allocator, if any
	AdjustmentFactors map[core.Bidder]float64
	// ReservePrices in force per resource, if any
	ReservePrices     map[core.Resource]float64
}

// WinningBids returns the winning bid per resource, zero for resources without a winner.
func (t *Trial) WinningBids() []float64 {
	outcomes := t.Result.Outcomes()
	out := make([]float64, len(outcomes))
	for i, outcome := range outcomes {
		if outcome.Allocated() {
			out[i] = outcome.WinningBid
		}
	}
	return out
}

// Prices returns the price charged per resource, zero for resources without a winner.
func (t *Trial) Prices() []float64 {
	outcomes := t.Result.Outcomes()
	out := make([]float64, len(outcomes))
	for i, outcome := range outcomes {
		if outcome.Allocated() {
			out[i] = outcome.Price.InexactFloat64()
		}
	}
	return out
}

// AllBids returns every bid of the trial, bidder by bidder, abstentions excluded.
func (t *Trial) AllBids() []float64 {
	out := make([]float64, 0, len(t.Bidders)*len(t.Resources))
	for _, bidder := range t.Bidders {
		for _, bid := range t.Bids[bidder] {
			if bid >= 0 {
				out = append(out, bid)
			}
		}
	}
	return out
}

// AdjustedBids returns the bids as the allocator compared them, after adjustment factors.
func (t *Trial) AdjustedBids() core.BidMatrix {
	return core.ApplyAdjustmentFactors(t.Bids, t.AdjustmentFactors)
}

// BelowReserve lists, per resource, the bidders whose adjusted bid missed the reserve price.
// Resources where nobody was rejected are omitted.
func (t *Trial) BelowReserve() map[core.Resource][]core.Bidder {
	if len(t.ReservePrices) == 0 {
		return nil
	}

	adjusted := t.AdjustedBids()
	out := make(map[core.Resource][]core.Bidder)
	for i, resource := range t.Resources {
		reserve, ok := t.ReservePrices[resource]
		if !ok {
			continue
		}
		column := make([]float64, len(t.Bidders))
		for j, bidder := range t.Bidders {
			column[j] = adjusted[bidder][i]
		}
		if _, rejected := core.EnforceReserve(t.Bidders, column, reserve); len(rejected) > 0 {
			out[resource] = rejected
		}
	}
	return out
}

// Sink consumes auction results. Sinks impose no constraints back on the allocator.
type Sink interface {
	Report(ctx context.Context, trial *Trial) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, trial *Trial) error

// Report calls f.
func (f SinkFunc) Report(ctx context.Context, trial *Trial) error {
	return f(ctx, trial)
}

// Multi fans a trial out to several sinks. Every sink is called; errors are joined.
type Multi []Sink

// Report forwards the trial to each sink in order.
func (m Multi) Report(ctx context.Context, trial *Trial) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Report(ctx, trial); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ Sink = SinkFunc(nil)
	_ Sink = Multi(nil)
)
