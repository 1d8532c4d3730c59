package simulation

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/cloudx-io/resourceauction/bidsource"
	"github.com/cloudx-io/resourceauction/core"
	"github.com/cloudx-io/resourceauction/report"
)

// Runner executes auction trials: bid source -> allocator -> sink.
type Runner struct {
	Source    bidsource.BidSource
	Allocator *core.Allocator
	Sink      report.Sink

	// Workers enables resource-level parallelism inside each trial when > 1
	Workers int
}

// NewRunner builds a runner with a seeded uniform bid source for cfg.
func NewRunner(cfg Config, sinks ...report.Sink) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	source, err := bidsource.NewUniform(cfg.MinBid, cfg.MaxBid, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create bid source: %w", err)
	}

	// The reserve applies whatever labels Run is given
	allocator := &core.Allocator{DefaultReservePrice: cfg.ReservePrice}

	return &Runner{
		Source:    source,
		Allocator: allocator,
		Sink:      report.Multi(sinks),
		Workers:   cfg.Workers,
	}, nil
}

// RunTrial runs a single auction and reports it.
func (r *Runner) RunTrial(ctx context.Context, index int, resources []core.Resource, bidders []core.Bidder) (*report.Trial, error) {
	bids, err := r.Source.Bids(ctx, resources, bidders)
	if err != nil {
		return nil, fmt.Errorf("trial %d: failed to get bids: %w", index, err)
	}

	allocator := r.Allocator
	if allocator == nil {
		allocator = &core.Allocator{}
	}

	var result *core.Result
	if r.Workers > 1 {
		result, err = allocator.AllocateConcurrent(resources, bidders, bids, r.Workers)
	} else {
		result, err = allocator.Allocate(resources, bidders, bids)
	}
	if err != nil {
		return nil, fmt.Errorf("trial %d: %w", index, err)
	}

	trial := &report.Trial{
		ID:        uuid.NewString(),
		Index:     index,
		Resources: resources,
		Bidders:   bidders,
		Bids:      bids,
		Result:    result,

		AdjustmentFactors: allocator.AdjustmentFactors,
		ReservePrices:     allocator.Reserves(resources),
	}

	if r.Sink != nil {
		if err := r.Sink.Report(ctx, trial); err != nil {
			return nil, fmt.Errorf("trial %d: failed to report: %w", index, err)
		}
	}

	return trial, nil
}

// Run executes trials sequentially so a seeded source yields reproducible batches.
// Cancellation is checked between trials.
func (r *Runner) Run(ctx context.Context, resources []core.Resource, bidders []core.Bidder, trials int) ([]*report.Trial, error) {
	log.Printf("INFO: Running %d trials with %d resources and %d bidders", trials, len(resources), len(bidders))

	out := make([]*report.Trial, 0, trials)
	for i := 0; i < trials; i++ {
		if err := ctx.Err(); err != nil {
			log.Printf("ERROR: Simulation stopped after %d trials: %v", i, err)
			return out, err
		}

		trial, err := r.RunTrial(ctx, i, resources, bidders)
		if err != nil {
			log.Printf("ERROR: %v", err)
			return out, err
		}
		out = append(out, trial)
	}

	log.Printf("INFO: Completed %d trials", len(out))
	return out, nil
}

// RunConfig runs cfg.Trials trials over generated labels r1..rN and u1..uM.
func (r *Runner) RunConfig(ctx context.Context, cfg Config) ([]*report.Trial, error) {
	return r.Run(ctx, bidsource.Resources(cfg.Resources), bidsource.Bidders(cfg.Bidders), cfg.Trials)
}
