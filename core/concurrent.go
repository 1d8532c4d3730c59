package core

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// AllocateConcurrent produces the same result as Allocate, auctioning resources in parallel on
// at most workers goroutines (GOMAXPROCS when workers <= 0). Bidders within one resource are
// still scanned in order, so tie-breaking is unchanged.
func (a *Allocator) AllocateConcurrent(resources []Resource, bidders []Bidder, bids BidMatrix, workers int) (*Result, error) {
	if err := a.validate(resources, bidders, bids); err != nil {
		return nil, err
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	result := newResult(resources, bidders)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(workers)

	for i, resource := range resources {
		g.Go(func() error {
			outcome := a.auction(i, resource, bidders, bids)

			// Ledger and allocation are shared between resources
			mu.Lock()
			defer mu.Unlock()
			result.record(outcome)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}

// AllocateConcurrent runs AllocateConcurrent with the zero-value Allocator.
func AllocateConcurrent(resources []Resource, bidders []Bidder, bids BidMatrix, workers int) (*Result, error) {
	var a Allocator
	return a.AllocateConcurrent(resources, bidders, bids, workers)
}
