package core

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Allocator runs an independent second-price sealed-bid auction for every resource.
// The zero value is ready to use and applies no reserve prices or adjustment factors.
// An Allocator holds no state between calls.
type Allocator struct {
	// ReservePrices is the minimum eligible bid per resource (after adjustment)
	ReservePrices map[Resource]float64

	// DefaultReservePrice applies to resources without an entry in ReservePrices
	DefaultReservePrice float64

	// AdjustmentFactors are per-bidder multipliers applied to bids before comparison
	AdjustmentFactors map[Bidder]float64
}

// Allocate runs the auction with the zero-value Allocator.
func Allocate(resources []Resource, bidders []Bidder, bids BidMatrix) (*Result, error) {
	var a Allocator
	return a.Allocate(resources, bidders, bids)
}

// Allocate determines, for each resource, the winner and the price it pays.
//
// Processing flow per resource:
//  1. Scan bidders in the given order, skipping abstentions and bids under the reserve
//  2. A bid above the current highest takes the lead; the old highest becomes the price
//  3. Any other bid above the current price becomes the price (ties at the top included,
//     so the first bidder at the maximum wins and pays the tied value)
//  4. A lone participant wins at price zero; a resource without participants is not allocated
//
// The input is validated first. On malformed input an error wrapping ErrMalformedInput is
// returned and no result is produced.
func (a *Allocator) Allocate(resources []Resource, bidders []Bidder, bids BidMatrix) (*Result, error) {
	if err := a.validate(resources, bidders, bids); err != nil {
		return nil, err
	}

	result := newResult(resources, bidders)
	for i, resource := range resources {
		outcome := a.auction(i, resource, bidders, bids)
		result.record(outcome)
	}

	return result, nil
}

// PriceFor recomputes the price paid for an allocated resource as the highest eligible bid
// among all bidders other than the recorded winner. It agrees with the price from Allocate.
func (a *Allocator) PriceFor(resource Resource, result *Result, bids BidMatrix, bidders []Bidder) (decimal.Decimal, error) {
	index := -1
	for i, r := range result.resources {
		if r == resource {
			index = i
			break
		}
	}
	if index < 0 {
		return decimal.Zero, &MalformedInputError{Resource: resource, Reason: "unknown resource"}
	}
	if !isFinite(a.ReservePrice(resource)) {
		return decimal.Zero, &MalformedInputError{Resource: resource, Reason: "reserve price is not a finite number"}
	}

	winner, ok := result.allocation[resource]
	if !ok {
		return decimal.Zero, fmt.Errorf("price for %q: %w", resource, ErrNotAllocated)
	}

	price := math.Inf(-1)
	for _, bidder := range bidders {
		if bidder == winner {
			continue
		}
		row, ok := bids[bidder]
		if !ok || index >= len(row) {
			return decimal.Zero, &MalformedInputError{Bidder: bidder, Resource: resource, Reason: "missing bid"}
		}
		if err := a.checkFactor(bidder); err != nil {
			return decimal.Zero, err
		}
		if err := a.checkBid(bidder, resource, row[index]); err != nil {
			return decimal.Zero, err
		}
		bid, eligible := a.eligibleBid(bidder, resource, row[index])
		if eligible && bid > price {
			price = bid
		}
	}

	if math.IsInf(price, -1) {
		return decimal.Zero, nil
	}
	return decimal.NewFromFloat(price), nil
}

// PriceFor recomputes the price of an allocated resource with the zero-value Allocator.
func PriceFor(resource Resource, result *Result, bids BidMatrix, bidders []Bidder) (decimal.Decimal, error) {
	var a Allocator
	return a.PriceFor(resource, result, bids, bidders)
}

// auction scans a single resource column.
func (a *Allocator) auction(index int, resource Resource, bidders []Bidder, bids BidMatrix) Outcome {
	outcome := Outcome{
		Resource: resource,
		Index:    index,
		Price:    decimal.Zero,
	}

	var (
		highest, second float64
		hasSecond       bool
		winner          Bidder
		runnerUp        Bidder
	)

	for _, bidder := range bidders {
		bid, eligible := a.eligibleBid(bidder, resource, bids[bidder][index])
		if !eligible {
			continue
		}

		switch {
		case outcome.Participants == 0:
			highest, winner = bid, bidder
		case bid > highest:
			second, runnerUp, hasSecond = highest, winner, true
			highest, winner = bid, bidder
		case !hasSecond || bid > second:
			second, runnerUp, hasSecond = bid, bidder, true
		}
		outcome.Participants++
	}

	if outcome.Participants == 0 {
		return outcome
	}

	outcome.Winner = &winner
	outcome.WinningBid = highest
	if hasSecond {
		outcome.RunnerUp = &runnerUp
		outcome.Price = decimal.NewFromFloat(second)
	}

	return outcome
}

// eligibleBid applies the bidder's adjustment factor and the resource's reserve.
func (a *Allocator) eligibleBid(bidder Bidder, resource Resource, bid float64) (float64, bool) {
	if bid < 0 {
		return 0, false
	}
	adjusted := ApplyAdjustmentFactor(bid, bidder, a.AdjustmentFactors)
	return adjusted, Participates(adjusted, a.ReservePrice(resource))
}

// ReservePrice returns the reserve in force for a resource.
func (a *Allocator) ReservePrice(resource Resource) float64 {
	if reserve, ok := a.ReservePrices[resource]; ok {
		return reserve
	}
	return a.DefaultReservePrice
}

// Reserves returns the positive reserve prices in force for resources, nil when there are none.
func (a *Allocator) Reserves(resources []Resource) map[Resource]float64 {
	var reserves map[Resource]float64
	for _, resource := range resources {
		reserve := a.ReservePrice(resource)
		if reserve <= 0 {
			continue
		}
		if reserves == nil {
			reserves = make(map[Resource]float64)
		}
		reserves[resource] = reserve
	}
	return reserves
}

func (a *Allocator) validate(resources []Resource, bidders []Bidder, bids BidMatrix) error {
	if !isFinite(a.DefaultReservePrice) {
		return &MalformedInputError{Reason: "default reserve price is not a finite number"}
	}

	seenResources := make(map[Resource]bool, len(resources))
	for _, resource := range resources {
		if resource == "" {
			return &MalformedInputError{Reason: "empty resource label"}
		}
		if seenResources[resource] {
			return &MalformedInputError{Resource: resource, Reason: "duplicate resource"}
		}
		seenResources[resource] = true

		if reserve := a.ReservePrice(resource); !isFinite(reserve) {
			return &MalformedInputError{Resource: resource, Reason: "reserve price is not a finite number"}
		}
	}

	seenBidders := make(map[Bidder]bool, len(bidders))
	for _, bidder := range bidders {
		if bidder == "" {
			return &MalformedInputError{Reason: "empty bidder label"}
		}
		if seenBidders[bidder] {
			return &MalformedInputError{Bidder: bidder, Reason: "duplicate bidder"}
		}
		seenBidders[bidder] = true

		if err := a.checkFactor(bidder); err != nil {
			return err
		}

		row, ok := bids[bidder]
		if !ok {
			return &MalformedInputError{Bidder: bidder, Reason: "missing from bid matrix"}
		}
		if len(row) != len(resources) {
			return &MalformedInputError{
				Bidder: bidder,
				Reason: fmt.Sprintf("has %d bids, want %d", len(row), len(resources)),
			}
		}
		for i, bid := range row {
			if err := a.checkBid(bidder, resources[i], bid); err != nil {
				return err
			}
		}
	}

	return nil
}

func (a *Allocator) checkFactor(bidder Bidder) error {
	if factor, ok := a.AdjustmentFactors[bidder]; ok && !isFinite(factor) {
		return &MalformedInputError{Bidder: bidder, Reason: "adjustment factor is not a finite number"}
	}
	return nil
}

// checkBid rejects non-finite bids and bids whose adjusted value overflows.
func (a *Allocator) checkBid(bidder Bidder, resource Resource, bid float64) error {
	if !isFinite(bid) {
		return &MalformedInputError{Bidder: bidder, Resource: resource, Reason: "bid is not a finite number"}
	}
	if !isFinite(ApplyAdjustmentFactor(bid, bidder, a.AdjustmentFactors)) {
		return &MalformedInputError{Bidder: bidder, Resource: resource, Reason: "adjusted bid is not a finite number"}
	}
	return nil
}

func newResult(resources []Resource, bidders []Bidder) *Result {
	result := &Result{
		resources:  append([]Resource(nil), resources...),
		bidders:    append([]Bidder(nil), bidders...),
		outcomes:   make([]Outcome, len(resources)),
		allocation: make(Allocation, len(resources)),
		payments:   make(PaymentLedger, len(bidders)),
	}
	for _, bidder := range bidders {
		result.payments[bidder] = decimal.Zero
	}
	return result
}

// record stores an outcome and charges the winner.
func (r *Result) record(outcome Outcome) {
	r.outcomes[outcome.Index] = outcome
	if !outcome.Allocated() {
		return
	}
	r.allocation[outcome.Resource] = *outcome.Winner
	r.payments[*outcome.Winner] = r.payments[*outcome.Winner].Add(outcome.Price)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
