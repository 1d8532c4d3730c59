package core

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// Resource identifies an indivisible unit being auctioned.
type Resource string

// Bidder identifies an auction participant.
type Bidder string

// BidMatrix maps each bidder to its bids, one per resource, aligned positionally with the
// resource list of the run. A negative bid means the bidder does not take part for that resource.
type BidMatrix map[Bidder][]float64

// Clone returns a deep copy of the matrix.
func (m BidMatrix) Clone() BidMatrix {
	if m == nil {
		return nil
	}
	out := make(BidMatrix, len(m))
	for bidder, bids := range m {
		out[bidder] = slices.Clone(bids)
	}
	return out
}

// Allocation maps a resource to its winning bidder. Resources without a winner have no entry.
type Allocation map[Resource]Bidder

// PaymentLedger holds the total amount owed by each bidder.
type PaymentLedger map[Bidder]decimal.Decimal

// Total returns the sum of all payments in the ledger.
func (l PaymentLedger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range l {
		total = total.Add(amount)
	}
	return total
}

// Outcome is the result of the auction for a single resource.
type Outcome struct {
	Resource Resource `json:"resource"`
	Index    int      `json:"index"`

	// Winner is the highest bidder (nil if nobody took part)
	Winner *Bidder `json:"winner,omitempty"`

	// RunnerUp is the bidder whose bid set the price (nil if fewer than 2 participants)
	RunnerUp *Bidder `json:"runner_up,omitempty"`

	// WinningBid is the winner's bid after adjustment, zero when there is no winner
	WinningBid float64 `json:"winning_bid"`

	// Price is the amount charged to the winner
	Price decimal.Decimal `json:"price"`

	// Participants counts bids that were eligible for this resource
	Participants int `json:"participants"`
}

// Allocated reports whether the resource found a winner.
func (o Outcome) Allocated() bool {
	return o.Winner != nil
}

// Result is the read-only outcome of one allocation run.
// A Result is never mutated after it is returned; accessors hand out copies.
type Result struct {
	resources  []Resource
	bidders    []Bidder
	outcomes   []Outcome
	allocation Allocation
	payments   PaymentLedger
}

// Resources returns the resources of the run in auction order.
func (r *Result) Resources() []Resource {
	return slices.Clone(r.resources)
}

// Bidders returns the bidders of the run in scan order.
func (r *Result) Bidders() []Bidder {
	return slices.Clone(r.bidders)
}

// Allocation returns a copy of the resource to winner mapping.
func (r *Result) Allocation() Allocation {
	return maps.Clone(r.allocation)
}

// Payments returns a copy of the payment ledger.
func (r *Result) Payments() PaymentLedger {
	return maps.Clone(r.payments)
}

// Outcomes returns a copy of the per-resource outcomes, in resource order.
func (r *Result) Outcomes() []Outcome {
	return slices.Clone(r.outcomes)
}

// Winner returns the winner of a resource, if any.
func (r *Result) Winner(resource Resource) (Bidder, bool) {
	winner, ok := r.allocation[resource]
	return winner, ok
}

// Payment returns the total owed by a bidder. Unknown bidders owe zero.
func (r *Result) Payment(bidder Bidder) decimal.Decimal {
	return r.payments[bidder]
}

// Outcome returns the outcome for a resource.
func (r *Result) Outcome(resource Resource) (Outcome, bool) {
	for _, outcome := range r.outcomes {
		if outcome.Resource == resource {
			return outcome, true
		}
	}
	return Outcome{}, false
}

// TotalCharged sums the prices charged across all resources.
func (r *Result) TotalCharged() decimal.Decimal {
	total := decimal.Zero
	for _, outcome := range r.outcomes {
		if outcome.Allocated() {
			total = total.Add(outcome.Price)
		}
	}
	return total
}

// Empty reports whether the run had no resources or no bidders.
func (r *Result) Empty() bool {
	return len(r.resources) == 0 || len(r.bidders) == 0
}
