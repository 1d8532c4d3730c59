package core

import (
	"github.com/shopspring/decimal"
)

const monetaryPrecision int32 = 4 // 4 decimal places (0.0001 precision)

// BidMeetsReserve returns true if the bid meets or exceeds the reserve price.
// Uses decimal arithmetic with monetaryPrecision to avoid floating-point errors.
func BidMeetsReserve(bid, reserve float64) bool {
	bidDecimal := decimal.NewFromFloat(bid).Round(monetaryPrecision)
	reserveDecimal := decimal.NewFromFloat(reserve).Round(monetaryPrecision)

	return bidDecimal.GreaterThanOrEqual(reserveDecimal)
}

// Participates reports whether a bid takes part in the auction for a resource.
// Negative bids are abstentions. A positive reserve additionally rejects bids below it.
func Participates(bid, reserve float64) bool {
	if bid < 0 {
		return false
	}
	if reserve <= 0 {
		return true
	}
	return BidMeetsReserve(bid, reserve)
}

// EnforceReserve filters a resource's bid column against its reserve price.
// Returns the bidders whose bids are eligible, in input order, and those that were rejected.
// Abstentions appear in neither list.
func EnforceReserve(bidders []Bidder, column []float64, reserve float64) (eligible, rejected []Bidder) {
	eligible = make([]Bidder, 0, len(bidders))
	rejected = make([]Bidder, 0)

	for i, bidder := range bidders {
		bid := column[i]
		if bid < 0 {
			continue
		}

		if Participates(bid, reserve) {
			eligible = append(eligible, bidder)
		} else {
			rejected = append(rejected, bidder)
		}
	}

	return eligible, rejected
}
