package core

import (
	"github.com/shopspring/decimal"
)

// ApplyAdjustmentFactor scales a bid by the bidder's adjustment factor.
// Missing, non-positive or non-finite factors leave the bid unchanged, as do abstentions and
// non-finite bids. The result is +Inf when the product overflows.
func ApplyAdjustmentFactor(bid float64, bidder Bidder, adjustmentFactors map[Bidder]float64) float64 {
	if bid < 0 || !isFinite(bid) || len(adjustmentFactors) == 0 {
		return bid
	}

	factor, exists := adjustmentFactors[bidder]
	if !exists || factor <= 0 || factor == 1.0 || !isFinite(factor) {
		return bid
	}

	// Use decimal arithmetic for precise calculation
	adjusted := decimal.NewFromFloat(bid).Mul(decimal.NewFromFloat(factor))

	// Convert back to float64
	result, _ := adjusted.Float64()
	return result
}

// ApplyAdjustmentFactors returns a copy of the bid matrix with every bidder's bids scaled by
// its adjustment factor.
func ApplyAdjustmentFactors(bids BidMatrix, adjustmentFactors map[Bidder]float64) BidMatrix {
	if len(adjustmentFactors) == 0 {
		return bids.Clone()
	}

	result := make(BidMatrix, len(bids))
	for bidder, row := range bids {
		adjusted := make([]float64, len(row))
		for i, bid := range row {
			adjusted[i] = ApplyAdjustmentFactor(bid, bidder, adjustmentFactors)
		}
		result[bidder] = adjusted
	}

	return result
}
