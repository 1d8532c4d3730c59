package core

import (
	"crypto/sha256"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ComputeBidHash computes a commitment to a single bid.
//
// Formula: SHA256(bidder + "|" + resource + "|" + sprintf("%.6f", price) + "|" + nonce)
//
// The price is formatted to exactly 6 decimal places to ensure consistent hashing
// regardless of how the float is represented in memory.
func ComputeBidHash(bidder Bidder, resource Resource, price float64, nonce string) string {
	data := fmt.Sprintf("%s|%s|%.6f|%s", bidder, resource, price, nonce)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ComputeMatrixHash computes a digest of a whole auction input.
//
// Formula: SHA256(nonce + "|" + resources joined by "," + "|" + rows)
// where rows = "bidder1:bid1,bid2,...|bidder2:..." in bidder order, bids formatted as %.6f.
//
// Bidders absent from the matrix hash as an empty row.
func ComputeMatrixHash(resources []Resource, bidders []Bidder, bids BidMatrix, nonce string) string {
	var b strings.Builder
	b.WriteString(nonce)
	b.WriteString("|")
	for i, resource := range resources {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(string(resource))
	}

	for _, bidder := range bidders {
		fmt.Fprintf(&b, "|%s:", bidder)
		for i, bid := range bids[bidder] {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "%.6f", bid)
		}
	}

	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", hash)
}

// ComputeAdjustmentFactorsHash commits a receipt to the bid multipliers an Allocator applied,
// so a verifier can tell adjusted auctions apart and check the factors it was shown.
//
// Formula: SHA256(nonce + "|bidder:factor" for each bidder in lexical order), factors as %.6f.
// The digest does not depend on map iteration order.
func ComputeAdjustmentFactorsHash(adjustmentFactors map[Bidder]float64, nonce string) string {
	bidders := slices.Sorted(maps.Keys(adjustmentFactors))

	var b strings.Builder
	b.WriteString(nonce)
	for _, bidder := range bidders {
		fmt.Fprintf(&b, "|%s:%.6f", bidder, adjustmentFactors[bidder])
	}

	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", hash)
}
