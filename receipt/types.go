// Package receipt issues signed, verifiable records of auction results.
package receipt

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cloudx-io/resourceauction/core"
	"github.com/cloudx-io/resourceauction/report"
)

// ResourceLine records the outcome of one resource.
// Bidder identity of losing bids is never included.
type ResourceLine struct {
	Resource string `cbor:"resource" json:"resource"`
	Winner   string `cbor:"winner,omitempty" json:"winner,omitempty"`
	Price    string `cbor:"price" json:"price"`                           // decimal string
	BidHash  string `cbor:"bid_hash,omitempty" json:"bid_hash,omitempty"` // commitment to the winning bid
}

// PaymentLine records the total owed by one bidder.
type PaymentLine struct {
	Bidder string `cbor:"bidder" json:"bidder"`
	Amount string `cbor:"amount" json:"amount"` // decimal string
}

// Receipt is the signed payload describing one auction run.
type Receipt struct {
	ID         string         `cbor:"id" json:"id"`
	TrialID    string         `cbor:"trial_id" json:"trial_id"`
	IssuedAt   int64          `cbor:"issued_at" json:"issued_at"` // unix seconds
	MatrixHash string         `cbor:"matrix_hash" json:"matrix_hash"`
	Nonce      string         `cbor:"nonce" json:"nonce"`
	Resources  []ResourceLine `cbor:"resources" json:"resources"`
	Payments   []PaymentLine  `cbor:"payments" json:"payments"`

	AdjustmentFactorsHash string `cbor:"adjustment_factors_hash,omitempty" json:"adjustment_factors_hash,omitempty"`
}

// New builds a receipt for a trial. The nonce salts every hash in the receipt.
func New(trial *report.Trial, nonce string, now time.Time) *Receipt {
	r := &Receipt{
		ID:         uuid.NewString(),
		TrialID:    trial.ID,
		IssuedAt:   now.Unix(),
		MatrixHash: core.ComputeMatrixHash(trial.Resources, trial.Bidders, trial.Bids, nonce),
		Nonce:      nonce,
		Resources:  make([]ResourceLine, 0, len(trial.Resources)),
	}

	if len(trial.AdjustmentFactors) > 0 {
		r.AdjustmentFactorsHash = core.ComputeAdjustmentFactorsHash(trial.AdjustmentFactors, nonce)
	}

	for _, outcome := range trial.Result.Outcomes() {
		line := ResourceLine{
			Resource: string(outcome.Resource),
			Price:    outcome.Price.String(),
		}
		if outcome.Allocated() {
			line.Winner = string(*outcome.Winner)
			line.BidHash = core.ComputeBidHash(*outcome.Winner, outcome.Resource, outcome.WinningBid, nonce)
		}
		r.Resources = append(r.Resources, line)
	}

	payments := trial.Result.Payments()
	for _, bidder := range trial.Result.Bidders() {
		r.Payments = append(r.Payments, PaymentLine{
			Bidder: string(bidder),
			Amount: payments[bidder].String(),
		})
	}

	return r
}

// Winner returns the recorded winner of a resource.
func (r *Receipt) Winner(resource core.Resource) (core.Bidder, bool) {
	for _, line := range r.Resources {
		if line.Resource == string(resource) && line.Winner != "" {
			return core.Bidder(line.Winner), true
		}
	}
	return "", false
}

// generateSecureRandomBytes generates cryptographically secure random bytes
func generateSecureRandomBytes(length int) ([]byte, error) {
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("entropy generation failed: %w", err)
	}
	return randomBytes, nil
}

// GenerateNonce returns 256 bits of entropy, hex encoded.
func GenerateNonce() (string, error) {
	randomBytes, err := generateSecureRandomBytes(32)
	if err != nil {
		return "", fmt.Errorf("failed to generate secure nonce - %w", err)
	}
	return hex.EncodeToString(randomBytes), nil
}
