// Package bidsource produces bid matrices for auction runs.
package bidsource

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/cloudx-io/resourceauction/core"
)

// ErrInvalidRange is returned when a bid range is empty or not finite.
var ErrInvalidRange = errors.New("invalid bid range")

// BidSource produces a complete bid matrix for the given resources and bidders.
type BidSource interface {
	Bids(ctx context.Context, resources []core.Resource, bidders []core.Bidder) (core.BidMatrix, error)
}

// RandSource provides random numbers for bid generation.
// This interface enables dependency injection for deterministic testing.
type RandSource interface {
	// Float64 returns a pseudo-random number in [0.0, 1.0).
	Float64() float64
}

// NewSeededRand returns a reproducible RandSource.
func NewSeededRand(seed uint64) RandSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Uniform draws every bid independently and uniformly from [Min, Max).
type Uniform struct {
	Min  float64
	Max  float64
	Rand RandSource
}

// NewUniform creates a uniform source seeded with seed.
func NewUniform(minBid, maxBid float64, seed uint64) (*Uniform, error) {
	u := &Uniform{Min: minBid, Max: maxBid, Rand: NewSeededRand(seed)}
	if err := u.validate(); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *Uniform) validate() error {
	if !finite(u.Min) || !finite(u.Max) || u.Min > u.Max {
		return fmt.Errorf("%w: [%v, %v)", ErrInvalidRange, u.Min, u.Max)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Bids generates a fresh matrix, one row per bidder in bidder order.
func (u *Uniform) Bids(ctx context.Context, resources []core.Resource, bidders []core.Bidder) (core.BidMatrix, error) {
	if err := u.validate(); err != nil {
		return nil, err
	}
	if u.Rand == nil {
		return nil, errors.New("uniform bid source has no random source")
	}

	bids := make(core.BidMatrix, len(bidders))
	for _, bidder := range bidders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := make([]float64, len(resources))
		for i := range row {
			row[i] = u.Min + u.Rand.Float64()*(u.Max-u.Min)
		}
		bids[bidder] = row
	}
	return bids, nil
}

// Fixed replays a recorded bid matrix.
type Fixed struct {
	Matrix core.BidMatrix
}

// Bids returns a copy of the recorded matrix restricted to the given bidders.
// Rows are checked against the resource count so a stale recording fails early.
func (f *Fixed) Bids(_ context.Context, resources []core.Resource, bidders []core.Bidder) (core.BidMatrix, error) {
	bids := make(core.BidMatrix, len(bidders))
	for _, bidder := range bidders {
		row, ok := f.Matrix[bidder]
		if !ok {
			return nil, fmt.Errorf("no recorded bids for bidder %q", bidder)
		}
		if len(row) != len(resources) {
			return nil, fmt.Errorf("recorded bids for bidder %q: got %d, want %d", bidder, len(row), len(resources))
		}
		bids[bidder] = append([]float64(nil), row...)
	}
	return bids, nil
}

// Labels returns n labels of the form prefix1 ... prefixN.
func Labels(prefix string, n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return labels
}

// Resources returns the labels r1 ... rN.
func Resources(n int) []core.Resource {
	out := make([]core.Resource, n)
	for i, label := range Labels("r", n) {
		out[i] = core.Resource(label)
	}
	return out
}

// Bidders returns the labels u1 ... uN.
func Bidders(n int) []core.Bidder {
	out := make([]core.Bidder, n)
	for i, label := range Labels("u", n) {
		out[i] = core.Bidder(label)
	}
	return out
}

var (
	_ BidSource = (*Uniform)(nil)
	_ BidSource = (*Fixed)(nil)
)
