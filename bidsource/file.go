package bidsource

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cloudx-io/resourceauction/core"
)

// Input is a recorded auction: labels, bids and optional allocator settings.
// It is read from YAML, which also accepts JSON documents.
type Input struct {
	Resources         []core.Resource           `yaml:"resources" json:"resources"`
	Bidders           []core.Bidder             `yaml:"bidders" json:"bidders"`
	Matrix            core.BidMatrix            `yaml:"bids" json:"bids"`
	ReservePrices     map[core.Resource]float64 `yaml:"reserve_prices,omitempty" json:"reserve_prices,omitempty"`
	AdjustmentFactors map[core.Bidder]float64   `yaml:"adjustment_factors,omitempty" json:"adjustment_factors,omitempty"`
}

// ParseInput decodes an auction input from YAML or JSON bytes.
func ParseInput(data []byte) (*Input, error) {
	var in Input
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse auction input: %w", err)
	}
	if len(in.Bidders) == 0 && len(in.Matrix) > 0 {
		return nil, fmt.Errorf("parse auction input: bids given without a bidders list")
	}
	return &in, nil
}

// LoadInput reads an auction input file.
func LoadInput(path string) (*Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read auction input: %w", err)
	}
	return ParseInput(data)
}

// Allocator returns an allocator configured with the input's reserve prices and adjustment factors.
func (in *Input) Allocator() *core.Allocator {
	return &core.Allocator{
		ReservePrices:     in.ReservePrices,
		AdjustmentFactors: in.AdjustmentFactors,
	}
}

// Bids replays the recorded matrix.
func (in *Input) Bids(ctx context.Context, resources []core.Resource, bidders []core.Bidder) (core.BidMatrix, error) {
	fixed := Fixed{Matrix: in.Matrix}
	return fixed.Bids(ctx, resources, bidders)
}

var _ BidSource = (*Input)(nil)
