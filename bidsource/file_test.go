package bidsource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/resourceauction/core"
)

const yamlInput = `
resources: [r1, r2]
bidders: [u1, u2]
bids:
  u1: [5, 8]
  u2: [5, 3]
reserve_prices:
  r2: 4
adjustment_factors:
  u2: 1.5
`

func TestParseInput_YAML(t *testing.T) {
	in, err := ParseInput([]byte(yamlInput))
	assert.NoError(t, err)

	check.Equal(t, []core.Resource{"r1", "r2"}, in.Resources)
	check.Equal(t, []core.Bidder{"u1", "u2"}, in.Bidders)
	check.Equal(t, core.BidMatrix{"u1": {5, 8}, "u2": {5, 3}}, in.Matrix)
	check.Equal(t, 4.0, in.ReservePrices["r2"])
	check.Equal(t, 1.5, in.AdjustmentFactors["u2"])
}

func TestParseInput_NonFiniteFactorRejectedByAllocator(t *testing.T) {
	for _, factor := range []string{".nan", ".inf"} {
		t.Run(factor, func(t *testing.T) {
			in, err := ParseInput([]byte("resources: [r1]\nbidders: [u1, u2]\nbids: {u1: [1], u2: [5]}\nadjustment_factors: {u2: " + factor + "}\n"))
			assert.NoError(t, err)

			result, err := in.Allocator().Allocate(in.Resources, in.Bidders, in.Matrix)
			check.Nil(t, result)
			check.True(t, errors.Is(err, core.ErrMalformedInput))
		})
	}
}

func TestParseInput_JSON(t *testing.T) {
	in, err := ParseInput([]byte(`{"resources": ["r1"], "bidders": ["u1", "u2", "u3"], "bids": {"u1": [10], "u2": [15], "u3": [7]}}`))
	assert.NoError(t, err)

	bids, err := in.Bids(context.Background(), in.Resources, in.Bidders)
	assert.NoError(t, err)

	result, err := in.Allocator().Allocate(in.Resources, in.Bidders, bids)
	assert.NoError(t, err)
	check.Equal(t, core.Allocation{"r1": "u2"}, result.Allocation())
	check.Equal(t, "10", result.Payment("u2").String())
}

func TestParseInput_Errors(t *testing.T) {
	_, err := ParseInput([]byte("resources: [r1\n"))
	check.Error(t, err)

	_, err = ParseInput([]byte("bids:\n  u1: [1]\n"))
	check.Error(t, err)
}

func TestLoadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auction.yaml")
	assert.NoError(t, os.WriteFile(path, []byte(yamlInput), 0o600))

	in, err := LoadInput(path)
	assert.NoError(t, err)

	result, err := in.Allocator().Allocate(in.Resources, in.Bidders, in.Matrix)
	assert.NoError(t, err)

	// u2 is boosted to 7.5 on r1 and 4.5 on r2
	check.Equal(t, core.Allocation{"r1": "u2", "r2": "u1"}, result.Allocation())
	check.Equal(t, "5", result.Payment("u2").String())
	check.Equal(t, "4.5", result.Payment("u1").String())

	_, err = LoadInput(filepath.Join(t.TempDir(), "missing.yaml"))
	check.Error(t, err)
}
