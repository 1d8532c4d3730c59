package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
	"github.com/urfave/cli/v2"

	"github.com/cloudx-io/resourceauction/core"
	"github.com/cloudx-io/resourceauction/report"
	"github.com/cloudx-io/resourceauction/simulation"
)

func newTestApp(commands ...*cli.Command) *cli.App {
	return &cli.App{
		Name:      "auction-sim",
		Commands:  commands,
		Writer:    io.Discard,
		ErrWriter: io.Discard,
	}
}

// resolveRunConfig parses args with the run command's flags and returns the resolved config.
func resolveRunConfig(t *testing.T, env map[string]string, args ...string) simulation.Config {
	t.Helper()

	var cfg simulation.Config
	cmd := &cli.Command{
		Name:  runCmd.Name,
		Flags: runCmd.Flags,
		Action: func(ctx *cli.Context) error {
			var err error
			cfg, err = loadRunConfig(ctx, func(key string) string { return env[key] })
			return err
		},
	}

	assert.NoError(t, newTestApp(cmd).Run(append([]string{"auction-sim", "run"}, args...)))
	return cfg
}

func TestLoadRunConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("trials: 7\nbidders: 3\nreserve_price: 1.5\n"), 0o600))

	tests := []struct {
		name  string
		env   map[string]string
		args  []string
		check func(t *testing.T, cfg simulation.Config)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, cfg simulation.Config) {
				check.Equal(t, simulation.DefaultConfig(), cfg)
			},
		},
		{
			name: "file over defaults",
			args: []string{"--config", path},
			check: func(t *testing.T, cfg simulation.Config) {
				check.Equal(t, 7, cfg.Trials)
				check.Equal(t, 3, cfg.Bidders)
				check.Equal(t, 5, cfg.Resources)
			},
		},
		{
			name: "env over file",
			env:  map[string]string{"AUCTION_TRIALS": "9"},
			args: []string{"--config", path},
			check: func(t *testing.T, cfg simulation.Config) {
				check.Equal(t, 9, cfg.Trials)
				check.Equal(t, 3, cfg.Bidders)
			},
		},
		{
			name: "flags over env",
			env:  map[string]string{"AUCTION_TRIALS": "9", "AUCTION_BIDDERS": "4"},
			args: []string{"--config", path, "--trials", "11"},
			check: func(t *testing.T, cfg simulation.Config) {
				check.Equal(t, 11, cfg.Trials)
				check.Equal(t, 4, cfg.Bidders) // unset flag leaves env value
				check.Equal(t, 1.5, cfg.ReservePrice)
			},
		},
		{
			name: "every flag",
			args: []string{
				"--resources", "2", "--bidders", "6", "--min-bid", "1", "--max-bid", "3",
				"--trials", "4", "--seed", "42", "--workers", "8", "--reserve", "2.5",
			},
			check: func(t *testing.T, cfg simulation.Config) {
				check.Equal(t, simulation.Config{
					Resources:    2,
					Bidders:      6,
					MinBid:       1,
					MaxBid:       3,
					Trials:       4,
					Seed:         42,
					Workers:      8,
					ReservePrice: 2.5,
				}, cfg)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, resolveRunConfig(t, tt.env, tt.args...))
		})
	}
}

func TestRunCmd_InvalidFormat(t *testing.T) {
	err := newTestApp(runCmd).Run([]string{"auction-sim", "run", "--format", "xml"})
	assert.Error(t, err)
	check.True(t, strings.Contains(err.Error(), `invalid format "xml"`))
}

func TestAllocateCmd_InvalidFormat(t *testing.T) {
	// Rejected before the input file is read
	err := newTestApp(allocateCmd).Run([]string{"auction-sim", "allocate", "--bids", "missing.yaml", "--format", "xml"})
	assert.Error(t, err)
	check.True(t, strings.Contains(err.Error(), `invalid format "xml"`))
}

func TestAllocateCmd_NonFiniteFactor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bids.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("resources: [r1]\nbidders: [u1, u2]\nbids: {u1: [1e10], u2: [5]}\nadjustment_factors: {u1: .nan}\n"), 0o600))

	err := newTestApp(allocateCmd).Run([]string{"auction-sim", "allocate", "--bids", path})
	check.True(t, errors.Is(err, core.ErrMalformedInput))
}

func TestNewAllocationOutput(t *testing.T) {
	resources := []core.Resource{"r1", "r2"}
	bidders := []core.Bidder{"u1", "u2"}
	bids := core.BidMatrix{"u1": {5, 1}, "u2": {4, 3}}
	allocator := &core.Allocator{
		DefaultReservePrice: 2,
		AdjustmentFactors:   map[core.Bidder]float64{"u2": 1.5},
	}

	result, err := allocator.Allocate(resources, bidders, bids)
	assert.NoError(t, err)

	out := newAllocationOutput(&report.Trial{
		Resources:         resources,
		Bidders:           bidders,
		Bids:              bids,
		Result:            result,
		AdjustmentFactors: allocator.AdjustmentFactors,
		ReservePrices:     allocator.Reserves(resources),
	})

	// u2 is adjusted to 6 and 4.5
	check.Equal(t, core.Allocation{"r1": "u2", "r2": "u2"}, out.Allocation)
	check.Equal(t, []float64{6, 4.5}, out.AdjustedBids["u2"])
	check.Equal(t, map[core.Resource][]core.Bidder{"r2": {"u1"}}, out.BelowReserve)

	plain, err := core.Allocate(resources, bidders, bids)
	assert.NoError(t, err)
	out = newAllocationOutput(&report.Trial{Resources: resources, Bidders: bidders, Bids: bids, Result: plain})
	check.Nil(t, out.AdjustedBids)
	check.Nil(t, out.BelowReserve)
}
