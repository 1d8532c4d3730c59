package simulation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.NoError(t, err)
	check.Equal(t, DefaultConfig(), cfg)
	check.NoError(t, cfg.Validate())
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("resources: 3\ntrials: 7\nmax_bid: 50\nreserve_price: 2.5\n"), 0o600))

	cfg, err := LoadConfig(path)
	assert.NoError(t, err)

	check.Equal(t, 3, cfg.Resources)
	check.Equal(t, 7, cfg.Trials)
	check.Equal(t, 50.0, cfg.MaxBid)
	check.Equal(t, 2.5, cfg.ReservePrice)
	check.Equal(t, 10, cfg.Bidders) // default kept
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	check.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	assert.NoError(t, os.WriteFile(path, []byte("trials: [1, 2\n"), 0o600))
	_, err = LoadConfig(path)
	check.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"AUCTION_TRIALS":  "12",
		"AUCTION_MAX_BID": "7.5",
		"AUCTION_SEED":    "99",
	}))
	assert.NoError(t, err)

	check.Equal(t, 12, cfg.Trials)
	check.Equal(t, 7.5, cfg.MaxBid)
	check.Equal(t, uint64(99), cfg.Seed)
	check.Equal(t, 5, cfg.Resources)
}

func TestApplyEnv_Invalid(t *testing.T) {
	for _, key := range []string{"AUCTION_TRIALS", "AUCTION_MIN_BID", "AUCTION_SEED"} {
		t.Run(key, func(t *testing.T) {
			cfg := DefaultConfig()
			check.Error(t, cfg.ApplyEnv(envMap(map[string]string{key: "lots"})))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative resources", func(c *Config) { c.Resources = -1 }},
		{"negative bidders", func(c *Config) { c.Bidders = -1 }},
		{"no trials", func(c *Config) { c.Trials = 0 }},
		{"inverted range", func(c *Config) { c.MinBid, c.MaxBid = 10, 5 }},
		{"negative reserve", func(c *Config) { c.ReservePrice = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			check.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))
		})
	}
}
