// Package simulation drives repeated auction trials from a bid source to reporting sinks.
package simulation

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Config describes a batch of randomized auction trials.
type Config struct {
	Resources    int     `yaml:"resources"`
	Bidders      int     `yaml:"bidders"`
	MinBid       float64 `yaml:"min_bid"`
	MaxBid       float64 `yaml:"max_bid"`
	Trials       int     `yaml:"trials"`
	Seed         uint64  `yaml:"seed"`
	Workers      int     `yaml:"workers"`       // resource-level parallelism, sequential when <= 1
	ReservePrice float64 `yaml:"reserve_price"` // applied to every resource
}

// DefaultConfig returns five resources, ten bidders, bids in [0, 20) and 100 trials.
func DefaultConfig() Config {
	return Config{
		Resources: 5,
		Bidders:   10,
		MinBid:    0,
		MaxBid:    20,
		Trials:    100,
		Seed:      1,
	}
}

// LoadConfig reads a YAML config file on top of the defaults. An empty path returns the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from AUCTION_* environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	ints := map[string]*int{
		"AUCTION_RESOURCES": &c.Resources,
		"AUCTION_BIDDERS":   &c.Bidders,
		"AUCTION_TRIALS":    &c.Trials,
		"AUCTION_WORKERS":   &c.Workers,
	}
	for key, field := range ints {
		value, ok, err := getEnvInt(getenv, key)
		if err != nil {
			return err
		}
		if ok {
			*field = value
		}
	}

	floats := map[string]*float64{
		"AUCTION_MIN_BID":       &c.MinBid,
		"AUCTION_MAX_BID":       &c.MaxBid,
		"AUCTION_RESERVE_PRICE": &c.ReservePrice,
	}
	for key, field := range floats {
		value, ok, err := getEnvFloat(getenv, key)
		if err != nil {
			return err
		}
		if ok {
			*field = value
		}
	}

	if value := getenv("AUCTION_SEED"); value != "" {
		seed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value for AUCTION_SEED: %s (must be a valid unsigned integer)", value)
		}
		log.Printf("INFO: Using AUCTION_SEED=%d from environment", seed)
		c.Seed = seed
	}

	return nil
}

// Validate checks the config ranges.
func (c Config) Validate() error {
	switch {
	case c.Resources < 0:
		return fmt.Errorf("%w: resources must not be negative, got %d", ErrInvalidConfig, c.Resources)
	case c.Bidders < 0:
		return fmt.Errorf("%w: bidders must not be negative, got %d", ErrInvalidConfig, c.Bidders)
	case c.Trials < 1:
		return fmt.Errorf("%w: trials must be positive, got %d", ErrInvalidConfig, c.Trials)
	case c.MinBid > c.MaxBid:
		return fmt.Errorf("%w: min bid %v exceeds max bid %v", ErrInvalidConfig, c.MinBid, c.MaxBid)
	case c.ReservePrice < 0:
		return fmt.Errorf("%w: reserve price must not be negative, got %v", ErrInvalidConfig, c.ReservePrice)
	}
	return nil
}

// Helper function for optional integer environment variables
func getEnvInt(getenv func(string) string, key string) (int, bool, error) {
	value := getenv(key)
	if value == "" {
		return 0, false, nil
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("invalid value for %s: %s (must be a valid integer)", key, value)
	}

	log.Printf("INFO: Using %s=%d from environment", key, intValue)
	return intValue, true, nil
}

// Helper function for optional float environment variables
func getEnvFloat(getenv func(string) string, key string) (float64, bool, error) {
	value := getenv(key)
	if value == "" {
		return 0, false, nil
	}

	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid value for %s: %s (must be a valid number)", key, value)
	}

	log.Printf("INFO: Using %s=%v from environment", key, floatValue)
	return floatValue, true, nil
}
