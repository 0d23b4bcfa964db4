package main

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds the CLI settings. Precedence: defaults < PULSE_*
// environment variables < explicitly set flags.
type Config struct {
	Iterations  int    `koanf:"iterations"`
	ChainDepth  int    `koanf:"chain_depth"`
	FanOut      int    `koanf:"fan_out"`
	BatchSize   int    `koanf:"batch_size"`
	MetricsAddr string `koanf:"metrics_addr"`
	Interval    string `koanf:"interval"`
	Count       int    `koanf:"count"`
	Verbose     bool   `koanf:"verbose"`
}

// loadConfig merges defaults, environment and flags into a Config.
func loadConfig(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults.
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"iterations":   100000,
		"chain_depth":  8,
		"fan_out":      16,
		"batch_size":   32,
		"metrics_addr": "",
		"interval":     "250ms",
		"count":        0,
		"verbose":      false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Environment variables (PULSE_ prefix).
	// Transform: PULSE_CHAIN_DEPTH -> chain_depth
	if err := k.Load(env.Provider("PULSE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "PULSE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 3. Flags (highest priority).
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set.
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}
