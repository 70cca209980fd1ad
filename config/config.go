// Package config loads and validates the system configuration of a hart:
// its memory map, bus policy, data cache and writeback diagnostics.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/rv32sim/cache"
	"github.com/sarchlab/rv32sim/pipeline"
)

// RegionConfig describes one memory device on the bus.
type RegionConfig struct {
	// Name identifies the region in errors and logs.
	Name string `json:"name"`

	// Base is the first bus address of the region.
	Base uint32 `json:"base"`

	// Size is the region size in bytes.
	Size uint32 `json:"size"`

	// ReadOnly makes stores to the region fault.
	ReadOnly bool `json:"read_only"`

	// Cached places the data cache in front of the region.
	// Only one region may be cached and it must be writable.
	Cached bool `json:"cached"`
}

// SystemConfig holds the configuration of the bus and writeback stage.
type SystemConfig struct {
	// Memory lists the mapped memory regions.
	Memory []RegionConfig `json:"memory"`

	// AllowMisaligned lets loads and stores use addresses that are not a
	// multiple of their width. Default: false.
	AllowMisaligned bool `json:"allow_misaligned"`

	// Probe selects the diagnostic bus read policy: "none", "memory" or
	// "always". Default: "none".
	Probe string `json:"probe"`

	// DataCache configures the cache used by cached regions.
	DataCache *cache.Config `json:"data_cache,omitempty"`

	// LogLevel is a logrus level name. Default: "info".
	LogLevel string `json:"log_level"`
}

// DefaultConfig returns a SystemConfig with 1MB of RAM at address 0.
func DefaultConfig() *SystemConfig {
	return &SystemConfig{
		Memory: []RegionConfig{
			{Name: "ram", Base: 0x00000000, Size: 1 << 20},
		},
		AllowMisaligned: false,
		Probe:           "none",
		LogLevel:        "info",
	}
}

// LoadConfig loads a SystemConfig from a JSON file. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*SystemConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read system config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse system config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a SystemConfig to a JSON file.
func (c *SystemConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize system config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write system config file: %w", err)
	}

	return nil
}

// Validate checks the memory map, the cache geometry and the policy names.
func (c *SystemConfig) Validate() error {
	if len(c.Memory) == 0 {
		return fmt.Errorf("memory must list at least one region")
	}

	names := make(map[string]bool, len(c.Memory))
	cached := 0
	for i, r := range c.Memory {
		if r.Name == "" {
			return fmt.Errorf("memory[%d]: name must be set", i)
		}
		if names[r.Name] {
			return fmt.Errorf("memory[%d]: duplicate name %q", i, r.Name)
		}
		names[r.Name] = true

		if r.Size == 0 {
			return fmt.Errorf("region %q: size must be > 0", r.Name)
		}
		if uint64(r.Base)+uint64(r.Size) > 1<<32 {
			return fmt.Errorf("region %q: exceeds the 32-bit address space", r.Name)
		}
		for _, o := range c.Memory[:i] {
			if uint64(r.Base) < uint64(o.Base)+uint64(o.Size) &&
				uint64(o.Base) < uint64(r.Base)+uint64(r.Size) {
				return fmt.Errorf("region %q overlaps region %q", r.Name, o.Name)
			}
		}

		if r.Cached {
			cached++
			if r.ReadOnly {
				return fmt.Errorf("region %q: a read-only region cannot be cached", r.Name)
			}
		}
	}

	if cached > 1 {
		return fmt.Errorf("at most one region may be cached, got %d", cached)
	}
	if cached == 1 && c.DataCache == nil {
		return fmt.Errorf("a cached region requires data_cache")
	}
	if c.DataCache != nil {
		if err := c.DataCache.Validate(); err != nil {
			return fmt.Errorf("data_cache: %w", err)
		}
		for _, r := range c.Memory {
			if r.Cached && r.Size%uint32(c.DataCache.BlockSize) != 0 {
				return fmt.Errorf("region %q: size must be a multiple of the cache block size", r.Name)
			}
		}
	}

	if _, err := pipeline.ParseProbePolicy(c.Probe); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	return nil
}

// Clone returns a deep copy of the SystemConfig.
func (c *SystemConfig) Clone() *SystemConfig {
	clone := *c
	clone.Memory = append([]RegionConfig(nil), c.Memory...)
	if c.DataCache != nil {
		dc := *c.DataCache
		clone.DataCache = &dc
	}
	return &clone
}
