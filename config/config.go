// Package config provides construction parameters for the TCAM model.
//
// The core consumes these values as opaque sizing and wiring choices: array
// geometry, the MMIO base address for the register-mapped front end, and
// which front-end binding a deployed instance exposes.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Front-end binding names accepted by Config.Binding.
const (
	BindingRegmapSplit  = "regmap-split"
	BindingRegmapStream = "regmap-stream"
	BindingCopro        = "copro"
)

// TableLayout is an optional named layout used only to size the array.
// When present, the entry count derives from PMACount.
type TableLayout struct {
	// QueryLength is the total query length in bits.
	QueryLength int `json:"query_length"`

	// SubstrLength is the length of each query substring in bits.
	SubstrLength int `json:"substr_length"`

	// SubstrCount is the number of substrings per query.
	SubstrCount int `json:"substr_count"`

	// PMACount is the number of potential match addresses.
	PMACount int `json:"pma_count"`
}

// Config holds the construction parameters for one TCAM instance.
type Config struct {
	// Entries is the number of ternary entries in the array.
	Entries int `json:"entries"`

	// KeyWidth is the search key width in bits.
	KeyWidth int `json:"key_width"`

	// DataWidth is the entry data width in bits.
	DataWidth int `json:"data_width"`

	// BlockDepth and BlockWidth describe the physical block partitioning
	// of the storage array. The core does not interpret them; they are
	// forwarded to the storage collaborator.
	BlockDepth int `json:"block_depth"`
	BlockWidth int `json:"block_width"`

	// PriorityEncoder enables priority-match resolution. When false, a
	// search still completes but always reports no match.
	PriorityEncoder bool `json:"priority_encoder"`

	// BaseAddr is the MMIO base address of the register map.
	BaseAddr uint32 `json:"base_addr"`

	// Binding selects the single active front end for this instance.
	Binding string `json:"binding"`

	// Table, when non-nil, overrides Entries with Table.PMACount.
	Table *TableLayout `json:"table,omitempty"`
}

// Default returns the reference configuration: a 64-entry array with 32-bit
// keys and data, register map at 0x4000, split-transaction binding.
func Default() *Config {
	return &Config{
		Entries:         64,
		KeyWidth:        32,
		DataWidth:       32,
		BlockDepth:      64,
		BlockWidth:      32,
		PriorityEncoder: true,
		BaseAddr:        0x4000,
		Binding:         BindingRegmapSplit,
	}
}

// Load reads a Config from a JSON file, applying defaults for absent fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Table != nil {
		config.Entries = config.Table.PMACount
	}

	return config, nil
}

// Save writes the Config to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration describes a buildable instance.
func (c *Config) Validate() error {
	if c.Entries <= 0 {
		return fmt.Errorf("entries must be > 0")
	}
	if c.KeyWidth <= 0 || c.KeyWidth > 32 {
		return fmt.Errorf("key_width must be in (0, 32]")
	}
	if c.DataWidth <= 0 || c.DataWidth > 32 {
		return fmt.Errorf("data_width must be in (0, 32]")
	}
	if c.BlockDepth <= 0 || c.BlockWidth <= 0 {
		return fmt.Errorf("block geometry must be > 0")
	}

	switch c.Binding {
	case BindingRegmapSplit, BindingRegmapStream, BindingCopro:
	default:
		return fmt.Errorf("unknown binding %q", c.Binding)
	}

	return nil
}
