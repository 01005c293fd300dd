// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/keydrill/internal/engine"
)

// FileConfig represents the TOML configuration file. All fields are
// pointers so an absent key is distinguishable from an explicit zero.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Engine   EngineConfig   `toml:"engine"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Words  *int    `toml:"words"`
	Branch *string `toml:"branch"`
}

// EngineConfig maps engine tuning overrides.
type EngineConfig struct {
	TargetCPM            *float64 `toml:"target-cpm"`
	EMAAlpha             *float64 `toml:"ema-alpha"`
	AnomalyThreshold     *float64 `toml:"anomaly-threshold"`
	StreakRequired       *int     `toml:"streak-required"`
	MinSamplesForFocus   *int     `toml:"min-samples"`
	SpeedBaselineSamples *int     `toml:"speed-baseline-samples"`
	HesitationFloorMs    *float64 `toml:"hesitation-floor-ms"`
	HesitationFactor     *float64 `toml:"hesitation-factor"`
	MaxTrigramEntries    *int     `toml:"max-trigram-entries"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Params merges the file's engine overrides over the stock tuning.
func (c FileConfig) Params() engine.Params {
	p := engine.DefaultParams()
	e := c.Engine
	if e.TargetCPM != nil {
		p.TargetCPM = *e.TargetCPM
	}
	if e.EMAAlpha != nil {
		p.EMAAlpha = *e.EMAAlpha
	}
	if e.AnomalyThreshold != nil {
		p.AnomalyThreshold = *e.AnomalyThreshold
	}
	if e.StreakRequired != nil && *e.StreakRequired > 0 && *e.StreakRequired <= 255 {
		p.StreakRequired = uint8(*e.StreakRequired)
	}
	if e.MinSamplesForFocus != nil {
		p.MinSamplesForFocus = *e.MinSamplesForFocus
	}
	if e.SpeedBaselineSamples != nil {
		p.SpeedBaselineSamples = *e.SpeedBaselineSamples
	}
	if e.HesitationFloorMs != nil {
		p.HesitationFloorMs = *e.HesitationFloorMs
	}
	if e.HesitationFactor != nil {
		p.HesitationFactor = *e.HesitationFactor
	}
	if e.MaxTrigramEntries != nil {
		p.MaxTrigramEntries = *e.MaxTrigramEntries
	}
	return p
}
