// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.15
//

package navedit

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Editor configuration
type Config struct {
	Buffer BufferConfig `yaml:"buffer"`
	Offset OffsetConfig `yaml:"offset"`
	Model  ModelConfig  `yaml:"model"`
	Time   TimeConfig   `yaml:"time"`
	Log    LogConfig    `yaml:"log"`
}

type BufferConfig struct {
	Capacity int `yaml:"capacity"`
	Hold     int `yaml:"hold"` // Records kept resident across a dump
}

// Position offset added to loaded records [deg]
type OffsetConfig struct {
	Lon float64 `yaml:"lon"`
	Lat float64 `yaml:"lat"`
}

type ModelConfig struct {
	Kind           string       `yaml:"kind"` // off, mean, dr, inversion
	MeanTimeWindow float64      `yaml:"mean_time_window"`
	DriftLon       float64      `yaml:"drift_lon"` // [deg/h]
	DriftLat       float64      `yaml:"drift_lat"`
	DrGapThreshold float64      `yaml:"dr_gap_threshold"`
	SpeedWeight    float64      `yaml:"speed_weight"`
	AccelWeight    float64      `yaml:"accel_weight"`
	Solver         SolverConfig `yaml:"solver"`
}

type SolverConfig struct {
	Method    string  `yaml:"method"` // chebyshev, direct
	Cycles    int     `yaml:"cycles"`
	Bandwidth float64 `yaml:"bandwidth"`
}

type TimeConfig struct {
	BadTimeGap float64 `yaml:"bad_time_gap"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"` // Empty for stderr
}

func DefaultConfig() *Config {
	return &Config{
		Buffer: BufferConfig{
			Capacity: DefaultCapacity,
			Hold:     DefaultHold,
		},
		Model: ModelConfig{
			Kind:           ModelOff.String(),
			MeanTimeWindow: DefaultMeanTimeWindow,
			DrGapThreshold: DefaultDrGap,
			SpeedWeight:    DefaultSpeedWeight,
			AccelWeight:    DefaultAccelWeight,
			Solver: SolverConfig{
				Method:    SolverChebyshev.String(),
				Cycles:    DefaultCycles,
				Bandwidth: DefaultBandwidth,
			},
		},
		Time: TimeConfig{
			BadTimeGap: DefaultBadTimeGap,
		},
		Log: LogConfig{
			Level: "INFO",
		},
	}
}

// Load the configuration at path over the defaults. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Buffer.Capacity <= 0 {
		return fmt.Errorf("buffer.capacity must be positive: %d", c.Buffer.Capacity)
	}
	if c.Buffer.Hold < 0 || c.Buffer.Hold >= c.Buffer.Capacity {
		return fmt.Errorf("buffer.hold must be in [0, capacity): %d", c.Buffer.Hold)
	}
	m := &c.Model
	if m.MeanTimeWindow <= 0 {
		return fmt.Errorf("model.mean_time_window must be positive: %g", m.MeanTimeWindow)
	}
	if m.DrGapThreshold <= 0 {
		return fmt.Errorf("model.dr_gap_threshold must be positive: %g", m.DrGapThreshold)
	}
	if m.SpeedWeight < 0 || m.AccelWeight < 0 {
		return fmt.Errorf("model weights must not be negative: %g, %g", m.SpeedWeight, m.AccelWeight)
	}
	if m.Solver.Cycles <= 0 {
		return fmt.Errorf("model.solver.cycles must be positive: %d", m.Solver.Cycles)
	}
	if m.Solver.Bandwidth <= 1 {
		return fmt.Errorf("model.solver.bandwidth must be greater than 1: %g", m.Solver.Bandwidth)
	}
	if _, err := ParseModelKind(m.Kind); err != nil {
		return err
	}
	if _, err := ParseSolverMethod(m.Solver.Method); err != nil {
		return err
	}
	if c.Time.BadTimeGap <= 0 {
		return fmt.Errorf("time.bad_time_gap must be positive: %g", c.Time.BadTimeGap)
	}
	return nil
}

// Model parameters from the configuration
func (c *Config) ModelOpt() (*ModelOpt, error) {
	kind, err := ParseModelKind(c.Model.Kind)
	if err != nil {
		return nil, err
	}
	method, err := ParseSolverMethod(c.Model.Solver.Method)
	if err != nil {
		return nil, err
	}
	return &ModelOpt{
		Kind:        kind,
		MeanWindow:  c.Model.MeanTimeWindow,
		DriftLon:    c.Model.DriftLon,
		DriftLat:    c.Model.DriftLat,
		DrGap:       c.Model.DrGapThreshold,
		SpeedWeight: c.Model.SpeedWeight,
		AccelWeight: c.Model.AccelWeight,
		Method:      method,
		Solve: SolveOpt{
			Cycles:    c.Model.Solver.Cycles,
			Bandwidth: c.Model.Solver.Bandwidth,
		},
	}, nil
}

// Session options from the configuration
func (c *Config) SessionOpt(log *slog.Logger) (*SessionOpt, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	mopt, err := c.ModelOpt()
	if err != nil {
		return nil, err
	}
	return &SessionOpt{
		Capacity:   c.Buffer.Capacity,
		BadTimeGap: c.Time.BadTimeGap,
		OffsetLon:  c.Offset.Lon,
		OffsetLat:  c.Offset.Lat,
		Model:      *mopt,
		Logger:     log,
	}, nil
}
