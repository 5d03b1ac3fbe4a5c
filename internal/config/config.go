// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads rgctl's driver bootstrap configuration: the
// settings that exist before any graph is loaded (ring size, FPS limit,
// time mode, profiling, logging) as opposed to the per-node Properties
// tree that travels with the graph layout itself.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/cogentcore/rendergraph/graph"
)

// Driver is the TOML-shaped bootstrap configuration for an rgctl-driven
// session.
type Driver struct {
	InFlight   int     `toml:"in_flight"`
	FPSLimit   float64 `toml:"fps_limit"`
	TimeMode   string  `toml:"time_mode"` // "system", "graph", "fixed"
	FixedDelta string  `toml:"fixed_delta"`
	Profiling  bool    `toml:"profiling"`
	LogLevel   string  `toml:"log_level"` // "debug", "info", "warn", "error"
	LayoutPath string  `toml:"layout_path"`
}

// Default returns the bootstrap configuration used when no config file is
// given: two in-flight iterations, no FPS limit, system clock timing.
func Default() Driver {
	return Driver{
		InFlight:   2,
		FPSLimit:   0,
		TimeMode:   "system",
		FixedDelta: "16ms",
		Profiling:  false,
		LogLevel:   "info",
	}
}

// Load reads and parses a TOML bootstrap configuration from path, filling
// any field left unset with Default()'s value.
func Load(path string) (Driver, error) {
	d := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Driver{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &d); err != nil {
		return Driver{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return d, nil
}

// FixedDeltaDuration parses FixedDelta, defaulting to 16ms if unset or
// unparseable.
func (d Driver) FixedDeltaDuration() time.Duration {
	dur, err := time.ParseDuration(d.FixedDelta)
	if err != nil {
		return 16 * time.Millisecond
	}
	return dur
}

// timeModes maps the TOML time_mode string to the driver's TimeMode enum,
// defaulting to TimeSystemClock for an empty or unrecognized value.
var timeModes = map[string]graph.TimeMode{
	"system": graph.TimeSystemClock,
	"graph":  graph.TimeGraphClock,
	"fixed":  graph.TimeFixedDelta,
}

// GraphConfig translates the bootstrap configuration into the driver's
// own Config shape.
func (d Driver) GraphConfig() graph.Config {
	return graph.Config{
		InFlight:         d.InFlight,
		FPSLimit:         d.FPSLimit,
		TimeMode:         timeModes[d.TimeMode],
		FixedDelta:       d.FixedDeltaDuration(),
		ProfilingEnabled: d.Profiling,
	}
}

// logLevels maps the TOML log_level string to an slog.Level, defaulting
// to Info for an empty or unrecognized value.
var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// Logger builds an slog.Logger writing to stderr at the configured level,
// suitable for passing to graph.SetLogger.
func (d Driver) Logger() *slog.Logger {
	level, ok := logLevels[d.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
