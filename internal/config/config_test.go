// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cogentcore/rendergraph/graph"
)

// TestLoadFillsUnsetFieldsFromDefault checks that a config file naming
// only a subset of fields still gets Default()'s values for the rest.
func TestLoadFillsUnsetFieldsFromDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rgctl.toml")
	require.NoError(t, os.WriteFile(path, []byte("in_flight = 3\n"), 0o644))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, d.InFlight)
	assert.Equal(t, "system", d.TimeMode, "unset fields keep Default()'s value")
	assert.Equal(t, "info", d.LogLevel)
}

// TestLoadRejectsMissingFile checks that a nonexistent path is reported
// as an error rather than silently falling back to Default().
func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

// TestGraphConfigTranslatesTimeMode checks every recognized time_mode
// string maps to its driver enum value, and an unrecognized one falls
// back to the system clock.
func TestGraphConfigTranslatesTimeMode(t *testing.T) {
	cases := []struct {
		timeMode string
		want     graph.TimeMode
	}{
		{"system", graph.TimeSystemClock},
		{"graph", graph.TimeGraphClock},
		{"fixed", graph.TimeFixedDelta},
		{"", graph.TimeSystemClock},
		{"bogus", graph.TimeSystemClock},
	}
	for _, c := range cases {
		d := Default()
		d.TimeMode = c.timeMode
		assert.Equal(t, c.want, d.GraphConfig().TimeMode, "time_mode %q", c.timeMode)
	}
}

// TestGraphConfigCarriesFixedDelta checks that a parseable FixedDelta
// reaches Config.FixedDelta as a time.Duration.
func TestGraphConfigCarriesFixedDelta(t *testing.T) {
	d := Default()
	d.FixedDelta = "33ms"
	assert.Equal(t, 33*time.Millisecond, d.GraphConfig().FixedDelta)
}

// TestLoggerDefaultsToInfo checks that an unrecognized log_level doesn't
// panic and still builds a usable logger, one of the few properties this
// package can assert about a value it can't introspect further.
func TestLoggerDefaultsToInfo(t *testing.T) {
	d := Default()
	d.LogLevel = "bogus"
	assert.NotNil(t, d.Logger())
}
