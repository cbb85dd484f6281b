package config

import "github.com/offbeat-labs/flowcanvas/internal/control"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged  bool
	NewLogLevel      LogLevel
	WeirdnessChanged bool
	NewWeirdness     float64
	DensityChanged   bool
	NewDensity       float64
	SeedChanged      bool
	NewSeedText      string
	MappingChanged   bool
	NewMapping       control.Mapping
}

// Any reports whether the diff contains at least one change.
func (d ConfigDiff) Any() bool {
	return d.LogLevelChanged || d.WeirdnessChanged || d.DensityChanged ||
		d.SeedChanged || d.MappingChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart; anything
// else (server address, speech provider, session dir) needs a restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Engine.Weirdness != new.Engine.Weirdness {
		d.WeirdnessChanged = true
		d.NewWeirdness = new.Engine.Weirdness
	}
	if old.Engine.Density != new.Engine.Density {
		d.DensityChanged = true
		d.NewDensity = new.Engine.Density
	}
	if old.Engine.SeedText != new.Engine.SeedText {
		d.SeedChanged = true
		d.NewSeedText = new.Engine.SeedText
	}
	if old.Controls.Mapping != new.Controls.Mapping {
		d.MappingChanged = true
		d.NewMapping = new.Controls.Mapping
	}

	return d
}
