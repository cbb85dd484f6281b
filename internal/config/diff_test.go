package config_test

import (
	"testing"

	"github.com/offbeat-labs/flowcanvas/internal/config"
)

func TestDiffNoChanges(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	d := config.Diff(cfg, cfg)
	if d.Any() {
		t.Errorf("Diff of identical configs reported changes: %+v", d)
	}
}

func TestDiffLogLevel(t *testing.T) {
	t.Parallel()
	old := config.Default()
	cur := config.Default()
	cur.Server.LogLevel = config.LogDebug

	d := config.Diff(old, cur)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel = %q, want debug", d.NewLogLevel)
	}
}

func TestDiffDials(t *testing.T) {
	t.Parallel()
	old := config.Default()
	cur := config.Default()
	cur.Engine.Weirdness = 0.9
	cur.Engine.Density = 0.3

	d := config.Diff(old, cur)
	if !d.WeirdnessChanged || d.NewWeirdness != 0.9 {
		t.Errorf("weirdness diff = %+v", d)
	}
	if !d.DensityChanged || d.NewDensity != 0.3 {
		t.Errorf("density diff = %+v", d)
	}
}

func TestDiffSeedAndMapping(t *testing.T) {
	t.Parallel()
	old := config.Default()
	cur := config.Default()
	cur.Engine.SeedText = "haunted lighthouse"
	cur.Controls.Mapping.Pin = 48

	d := config.Diff(old, cur)
	if !d.SeedChanged || d.NewSeedText != "haunted lighthouse" {
		t.Errorf("seed diff = %+v", d)
	}
	if !d.MappingChanged {
		t.Error("expected MappingChanged=true")
	}
	if !d.Any() {
		t.Error("Any() should be true")
	}
}

func TestDiffIgnoresRestartOnlyFields(t *testing.T) {
	t.Parallel()
	old := config.Default()
	cur := config.Default()
	cur.Server.ListenAddr = ":7000"
	cur.Speech.Endpoint = "wss://other.example.com"

	d := config.Diff(old, cur)
	if d.Any() {
		t.Errorf("restart-only fields should not appear in diff: %+v", d)
	}
}
