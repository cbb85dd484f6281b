package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidSpeechProviders lists the speech provider names shipped with
// FlowCanvas. Used by [Validate] to warn about unrecognised names.
var ValidSpeechProviders = []string{"wsfeed", "mock"}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r over the defaults and
// validates the result. Useful in tests where configs are constructed
// from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
// Out-of-range engine dials are clamped into [0, 1] rather than rejected,
// so a sloppy edit mid-show never takes the whole config down.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.LogFormat != "" && !cfg.Server.LogFormat.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_format %q is invalid; valid values: text, json", cfg.Server.LogFormat))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Speech
	if cfg.Speech.Provider != "" && !slices.Contains(ValidSpeechProviders, cfg.Speech.Provider) {
		slog.Warn("unknown speech provider name — may be a typo or third-party provider",
			"name", cfg.Speech.Provider,
			"known", ValidSpeechProviders,
		)
	}
	if cfg.Speech.Provider == "wsfeed" && cfg.Speech.Endpoint == "" {
		errs = append(errs, errors.New("speech.endpoint is required when speech.provider is wsfeed"))
	}

	// Engine dials clamp instead of erroring.
	if cfg.Engine.Weirdness < 0 || cfg.Engine.Weirdness > 1 {
		clamped := clamp01(cfg.Engine.Weirdness)
		slog.Warn("engine.weirdness out of range [0, 1], clamping", "value", cfg.Engine.Weirdness, "clamped", clamped)
		cfg.Engine.Weirdness = clamped
	}
	if cfg.Engine.Density < 0 || cfg.Engine.Density > 1 {
		clamped := clamp01(cfg.Engine.Density)
		slog.Warn("engine.density out of range [0, 1], clamping", "value", cfg.Engine.Density, "clamped", clamped)
		cfg.Engine.Density = clamped
	}
	if cfg.Engine.SeedText != "" && cfg.Engine.SeedFile != "" {
		slog.Warn("both engine.seed_text and engine.seed_file are set; seed_file takes precedence")
	}

	// Session
	if cfg.Session.AutosaveInterval < 0 {
		errs = append(errs, fmt.Errorf("session.autosave_interval %v must not be negative", cfg.Session.AutosaveInterval.Std()))
	}
	if cfg.Session.AutosaveInterval > 0 && cfg.Session.Dir == "" {
		errs = append(errs, errors.New("session.dir is required when autosave is enabled"))
	}

	return errors.Join(errs...)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
