// Package config provides the configuration schema, loader, file watcher,
// and speech-provider registry for the FlowCanvas suggestion engine.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/offbeat-labs/flowcanvas/internal/control"
)

// Duration wraps time.Duration so YAML configs can use Go duration
// strings like "30s" or "1m30s".
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("config: parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// LogLevel controls log verbosity for the FlowCanvas server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// LogFormat selects the log output encoding.
type LogFormat string

const (
	LogText LogFormat = "text"
	LogJSON LogFormat = "json"
)

// IsValid reports whether f is a recognised log format.
func (f LogFormat) IsValid() bool {
	return f == LogText || f == LogJSON
}

// Config is the root configuration structure for FlowCanvas.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Speech   SpeechConfig   `yaml:"speech"`
	Lexicon  LexiconConfig  `yaml:"lexicon"`
	Engine   EngineConfig   `yaml:"engine"`
	Session  SessionConfig  `yaml:"session"`
	Controls ControlsConfig `yaml:"controls"`
}

// Default returns a Config populated with the stock values. Loading a YAML
// file overlays it, so absent keys keep these defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8090",
			LogLevel:   LogInfo,
			LogFormat:  LogText,
		},
		Speech: SpeechConfig{
			Provider:       "wsfeed",
			Language:       "en-US",
			InterimResults: true,
		},
		Engine: EngineConfig{
			Weirdness: 0.5,
			Density:   0.7,
		},
		Session: SessionConfig{
			Dir:              "sessions",
			AutosaveInterval: Duration(30 * time.Second),
		},
		Controls: ControlsConfig{
			Mapping: control.DefaultMapping(),
		},
	}
}

// ServerConfig holds network and logging settings for the FlowCanvas server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8090").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat LogFormat `yaml:"log_format"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// SpeechConfig selects and configures the transcription backend.
type SpeechConfig struct {
	// Provider selects the registered speech provider implementation
	// (e.g., "wsfeed", "mock").
	Provider string `yaml:"provider"`

	// Endpoint is the transcription service address. Required by the
	// wsfeed provider (e.g., "wss://stt.example.com/stream").
	Endpoint string `yaml:"endpoint"`

	// Language is the BCP-47 recognition language tag.
	Language string `yaml:"language"`

	// AuthToken is the bearer token sent to the transcription service,
	// if any.
	AuthToken string `yaml:"auth_token"`

	// InterimResults requests low-latency interim segments in addition
	// to finals.
	InterimResults bool `yaml:"interim_results"`
}

// LexiconConfig configures the pronunciation dictionary.
type LexiconConfig struct {
	// DictPath is an optional CMU-format dictionary file layered on top
	// of the embedded core table. Empty uses the embedded table alone.
	DictPath string `yaml:"dict_path"`
}

// EngineConfig holds the suggestion-engine dials and scene seed.
type EngineConfig struct {
	// Weirdness biases suggestions toward safe (0) or wild (1) material.
	Weirdness float64 `yaml:"weirdness"`

	// Density controls what fraction of generated suggestions is shown.
	Density float64 `yaml:"density"`

	// SeedText is the scene premise used for semantic association.
	// Ignored when SeedFile is set.
	SeedText string `yaml:"seed_text"`

	// SeedFile is a text file holding the scene premise. When set, the
	// file is watched and edits take effect mid-show.
	SeedFile string `yaml:"seed_file"`
}

// SessionConfig holds snapshot persistence settings.
type SessionConfig struct {
	// Dir is the directory session snapshots are written to.
	Dir string `yaml:"dir"`

	// AutosaveInterval is how often the running session is snapshotted.
	// Zero disables autosave.
	AutosaveInterval Duration `yaml:"autosave_interval"`

	// Resume is a session ID to restore on startup. Empty starts fresh.
	Resume string `yaml:"resume"`
}

// ControlsConfig binds the performer's input device to engine actions.
type ControlsConfig struct {
	// Mapping overrides the stock note/controller layout.
	Mapping control.Mapping `yaml:"mapping"`
}
