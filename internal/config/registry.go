package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/offbeat-labs/flowcanvas/pkg/speech"
	"github.com/offbeat-labs/flowcanvas/pkg/speech/mock"
	"github.com/offbeat-labs/flowcanvas/pkg/speech/wsfeed"
)

// ErrProviderNotRegistered is returned by [Registry.CreateSpeech] when no
// factory has been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps speech provider names to their constructor functions.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	speech map[string]func(SpeechConfig) (speech.Provider, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		speech: make(map[string]func(SpeechConfig) (speech.Provider, error)),
	}
}

// DefaultRegistry returns a [Registry] with the built-in providers
// registered: "wsfeed" for a websocket transcription feed and "mock" for
// tests and dry runs.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.RegisterSpeech("wsfeed", func(cfg SpeechConfig) (speech.Provider, error) {
		var opts []wsfeed.Option
		if cfg.Language != "" {
			opts = append(opts, wsfeed.WithLanguage(cfg.Language))
		}
		if cfg.AuthToken != "" {
			opts = append(opts, wsfeed.WithAuthToken(cfg.AuthToken))
		}
		return wsfeed.New(cfg.Endpoint, opts...)
	})
	r.RegisterSpeech("mock", func(SpeechConfig) (speech.Provider, error) {
		return &mock.Provider{}, nil
	})
	return r
}

// RegisterSpeech registers a speech provider factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterSpeech(name string, factory func(SpeechConfig) (speech.Provider, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.speech[name] = factory
}

// CreateSpeech instantiates a speech provider using the factory registered
// under cfg.Provider. Returns [ErrProviderNotRegistered] if no factory has
// been registered for that name.
func (r *Registry) CreateSpeech(cfg SpeechConfig) (speech.Provider, error) {
	r.mu.RLock()
	factory, ok := r.speech[cfg.Provider]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: speech/%q", ErrProviderNotRegistered, cfg.Provider)
	}
	return factory(cfg)
}
