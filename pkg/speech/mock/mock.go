// Package mock provides test doubles for the speech package interfaces.
//
// Use Provider to verify that the caller starts sessions with the expected
// StreamConfig. Use Session to feed controlled Segment values into the code
// under test.
//
// Example:
//
//	sess := mock.NewSession()
//	p := &mock.Provider{Session: sess}
//	handle, _ := p.StartStream(ctx, cfg)
//	sess.EmitFinal("hello world")
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/offbeat-labs/flowcanvas/pkg/speech"
)

// StartStreamCall records a single invocation of Provider.StartStream.
type StartStreamCall struct {
	// Ctx is the context passed to StartStream.
	Ctx context.Context
	// Cfg is the StreamConfig passed to StartStream.
	Cfg speech.StreamConfig
}

// Provider is a mock implementation of speech.Provider.
type Provider struct {
	mu sync.Mutex

	// Session is the SessionHandle returned by StartStream. If nil,
	// StartStream returns a fresh Session with buffered channels.
	Session speech.SessionHandle

	// StartStreamErr, if non-nil, is returned as the error from StartStream.
	StartStreamErr error

	// StartStreamCalls records every call to StartStream.
	StartStreamCalls []StartStreamCall
}

// StartStream records the call and returns Session, StartStreamErr.
func (p *Provider) StartStream(ctx context.Context, cfg speech.StreamConfig) (speech.SessionHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.StartStreamCalls = append(p.StartStreamCalls, StartStreamCall{Ctx: ctx, Cfg: cfg})
	if p.StartStreamErr != nil {
		return nil, p.StartStreamErr
	}
	if p.Session != nil {
		return p.Session, nil
	}
	return NewSession(), nil
}

// Session is a mock implementation of speech.SessionHandle. Emit segments
// with EmitInterim and EmitFinal; both are no-ops after Close.
type Session struct {
	InterimsCh chan speech.Segment
	FinalsCh   chan speech.Segment

	once sync.Once
}

// NewSession returns a Session with buffered channels ready for use.
func NewSession() *Session {
	return &Session{
		InterimsCh: make(chan speech.Segment, 16),
		FinalsCh:   make(chan speech.Segment, 16),
	}
}

// Interims implements speech.SessionHandle.
func (s *Session) Interims() <-chan speech.Segment { return s.InterimsCh }

// Finals implements speech.SessionHandle.
func (s *Session) Finals() <-chan speech.Segment { return s.FinalsCh }

// Close closes both channels. Safe to call more than once.
func (s *Session) Close() error {
	s.once.Do(func() {
		close(s.InterimsCh)
		close(s.FinalsCh)
	})
	return nil
}

// EmitInterim sends an interim segment built from text at the current time.
func (s *Session) EmitInterim(text string) {
	s.InterimsCh <- speech.Segment{
		Text:      text,
		Words:     speech.SplitWords(text),
		Timestamp: time.Now(),
	}
}

// EmitFinal sends a final segment built from text at the current time.
func (s *Session) EmitFinal(text string) {
	s.FinalsCh <- speech.Segment{
		Text:      text,
		Words:     speech.SplitWords(text),
		Timestamp: time.Now(),
		IsFinal:   true,
	}
}
