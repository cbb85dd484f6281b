// Package speech defines the contract between FlowCanvas and its
// speech-recognition collaborator.
//
// FlowCanvas never touches audio itself — a transcription service (local or
// remote) delivers Segment values describing what the performer just said.
// The central abstraction is SessionHandle: once opened, a session emits two
// streams of Segment values — low-latency interims for live suggestion
// feedback and authoritative finals for the session history.
//
// Implementations must be safe for concurrent use. Segment channels are
// goroutine-safe by construction.
package speech

import (
	"context"
	"time"
)

// Segment is a single transcription result delivered by the speech
// collaborator. Both interim and final results use this type.
type Segment struct {
	// Text is the transcribed speech content for this segment.
	Text string

	// Words is the lowercased, punctuation-stripped word sequence of Text.
	// Providers that do not split words may leave it nil; callers should
	// fall back to SplitWords.
	Words []string

	// Timestamp marks when the utterance was recognised.
	Timestamp time.Time

	// IsFinal indicates whether this is a final (authoritative) or interim
	// segment. Interim segments drive suggestion regeneration only; final
	// segments are also logged to history and drive phase/thread updates.
	IsFinal bool

	// Confidence is the recogniser's overall confidence (0.0–1.0). May be
	// zero when the provider does not report confidence.
	Confidence float64
}

// StreamConfig describes the recognition settings for a new session.
type StreamConfig struct {
	// Language is the BCP-47 language tag for recognition (e.g., "en-US").
	// Empty lets the provider auto-detect, if supported.
	Language string

	// InterimResults requests low-latency interim segments in addition to
	// finals. Providers without interim support may ignore it.
	InterimResults bool
}

// SessionHandle represents an open transcription session.
//
// Callers must call Close when the session is no longer needed. All methods
// must be safe for concurrent use.
type SessionHandle interface {
	// Interims returns a read-only channel of interim segments. Suitable for
	// driving live suggestion regeneration but never written to the session
	// history. Closed when the session ends.
	Interims() <-chan Segment

	// Finals returns a read-only channel of authoritative segments. These
	// are the values logged to history and fed to phase/thread tracking.
	// Closed when the session ends.
	Finals() <-chan Segment

	// Close terminates the session and releases all associated resources.
	// After Close returns, both channels will be closed. Calling Close more
	// than once is safe and returns nil.
	Close() error
}

// Provider is the abstraction over any transcription backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// StartStream opens a new transcription session. The returned handle is
	// emitting segments immediately.
	//
	// Returns an error if the provider cannot establish the session
	// (authentication failure, unsupported configuration, or ctx already
	// cancelled). The caller owns the handle and must call Close when done.
	StartStream(ctx context.Context, cfg StreamConfig) (SessionHandle, error)
}
