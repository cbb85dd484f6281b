// Package wsfeed provides a WebSocket-backed speech.Provider.
//
// It connects to a transcription service that pushes JSON segment messages
// over a WebSocket — typically a local recogniser bridge running alongside
// the performance rig. The feed is read-only: FlowCanvas never sends audio,
// it only consumes the segment stream.
package wsfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/offbeat-labs/flowcanvas/pkg/speech"
)

const defaultLanguage = "en-US"

// Option is a functional option for configuring the Provider.
type Option func(*Provider)

// WithLanguage sets the BCP-47 language code requested from the feed
// (e.g., "en-US", "de-DE"). Default: "en-US".
func WithLanguage(language string) Option {
	return func(p *Provider) {
		p.language = language
	}
}

// WithAuthToken sets a bearer token sent in the Authorization header of the
// WebSocket handshake. Empty means no authentication.
func WithAuthToken(token string) Option {
	return func(p *Provider) {
		p.token = token
	}
}

// Provider implements speech.Provider backed by a WebSocket segment feed.
type Provider struct {
	endpoint string
	language string
	token    string
}

// New creates a Provider for the given WebSocket endpoint
// (e.g., "ws://localhost:9090/transcribe"). endpoint must be non-empty.
func New(endpoint string, opts ...Option) (*Provider, error) {
	if endpoint == "" {
		return nil, errors.New("wsfeed: endpoint must not be empty")
	}
	p := &Provider{
		endpoint: endpoint,
		language: defaultLanguage,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// StartStream opens a streaming transcription session against the feed.
// It respects cfg.Language and cfg.InterimResults.
func (p *Provider) StartStream(ctx context.Context, cfg speech.StreamConfig) (speech.SessionHandle, error) {
	wsURL, err := p.buildURL(cfg)
	if err != nil {
		return nil, fmt.Errorf("wsfeed: build URL: %w", err)
	}

	headers := http.Header{}
	if p.token != "" {
		headers.Set("Authorization", "Bearer "+p.token)
	}

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("wsfeed: dial: %w", err)
	}

	sess := &session{
		conn:     conn,
		interims: make(chan speech.Segment, 64),
		finals:   make(chan speech.Segment, 64),
		done:     make(chan struct{}),
	}

	sess.wg.Add(1)
	go sess.readLoop(ctx)

	return sess, nil
}

// buildURL constructs the feed endpoint URL for the given config.
func (p *Provider) buildURL(cfg speech.StreamConfig) (string, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return "", err
	}

	lang := cfg.Language
	if lang == "" {
		lang = p.language
	}

	q := u.Query()
	q.Set("language", lang)
	if cfg.InterimResults {
		q.Set("interim_results", "true")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ---- session ----

// feedMessage is the JSON structure pushed by the feed for each segment.
type feedMessage struct {
	Type       string   `json:"type"`
	Text       string   `json:"text"`
	Words      []string `json:"words"`
	IsFinal    bool     `json:"is_final"`
	Confidence float64  `json:"confidence"`
	// TimestampMs is the recognition time in Unix milliseconds. Zero means
	// the feed does not timestamp segments and the receive time is used.
	TimestampMs int64 `json:"timestamp_ms"`
}

// session is a live feed session. It implements speech.SessionHandle.
type session struct {
	conn     *websocket.Conn
	interims chan speech.Segment
	finals   chan speech.Segment

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// Interims returns the channel of interim segments.
func (s *session) Interims() <-chan speech.Segment { return s.interims }

// Finals returns the channel of final segments.
func (s *session) Finals() <-chan speech.Segment { return s.finals }

// Close terminates the session cleanly.
func (s *session) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close(websocket.StatusNormalClosure, "session closed")
		s.wg.Wait()
	})
	return nil
}

// readLoop receives JSON messages from the feed and dispatches them to the
// interims and finals channels.
func (s *session) readLoop(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.interims)
	defer close(s.finals)

	for {
		_, msg, err := s.conn.Read(ctx)
		if err != nil {
			// Normal close or context cancellation — exit gracefully.
			return
		}

		seg, ok := parseFeedMessage(msg, time.Now())
		if !ok {
			continue
		}

		if seg.IsFinal {
			select {
			case s.finals <- seg:
			case <-s.done:
			}
		} else {
			select {
			case s.interims <- seg:
			case <-s.done:
			}
		}
	}
}

// parseFeedMessage parses a raw feed message into a Segment. Returns
// (Segment, true) on success, or (zero, false) if the message should be
// ignored. received supplies the segment timestamp when the feed does not.
func parseFeedMessage(data []byte, received time.Time) (speech.Segment, bool) {
	var msg feedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return speech.Segment{}, false
	}
	if msg.Type != "segment" || msg.Text == "" {
		return speech.Segment{}, false
	}

	words := msg.Words
	if len(words) == 0 {
		words = speech.SplitWords(msg.Text)
	}

	ts := received
	if msg.TimestampMs > 0 {
		ts = time.UnixMilli(msg.TimestampMs)
	}

	return speech.Segment{
		Text:       msg.Text,
		Words:      words,
		Timestamp:  ts,
		IsFinal:    msg.IsFinal,
		Confidence: msg.Confidence,
	}, true
}
