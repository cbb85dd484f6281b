package wsfeed

import (
	"net/url"
	"testing"
	"time"

	"github.com/offbeat-labs/flowcanvas/pkg/speech"
)

// ---- URL / query-param tests ----

func TestBuildURL_Defaults(t *testing.T) {
	p, err := New("ws://localhost:9090/transcribe")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.buildURL(speech.StreamConfig{InterimResults: true})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse URL: %v", err)
	}
	q := u.Query()

	if got := q.Get("language"); got != "en-US" {
		t.Errorf("language = %q, want %q", got, "en-US")
	}
	if got := q.Get("interim_results"); got != "true" {
		t.Errorf("interim_results = %q, want %q", got, "true")
	}
}

func TestBuildURL_ConfigLanguageWins(t *testing.T) {
	p, err := New("ws://localhost:9090/transcribe", WithLanguage("de-DE"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.buildURL(speech.StreamConfig{Language: "fr-FR"})
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, _ := url.Parse(rawURL)
	if got := u.Query().Get("language"); got != "fr-FR" {
		t.Errorf("language = %q, want %q", got, "fr-FR")
	}
}

func TestNew_EmptyEndpoint(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("New(\"\"): want error, got nil")
	}
}

// ---- message parsing tests ----

func TestParseFeedMessage(t *testing.T) {
	received := time.Date(2026, 3, 1, 20, 15, 0, 0, time.UTC)

	tests := []struct {
		name      string
		raw       string
		wantOK    bool
		wantFinal bool
		wantWords []string
	}{
		{
			name:      "final with words",
			raw:       `{"type":"segment","text":"riding through the night","words":["riding","through","the","night"],"is_final":true,"confidence":0.94}`,
			wantOK:    true,
			wantFinal: true,
			wantWords: []string{"riding", "through", "the", "night"},
		},
		{
			name:      "interim without words falls back to SplitWords",
			raw:       `{"type":"segment","text":"Riding through","is_final":false}`,
			wantOK:    true,
			wantWords: []string{"riding", "through"},
		},
		{
			name:   "non-segment message ignored",
			raw:    `{"type":"keepalive"}`,
			wantOK: false,
		},
		{
			name:   "empty text ignored",
			raw:    `{"type":"segment","text":""}`,
			wantOK: false,
		},
		{
			name:   "malformed JSON ignored",
			raw:    `{"type":`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg, ok := parseFeedMessage([]byte(tt.raw), received)
			if ok != tt.wantOK {
				t.Fatalf("parseFeedMessage ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if seg.IsFinal != tt.wantFinal {
				t.Errorf("IsFinal = %v, want %v", seg.IsFinal, tt.wantFinal)
			}
			if len(seg.Words) != len(tt.wantWords) {
				t.Fatalf("Words = %v, want %v", seg.Words, tt.wantWords)
			}
			for i, w := range tt.wantWords {
				if seg.Words[i] != w {
					t.Errorf("Words[%d] = %q, want %q", i, seg.Words[i], w)
				}
			}
		})
	}
}

func TestParseFeedMessage_Timestamp(t *testing.T) {
	received := time.Date(2026, 3, 1, 20, 15, 0, 0, time.UTC)

	seg, ok := parseFeedMessage([]byte(`{"type":"segment","text":"hi","timestamp_ms":1767225600000}`), received)
	if !ok {
		t.Fatal("parseFeedMessage: want ok")
	}
	if got := seg.Timestamp.UnixMilli(); got != 1767225600000 {
		t.Errorf("Timestamp = %d, want 1767225600000", got)
	}

	seg, ok = parseFeedMessage([]byte(`{"type":"segment","text":"hi"}`), received)
	if !ok {
		t.Fatal("parseFeedMessage: want ok")
	}
	if !seg.Timestamp.Equal(received) {
		t.Errorf("Timestamp = %v, want receive time %v", seg.Timestamp, received)
	}
}
