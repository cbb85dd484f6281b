package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/offbeat-labs/flowcanvas/internal/analytics"
	"github.com/offbeat-labs/flowcanvas/internal/control"
	"github.com/offbeat-labs/flowcanvas/internal/health"
	"github.com/offbeat-labs/flowcanvas/internal/highlight"
	"github.com/offbeat-labs/flowcanvas/internal/observe"
	"github.com/offbeat-labs/flowcanvas/internal/semantic"
	"github.com/offbeat-labs/flowcanvas/internal/suggest"
)

var errEmptyWord = errors.New("word must not be empty")

// routes builds the HTTP surface: health probes, Prometheus metrics, and
// the JSON API the performer UI talks to.
func (a *App) routes() http.Handler {
	mux := http.NewServeMux()

	h := health.New(health.Checker{
		Name: "session-store",
		Check: func(ctx context.Context) error {
			if a.store == nil {
				return nil
			}
			_, err := a.store.List()
			return err
		},
	})
	h.Register(mux)

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/suggestions", a.handleSuggestions)
	mux.HandleFunc("GET /api/state", a.handleState)
	mux.HandleFunc("GET /api/analytics", a.handleAnalytics)
	mux.HandleFunc("GET /api/stats", a.handleStats)
	mux.HandleFunc("GET /api/highlights", a.handleHighlights)
	mux.HandleFunc("POST /api/control", a.handleControl)
	mux.HandleFunc("POST /api/device", a.handleDevice)
	mux.HandleFunc("POST /api/pin", a.handlePin)
	mux.HandleFunc("POST /api/unpin", a.handleUnpin)
	mux.HandleFunc("POST /api/seed", a.handleSeed)

	return observe.Middleware(a.metrics)(mux)
}

// stateResponse is the /api/state payload.
type stateResponse struct {
	SessionID  string             `json:"sessionId"`
	Phase      string             `json:"phase"`
	Confidence float64            `json:"phaseConfidence"`
	Weirdness  float64            `json:"weirdness"`
	Density    float64            `json:"density"`
	Listening  bool               `json:"listening"`
	Transcript []string           `json:"transcript"`
	Threads    []*semantic.Thread `json:"storyThreads"`
}

func (a *App) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	var set []suggest.Suggestion
	if err := a.do(r.Context(), func() {
		set = a.orc.Suggestions()
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (a *App) handleState(w http.ResponseWriter, r *http.Request) {
	var resp stateResponse
	if err := a.do(r.Context(), func() {
		phase := a.orc.CurrentPhase()
		resp = stateResponse{
			SessionID:  a.orc.SessionID(),
			Phase:      string(phase.Phase),
			Confidence: phase.Confidence,
			Weirdness:  a.orc.Weirdness(),
			Density:    a.orc.Density(),
			Listening:  a.listening,
			Transcript: a.orc.Transcript(),
			Threads:    a.orc.StoryThreads(),
		}
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	var summary analytics.Summary
	if err := a.do(r.Context(), func() {
		summary = a.collector.Summary()
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (a *App) handleStats(w http.ResponseWriter, r *http.Request) {
	var stats analytics.Stats
	if err := a.do(r.Context(), func() {
		stats = a.collector.RealTimeStats()
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *App) handleHighlights(w http.ResponseWriter, r *http.Request) {
	var reel []highlight.Highlight
	if err := a.do(r.Context(), func() {
		a.highlights.AnalyzeSession(a.orc.History())
		reel = a.highlights.Reel(2 * time.Minute)
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, reel)
}

// controlRequest is the /api/control payload: an abstract action with an
// optional dial value in [0, 1].
type controlRequest struct {
	Action control.Action `json:"action"`
	Value  float64        `json:"value"`
}

func (a *App) handleControl(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.do(r.Context(), func() {
		a.apply(control.Event{Action: req.Action, Value: req.Value})
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deviceRequest is the /api/device payload: a raw controller message that
// is run through the note/CC mapping before dispatch.
type deviceRequest struct {
	Type   string `json:"type"` // "noteOn", "cc" or "key"
	Number int    `json:"number"`
	Value  int    `json:"value"`
	Key    string `json:"key"`
}

func (a *App) handleDevice(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var (
		ev control.Event
		ok bool
	)
	if err := a.do(r.Context(), func() {
		switch req.Type {
		case "noteOn":
			ev, ok = a.decoder.NoteOn(req.Number)
		case "cc":
			ev, ok = a.decoder.ControlChange(req.Number, req.Value)
		case "key":
			ev, ok = control.FootswitchKey(req.Key)
		}
		if ok {
			a.apply(ev)
		}
	}); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusAccepted) // unmapped input is not an error
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// wordRequest is the /api/pin and /api/unpin payload.
type wordRequest struct {
	Word string `json:"word"`
}

func (a *App) handlePin(w http.ResponseWriter, r *http.Request) {
	a.handleWordAction(w, r, a.pinWord)
}

func (a *App) handleUnpin(w http.ResponseWriter, r *http.Request) {
	a.handleWordAction(w, r, func(word string) { a.orc.Unpin(word) })
}

func (a *App) pinWord(word string) { a.orc.Pin(word) }

func (a *App) handleWordAction(w http.ResponseWriter, r *http.Request, fn func(string)) {
	var req wordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Word == "" {
		writeError(w, http.StatusBadRequest, errEmptyWord)
		return
	}
	if err := a.do(r.Context(), func() { fn(req.Word) }); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// seedRequest is the /api/seed payload.
type seedRequest struct {
	Text string `json:"text"`
}

func (a *App) handleSeed(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := a.do(r.Context(), func() { a.orc.SetSeedText(req.Text) }); err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
