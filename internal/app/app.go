// Package app wires all FlowCanvas subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run executes the event loop and HTTP server, and Shutdown
// tears everything down in order.
//
// All engine state is owned by a single event-loop goroutine. Transcript
// segments, control events, seed edits and HTTP commands are serialised
// through it, so the orchestrator never needs internal locking.
//
// For testing, inject doubles via functional options (WithSpeechProvider,
// WithSessionStore, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/offbeat-labs/flowcanvas/internal/analytics"
	"github.com/offbeat-labs/flowcanvas/internal/config"
	"github.com/offbeat-labs/flowcanvas/internal/control"
	"github.com/offbeat-labs/flowcanvas/internal/highlight"
	"github.com/offbeat-labs/flowcanvas/internal/lexicon"
	"github.com/offbeat-labs/flowcanvas/internal/narrative"
	"github.com/offbeat-labs/flowcanvas/internal/observe"
	"github.com/offbeat-labs/flowcanvas/internal/rhyme"
	"github.com/offbeat-labs/flowcanvas/internal/session"
	"github.com/offbeat-labs/flowcanvas/internal/suggest"
	"github.com/offbeat-labs/flowcanvas/pkg/speech"
)

// shutdownTimeout bounds the HTTP server drain during Run teardown.
const shutdownTimeout = 10 * time.Second

// App owns all subsystem lifetimes and runs the FlowCanvas pipeline.
type App struct {
	cfg *config.Config

	provider speech.Provider
	store    session.Store
	metrics  *observe.Metrics

	lex        *lexicon.Store
	dist       *rhyme.Matcher
	orc        *suggest.Orchestrator
	decoder    *control.Decoder
	collector  *analytics.Collector
	highlights *highlight.Engine

	seedWatcher *config.SeedWatcher

	// commands carries closures executed on the event loop. HTTP handlers
	// and device input go through here.
	commands chan func()
	seeds    chan string

	// Event-loop owned state. Never touched off-loop.
	listening  bool
	lastPinned int64
	prevLast   string
	shown      map[string]struct{}
	spoken     map[string]struct{}

	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithSpeechProvider injects a speech provider instead of creating one from
// the config registry.
func WithSpeechProvider(p speech.Provider) Option {
	return func(a *App) { a.provider = p }
}

// WithSessionStore injects a snapshot store instead of creating a FileStore.
func WithSessionStore(s session.Store) Option {
	return func(a *App) { a.store = s }
}

// WithMetrics injects a metrics set instead of using the global default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. Use Option
// functions to inject test doubles for any subsystem.
//
// New performs all initialisation synchronously: lexicon parsing, seed
// loading, snapshot restore and speech provider construction.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:       cfg,
		commands:  make(chan func(), 32),
		seeds:     make(chan string, 1),
		listening: true,
		shown:     make(map[string]struct{}),
		spoken:    make(map[string]struct{}),
	}
	for _, o := range opts {
		o(a)
	}

	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	// ── 1. Lexicon + orchestrator ────────────────────────────────────────
	var lexOpts []lexicon.Option
	if cfg.Lexicon.DictPath != "" {
		lexOpts = append(lexOpts, lexicon.WithDictionaryFile(cfg.Lexicon.DictPath))
	}
	store, err := lexicon.New(lexOpts...)
	if err != nil {
		return nil, fmt.Errorf("app: init lexicon: %w", err)
	}
	a.lex = store
	a.dist = rhyme.New(store)
	a.orc = suggest.New(store)
	a.orc.SetWeirdness(cfg.Engine.Weirdness)
	a.orc.SetDensity(cfg.Engine.Density)

	// ── 2. Scene seed ────────────────────────────────────────────────────
	if err := a.initSeed(); err != nil {
		return nil, fmt.Errorf("app: init seed: %w", err)
	}

	// ── 3. Snapshot store + resume ───────────────────────────────────────
	if err := a.initStore(); err != nil {
		return nil, fmt.Errorf("app: init session store: %w", err)
	}

	// ── 4. Speech provider ───────────────────────────────────────────────
	if a.provider == nil {
		p, err := config.DefaultRegistry().CreateSpeech(cfg.Speech)
		if err != nil {
			return nil, fmt.Errorf("app: create speech provider: %w", err)
		}
		a.provider = p
	}

	// ── 5. Controls + telemetry ──────────────────────────────────────────
	a.decoder = control.NewDecoder(cfg.Controls.Mapping)
	a.collector = analytics.New(analytics.WithMetrics(a.metrics))
	a.highlights = highlight.New()
	a.wireCallbacks()

	return a, nil
}

// initSeed loads the scene premise from the seed file (and watches it) or
// the inline seed_text.
func (a *App) initSeed() error {
	if a.cfg.Engine.SeedFile != "" {
		w, seed, err := config.NewSeedWatcher(a.cfg.Engine.SeedFile, func(seed string) {
			// Drop stale edits; the loop only needs the newest seed.
			select {
			case a.seeds <- seed:
			default:
				select {
				case <-a.seeds:
				default:
				}
				a.seeds <- seed
			}
		})
		if err != nil {
			return err
		}
		a.seedWatcher = w
		a.closers = append(a.closers, func() error {
			w.Stop()
			return nil
		})
		if seed != "" {
			a.orc.SetSeedText(seed)
		}
		return nil
	}
	if a.cfg.Engine.SeedText != "" {
		a.orc.SetSeedText(a.cfg.Engine.SeedText)
	}
	return nil
}

// initStore sets up snapshot persistence and restores a resumed session.
func (a *App) initStore() error {
	if a.store == nil && a.cfg.Session.Dir != "" {
		fs, err := session.NewFileStore(a.cfg.Session.Dir)
		if err != nil {
			return err
		}
		a.store = fs
	}

	if a.cfg.Session.Resume == "" {
		return nil
	}
	if a.store == nil {
		return errors.New("session.resume is set but no session store is configured")
	}
	snap, err := a.store.Load(a.cfg.Session.Resume)
	if err != nil {
		return fmt.Errorf("resume session %q: %w", a.cfg.Session.Resume, err)
	}
	a.orc.Restore(snap)
	slog.Info("resumed session", "id", snap.ID, "transcript_lines", len(snap.Transcript))
	return nil
}

// wireCallbacks connects orchestrator notifications to analytics and
// metrics. The callbacks run on the event loop, so loop-owned maps are
// safe to touch.
func (a *App) wireCallbacks() {
	ctx := context.Background()

	a.orc.OnTranscript(func(text string, words []string) {
		a.metrics.RecordUtterance(ctx, a.orc.SessionID(), len(words))
		novel := 0
		for _, w := range words {
			a.collector.TrackWord(w)
			if !a.lex.Has(w) {
				a.metrics.LexiconMisses.Add(ctx, 1)
			}
			if _, seen := a.spoken[w]; !seen {
				a.spoken[w] = struct{}{}
				novel++
			}
		}
		if len(words) > 0 {
			complexity := min(1, float64(len(words))/12)
			novelty := float64(novel) / float64(len(words))
			coherence := a.orc.CurrentPhase().Confidence
			a.collector.DetectPeakMoment(complexity, novelty, coherence)

			last := words[len(words)-1]
			a.collector.TrackRhymeFamily(last)
			if a.prevLast != "" {
				if d := a.dist.PhoneticDistance(a.prevLast, last); d < 999 {
					a.collector.TrackPhoneticDistance(d)
				}
			}
			a.prevLast = last
		}
	})

	a.orc.OnPhase(func(state narrative.PhaseState) {
		a.collector.TrackPhaseChange(ctx, string(state.Phase))
	})

	a.orc.OnSuggestions(func(set []suggest.Suggestion) {
		var pinned int64
		for _, s := range set {
			if s.Pinned {
				pinned++
			}
			if _, ok := a.shown[s.Word]; !ok {
				a.shown[s.Word] = struct{}{}
				a.collector.TrackSuggestion(ctx, s, false)
				if s.Metadata.MetaphorScore > 0 {
					a.collector.TrackMetaphor(s.Metadata.MetaphorScore)
				}
				if s.Origin == suggest.OriginCallback {
					a.collector.TrackCallback(ctx, false)
				}
			}
		}
		a.metrics.PinnedSuggestions.Add(ctx, pinned-a.lastPinned)
		a.lastPinned = pinned
	})
}

// Run starts the event loop and HTTP server and blocks until ctx is
// cancelled or the transcript feed ends.
func (a *App) Run(ctx context.Context) error {
	sess, err := a.provider.StartStream(ctx, speech.StreamConfig{
		Language:       a.cfg.Speech.Language,
		InterimResults: a.cfg.Speech.InterimResults,
	})
	if err != nil {
		return fmt.Errorf("app: start transcription stream: %w", err)
	}

	a.metrics.ActiveSessions.Add(ctx, 1)
	defer a.metrics.ActiveSessions.Add(context.Background(), -1)

	srv := &http.Server{
		Addr:    a.cfg.Server.ListenAddr,
		Handler: a.routes(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", srv.Addr)
		var err error
		if tls := a.cfg.Server.TLS; tls != nil {
			err = srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("http shutdown error", "err", err)
		}
		return sess.Close()
	})

	g.Go(func() error {
		return a.loop(ctx, sess)
	})

	return g.Wait()
}

// loop is the single event-loop goroutine. It owns all engine state.
func (a *App) loop(ctx context.Context, sess speech.SessionHandle) error {
	var autosave <-chan time.Time
	if a.store != nil && a.cfg.Session.AutosaveInterval > 0 {
		ticker := time.NewTicker(a.cfg.Session.AutosaveInterval.Std())
		defer ticker.Stop()
		autosave = ticker.C
	}

	interims := sess.Interims()
	finals := sess.Finals()

	for {
		select {
		case <-ctx.Done():
			a.saveSnapshot()
			return ctx.Err()

		case seg, ok := <-interims:
			if !ok {
				interims = nil
				break
			}
			a.handleSegment(ctx, seg)

		case seg, ok := <-finals:
			if !ok {
				finals = nil
				break
			}
			a.handleSegment(ctx, seg)

		case seed := <-a.seeds:
			a.orc.SetSeedText(seed)

		case cmd := <-a.commands:
			cmd()

		case <-autosave:
			a.saveSnapshot()
		}

		if interims == nil && finals == nil {
			// Feed ended; persist what we have and stop.
			a.saveSnapshot()
			return nil
		}
	}
}

// handleSegment feeds one segment through the orchestrator on the loop,
// recording lag, regeneration time and suggestion acceptance.
func (a *App) handleSegment(ctx context.Context, seg speech.Segment) {
	if !a.listening {
		return
	}
	if !seg.Timestamp.IsZero() {
		a.metrics.SegmentLag.Record(ctx, time.Since(seg.Timestamp).Seconds())
	}

	var prev map[string]suggest.Suggestion
	if seg.IsFinal {
		prev = make(map[string]suggest.Suggestion)
		for _, s := range a.orc.Suggestions() {
			prev[s.Word] = s
		}
	}

	start := time.Now()
	a.orc.HandleSegment(seg)
	a.metrics.RegenerationDuration.Record(ctx, time.Since(start).Seconds())

	// A spoken word that was on screen counts as an accepted suggestion.
	for _, w := range seg.Words {
		if s, ok := prev[w]; ok {
			a.collector.TrackSuggestion(ctx, s, true)
			if s.Origin == suggest.OriginCallback {
				a.collector.TrackCallback(ctx, true)
			}
		}
	}
}

// apply executes one performer action on the event loop.
func (a *App) apply(ev control.Event) {
	switch ev.Action {
	case control.ActionPin:
		for _, s := range a.orc.Suggestions() {
			if !s.Pinned {
				a.orc.Pin(s.Word)
				break
			}
		}
	case control.ActionClearPinned:
		a.orc.ClearPinned()
	case control.ActionToggleListening:
		a.listening = !a.listening
		slog.Info("listening toggled", "listening", a.listening)
	case control.ActionSetWeirdness:
		a.orc.SetWeirdness(ev.Value)
	case control.ActionSetDensity:
		a.orc.SetDensity(ev.Value)
	case control.ActionBranchWild:
		a.orc.SetWeirdness(1)
	case control.ActionNextFamily:
		a.orc.NextFamily()
	case control.ActionNewSession:
		a.saveSnapshot()
		a.orc.NewSession()
		a.collector.Reset()
		a.highlights.Reset()
		a.prevLast = ""
		a.shown = make(map[string]struct{})
		a.spoken = make(map[string]struct{})
		slog.Info("new session started", "id", a.orc.SessionID())
	case control.ActionSave:
		a.saveSnapshot()
	default:
		slog.Warn("unknown control action", "action", ev.Action)
	}
}

// saveSnapshot persists the current session, if a store is configured.
func (a *App) saveSnapshot() {
	if a.store == nil {
		return
	}
	snap := a.orc.Snapshot()
	if err := a.store.Save(snap); err != nil {
		slog.Warn("snapshot save failed", "id", snap.ID, "err", err)
		return
	}
	slog.Debug("session snapshot saved", "id", snap.ID)
}

// ApplyConfig applies hot-reloadable config changes on the event loop.
// Log-level changes are handled by the caller; everything else in the
// diff maps onto an orchestrator or decoder setter.
func (a *App) ApplyConfig(ctx context.Context, d config.ConfigDiff) error {
	return a.do(ctx, func() {
		if d.WeirdnessChanged {
			a.orc.SetWeirdness(d.NewWeirdness)
		}
		if d.DensityChanged {
			a.orc.SetDensity(d.NewDensity)
		}
		if d.SeedChanged {
			a.orc.SetSeedText(d.NewSeedText)
		}
		if d.MappingChanged {
			a.decoder.SetMapping(d.NewMapping)
		}
	})
}

// do runs fn on the event loop and waits for it to finish. It is how HTTP
// handlers read or mutate engine state safely.
func (a *App) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case a.commands <- func() {
		fn()
		close(done)
	}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown tears down background watchers. The HTTP server and speech
// session are closed by Run when its context is cancelled.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}
