package suggest

import (
	"time"

	"github.com/offbeat-labs/flowcanvas/internal/semantic"
)

// Snapshot is a point-in-time capture of session state, serializable for
// persistence and restorable into a fresh Orchestrator.
type Snapshot struct {
	ID         string             `json:"id"`
	StartTime  time.Time          `json:"startTime"`
	Transcript []string           `json:"transcript"`
	UsedWords  []string           `json:"usedWords"`
	Pinned     []Suggestion       `json:"pinnedSuggestions"`
	SeedText   string             `json:"seedText"`
	Weirdness  float64            `json:"weirdness"`
	Density    float64            `json:"density"`
	Phase      string             `json:"currentPhase"`
	Threads    []*semantic.Thread `json:"storyThreads"`
}

// Snapshot captures the current session state. Safe to call between any
// two event-loop operations; never concurrently with them.
func (o *Orchestrator) Snapshot() Snapshot {
	var pinned []Suggestion
	for _, s := range o.current {
		if s.Pinned {
			pinned = append(pinned, *s)
		}
	}
	return Snapshot{
		ID:         o.sessionID,
		StartTime:  o.sessionStart,
		Transcript: append([]string(nil), o.transcript...),
		UsedWords:  o.rhymes.UsedWords(),
		Pinned:     pinned,
		SeedText:   o.assoc.SeedText(),
		Weirdness:  o.weirdness,
		Density:    o.density,
		Phase:      string(o.tracker.CurrentPhase().Phase),
		Threads:    o.assoc.Threads(),
	}
}

// Restore loads a snapshot into the orchestrator: identity, transcript,
// dials, used words, seed text and pinned suggestions. Narrative history
// is not replayed; the phase machine restarts from the restore time.
func (o *Orchestrator) Restore(snap Snapshot) {
	o.sessionID = snap.ID
	o.sessionStart = snap.StartTime
	o.transcript = append([]string(nil), snap.Transcript...)
	o.weirdness = clamp01(snap.Weirdness)
	o.density = clamp01(snap.Density)

	for _, word := range snap.UsedWords {
		o.rhymes.MarkUsed(word)
	}
	if snap.SeedText != "" {
		o.assoc.SetSeedText(snap.SeedText)
	}

	for i := range snap.Pinned {
		s := snap.Pinned[i]
		s.Pinned = true
		if _, seen := o.byWord[s.Word]; seen {
			continue
		}
		o.current = append(o.current, &s)
		o.byWord[s.Word] = &s
		o.pinned[s.Word] = struct{}{}
	}
}
