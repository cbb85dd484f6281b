package control

import "testing"

func TestNoteOnDefaultMapping(t *testing.T) {
	t.Parallel()
	d := NewDecoder(DefaultMapping())

	tests := []struct {
		name   string
		note   int
		action Action
		want   bool
	}{
		{"sustain pedal pins", 64, ActionPin, true},
		{"clear pinned", 65, ActionClearPinned, true},
		{"branch wild", 71, ActionBranchWild, true},
		{"next family", 72, ActionNextFamily, true},
		{"toggle listening", 60, ActionToggleListening, true},
		{"new session", 62, ActionNewSession, true},
		{"save", 63, ActionSave, true},
		{"unmapped note", 40, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ev, ok := d.NoteOn(tt.note)
			if ok != tt.want {
				t.Fatalf("NoteOn(%d) ok = %v, want %v", tt.note, ok, tt.want)
			}
			if ok && ev.Action != tt.action {
				t.Errorf("NoteOn(%d) action = %q, want %q", tt.note, ev.Action, tt.action)
			}
		})
	}
}

func TestControlChangeDials(t *testing.T) {
	t.Parallel()
	d := NewDecoder(DefaultMapping())

	ev, ok := d.ControlChange(1, 127)
	if !ok || ev.Action != ActionSetWeirdness {
		t.Fatalf("ControlChange(1, 127) = %+v, %v", ev, ok)
	}
	if ev.Value != 1 {
		t.Errorf("full mod wheel value = %v, want 1", ev.Value)
	}

	ev, _ = d.ControlChange(1, 0)
	if ev.Value != 0 {
		t.Errorf("zero mod wheel value = %v, want 0", ev.Value)
	}

	ev, ok = d.ControlChange(11, 64)
	if !ok || ev.Action != ActionSetDensity {
		t.Fatalf("ControlChange(11, 64) = %+v, %v", ev, ok)
	}
	if ev.Value < 0.5 || ev.Value > 0.51 {
		t.Errorf("mid expression value = %v, want ~0.504", ev.Value)
	}
}

func TestControlChangeTriggerThreshold(t *testing.T) {
	t.Parallel()
	d := NewDecoder(DefaultMapping())

	if _, ok := d.ControlChange(64, 30); ok {
		t.Error("half-pressed pedal should not trigger pin")
	}
	ev, ok := d.ControlChange(64, 100)
	if !ok || ev.Action != ActionPin {
		t.Fatalf("ControlChange(64, 100) = %+v, %v", ev, ok)
	}
	ev, ok = d.ControlChange(65, 127)
	if !ok || ev.Action != ActionClearPinned {
		t.Fatalf("ControlChange(65, 127) = %+v, %v", ev, ok)
	}
	if _, ok := d.ControlChange(99, 127); ok {
		t.Error("unmapped controller should not decode")
	}
}

func TestNormalizeClamps(t *testing.T) {
	t.Parallel()
	if got := normalize(-5); got != 0 {
		t.Errorf("normalize(-5) = %v, want 0", got)
	}
	if got := normalize(200); got != 1 {
		t.Errorf("normalize(200) = %v, want 1", got)
	}
}

func TestSetMapping(t *testing.T) {
	t.Parallel()
	d := NewDecoder(DefaultMapping())
	m := d.Mapping()
	m.Pin = 48
	d.SetMapping(m)

	if _, ok := d.NoteOn(64); ok {
		t.Error("old pin note should be unbound after remap")
	}
	ev, ok := d.NoteOn(48)
	if !ok || ev.Action != ActionPin {
		t.Fatalf("NoteOn(48) = %+v, %v", ev, ok)
	}
}

func TestFootswitchKey(t *testing.T) {
	t.Parallel()
	tests := []struct {
		key    string
		action Action
		want   bool
	}{
		{"F13", ActionPin, true},
		{"F14", ActionClearPinned, true},
		{"F15", ActionToggleListening, true},
		{"F16", ActionBranchWild, true},
		{"F1", "", false},
	}
	for _, tt := range tests {
		ev, ok := FootswitchKey(tt.key)
		if ok != tt.want {
			t.Fatalf("FootswitchKey(%q) ok = %v, want %v", tt.key, ok, tt.want)
		}
		if ok && ev.Action != tt.action {
			t.Errorf("FootswitchKey(%q) = %q, want %q", tt.key, ev.Action, tt.action)
		}
	}
}
