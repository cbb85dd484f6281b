// Package control translates raw input-device events (MIDI-style notes and
// continuous controllers, footswitch keys) into the abstract performer
// actions the orchestrator understands. The mapping is data, so any
// controller layout can drive the same action set.
package control

// Action is an abstract performer command, decoupled from the physical
// device that produced it.
type Action string

const (
	ActionPin             Action = "pin"
	ActionClearPinned     Action = "clearPinned"
	ActionToggleListening Action = "toggleListening"
	ActionSetWeirdness    Action = "setWeirdness"
	ActionSetDensity      Action = "setDensity"
	ActionBranchWild      Action = "branchWild"
	ActionNextFamily      Action = "nextFamily"
	ActionNewSession      Action = "newSession"
	ActionSave            Action = "save"
)

// Event is one decoded performer action. Value carries the normalized
// controller position in [0, 1] for the dial actions and is zero for
// trigger actions.
type Event struct {
	Action Action
	Value  float64
}

// Mapping binds note and controller numbers to actions. Zero values mean
// unbound.
type Mapping struct {
	Pin             int `yaml:"pin"`
	ClearPinned     int `yaml:"clearPinned"`
	WeirdnessDial   int `yaml:"weirdnessDial"`
	DensityDial     int `yaml:"densityDial"`
	BranchWild      int `yaml:"branchWild"`
	NextFamily      int `yaml:"nextFamily"`
	ToggleListening int `yaml:"toggleListening"`
	NewSession      int `yaml:"newSession"`
	Save            int `yaml:"save"`
}

// DefaultMapping is the stock controller layout: sustain pedal pins, the
// mod wheel drives weirdness.
func DefaultMapping() Mapping {
	return Mapping{
		Pin:             64,
		ClearPinned:     65,
		WeirdnessDial:   1,
		DensityDial:     11,
		BranchWild:      71,
		NextFamily:      72,
		ToggleListening: 60,
		NewSession:      62,
		Save:            63,
	}
}

// Decoder turns device messages into Events according to its Mapping.
type Decoder struct {
	mapping Mapping
}

// NewDecoder creates a Decoder with the given mapping.
func NewDecoder(mapping Mapping) *Decoder {
	return &Decoder{mapping: mapping}
}

// Mapping returns the decoder's current mapping.
func (d *Decoder) Mapping() Mapping { return d.mapping }

// SetMapping replaces the mapping.
func (d *Decoder) SetMapping(mapping Mapping) { d.mapping = mapping }

// NoteOn decodes a note-on message into a trigger action. Unmapped notes
// return false.
func (d *Decoder) NoteOn(note int) (Event, bool) {
	switch note {
	case d.mapping.Pin:
		return Event{Action: ActionPin}, true
	case d.mapping.ClearPinned:
		return Event{Action: ActionClearPinned}, true
	case d.mapping.BranchWild:
		return Event{Action: ActionBranchWild}, true
	case d.mapping.NextFamily:
		return Event{Action: ActionNextFamily}, true
	case d.mapping.ToggleListening:
		return Event{Action: ActionToggleListening}, true
	case d.mapping.NewSession:
		return Event{Action: ActionNewSession}, true
	case d.mapping.Save:
		return Event{Action: ActionSave}, true
	}
	return Event{}, false
}

// ControlChange decodes a continuous-controller message. Dial controllers
// normalize the 0-127 range into [0, 1]; trigger controllers fire on
// values above 64 so pedal half-presses are ignored.
func (d *Decoder) ControlChange(controller, value int) (Event, bool) {
	switch controller {
	case d.mapping.WeirdnessDial:
		return Event{Action: ActionSetWeirdness, Value: normalize(value)}, true
	case d.mapping.DensityDial:
		return Event{Action: ActionSetDensity, Value: normalize(value)}, true
	case d.mapping.Pin:
		if value > 64 {
			return Event{Action: ActionPin}, true
		}
	case d.mapping.ClearPinned:
		if value > 64 {
			return Event{Action: ActionClearPinned}, true
		}
	}
	return Event{}, false
}

// normalize maps the MIDI 0-127 range onto [0, 1], clamping out-of-range
// input.
func normalize(value int) float64 {
	if value < 0 {
		return 0
	}
	if value > 127 {
		return 1
	}
	return float64(value) / 127
}

// footswitchKeys maps the common USB footswitch function keys to actions.
var footswitchKeys = map[string]Action{
	"F13": ActionPin,
	"F14": ActionClearPinned,
	"F15": ActionToggleListening,
	"F16": ActionBranchWild,
}

// FootswitchKey decodes a footswitch key name into a trigger action.
func FootswitchKey(key string) (Event, bool) {
	action, ok := footswitchKeys[key]
	if !ok {
		return Event{}, false
	}
	return Event{Action: action}, true
}
