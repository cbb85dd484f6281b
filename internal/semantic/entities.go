package semantic

import (
	"strings"
	"time"
	"unicode"
)

// Heuristic gazetteers for entity kind hints. Coverage matters less than
// determinism: anything capitalized mid-sentence is still caught by the
// fallback rules below.

var knownNames = map[string]struct{}{
	"alice": {}, "bob": {}, "charlie": {}, "dave": {}, "eve": {},
	"frank": {}, "grace": {}, "harry": {}, "ivy": {}, "jack": {},
	"kate": {}, "luna": {}, "max": {}, "nina": {}, "oscar": {},
	"pete": {}, "quinn": {}, "rosa": {}, "sam": {}, "tina": {},
	"victor": {}, "wendy": {},
}

var knownPlaces = map[string]struct{}{
	"paris": {}, "london": {}, "tokyo": {}, "york": {}, "rome": {},
	"berlin": {}, "vegas": {}, "hollywood": {}, "atlantis": {},
	"narnia": {}, "mars": {}, "venus": {}, "jupiter": {},
}

var placePrepositions = map[string]struct{}{
	"in": {}, "at": {}, "to": {}, "from": {}, "near": {}, "toward": {},
	"towards": {}, "into": {}, "onto": {},
}

// ExtractEntities pulls person, place and thing spans from the utterance,
// appends them to the running entity log and returns the new records.
// Extraction is not deduplicated: calling it twice on the same text logs
// the spans twice.
func (a *Associator) ExtractEntities(text string, timestamp time.Time) []Entity {
	tokens := strings.Fields(text)

	var entities []Entity
	claimed := make(map[string]struct{})
	things := 0

	for i, raw := range tokens {
		token := strings.TrimFunc(raw, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
		})
		if token == "" {
			continue
		}
		lower := strings.ToLower(token)

		switch kind, ok := classifyEntity(token, lower, i, tokens); {
		case ok:
			entities = append(entities, Entity{Text: token, Kind: kind, Timestamp: timestamp})
			claimed[lower] = struct{}{}
		case things < 10 && Classify(lower) == TypeNoun:
			if _, taken := claimed[lower]; taken {
				continue
			}
			entities = append(entities, Entity{Text: lower, Kind: KindThing, Timestamp: timestamp})
			things++
		}
	}

	a.entities = append(a.entities, entities...)
	return entities
}

// classifyEntity decides whether a token is a person or place span.
// Gazetteer hits win; otherwise a capitalized non-initial token counts as
// a place after a locational preposition and a person everywhere else.
func classifyEntity(token, lower string, index int, tokens []string) (EntityKind, bool) {
	if _, ok := knownNames[lower]; ok {
		return KindPerson, true
	}
	if _, ok := knownPlaces[lower]; ok {
		return KindPlace, true
	}

	first, _ := firstRune(token)
	if index == 0 || !unicode.IsUpper(first) {
		return "", false
	}
	if index > 0 {
		prev := strings.ToLower(strings.Trim(tokens[index-1], ".,!?;:"))
		if _, ok := placePrepositions[prev]; ok {
			return KindPlace, true
		}
	}
	return KindPerson, true
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}

// Entities returns the full entity log in arrival order.
func (a *Associator) Entities() []Entity { return a.entities }
