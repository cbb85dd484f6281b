package semantic

import "github.com/offbeat-labs/flowcanvas/pkg/speech"

// Sentiment is the coarse emotional polarity of an utterance.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

var positiveWords = map[string]struct{}{
	"love": {}, "joy": {}, "happy": {}, "great": {}, "good": {},
	"wonderful": {}, "beautiful": {}, "amazing": {}, "brilliant": {},
	"hope": {}, "dream": {}, "win": {}, "won": {}, "laugh": {}, "smile": {},
	"friend": {}, "kind": {}, "brave": {}, "bright": {}, "warm": {},
	"sweet": {}, "fun": {}, "funny": {}, "best": {}, "perfect": {},
	"celebrate": {}, "hero": {}, "magic": {}, "treasure": {}, "golden": {},
}

var negativeWords = map[string]struct{}{
	"hate": {}, "fear": {}, "pain": {}, "sad": {}, "bad": {},
	"terrible": {}, "awful": {}, "horrible": {}, "ugly": {}, "angry": {},
	"cry": {}, "lose": {}, "lost": {}, "die": {}, "dead": {}, "death": {},
	"dark": {}, "cold": {}, "broken": {}, "break": {}, "broke": {},
	"scared": {}, "worst": {}, "enemy": {}, "monster": {}, "danger": {},
	"fail": {}, "failed": {}, "hurt": {}, "wound": {}, "storm": {},
}

// DetectSentiment counts positive and negative lexicon hits over the
// utterance. The majority wins; ties come back neutral.
func DetectSentiment(text string) Sentiment {
	positive, negative := 0, 0
	for _, word := range speech.SplitWords(text) {
		if _, ok := positiveWords[word]; ok {
			positive++
		}
		if _, ok := negativeWords[word]; ok {
			negative++
		}
	}
	switch {
	case positive > negative:
		return SentimentPositive
	case negative > positive:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
