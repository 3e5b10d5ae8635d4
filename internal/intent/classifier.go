// Package intent decides whether a user utterance asks the assistant to
// store a memory, retrieve one, both, or neither.
package intent

import "strings"

// Intent is the result of classifying a single utterance.
// Both flags may be set at once ("remember where I put my keys"); the
// caller decides precedence. The engine treats storage as priority and
// evaluates retrieval independently.
type Intent struct {
	WantsStore    bool
	WantsRetrieve bool
}

// Classifier inspects an utterance and reports memory intent.
// Implementations must be total over text: never fail, never mutate state.
type Classifier interface {
	Classify(utterance string) Intent
}

// Trigger words signalling that the user wants something remembered.
var storeTriggers = []string{"remember", "store", "save", "keep", "don't forget"}

// Trigger words signalling that the user wants something recalled.
var retrieveTriggers = []string{"where", "find", "what", "when", "show", "did i"}

// KeywordClassifier detects intent via case-insensitive substring
// membership against fixed trigger sets.
type KeywordClassifier struct{}

// NewKeywordClassifier creates a new keyword-based classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify lower-cases the utterance and tests it against both trigger sets.
func (c *KeywordClassifier) Classify(utterance string) Intent {
	lowered := strings.ToLower(utterance)
	return Intent{
		WantsStore:    containsAny(lowered, storeTriggers),
		WantsRetrieve: containsAny(lowered, retrieveTriggers),
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
