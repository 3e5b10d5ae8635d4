// Package extract turns raw utterances into storable memory content,
// search queries, categories, and tags. All functions are total over
// text: they never fail and have no side effects.
package extract

import (
	"regexp"
	"strings"
)

// storeTriggerPatterns strip a trigger word plus an optional trailing
// connective ("me to", "that"). Applied globally, case-insensitive,
// on word boundaries.
var storeTriggerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bremember\b(\s+(me\s+to|that))?\s*`),
	regexp.MustCompile(`(?i)\bstore\b(\s+(me\s+to|that))?\s*`),
	regexp.MustCompile(`(?i)\bsave\b(\s+(me\s+to|that))?\s*`),
	regexp.MustCompile(`(?i)\bkeep\b(\s+(me\s+to|that))?\s*`),
	regexp.MustCompile(`(?i)\bdon't forget\b(\s+(me\s+to|that))?\s*`),
}

var stopWordPattern = regexp.MustCompile(`(?i)\b(where|what|when|did|show|find|is|are|my|i|me)\b`)

var whitespaceRun = regexp.MustCompile(`\s+`)

// StoreContent strips storage trigger phrases from a store-intent
// utterance and returns the text to persist. The result may be empty;
// the caller stores it anyway.
func StoreContent(raw string) string {
	content := raw
	for _, p := range storeTriggerPatterns {
		content = p.ReplaceAllString(content, "")
	}
	return strings.TrimSpace(content)
}

// SearchQuery removes question and stop words from a retrieval-intent
// utterance, producing the literal query passed to the store's search.
func SearchQuery(raw string) string {
	query := stopWordPattern.ReplaceAllString(raw, "")
	query = whitespaceRun.ReplaceAllString(query, " ")
	return strings.TrimSpace(query)
}

// categoryRules map content substrings to a category. Order matters:
// first hit wins.
var categoryRules = []struct {
	category string
	keywords []string
}{
	{"objects", []string{"keys", "wallet", "phone", "glasses", "bag", "purse"}},
	{"health", []string{"medication", "medicine", "pill", "vitamin", "doctor", "dose"}},
	{"schedule", []string{"appointment", "meeting", "schedule", "tomorrow", "tonight"}},
	{"tasks", []string{"task", "todo", "need to", "finish", "working on"}},
}

// DetectCategory heuristically classifies memory content. Returns
// "general" when nothing matches.
func DetectCategory(content string) string {
	lowered := strings.ToLower(content)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.category
			}
		}
	}
	return "general"
}

// tagVocabulary lists substrings that mark a token as tag-worthy.
var tagVocabulary = []string{
	"keys", "wallet", "phone", "glasses", "bag", "purse",
	"medication", "medicine", "pill", "doctor",
	"appointment", "meeting",
	"car", "door", "desk", "charger",
}

// Tags splits content on whitespace and keeps the lower-cased tokens
// that contain a vocabulary substring. Tokens are kept verbatim, not
// reduced to the matched substring; duplicates are not suppressed.
func Tags(content string) []string {
	var tags []string
	for _, token := range strings.Fields(content) {
		lowered := strings.ToLower(token)
		for _, vocab := range tagVocabulary {
			if strings.Contains(lowered, vocab) {
				tags = append(tags, lowered)
				break
			}
		}
	}
	return tags
}
