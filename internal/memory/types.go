// Package memory defines the persisted Memory entity and the store
// contract for writing and retrieving per-user memories.
package memory

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultImportance is the mid-value priority assigned when a caller
// does not supply one.
const DefaultImportance = 5

// Memory is a single persisted fact a user asked to be remembered.
// Once written, ID, UserID, Content, and CreatedAt never change.
type Memory struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	Content      string         `json:"content"`
	Category     string         `json:"category,omitempty"`
	Importance   int            `json:"importance"`
	CreatedAt    time.Time      `json:"createdAt"`
	LastAccessed *time.Time     `json:"lastAccessed,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	Context      string         `json:"context,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Draft holds the caller-supplied fields of a memory before the store
// assigns identity and creation time.
type Draft struct {
	Content    string         `json:"content"`
	Category   string         `json:"category,omitempty"`
	Importance int            `json:"importance,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Context    string         `json:"context,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewID generates a memory identifier: time-based prefix plus a random
// suffix, unique for the lifetime of the store.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("memory_%d_%s", now.UnixMilli(), suffix)
}

// MatchesQuery reports whether a memory matches a search query:
// case-insensitive containment against content or any tag. An empty
// query matches everything. A multi-word query that does not match as
// a whole falls back to per-token containment, with tokens trimmed of
// surrounding punctuation. Matching is containment only, never ranked.
func MatchesQuery(m *Memory, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	if containsTerm(m, q) {
		return true
	}
	for _, token := range strings.Fields(q) {
		token = strings.Trim(token, `.,!?;:"'`)
		if token == "" {
			continue
		}
		if containsTerm(m, token) {
			return true
		}
	}
	return false
}

func containsTerm(m *Memory, term string) bool {
	if strings.Contains(strings.ToLower(m.Content), term) {
		return true
	}
	for _, tag := range m.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}
