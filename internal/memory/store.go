package memory

import "context"

// Store is the persistence contract for user memories. All operations
// are scoped by userID and bounded by the latency of the underlying
// key-value store; implementations never retry internally.
//
// The write path is two structures kept in lockstep: a per-user record
// map keyed by memory id and a per-user recency index scored by
// creation time. The backing store offers atomic single-key operations
// but no cross-key transaction, so the write path is best-effort; an
// index entry whose record is missing is skipped on read and surfaced
// as an integrity warning, never an error.
type Store interface {
	// Store assigns id and creation time, persists the record, and
	// appends it to the recency index.
	Store(ctx context.Context, userID string, draft Draft) (*Memory, error)

	// Search returns up to limit memories among the limit most recent
	// whose content or tags match the query, most-recent-first. An
	// empty query matches everything.
	Search(ctx context.Context, userID, query string, limit int) ([]*Memory, error)

	// GetRecent returns the limit most recent memories, unfiltered,
	// in non-increasing creation-time order.
	GetRecent(ctx context.Context, userID string, limit int) ([]*Memory, error)

	// GetAll returns every memory ever stored for the user, in no
	// particular order.
	GetAll(ctx context.Context, userID string) ([]*Memory, error)
}
