// Package redisstore implements the memory store on Redis. Records
// live in a per-user hash (field = memory id, value = serialized
// memory); recency lives in a per-user sorted set (member = memory id,
// score = creation epoch millis).
package redisstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/harperclay/recollect/internal/memory"
	"github.com/harperclay/recollect/internal/metrics"
	recallerrors "github.com/harperclay/recollect/pkg/errors"
)

const defaultLimit = 10

// Store is a Redis-backed implementation of memory.Store.
type Store struct {
	client    redis.UniversalClient
	keyPrefix string
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures the store.
type Option func(*Store)

// WithKeyPrefix prepends a namespace to every Redis key.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.keyPrefix = prefix
	}
}

// WithLogger sets the logger used for integrity warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a Redis-backed memory store.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store persists a new memory. The record write and the index append
// are two separate Redis operations with no cross-key transaction: if
// the index append fails after the record write, the record is
// unreachable through Search/GetRecent until a later write, and the
// error is surfaced to the caller. Reads tolerate the inverse case
// (index entry without a record) as an integrity warning.
func (s *Store) Store(ctx context.Context, userID string, draft memory.Draft) (*memory.Memory, error) {
	now := s.now()
	m := &memory.Memory{
		ID:         memory.NewID(now),
		UserID:     userID,
		Content:    draft.Content,
		Category:   draft.Category,
		Importance: draft.Importance,
		CreatedAt:  now,
		Tags:       draft.Tags,
		Context:    draft.Context,
		Metadata:   draft.Metadata,
	}
	if m.Importance == 0 {
		m.Importance = memory.DefaultImportance
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, recallerrors.NewInternalError("memory.store", "failed to serialize memory")
	}

	if err := s.client.HSet(ctx, s.recordsKey(userID), m.ID, data).Err(); err != nil {
		metrics.RecordStorageError("store")
		return nil, recallerrors.NewStorageError("memory.store", err)
	}

	err = s.client.ZAdd(ctx, s.indexKey(userID), redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: m.ID,
	}).Err()
	if err != nil {
		metrics.RecordStorageError("store")
		return nil, recallerrors.NewStorageError("memory.store", err)
	}

	metrics.RecordMemoryStored(m.Category)
	return m, nil
}

// Search reads the recency index descending, truncates to the limit
// most recent ids, and filters the fetched records by query.
func (s *Store) Search(ctx context.Context, userID, query string, limit int) ([]*memory.Memory, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	ids, err := s.client.ZRevRange(ctx, s.indexKey(userID), 0, -1).Result()
	if err != nil {
		metrics.RecordStorageError("search")
		return nil, recallerrors.NewStorageError("memory.search", err)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	var result []*memory.Memory
	for _, id := range ids {
		m, err := s.fetch(ctx, userID, id, "memory.search")
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		if memory.MatchesQuery(m, query) {
			result = append(result, m)
		}
	}

	metrics.RecordSearch(len(result))
	return result, nil
}

// GetRecent returns the limit most recent memories, unfiltered.
func (s *Store) GetRecent(ctx context.Context, userID string, limit int) ([]*memory.Memory, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	ids, err := s.client.ZRevRange(ctx, s.indexKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		metrics.RecordStorageError("get_recent")
		return nil, recallerrors.NewStorageError("memory.get_recent", err)
	}

	var result []*memory.Memory
	for _, id := range ids {
		m, err := s.fetch(ctx, userID, id, "memory.get_recent")
		if err != nil {
			return nil, err
		}
		if m != nil {
			result = append(result, m)
		}
	}
	return result, nil
}

// GetAll returns every memory for the user, no ordering guarantee.
func (s *Store) GetAll(ctx context.Context, userID string) ([]*memory.Memory, error) {
	fields, err := s.client.HGetAll(ctx, s.recordsKey(userID)).Result()
	if err != nil {
		metrics.RecordStorageError("get_all")
		return nil, recallerrors.NewStorageError("memory.get_all", err)
	}

	result := make([]*memory.Memory, 0, len(fields))
	for id, raw := range fields {
		var m memory.Memory
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			s.warnIntegrity(userID, id, "unreadable record")
			continue
		}
		result = append(result, &m)
	}
	return result, nil
}

// Ping verifies connectivity to Redis.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return recallerrors.NewStorageError("memory.ping", err)
	}
	return nil
}

// fetch loads one record. A missing or unreadable record behind a live
// index entry is skipped and reported as an integrity warning; the nil
// memory tells the caller to move on.
func (s *Store) fetch(ctx context.Context, userID, id, op string) (*memory.Memory, error) {
	raw, err := s.client.HGet(ctx, s.recordsKey(userID), id).Result()
	if err == redis.Nil {
		s.warnIntegrity(userID, id, "index entry with no record")
		return nil, nil
	}
	if err != nil {
		metrics.RecordStorageError("fetch")
		return nil, recallerrors.NewStorageError(op, err)
	}

	var m memory.Memory
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		s.warnIntegrity(userID, id, "unreadable record")
		return nil, nil
	}
	return &m, nil
}

func (s *Store) warnIntegrity(userID, id, reason string) {
	metrics.RecordIntegrityWarning()
	s.logger.Warn("memory integrity warning",
		"user_id", userID,
		"memory_id", id,
		"reason", reason,
	)
}

func (s *Store) recordsKey(userID string) string {
	return s.prefixed(fmt.Sprintf("user:%s:memories", userID))
}

func (s *Store) indexKey(userID string) string {
	return s.prefixed(fmt.Sprintf("user:%s:memories:index", userID))
}

func (s *Store) prefixed(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}
