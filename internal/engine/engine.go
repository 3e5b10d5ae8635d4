// Package engine orchestrates the per-request memory pipeline:
// classify the inbound utterance, extract content or a query, write
// and/or read the memory store, and assemble retrieved memories into
// the outgoing conversation payload.
package engine

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/harperclay/recollect/internal/extract"
	"github.com/harperclay/recollect/internal/intent"
	"github.com/harperclay/recollect/internal/memory"
	"github.com/harperclay/recollect/internal/observability"
	recallerrors "github.com/harperclay/recollect/pkg/errors"
	"github.com/harperclay/recollect/pkg/types"
)

// DefaultSearchLimit caps how many memories are injected into a chat turn.
const DefaultSearchLimit = 5

// chatContext tags memories created through the chat path.
const chatContext = "chat"

// Engine runs the memory pipeline for one inbound request. It is
// stateless between invocations; the store is the only shared resource.
type Engine struct {
	classifier  intent.Classifier
	store       memory.Store
	logger      *slog.Logger
	searchLimit int
	tracer      trace.Tracer
}

// Option configures the engine.
type Option func(*Engine)

// WithSearchLimit overrides the number of memories retrieved per turn.
func WithSearchLimit(limit int) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.searchLimit = limit
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine over the given classifier and store.
func New(classifier intent.Classifier, store memory.Store, opts ...Option) *Engine {
	e := &Engine{
		classifier:  classifier,
		store:       store,
		logger:      slog.Default(),
		searchLimit: DefaultSearchLimit,
		tracer:      otel.Tracer(observability.TracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of one pipeline run.
type Result struct {
	// Messages is the conversation with the final message rewritten to
	// include retrieved memory context, ready for the completion call.
	Messages []types.ChatMessage
	// Intent is the raw classification; both flags may be set.
	Intent intent.Intent
	// Stored is the memory created this turn, if any.
	Stored *memory.Memory
	// Retrieved holds the memories injected into the context, if any.
	Retrieved []*memory.Memory
}

// Process runs the pipeline for one inbound conversation. Storage
// takes priority; retrieval is evaluated independently, so a single
// utterance can both store and retrieve. Store failures propagate
// unchanged in meaning; no retries.
func (e *Engine) Process(ctx context.Context, userID string, messages []types.ChatMessage) (*Result, error) {
	if len(messages) == 0 {
		return nil, recallerrors.NewMalformedInputError("engine.process", "messages is required")
	}

	last := messages[len(messages)-1]
	detected := e.classifier.Classify(last.Content)

	ctx, span := e.tracer.Start(ctx, "engine.process",
		trace.WithAttributes(
			attribute.Bool("memory.wants_store", detected.WantsStore),
			attribute.Bool("memory.wants_retrieve", detected.WantsRetrieve),
		),
	)
	defer span.End()

	result := &Result{Intent: detected}

	if detected.WantsStore {
		content := extract.StoreContent(last.Content)
		stored, err := e.store.Store(ctx, userID, memory.Draft{
			Content:  content,
			Category: extract.DetectCategory(content),
			Tags:     extract.Tags(content),
			Context:  chatContext,
		})
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		result.Stored = stored
		e.logger.Info("memory stored",
			"user_id", userID,
			"memory_id", stored.ID,
			"category", stored.Category,
		)
	}

	if detected.WantsRetrieve {
		query := extract.SearchQuery(last.Content)
		retrieved, err := e.store.Search(ctx, userID, query, e.searchLimit)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		result.Retrieved = retrieved
		span.SetAttributes(attribute.Int("memory.retrieved", len(retrieved)))
	}

	rewritten := types.ChatMessage{
		Role:    last.Role,
		Content: AssembleContext(last.Content, result.Retrieved),
	}
	result.Messages = append(result.Messages, messages[:len(messages)-1]...)
	result.Messages = append(result.Messages, rewritten)

	return result, nil
}
