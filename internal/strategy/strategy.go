// Package strategy contains the pluggable response-generation
// strategies and the registry that maps strategy kinds to constructors.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cardsage/internal/eventbus"
	"cardsage/internal/history"
	"cardsage/internal/llm"
	"cardsage/internal/stream"
	"cardsage/internal/vector"
)

// Strategy kinds accepted by the registry.
const (
	KindStandard  = "standard"
	KindRetrieval = "retrieval"
)

// Strategy name tokens emitted on the wire.
const (
	TokenStandard  = "STANDARD_STRATEGY"
	TokenRetrieval = "RETRIEVAL_STRATEGY"
)

// NameTokens lists every strategy-name token, for consumers that filter
// control frames out of the data stream.
func NameTokens() []string {
	return []string{TokenStandard, TokenRetrieval}
}

// defaultStreamTimeout bounds the model-streaming leg of a request.
const defaultStreamTimeout = 30 * time.Second

// Strategy turns a user query plus conversation memory into a frame stream.
type Strategy interface {
	Name() string
	// Generate produces the full frame sequence for one query. The
	// channel is closed after the terminal done frame; errors are
	// delivered in-band as error frames.
	Generate(ctx context.Context, query string) <-chan stream.Frame
}

// Retriever is the nearest-neighbor lookup used by the retrieval strategy.
type Retriever interface {
	Query(ctx context.Context, vec []float32, topK int, filter *vector.Filter, withPayload bool) ([]vector.Match, error)
}

// Deps carries everything a strategy constructor may need. Memory is the
// ordered conversation history including the triggering user message.
type Deps struct {
	Provider      llm.Provider
	Embedder      llm.Embedder
	Retriever     Retriever
	Memory        []history.Message
	SystemPrompt  string
	MaxTokens     int
	Temperature   float64
	StreamTimeout time.Duration
	Bus           *eventbus.Bus
}

// Factory constructs a strategy instance from its dependencies.
type Factory func(deps Deps) (Strategy, error)

// Registry maps strategy kinds to factories. It is an open registry:
// new strategies register without touching the dispatch code.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with the built-in strategies.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindStandard, NewStandard)
	r.Register(KindRetrieval, NewRetrieval)
	return r
}

// Register adds a factory for a strategy kind, replacing any previous one.
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// Resolve constructs a strategy of the given kind.
func (r *Registry) Resolve(kind string, deps Deps) (Strategy, error) {
	r.mu.RLock()
	f, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown strategy kind: %s", kind)
	}
	return f(deps)
}

// Fixed user-facing messages per provider error category. Raw provider
// errors never reach the stream.
const (
	msgRateLimited  = "The assistant is handling too many requests right now. Please try again in a moment."
	msgUnauthorized = "The assistant is not configured with valid provider credentials."
	msgTimedOut     = "The request timed out while waiting for the model. Please try again."
	msgUnknown      = "Something went wrong while generating a response. Please try again."
)

// userMessageFor maps a provider error to its fixed user-facing message.
func userMessageFor(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return msgTimedOut
	}
	var llmErr *llm.LLMError
	if !errors.As(err, &llmErr) {
		return msgUnknown
	}
	switch llmErr.Type {
	case llm.ErrorRateLimit:
		return msgRateLimited
	case llm.ErrorAuth:
		return msgUnauthorized
	case llm.ErrorTimeout, llm.ErrorNetwork:
		return msgTimedOut
	default:
		return msgUnknown
	}
}

// memoryToMessages converts stored history into provider messages.
func memoryToMessages(memory []history.Message) []llm.Message {
	msgs := make([]llm.Message, 0, len(memory))
	for _, m := range memory {
		role := "user"
		if m.Role == history.RoleAI {
			role = "assistant"
		}
		msgs = append(msgs, llm.Message{Role: role, Content: m.Content})
	}
	return msgs
}

// streamCompletion replays memory against the provider under the stream
// deadline, emitting one data frame per token chunk and always a
// terminal done frame. Shared by both strategies.
func streamCompletion(ctx context.Context, deps Deps, systemPrompt string, out chan<- stream.Frame) {
	timeout := deps.StreamTimeout
	if timeout <= 0 {
		timeout = defaultStreamTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := &llm.ChatRequest{
		Messages:     memoryToMessages(deps.Memory),
		MaxTokens:    deps.MaxTokens,
		Temperature:  deps.Temperature,
		SystemPrompt: systemPrompt,
	}

	events, err := deps.Provider.StreamChat(ctx, req)
	if err != nil {
		emitError(deps.Bus, out, err)
		return
	}

	sawDone := false
	for evt := range events {
		if evt.Error != nil {
			emitError(deps.Bus, out, evt.Error)
			return
		}
		if evt.ContentDelta != "" {
			out <- stream.Data(evt.ContentDelta)
		}
		if evt.Done {
			sawDone = true
			break
		}
	}

	// A deadline that lapses after the provider already finished is
	// not a failure; only report the context when the stream ended
	// without a done event.
	if !sawDone && ctx.Err() != nil {
		emitError(deps.Bus, out, ctx.Err())
		return
	}

	out <- stream.Done()
}

func emitError(bus *eventbus.Bus, out chan<- stream.Frame, err error) {
	if bus != nil {
		bus.Publish(eventbus.TopicStreamError, err)
	}
	out <- stream.Error(userMessageFor(err))
	out <- stream.Done()
}
