// Package chat coordinates the per-message lifecycle: persist the user
// message, load memory, pick a strategy, relay its frame stream, and
// persist the assistant turn.
package chat

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cardsage/internal/config"
	"cardsage/internal/eventbus"
	"cardsage/internal/history"
	"cardsage/internal/llm"
	"cardsage/internal/strategy"
	"cardsage/internal/stream"
)

const titleTimeout = 15 * time.Second

// msgStrategyUnavailable is sent in-band when the requested strategy
// cannot be constructed.
const msgStrategyUnavailable = "The requested response strategy is not available."

// msgHistoryUnavailable is sent in-band when conversation memory cannot
// be loaded after the user message was already saved.
const msgHistoryUnavailable = "Your message was saved, but the conversation history could not be loaded. Please try again."

// Orchestrator drives the message-processing pipeline.
type Orchestrator struct {
	store     history.Store
	provider  llm.Provider
	embedder  llm.Embedder
	retriever strategy.Retriever
	registry  *strategy.Registry
	bus       *eventbus.Bus
	cfg       config.AgentConfig
}

// New creates an orchestrator. embedder and retriever may be nil when
// the retrieval strategy is not in use.
func New(
	store history.Store,
	provider llm.Provider,
	embedder llm.Embedder,
	retriever strategy.Retriever,
	registry *strategy.Registry,
	bus *eventbus.Bus,
	cfg config.AgentConfig,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		provider:  provider,
		embedder:  embedder,
		retriever: retriever,
		registry:  registry,
		bus:       bus,
		cfg:       cfg,
	}
}

// ProcessMessage runs the pipeline for one user message and returns the
// frame stream to relay to the caller. The returned channel is consumed
// exactly once and always terminates with a done frame.
//
// A failure to persist the user message is returned synchronously and
// nothing is streamed. Any later failure is delivered in-band so the
// transport response stays well-formed. The saved user message is never
// rolled back.
//
// Concurrent calls for the same conversation are not serialized;
// interleaved appends are an accepted race.
func (o *Orchestrator) ProcessMessage(ctx context.Context, conversationID, text, strategyKind string) (<-chan stream.Frame, error) {
	if strategyKind == "" {
		strategyKind = strategy.KindStandard
	}

	if _, err := o.store.AppendMessage(ctx, conversationID, history.RoleUser, text); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}
	o.publish(eventbus.TopicMessageReceived, conversationID)

	out := make(chan stream.Frame, 16)

	memory, err := o.store.Messages(ctx, conversationID)
	if err != nil {
		log.Printf("[chat] failed to load memory for %s: %v", conversationID, err)
		o.failStream(out, msgHistoryUnavailable)
		return out, nil
	}

	// First turn: request a title in the background. The main stream
	// never waits for it and never sees its errors.
	if len(memory) == 1 {
		go o.generateTitle(conversationID, text)
	}

	st, err := o.registry.Resolve(strategyKind, strategy.Deps{
		Provider:      o.provider,
		Embedder:      o.embedder,
		Retriever:     o.retriever,
		Memory:        memory,
		SystemPrompt:  o.cfg.SystemPrompt,
		MaxTokens:     o.cfg.MaxTokens,
		Temperature:   o.cfg.Temperature,
		StreamTimeout: time.Duration(o.cfg.StreamTimeoutSecs) * time.Second,
		Bus:           o.bus,
	})
	if err != nil {
		log.Printf("[chat] strategy %q unavailable: %v", strategyKind, err)
		o.failStream(out, msgStrategyUnavailable)
		return out, nil
	}

	o.publish(eventbus.TopicStreamStarted, conversationID)
	go o.relay(ctx, st, conversationID, text, out)
	return out, nil
}

// relay forwards every strategy frame unmodified while reconstructing
// the plain assistant text, then persists the assistant turn on clean
// completion. Text accumulated before a mid-stream failure is discarded.
func (o *Orchestrator) relay(ctx context.Context, st strategy.Strategy, conversationID, query string, out chan<- stream.Frame) {
	defer close(out)

	acc := stream.NewAccumulator(strategy.NameTokens()...)
	failed := false

	for f := range st.Generate(ctx, query) {
		acc.Add(f)
		if f.Kind == stream.KindError {
			failed = true
		}
		out <- f
	}

	if failed {
		o.publish(eventbus.TopicStreamError, conversationID)
		return
	}

	if text := acc.Text(); text != "" {
		// Persist even if the caller went away mid-stream.
		saveCtx := context.WithoutCancel(ctx)
		if _, err := o.store.AppendMessage(saveCtx, conversationID, history.RoleAI, text); err != nil {
			log.Printf("[chat] failed to save assistant message: %v", err)
		}
	}
	o.publish(eventbus.TopicStreamCompleted, conversationID)
}

// failStream emits the terminal error sequence and closes the channel.
func (o *Orchestrator) failStream(out chan stream.Frame, message string) {
	o.publish(eventbus.TopicError, message)
	go func() {
		defer close(out)
		out <- stream.Error(message)
		out <- stream.Done()
	}()
}

// generateTitle asks the model for a short conversation title. Detached
// from the request: errors are logged and dropped.
func (o *Orchestrator) generateTitle(conversationID, firstMessage string) {
	ctx, cancel := context.WithTimeout(context.Background(), titleTimeout)
	defer cancel()

	resp, err := o.provider.Chat(ctx, &llm.ChatRequest{
		Model: o.cfg.TitleModel,
		Messages: []llm.Message{{
			Role: "user",
			Content: "Generate a short title of 3 to 5 words for a conversation that starts with this message. " +
				"Reply with the title only, no quotes.\n\nMessage: " + firstMessage,
		}},
		Temperature: 0.3,
		MaxTokens:   24,
	})
	if err != nil {
		log.Printf("[chat] title generation failed for %s: %v", conversationID, err)
		return
	}

	title := strings.Trim(strings.TrimSpace(resp.Content), `"'`)
	if title == "" {
		return
	}

	if err := o.store.UpdateTitle(ctx, conversationID, title); err != nil {
		log.Printf("[chat] title update failed for %s: %v", conversationID, err)
		return
	}
	o.publish(eventbus.TopicTitleUpdated, conversationID)
}

func (o *Orchestrator) publish(topic eventbus.Topic, payload any) {
	if o.bus != nil {
		o.bus.Publish(topic, payload)
	}
}
