package llm

import (
	"context"
	"errors"
	"log"

	"cardsage/internal/eventbus"
)

// FallbackProvider runs a chain of providers. Requests start at the
// head of the chain; failures that another backend could plausibly
// serve (rate limits, outages, network trouble) move down the chain,
// and each switch is announced on the event bus. Credential and
// invalid-input failures stop the chain immediately since every
// backend rejects those alike.
type FallbackProvider struct {
	chain []Provider
	bus   *eventbus.Bus
}

// NewFallbackProvider builds a chain headed by the first provider.
// bus may be nil when nothing observes provider switches.
func NewFallbackProvider(bus *eventbus.Bus, chain ...Provider) *FallbackProvider {
	return &FallbackProvider{chain: chain, bus: bus}
}

func (f *FallbackProvider) Name() string {
	if len(f.chain) == 0 {
		return "fallback"
	}
	return f.chain[0].Name() + "+fallback"
}

func (f *FallbackProvider) DefaultModel() string {
	if len(f.chain) == 0 {
		return ""
	}
	return f.chain[0].DefaultModel()
}

func (f *FallbackProvider) Chat(ctx context.Context, req *ChatRequest) (*LLMResponse, error) {
	var lastErr error
	for i, p := range f.chain {
		resp, err := p.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !shouldFailOver(err) {
			return nil, err
		}
		lastErr = err
		f.announceSwitch(i, p, err)
	}
	return nil, lastErr
}

func (f *FallbackProvider) StreamChat(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error) {
	var lastErr error
	for i, p := range f.chain {
		events, err := p.StreamChat(ctx, req)
		if err == nil {
			return events, nil
		}
		if !shouldFailOver(err) {
			return nil, err
		}
		lastErr = err
		f.announceSwitch(i, p, err)
	}
	return nil, lastErr
}

// announceSwitch logs the failure and, when a later provider exists,
// publishes the switch so operators can see degraded service.
func (f *FallbackProvider) announceSwitch(i int, failed Provider, err error) {
	log.Printf("[llm] provider %s failed: %v", failed.Name(), err)
	if i+1 >= len(f.chain) {
		return
	}
	next := f.chain[i+1].Name()
	log.Printf("[llm] switching to provider %s", next)
	if f.bus != nil {
		f.bus.Publish(eventbus.TopicProviderFallback, next)
	}
}

// shouldFailOver reports whether a later provider in the chain might
// serve a request that this one rejected. Unclassified errors fail
// over: a different backend is the only recovery we have.
func shouldFailOver(err error) bool {
	var llmErr *LLMError
	if !errors.As(err, &llmErr) {
		return true
	}
	switch llmErr.Type {
	case ErrorAuth, ErrorInvalidInput:
		return false
	default:
		return true
	}
}
