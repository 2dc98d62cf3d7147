package strategy

import (
	"context"
	"fmt"
	"log"

	"cardsage/internal/eventbus"
	"cardsage/internal/stream"
	"cardsage/internal/vector"
)

// fallbackTopK is the result count for the broad, unfiltered lookup.
const fallbackTopK = 10

// Retrieval augments the persona prompt with vector-retrieved card
// documentation before streaming, then follows the standard path.
type Retrieval struct {
	deps Deps
}

// NewRetrieval is the factory for the retrieval-augmented strategy.
func NewRetrieval(deps Deps) (Strategy, error) {
	if deps.Embedder == nil || deps.Retriever == nil {
		return nil, fmt.Errorf("retrieval strategy requires an embedder and a retriever")
	}
	return &Retrieval{deps: deps}, nil
}

func (r *Retrieval) Name() string { return TokenRetrieval }

func (r *Retrieval) Generate(ctx context.Context, query string) <-chan stream.Frame {
	out := make(chan stream.Frame, 16)
	go func() {
		defer close(out)
		out <- stream.Start()
		out <- stream.StrategyName(r.Name())

		prompt := r.deps.SystemPrompt
		if block := r.buildContext(ctx, query); block != "" {
			prompt += "\n\nRelevant card documentation:\n\n" + block
		}

		streamCompletion(ctx, r.deps, prompt, out)
	}()
	return out
}

// buildContext runs classification and retrieval. Every failure in here
// degrades to an empty context; nothing is surfaced to the user.
func (r *Retrieval) buildContext(ctx context.Context, query string) string {
	card := detectCardContext(ctx, r.deps.Provider, query)

	vec, err := r.deps.Embedder.Embed(ctx, query)
	if err != nil {
		log.Printf("[retrieval] embedding failed: %v", err)
		return ""
	}

	if card != nil && card.Slug != "" {
		matches := r.targeted(ctx, vec, card.Slug, query)
		if len(matches) > 0 {
			r.publish(eventbus.TopicRetrievalTargeted, card.Slug)
			return formatContext(matches)
		}
		// Detected but empty: fall through to the broad lookup.
	}

	matches, err := r.deps.Retriever.Query(ctx, vec, fallbackTopK, nil, true)
	if err != nil {
		log.Printf("[retrieval] broad query failed: %v", err)
		return ""
	}
	if len(matches) == 0 {
		return ""
	}
	r.publish(eventbus.TopicRetrievalFallback, len(matches))
	return formatContext(dedupAndRank(matches))
}

// targeted issues one filtered top-1 query per category and returns the
// deduplicated, score-ranked union.
func (r *Retrieval) targeted(ctx context.Context, vec []float32, slug, query string) []vector.Match {
	var collected []vector.Match
	for _, category := range retrievalCategories(query) {
		matches, err := r.deps.Retriever.Query(ctx, vec, 1, &vector.Filter{
			Slug:     slug,
			Category: category,
		}, true)
		if err != nil {
			log.Printf("[retrieval] category %s query failed: %v", category, err)
			continue
		}
		collected = append(collected, matches...)
	}
	return dedupAndRank(collected)
}

func (r *Retrieval) publish(topic eventbus.Topic, payload any) {
	if r.deps.Bus != nil {
		r.deps.Bus.Publish(topic, payload)
	}
}
