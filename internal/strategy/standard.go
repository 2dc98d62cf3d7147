package strategy

import (
	"context"

	"cardsage/internal/stream"
)

// Standard streams a completion built from the persona prompt and the
// full conversation memory, with no retrieval.
type Standard struct {
	deps Deps
}

// NewStandard is the factory for the standard strategy.
func NewStandard(deps Deps) (Strategy, error) {
	return &Standard{deps: deps}, nil
}

func (s *Standard) Name() string { return TokenStandard }

func (s *Standard) Generate(ctx context.Context, query string) <-chan stream.Frame {
	out := make(chan stream.Frame, 16)
	go func() {
		defer close(out)
		out <- stream.Start()
		out <- stream.StrategyName(s.Name())
		streamCompletion(ctx, s.deps, s.deps.SystemPrompt, out)
	}()
	return out
}
