package strategy

import (
	"context"
	"sync"
	"time"

	"cardsage/internal/llm"
	"cardsage/internal/stream"
	"cardsage/internal/vector"
)

// mockProvider scripts Chat replies and StreamChat chunk sequences.
type mockProvider struct {
	mu           sync.Mutex
	chatResp     string
	chatErr      error
	chatReqs     []*llm.ChatRequest
	streamChunks []string
	streamErr    error // delivered after the chunks, as a mid-stream failure
	streamDelay  time.Duration
	streamReqs   []*llm.ChatRequest
}

func (m *mockProvider) Name() string         { return "mock" }
func (m *mockProvider) DefaultModel() string { return "mock-model" }

func (m *mockProvider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.LLMResponse, error) {
	m.mu.Lock()
	m.chatReqs = append(m.chatReqs, req)
	m.mu.Unlock()
	if m.chatErr != nil {
		return nil, m.chatErr
	}
	return &llm.LLMResponse{Content: m.chatResp}, nil
}

func (m *mockProvider) StreamChat(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	m.mu.Lock()
	m.streamReqs = append(m.streamReqs, req)
	m.mu.Unlock()

	ch := make(chan llm.StreamEvent)
	go func() {
		defer close(ch)
		for _, chunk := range m.streamChunks {
			if m.streamDelay > 0 {
				select {
				case <-time.After(m.streamDelay):
				case <-ctx.Done():
					ch <- llm.StreamEvent{Error: ctx.Err(), Done: true}
					return
				}
			}
			ch <- llm.StreamEvent{ContentDelta: chunk}
		}
		if m.streamErr != nil {
			ch <- llm.StreamEvent{Error: m.streamErr, Done: true}
			return
		}
		ch <- llm.StreamEvent{Done: true}
	}()
	return ch, nil
}

func (m *mockProvider) lastStreamReq() *llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.streamReqs) == 0 {
		return nil
	}
	return m.streamReqs[len(m.streamReqs)-1]
}

// mockEmbedder returns a fixed vector.
type mockEmbedder struct {
	vec []float32
	err error
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.vec != nil {
		return m.vec, nil
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// retrieverCall records one Query invocation.
type retrieverCall struct {
	topK   int
	filter *vector.Filter
}

// mockRetriever serves scripted matches keyed by category ("" for the
// unfiltered broad query).
type mockRetriever struct {
	mu         sync.Mutex
	byCategory map[string][]vector.Match
	err        error
	calls      []retrieverCall
}

func (m *mockRetriever) Query(ctx context.Context, vec []float32, topK int, filter *vector.Filter, withPayload bool) ([]vector.Match, error) {
	m.mu.Lock()
	m.calls = append(m.calls, retrieverCall{topK: topK, filter: filter})
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	key := ""
	if filter != nil {
		key = filter.Category
	}
	return m.byCategory[key], nil
}

func (m *mockRetriever) recordedCalls() []retrieverCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]retrieverCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// collect drains a frame channel into a slice.
func collect(ch <-chan stream.Frame) []stream.Frame {
	var frames []stream.Frame
	for f := range ch {
		frames = append(frames, f)
	}
	return frames
}
