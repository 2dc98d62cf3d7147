package strategy

import (
	"context"
	"testing"
	"time"

	"cardsage/internal/history"
	"cardsage/internal/llm"
	"cardsage/internal/stream"
)

func TestStandardHappyPath(t *testing.T) {
	provider := &mockProvider{streamChunks: []string{"Hello", " there", "!"}}
	s, _ := NewStandard(Deps{Provider: provider, SystemPrompt: "persona"})

	frames := collect(s.Generate(context.Background(), "Hi"))

	if frames[0].Kind != stream.KindStart {
		t.Fatalf("first frame must be start, got %v", frames[0])
	}
	if frames[1].Kind != stream.KindStrategy || frames[1].Payload != TokenStandard {
		t.Fatalf("second frame must name the strategy, got %v", frames[1])
	}
	if last := frames[len(frames)-1]; last.Kind != stream.KindDone {
		t.Fatalf("stream must end in done, got %v", last)
	}

	acc := stream.NewAccumulator(NameTokens()...)
	for _, f := range frames {
		acc.Add(f)
	}
	if acc.Text() != "Hello there!" {
		t.Fatalf("expected 'Hello there!', got %q", acc.Text())
	}
}

func TestStandardExactlyOneDone(t *testing.T) {
	provider := &mockProvider{streamChunks: []string{"a"}}
	s, _ := NewStandard(Deps{Provider: provider})

	frames := collect(s.Generate(context.Background(), "q"))

	dones := 0
	for _, f := range frames {
		if f.Kind == stream.KindDone {
			dones++
		}
	}
	if dones != 1 {
		t.Fatalf("expected exactly one done frame, got %d", dones)
	}
}

func TestStandardRateLimitMidStream(t *testing.T) {
	provider := &mockProvider{
		streamChunks: []string{"partial "},
		streamErr:    &llm.LLMError{Type: llm.ErrorRateLimit, Message: "429"},
	}
	s, _ := NewStandard(Deps{Provider: provider})

	frames := collect(s.Generate(context.Background(), "q"))

	n := len(frames)
	if n < 2 {
		t.Fatalf("too few frames: %v", frames)
	}
	if frames[n-1].Kind != stream.KindDone {
		t.Fatalf("stream must end in done, got %v", frames[n-1])
	}
	errFrame := frames[n-2]
	if errFrame.Kind != stream.KindError {
		t.Fatalf("error frame must immediately precede done, got %v", errFrame)
	}
	if errFrame.Payload != msgRateLimited {
		t.Fatalf("expected fixed rate-limit message, got %q", errFrame.Payload)
	}

	errs := 0
	for _, f := range frames {
		if f.Kind == stream.KindError {
			errs++
		}
	}
	if errs != 1 {
		t.Fatalf("expected at most one error frame, got %d", errs)
	}
}

func TestStandardTimeout(t *testing.T) {
	provider := &mockProvider{
		streamChunks: []string{"a", "b", "c"},
		streamDelay:  50 * time.Millisecond,
	}
	s, _ := NewStandard(Deps{Provider: provider, StreamTimeout: 20 * time.Millisecond})

	frames := collect(s.Generate(context.Background(), "q"))

	n := len(frames)
	if frames[n-1].Kind != stream.KindDone || frames[n-2].Kind != stream.KindError {
		t.Fatalf("expected error then done, got %v", frames)
	}
	if frames[n-2].Payload != msgTimedOut {
		t.Fatalf("expected timeout message, got %q", frames[n-2].Payload)
	}
}

// cancelBeforeDoneProvider streams a full reply, cancels the caller's
// context, then delivers the done event.
type cancelBeforeDoneProvider struct {
	mockProvider
	cancel context.CancelFunc
}

func (p *cancelBeforeDoneProvider) StreamChat(ctx context.Context, req *llm.ChatRequest) (<-chan llm.StreamEvent, error) {
	ch := make(chan llm.StreamEvent)
	go func() {
		defer close(ch)
		ch <- llm.StreamEvent{ContentDelta: "complete answer"}
		p.cancel()
		ch <- llm.StreamEvent{Done: true}
	}()
	return ch, nil
}

func TestStandardDoneWinsOverCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	provider := &cancelBeforeDoneProvider{cancel: cancel}
	s, _ := NewStandard(Deps{Provider: provider})

	frames := collect(s.Generate(ctx, "q"))

	for _, f := range frames {
		if f.Kind == stream.KindError {
			t.Fatalf("a fully-streamed completion must not error, got %v", f)
		}
	}
	if frames[len(frames)-1].Kind != stream.KindDone {
		t.Fatal("stream must end in done")
	}

	acc := stream.NewAccumulator(NameTokens()...)
	for _, f := range frames {
		acc.Add(f)
	}
	if acc.Text() != "complete answer" {
		t.Fatalf("expected the full reply, got %q", acc.Text())
	}
}

func TestStandardReplaysMemory(t *testing.T) {
	provider := &mockProvider{streamChunks: []string{"ok"}}
	memory := []history.Message{
		{Role: history.RoleUser, Content: "What cards do you offer?"},
		{Role: history.RoleAI, Content: "Several."},
		{Role: history.RoleUser, Content: "Tell me more"},
	}
	s, _ := NewStandard(Deps{Provider: provider, Memory: memory, SystemPrompt: "persona"})

	collect(s.Generate(context.Background(), "Tell me more"))

	req := provider.lastStreamReq()
	if req == nil {
		t.Fatal("provider never called")
	}
	if req.SystemPrompt != "persona" {
		t.Fatalf("expected persona prompt, got %q", req.SystemPrompt)
	}
	if len(req.Messages) != 3 {
		t.Fatalf("expected 3 replayed messages, got %d", len(req.Messages))
	}
	if req.Messages[1].Role != "assistant" {
		t.Fatalf("ai role must map to assistant, got %q", req.Messages[1].Role)
	}
	if req.Messages[2].Content != "Tell me more" {
		t.Fatal("memory must already include the triggering message")
	}
}

func TestUserMessageMapping(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&llm.LLMError{Type: llm.ErrorRateLimit}, msgRateLimited},
		{&llm.LLMError{Type: llm.ErrorAuth}, msgUnauthorized},
		{&llm.LLMError{Type: llm.ErrorTimeout}, msgTimedOut},
		{&llm.LLMError{Type: llm.ErrorNetwork}, msgTimedOut},
		{&llm.LLMError{Type: llm.ErrorServerError}, msgUnknown},
		{context.DeadlineExceeded, msgTimedOut},
	}
	for _, tt := range tests {
		if got := userMessageFor(tt.err); got != tt.want {
			t.Fatalf("userMessageFor(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
