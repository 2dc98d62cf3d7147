// Package stream defines the frame protocol spoken between strategies,
// the orchestrator and the transport layer. Generation logic produces
// typed frames; encoding to the wire format lives in sse.go.
package stream

// Control markers on the wire.
const (
	MarkerStart = "[START]"
	MarkerError = "[ERROR]"
	MarkerDone  = "[DONE]"
)

// Kind identifies the type of a frame.
type Kind int

const (
	// KindStart opens a response stream.
	KindStart Kind = iota
	// KindStrategy names the strategy producing the stream.
	KindStrategy
	// KindData carries one increment of plain assistant text.
	KindData
	// KindError carries a user-facing error message. It replaces normal
	// completion and is always followed by a done frame.
	KindError
	// KindDone terminates the stream.
	KindDone
)

// Frame is one unit of the streaming protocol.
type Frame struct {
	Kind    Kind
	Payload string
}

func Start() Frame { return Frame{Kind: KindStart} }

func StrategyName(name string) Frame { return Frame{Kind: KindStrategy, Payload: name} }

func Data(text string) Frame { return Frame{Kind: KindData, Payload: text} }

func Error(message string) Frame { return Frame{Kind: KindError, Payload: message} }

func Done() Frame { return Frame{Kind: KindDone} }
